// Package ledgerdelivery manages delivery layer of movement requests and transfers.
package ledgerdelivery

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/internal/middleware"
	"github.com/go-petr/pet-ledger/pkg/errorspkg"
	"github.com/go-petr/pet-ledger/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// Service provides service layer interface needed by ledger delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package ledgerdelivery
type Service interface {
	RequestDeposit(ctx context.Context, owner, amount string) (domain.Movement, error)
	RequestWithdraw(ctx context.Context, owner, amount string) (domain.Movement, error)
	RequestDailyWithdraw(ctx context.Context, owner, amount string) (domain.Movement, error)
	ExecuteTransfer(ctx context.Context, owner string, recipientAccountID int64, amount string,
	) (domain.TransferResult, error)
}

// Handler facilitates ledger delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns ledger handler.
func NewHandler(ls Service) *Handler {
	return &Handler{service: ls}
}

func bind(gctx *gin.Context, req any) bool {
	err := gctx.ShouldBindJSON(req)
	if err == nil {
		return true
	}

	zerolog.Ctx(gctx.Request.Context()).Info().Err(err).Send()

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		gctx.JSON(http.StatusBadRequest, web.Response{Error: web.GetErrorMsg(ve)})
		return false
	}

	gctx.JSON(http.StatusBadRequest, web.Error(err))

	return false
}

func fail(gctx *gin.Context, err error) {
	switch err {
	case domain.ErrInvalidAmount, domain.ErrInsufficientFunds, domain.ErrBalanceLimitExceeded,
		domain.ErrSelfTransfer, domain.ErrDailyLimitExceeded:
		gctx.JSON(http.StatusBadRequest, web.Error(err))
		return
	case domain.ErrRecipientNotFound, domain.ErrAccountNotFound:
		gctx.JSON(http.StatusNotFound, web.Error(err))
		return
	case domain.ErrConcurrencyConflict:
		gctx.JSON(http.StatusConflict, web.Error(err))
		return
	}

	gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))
}

type movementRequest struct {
	Amount string `json:"amount" binding:"required,amount"`
}

type movementData struct {
	Movement domain.Movement `json:"movement"`
}

type requestFunc func(ctx context.Context, owner, amount string) (domain.Movement, error)

func (h *Handler) request(gctx *gin.Context, fn requestFunc) {
	var req movementRequest
	if !bind(gctx, &req) {
		return
	}

	m, err := fn(gctx.Request.Context(), middleware.Actor(gctx).Username, req.Amount)
	if err != nil {
		fail(gctx, err)
		return
	}

	gctx.JSON(http.StatusCreated, web.Response{Data: movementData{m}})
}

// Deposit handles http request to request a deposit.
func (h *Handler) Deposit(gctx *gin.Context) {
	h.request(gctx, h.service.RequestDeposit)
}

// Withdraw handles http request to request a withdrawal.
func (h *Handler) Withdraw(gctx *gin.Context) {
	h.request(gctx, h.service.RequestWithdraw)
}

// LimitedWithdraw handles http request to request a withdrawal within the daily limit.
func (h *Handler) LimitedWithdraw(gctx *gin.Context) {
	h.request(gctx, h.service.RequestDailyWithdraw)
}

type transferRequest struct {
	RecipientAccountID int64  `json:"recipient_account_id" binding:"required,min=1"`
	Amount             string `json:"amount" binding:"required,amount"`
}

type transferData struct {
	Movement domain.Movement `json:"movement"`
	Account  domain.Account  `json:"account"`
}

// Transfer handles http request to transfer money to another account.
func (h *Handler) Transfer(gctx *gin.Context) {
	var req transferRequest
	if !bind(gctx, &req) {
		return
	}

	result, err := h.service.ExecuteTransfer(gctx.Request.Context(), middleware.Actor(gctx).Username,
		req.RecipientAccountID, req.Amount)
	if err != nil {
		fail(gctx, err)
		return
	}

	// The recipient account stays private.
	gctx.JSON(http.StatusCreated, web.Response{Data: transferData{
		Movement: result.Movement,
		Account:  result.SenderAccount,
	}})
}
