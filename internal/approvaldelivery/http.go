// Package approvaldelivery manages delivery layer of the approval workflow.
package approvaldelivery

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

// Service provides service layer interface needed by approval delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package approvaldelivery
type Service interface {
	Decide(ctx context.Context, actor domain.Actor, movementID int64, decision domain.Decision, reason string,
	) (domain.Outcome, error)
	ListPending(ctx context.Context, actor domain.Actor, pageSize, pageID int32) ([]domain.Movement, error)
}

// Handler facilitates approval delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns approval handler.
func NewHandler(as Service) *Handler {
	return &Handler{service: as}
}

func badRequest(gctx *gin.Context, l *zerolog.Logger, err error) {
	l.Info().Err(err).Send()

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		gctx.JSON(http.StatusBadRequest, web.Response{Error: web.GetErrorMsg(ve)})
		return
	}

	gctx.JSON(http.StatusBadRequest, web.Error(err))
}

type listPendingRequest struct {
	PageID   int32 `form:"page_id" binding:"required,min=1"`
	PageSize int32 `form:"page_size" binding:"required,min=1,max=100"`
}

type listData struct {
	Movements []domain.Movement `json:"movements"`
}

// ListPending handles http request to list movements awaiting a decision.
func (h *Handler) ListPending(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req listPendingRequest
	if err := gctx.ShouldBindQuery(&req); err != nil {
		badRequest(gctx, l, err)
		return
	}

	movements, err := h.service.ListPending(ctx, middleware.Actor(gctx), req.PageSize, req.PageID)
	if err != nil {
		if err == domain.ErrNotPrivileged {
			gctx.JSON(http.StatusForbidden, web.Error(err))
			return
		}

		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: listData{movements}})
}

type decideURI struct {
	ID int64 `uri:"id" binding:"required,min=1"`
}

type decideRequest struct {
	Decision string `json:"decision" binding:"required,oneof=Approved Rejected"`
	Reason   string `json:"rejection_reason" binding:"max=500"`
}

type outcomeData struct {
	Outcome domain.Outcome `json:"outcome"`
}

// Decide handles http request to approve or reject a pending movement.
func (h *Handler) Decide(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var uri decideURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		badRequest(gctx, l, err)
		return
	}

	var req decideRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		badRequest(gctx, l, err)
		return
	}

	out, err := h.service.Decide(ctx, middleware.Actor(gctx), uri.ID, domain.Decision(req.Decision), req.Reason)
	if err != nil {
		switch err {
		case domain.ErrMissingReason, domain.ErrInvalidDecision, domain.ErrInsufficientFunds,
			domain.ErrBalanceLimitExceeded:
			gctx.JSON(http.StatusBadRequest, web.Error(err))
			return
		case domain.ErrNotPrivileged:
			gctx.JSON(http.StatusForbidden, web.Error(err))
			return
		case domain.ErrMovementNotFound, domain.ErrAccountNotFound:
			gctx.JSON(http.StatusNotFound, web.Error(err))
			return
		case domain.ErrNotPending, domain.ErrConcurrencyConflict:
			gctx.JSON(http.StatusConflict, web.Error(err))
			return
		}

		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: outcomeData{out}})
}
