// Package reportdelivery manages delivery layer of account history and statements.
package reportdelivery

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/internal/middleware"
	"github.com/go-petr/pet-ledger/internal/reportservice"
	"github.com/go-petr/pet-ledger/pkg/errorspkg"
	"github.com/go-petr/pet-ledger/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// Service provides service layer interface needed by report delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package reportdelivery
type Service interface {
	History(ctx context.Context, owner string, p reportservice.HistoryParams) ([]domain.Movement, error)
	MonthlyStatement(ctx context.Context, owner string, year int, month time.Month) (domain.MonthlyStatement, error)
}

// Handler facilitates report delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns report handler.
func NewHandler(rs Service) *Handler {
	return &Handler{service: rs}
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

func (h *Handler) fail(gctx *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidFilter):
		gctx.JSON(http.StatusBadRequest, web.Error(err))
	case err == domain.ErrAccountNotFound:
		gctx.JSON(http.StatusNotFound, web.Error(err))
	default:
		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))
	}
}

type historyRequest struct {
	Kind      string `form:"kind"`
	StartDate string `form:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate   string `form:"end_date" binding:"omitempty,datetime=2006-01-02"`
	Ordering  string `form:"ordering" binding:"omitempty,oneof=created_at -created_at amount -amount"`
	PageID    int32  `form:"page_id" binding:"required,min=1"`
	PageSize  int32  `form:"page_size" binding:"required,min=1,max=100"`
}

type historyData struct {
	Movements []domain.Movement `json:"movements"`
}

func (h *Handler) history(gctx *gin.Context, owner string) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req historyRequest
	if err := gctx.ShouldBindQuery(&req); err != nil {
		badRequest(gctx, l, err)
		return
	}

	movements, err := h.service.History(ctx, owner, reportservice.HistoryParams{
		Kind:      req.Kind,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Ordering:  req.Ordering,
		PageID:    req.PageID,
		PageSize:  req.PageSize,
	})
	if err != nil {
		l.Info().Err(err).Str("owner", owner).Send()
		h.fail(gctx, err)

		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: historyData{movements}})
}

// History handles http request to list the caller's movements.
func (h *Handler) History(gctx *gin.Context) {
	h.history(gctx, middleware.Actor(gctx).Username)
}

type userRequest struct {
	Username string `uri:"username" binding:"required,alphanum"`
}

// UserHistory handles admin http request to list the movements of any user.
func (h *Handler) UserHistory(gctx *gin.Context) {
	var req userRequest
	if err := gctx.ShouldBindUri(&req); err != nil {
		badRequest(gctx, zerolog.Ctx(gctx.Request.Context()), err)
		return
	}

	h.history(gctx, req.Username)
}

type statementRequest struct {
	Year  int `uri:"year" binding:"required,min=1970,max=9999"`
	Month int `uri:"month" binding:"required,min=1,max=12"`
}

type statementData struct {
	Statement domain.MonthlyStatement `json:"statement"`
}

// MonthlyStatement handles http request to get the caller's statement for a month.
func (h *Handler) MonthlyStatement(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req statementRequest
	if err := gctx.ShouldBindUri(&req); err != nil {
		badRequest(gctx, l, err)
		return
	}

	st, err := h.service.MonthlyStatement(ctx, middleware.Actor(gctx).Username, req.Year, time.Month(req.Month))
	if err != nil {
		h.fail(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: statementData{st}})
}
