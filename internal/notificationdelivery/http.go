// Package notificationdelivery manages delivery layer of in-app notifications.
package notificationdelivery

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

// Service provides service layer interface needed by notification delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package notificationdelivery
type Service interface {
	List(ctx context.Context, owner string, pageSize, pageID int32) ([]domain.Notification, error)
	MarkRead(ctx context.Context, owner string, id int64) (domain.Notification, error)
}

// Handler facilitates notification delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns notification handler.
func NewHandler(ns Service) *Handler {
	return &Handler{service: ns}
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

type listRequest struct {
	PageID   int32 `form:"page_id" binding:"required,min=1"`
	PageSize int32 `form:"page_size" binding:"required,min=1,max=100"`
}

type listData struct {
	Notifications []domain.Notification `json:"notifications"`
}

// List handles http request to list the caller's notifications.
func (h *Handler) List(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req listRequest
	if err := gctx.ShouldBindQuery(&req); err != nil {
		badRequest(gctx, l, err)
		return
	}

	items, err := h.service.List(ctx, middleware.Actor(gctx).Username, req.PageSize, req.PageID)
	if err != nil {
		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: listData{items}})
}

type markReadRequest struct {
	ID int64 `uri:"id" binding:"required,min=1"`
}

type data struct {
	Notification domain.Notification `json:"notification"`
}

// MarkRead handles http request to mark the caller's notification as read.
func (h *Handler) MarkRead(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req markReadRequest
	if err := gctx.ShouldBindUri(&req); err != nil {
		badRequest(gctx, l, err)
		return
	}

	n, err := h.service.MarkRead(ctx, middleware.Actor(gctx).Username, req.ID)
	if err != nil {
		switch err {
		case domain.ErrNotificationNotFound:
			gctx.JSON(http.StatusNotFound, web.Error(err))
			return
		case domain.ErrNotificationOwnerMismatch:
			gctx.JSON(http.StatusForbidden, web.Error(err))
			return
		}

		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: data{n}})
}
