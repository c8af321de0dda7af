// Package userdelivery manages delivery layer of users.
package userdelivery

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/errorspkg"
	"github.com/go-petr/pet-ledger/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// Service provides service layer interface needed by user delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package userdelivery
type Service interface {
	Create(ctx context.Context, username, password, fullname, email string) (domain.UserWihtoutPassword, error)
	CheckPassword(ctx context.Context, username, password string) (domain.UserWihtoutPassword, error)
}

// SessionMaker facilitates session creation.
//
//go:generate mockgen -source http.go -destination http_mock.go -package userdelivery
type SessionMaker interface {
	Create(ctx context.Context, arg domain.CreateSessionParams) (string, time.Time, domain.Session, error)
}

// Handler registers account holders and opens their sessions.
type Handler struct {
	service      Service
	sessionMaker SessionMaker
}

// NewHandler returns user handler.
func NewHandler(us Service, sm SessionMaker) *Handler {
	return &Handler{
		service:      us,
		sessionMaker: sm,
	}
}

type userData struct {
	User domain.UserWihtoutPassword `json:"user,omitempty"`
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
	case domain.ErrUsernameAlreadyExists, domain.ErrEmailALreadyExists, domain.ErrAccountAlreadyExists:
		gctx.JSON(http.StatusConflict, web.Error(err))
		return
	case domain.ErrUserNotFound:
		gctx.JSON(http.StatusNotFound, web.Error(err))
		return
	case domain.ErrWrongPassword:
		gctx.JSON(http.StatusUnauthorized, web.Error(err))
		return
	}

	gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))
}

// openSession issues the token pair for the user. The role is embedded in the
// access token so admin routes can be authorized without a user lookup.
func (h *Handler) openSession(gctx *gin.Context, user domain.UserWihtoutPassword, status int) {
	ctx := gctx.Request.Context()

	accessToken, accessTokenExpiresAt, session, err := h.sessionMaker.Create(ctx, domain.CreateSessionParams{
		Username:  user.Username,
		Role:      user.Role,
		UserAgent: gctx.Request.UserAgent(),
		ClientIP:  gctx.ClientIP(),
	})
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("username", user.Username).Send()
		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(status, web.Response{
		AccessToken:           accessToken,
		AccessTokenExpiresAt:  accessTokenExpiresAt,
		RefreshToken:          session.RefreshToken,
		RefreshTokenExpiresAt: session.ExpiresAt,
		Data:                  userData{User: user},
	})
}

type createRequest struct {
	Username string `json:"username" binding:"required,alphanum"`
	Password string `json:"password" binding:"required,min=6"`
	FullName string `json:"fullname" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
}

// Create registers an account holder with a zero balance account and opens a session.
func (h *Handler) Create(gctx *gin.Context) {
	var req createRequest
	if !bind(gctx, &req) {
		return
	}

	holder, err := h.service.Create(gctx.Request.Context(), req.Username, req.Password, req.FullName, req.Email)
	if err != nil {
		fail(gctx, err)
		return
	}

	h.openSession(gctx, holder, http.StatusCreated)
}

type loginRequest struct {
	Username string `json:"username" binding:"required,alphanum"`
	Password string `json:"password" binding:"required,min=6"`
}

// Login checks the credentials and opens a session carrying the user's role.
func (h *Handler) Login(gctx *gin.Context) {
	var req loginRequest
	if !bind(gctx, &req) {
		return
	}

	holder, err := h.service.CheckPassword(gctx.Request.Context(), req.Username, req.Password)
	if err != nil {
		fail(gctx, err)
		return
	}

	h.openSession(gctx, holder, http.StatusOK)
}
