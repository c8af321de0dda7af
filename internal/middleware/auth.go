package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/tokenpkg"
	"github.com/go-petr/pet-ledger/pkg/web"
)

const (
	// AuthHeaderKey is the header holding the access token.
	AuthHeaderKey = "authorization"
	// AuthTypeBearer is the only supported authorization type.
	AuthTypeBearer = "bearer"
	// AuthPayloadKey is the gin context key of the verified *tokenpkg.Payload.
	AuthPayloadKey = "authorization_payload"
)

var (
	// ErrAuthHeaderNotFound indicates a request without authorization header.
	ErrAuthHeaderNotFound = errors.New("authorization header is not provided")
	// ErrBadAuthHeaderFormat indicates a header that is not "<type> <token>".
	ErrBadAuthHeaderFormat = errors.New("invalid authorization header format")
	// ErrUnsupportedAuthType indicates a type other than bearer.
	ErrUnsupportedAuthType = errors.New("unsupported authorization type")
)

// AddAuthorization sets the authorization header with a new token for the user.
func AddAuthorization(r *http.Request, maker tokenpkg.Maker, authType, username string, duration time.Duration) error {
	return AddRoleAuthorization(r, maker, authType, username, domain.RoleUser, duration)
}

// AddRoleAuthorization is AddAuthorization for a user with the given role.
func AddRoleAuthorization(r *http.Request, maker tokenpkg.Maker, authType, username string, role domain.Role,
	duration time.Duration,
) error {
	token, _, err := maker.CreateToken(username, string(role), duration)
	if err != nil {
		return err
	}

	r.Header.Set(AuthHeaderKey, fmt.Sprintf("%s %s", authType, token))

	return nil
}

// AuthMiddleware verifies the bearer access token and stores its payload under AuthPayloadKey.
func AuthMiddleware(maker tokenpkg.Maker) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		authHeader := gctx.GetHeader(AuthHeaderKey)
		if len(authHeader) == 0 {
			gctx.AbortWithStatusJSON(http.StatusUnauthorized, web.Error(ErrAuthHeaderNotFound))
			return
		}

		fields := strings.Fields(authHeader)
		if len(fields) < 2 {
			gctx.AbortWithStatusJSON(http.StatusUnauthorized, web.Error(ErrBadAuthHeaderFormat))
			return
		}

		authType := strings.ToLower(fields[0])
		if authType != AuthTypeBearer {
			gctx.AbortWithStatusJSON(http.StatusUnauthorized, web.Error(ErrUnsupportedAuthType))
			return
		}

		payload, err := maker.VerifyToken(fields[1])
		if err != nil {
			gctx.AbortWithStatusJSON(http.StatusUnauthorized, web.Error(err))
			return
		}

		gctx.Set(AuthPayloadKey, payload)
		gctx.Next()
	}
}

// Actor returns the authenticated caller. It must run behind AuthMiddleware.
func Actor(gctx *gin.Context) domain.Actor {
	payload := gctx.MustGet(AuthPayloadKey).(*tokenpkg.Payload)

	return domain.Actor{
		Username: payload.Username,
		Role:     domain.Role(payload.Role),
	}
}

// RequireRole lets through only callers with the given role. It must run behind AuthMiddleware.
func RequireRole(role domain.Role) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		if Actor(gctx).Role != role {
			gctx.AbortWithStatusJSON(http.StatusForbidden, web.Error(domain.ErrNotPrivileged))
			return
		}

		gctx.Next()
	}
}
