// Package httpserver manages server creation and api routing.
package httpserver

import (
	"database/sql"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/go-petr/pet-ledger/internal/accountdelivery"
	"github.com/go-petr/pet-ledger/internal/accountrepo"
	"github.com/go-petr/pet-ledger/internal/accountservice"
	"github.com/go-petr/pet-ledger/internal/approvaldelivery"
	"github.com/go-petr/pet-ledger/internal/approvalservice"
	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/internal/ledgerdelivery"
	"github.com/go-petr/pet-ledger/internal/ledgerrepo"
	"github.com/go-petr/pet-ledger/internal/ledgerservice"
	"github.com/go-petr/pet-ledger/internal/middleware"
	"github.com/go-petr/pet-ledger/internal/notificationdelivery"
	"github.com/go-petr/pet-ledger/internal/notificationrepo"
	"github.com/go-petr/pet-ledger/internal/notificationservice"
	"github.com/go-petr/pet-ledger/internal/notifier"
	"github.com/go-petr/pet-ledger/internal/reportdelivery"
	"github.com/go-petr/pet-ledger/internal/reportrepo"
	"github.com/go-petr/pet-ledger/internal/reportservice"
	"github.com/go-petr/pet-ledger/internal/sessiondelivery"
	"github.com/go-petr/pet-ledger/internal/sessionrepo"
	"github.com/go-petr/pet-ledger/internal/sessionservice"
	"github.com/go-petr/pet-ledger/internal/userdelivery"
	"github.com/go-petr/pet-ledger/internal/userrepo"
	"github.com/go-petr/pet-ledger/internal/userservice"
	"github.com/go-petr/pet-ledger/pkg/configpkg"
	"github.com/go-petr/pet-ledger/pkg/moneypkg"
	"github.com/go-petr/pet-ledger/pkg/tokenpkg"
)

// Server holds db connection, handlers router and configuration.
type Server struct {
	DB         *sql.DB
	Engine     *gin.Engine
	Config     configpkg.Config
	TokenMaker tokenpkg.Maker

	dispatcher *notifier.Dispatcher
}

// ServeHTTP implements the http.Handler interface for the Server type.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Engine.ServeHTTP(w, r)
}

// Close delivers the queued notifications. The db connection is left to the caller.
func (s *Server) Close() {
	s.dispatcher.Close()
}

// New creates Server type with instantiated domains and routes.
func New(conn *sql.DB, logger zerolog.Logger, config configpkg.Config) (*Server, error) {
	userRepo := userrepo.NewRepoPGS(conn)
	accountRepo := accountrepo.NewRepoPGS(conn)
	sessionRepo := sessionrepo.NewRepoPGS(conn)
	notificationRepo := notificationrepo.NewRepoPGS(conn)
	reportRepo := reportrepo.NewRepoPGS(conn)
	ledgerRepo := ledgerrepo.NewRepoPGS(conn, config.LedgerLockTimeout)

	tokenMaker, err := tokenpkg.New(config.TokenType, config.TokenSymmetricKey)
	if err != nil {
		return nil, fmt.Errorf("cannot create token maker: %w", err)
	}

	dispatcher := notifier.NewDispatcher(notifier.New(userRepo, logger, config), config)

	userService := userservice.New(userRepo)
	accountService := accountservice.New(accountRepo)
	notificationService := notificationservice.New(notificationRepo)
	approvalService := approvalservice.New(ledgerRepo, dispatcher, config)

	sessionService, err := sessionservice.New(sessionRepo, config, tokenMaker)
	if err != nil {
		dispatcher.Close()
		return nil, fmt.Errorf("cannot initialize session service: %w", err)
	}

	ledgerService, err := ledgerservice.New(ledgerRepo, dispatcher, config)
	if err != nil {
		dispatcher.Close()
		return nil, fmt.Errorf("cannot initialize ledger service: %w", err)
	}

	reportService, err := reportservice.New(reportRepo, accountRepo, config)
	if err != nil {
		dispatcher.Close()
		return nil, fmt.Errorf("cannot initialize report service: %w", err)
	}

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := v.RegisterValidation("amount", moneypkg.ValidAmount); err != nil {
			dispatcher.Close()
			return nil, fmt.Errorf("cannot register amount validator: %w", err)
		}
	}

	userHandler := userdelivery.NewHandler(userService, sessionService)
	sessionHandler := sessiondelivery.NewHandler(sessionService)
	accountHandler := accountdelivery.NewHandler(accountService)
	ledgerHandler := ledgerdelivery.NewHandler(ledgerService)
	approvalHandler := approvaldelivery.NewHandler(approvalService)
	notificationHandler := notificationdelivery.NewHandler(notificationService)
	reportHandler := reportdelivery.NewHandler(reportService)

	engine := gin.New()

	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.Metrics())
	engine.Use(gin.Recovery())

	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	engine.GET("/healthz", func(gctx *gin.Context) {
		if err := conn.PingContext(gctx.Request.Context()); err != nil {
			zerolog.Ctx(gctx.Request.Context()).Error().Err(err).Msg("health check failed")
			gctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})

			return
		}

		gctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	engine.POST("/users", userHandler.Create)
	engine.POST("/users/login", userHandler.Login)
	engine.POST("/sessions", sessionHandler.RenewAccessToken)

	authRoutes := engine.Group("/").Use(middleware.AuthMiddleware(tokenMaker))

	authRoutes.GET("/account", accountHandler.Get)

	authRoutes.POST("/deposits", ledgerHandler.Deposit)
	authRoutes.POST("/withdrawals", ledgerHandler.Withdraw)
	authRoutes.POST("/withdrawals/limited", ledgerHandler.LimitedWithdraw)
	authRoutes.POST("/transfers", ledgerHandler.Transfer)

	authRoutes.GET("/movements", reportHandler.History)
	authRoutes.GET("/statements/:year/:month", reportHandler.MonthlyStatement)

	authRoutes.GET("/notifications", notificationHandler.List)
	authRoutes.PATCH("/notifications/:id/read", notificationHandler.MarkRead)

	adminRoutes := engine.Group("/admin").Use(
		middleware.AuthMiddleware(tokenMaker),
		middleware.RequireRole(domain.RoleAdmin),
	)

	adminRoutes.GET("/movements/pending", approvalHandler.ListPending)
	adminRoutes.PATCH("/movements/:id/decision", approvalHandler.Decide)
	adminRoutes.GET("/accounts/:id/audit", accountHandler.Audit)
	adminRoutes.GET("/users/:username/movements", reportHandler.UserHistory)

	server := &Server{
		DB:         conn,
		Engine:     engine,
		Config:     config,
		TokenMaker: tokenMaker,
		dispatcher: dispatcher,
	}

	return server, nil
}
