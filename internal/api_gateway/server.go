package api_gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fin-api-ledger/internal/api_gateway/handler"
	"github.com/fin-api-ledger/internal/api_gateway/middleware"
	"github.com/fin-api-ledger/internal/api_gateway/service"
	"github.com/fin-api-ledger/internal/config"
)

// Server serves the ledger HTTP API.
type Server struct {
	logger     *slog.Logger
	httpServer *http.Server
	httpRouter *gin.Engine
	// upper bound for draining in-flight requests on Stop
	shutdownTimeout time.Duration
}

// NewServer builds the router and handlers on top of the given services.
func NewServer(
	log *slog.Logger,
	cfg *config.Config,
	statementService service.StatementService,
	userService service.UserService,
	verifier middleware.TokenVerifier,
) *Server {
	if cfg.Application.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	httpRouter := gin.New()

	userHandler := handler.NewUserHandler(log, userService)
	statementHandler := handler.NewStatementHandler(log, statementService)

	setupRouter(log, httpRouter, verifier, userHandler, statementHandler)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = cfg.Server.WriteTimeout
	}

	return &Server{
		logger:          log,
		httpServer:      httpServer,
		httpRouter:      httpRouter,
		shutdownTimeout: shutdownTimeout,
	}
}

// Handler exposes the configured router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.httpRouter
}

// Start blocks serving requests. A graceful Stop makes it return nil.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Stop drains in-flight requests, giving up after the shutdown timeout.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Draining HTTP server", "timeout", s.shutdownTimeout)

	shutdownCtx, cancel := context.WithTimeout(ctx, s.shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}

	return nil
}
