package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fin-api-ledger/internal/api_gateway"
	"github.com/fin-api-ledger/internal/api_gateway/service"
	"github.com/fin-api-ledger/internal/config"
	"github.com/fin-api-ledger/internal/data/mongo"
	"github.com/fin-api-ledger/internal/data/postgres"
	"github.com/fin-api-ledger/internal/logger"
	"github.com/fin-api-ledger/internal/platform/auth"
	"github.com/fin-api-ledger/internal/platform/persistence"
)

func main() {
	cfg, err := config.LoadConfig("api_gateway")
	if err != nil {
		// no logger yet
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)
	log.Info("Starting API gateway", "env", cfg.Application.Env, "config_file", cfg.Source, "port", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := run(ctx, log, cfg); err != nil {
		log.Error("API gateway stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("API gateway shutdown completed successfully")
}

// run wires the gateway and serves until ctx is canceled or the listener fails.
// Stores are closed only after the HTTP server has drained.
func run(ctx context.Context, log *slog.Logger, cfg *config.Config) error {
	// Postgres holds the ledger, users and the outbox; migrations run on connect
	postgresDB, err := persistence.NewPostgresDB(ctx, log, &cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer postgresDB.Close()

	mongoDB, err := persistence.NewMongoDB(ctx, log, &cfg.MongoDB)
	if err != nil {
		return fmt.Errorf("mongodb: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.MongoDB.Timeout)
		defer cancel()
		if err := mongoDB.Close(closeCtx); err != nil {
			log.Error("Error closing MongoDB connection", "error", err)
		}
	}()

	outboxRepo := postgres.NewOutboxRepository(log, postgresDB.Pool())
	statementRepo := postgres.NewStatementRepository(log, postgresDB.Pool(), outboxRepo)
	userRepo := postgres.NewUserRepository(log, postgresDB.Pool())
	historyRepo := mongo.NewHistoryRepository(log, mongoDB.Database())
	if err := historyRepo.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("statement history indexes: %w", err)
	}

	tokens := auth.NewTokenManager(cfg.Auth)
	server := api_gateway.NewServer(log, cfg,
		service.NewStatementService(log, userRepo, statementRepo, historyRepo),
		service.NewUserService(log, userRepo, tokens),
		tokens,
	)

	serveErr := make(chan error, 1)
	go func() { serveErr <- server.Start() }()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
		log.Info("Shutdown signal received, draining HTTP server")
	}

	// ctx is already canceled; the drain gets its own deadline inside Stop
	return server.Stop(context.Background())
}
