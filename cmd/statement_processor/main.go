package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fin-api-ledger/internal/config"
	"github.com/fin-api-ledger/internal/data/mongo"
	"github.com/fin-api-ledger/internal/data/postgres"
	"github.com/fin-api-ledger/internal/logger"
	"github.com/fin-api-ledger/internal/platform/messaging/consumers"
	"github.com/fin-api-ledger/internal/platform/messaging/producers"
	"github.com/fin-api-ledger/internal/platform/persistence"
	"github.com/fin-api-ledger/internal/statement_processor/consumer"
	"github.com/fin-api-ledger/internal/statement_processor/outbox_poller"
	"github.com/fin-api-ledger/internal/statement_processor/service"
)

// drainTimeout bounds how long the consumer and poller get to finish after cancellation.
const drainTimeout = 30 * time.Second

func main() {
	cfg, err := config.LoadConfig("statement_processor")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)
	log.Info("Starting statement processor",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
		"config_file", cfg.Source,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := run(ctx, log, cfg); err != nil {
		log.Error("Statement processor stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("Statement processor shutdown completed successfully")
}

// closer logs instead of failing; shutdown keeps going past a bad Close.
func closer(log *slog.Logger, what string, closeFn func() error) {
	if err := closeFn(); err != nil {
		log.Error("Error closing "+what, "error", err)
	}
}

// run relays outbox rows to Kafka and projects consumed statement events
// into the history store until ctx is canceled or the consumer fails.
func run(ctx context.Context, log *slog.Logger, cfg *config.Config) error {
	postgresDB, err := persistence.NewPostgresDB(ctx, log, &cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer postgresDB.Close()

	mongoDB, err := persistence.NewMongoDB(ctx, log, &cfg.MongoDB)
	if err != nil {
		return fmt.Errorf("mongodb: %w", err)
	}
	defer closer(log, "MongoDB connection", func() error {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.MongoDB.Timeout)
		defer cancel()
		return mongoDB.Close(closeCtx)
	})

	outboxRepo := postgres.NewOutboxRepository(log, postgresDB.Pool())
	historyRepo := mongo.NewHistoryRepository(log, mongoDB.Database())
	if err := historyRepo.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("statement history indexes: %w", err)
	}

	eventProducer, err := producers.NewStatementEventProducer(ctx, log, &cfg.Kafka)
	if err != nil {
		return fmt.Errorf("statement event producer: %w", err)
	}
	defer closer(log, "statement event producer", eventProducer.Close)

	// nil when no DLQ topic is configured
	dlqProducer, err := producers.NewDLQProducer(ctx, log, &cfg.Kafka)
	if err != nil {
		return fmt.Errorf("dlq producer: %w", err)
	}
	defer closer(log, "DLQ producer", dlqProducer.Close)

	kafkaConsumer := consumers.NewKafkaConsumer(log, &cfg.Kafka)
	defer closer(log, "Kafka consumer", kafkaConsumer.Close)

	projectionService := service.CreateProjectionService(historyRepo, log, cfg)
	if pooled, ok := projectionService.(*service.WorkerPoolProjectionService); ok {
		// releases the pool before the stores above are closed
		defer pooled.Shutdown()
	}
	eventHandler := consumer.NewStatementEventHandler(log, projectionService, dlqProducer)

	poller := outbox_poller.NewPoller(
		&cfg.Outbox,
		outboxRepo,
		outbox_poller.NewKafkaEventPublisher(outboxRepo, eventProducer, log),
		log,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := kafkaConsumer.Subscribe(gctx, eventHandler.HandleMessage); err != nil {
			return fmt.Errorf("kafka consumer: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		poller.Start(gctx)
		return nil
	})

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		log.Info("Shutdown signal received, waiting for consumer and poller")
	}

	select {
	case err := <-done:
		return err
	case <-time.After(drainTimeout):
		return errors.New("consumer and poller did not stop within the drain timeout")
	}
}
