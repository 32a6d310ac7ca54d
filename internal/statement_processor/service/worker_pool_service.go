package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/fin-api-ledger/internal/domain/shared"
)

// releaseTimeout bounds how long Shutdown waits for in-flight projections.
const releaseTimeout = 5 * time.Second

// WorkerPoolProjectionService bounds concurrent projections with an ants pool.
// Project blocks until the submitted task finishes so the caller can decide on the offset commit.
type WorkerPoolProjectionService struct {
	next   ProjectionService
	pool   *ants.Pool
	logger *slog.Logger
}

type WorkerPoolConfig struct {
	Size int
}

func NewWorkerPoolProjectionService(
	next ProjectionService,
	cfg WorkerPoolConfig,
	logger *slog.Logger,
) (*WorkerPoolProjectionService, error) {
	pool, err := ants.NewPool(cfg.Size, ants.WithPreAlloc(false))
	if err != nil {
		return nil, fmt.Errorf("projection worker pool of size %d: %w", cfg.Size, err)
	}
	return &WorkerPoolProjectionService{next: next, pool: pool, logger: logger}, nil
}

// Project runs the projection on a pool worker and returns its result.
// A panic in the projection comes back as an error.
func (s *WorkerPoolProjectionService) Project(ctx context.Context, event *shared.StatementEvent) error {
	result := make(chan error, 1)
	task := *event

	submitErr := s.pool.Submit(func() {
		defer func() {
			if r := recover(); r != nil {
				result <- fmt.Errorf("projection of statement %s panicked: %v", task.StatementID, r)
			}
		}()
		result <- s.next.Project(ctx, &task)
	})
	if submitErr != nil {
		s.logger.Error("Worker pool rejected statement event",
			"statement_id", event.StatementID.String(),
			"correlation_id", event.CorrelationID,
			"error", submitErr,
		)
		return fmt.Errorf("submit projection: %w", submitErr)
	}

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting work and waits briefly for running projections.
func (s *WorkerPoolProjectionService) Shutdown() {
	running := s.pool.Running()
	if err := s.pool.ReleaseTimeout(releaseTimeout); err != nil {
		s.logger.Warn("Worker pool released with projections still running", "running", running, "error", err)
		return
	}
	s.logger.Info("Worker pool released", "running_at_shutdown", running)
}

func (s *WorkerPoolProjectionService) Capacity() int {
	return s.pool.Cap()
}
