package service

import (
	"log/slog"

	"github.com/fin-api-ledger/internal/config"
	"github.com/fin-api-ledger/internal/domain/history"
)

// CreateProjectionService builds the projection service behind a worker pool,
// falling back to the unpooled service when the pool cannot be created.
func CreateProjectionService(historyRepo history.Repository, logger *slog.Logger, cfg *config.Config) ProjectionService {
	baseService := NewProjectionService(historyRepo, logger)

	workerPoolService, err := NewWorkerPoolProjectionService(
		baseService,
		WorkerPoolConfig{Size: cfg.WorkerPool.Size},
		logger.With("component", "worker_pool"),
	)
	if err != nil {
		logger.Error("Failed to create worker pool service, falling back to base service", "error", err)
		return baseService
	}

	logger.Info("Created worker pool projection service", "pool_size", cfg.WorkerPool.Size)
	return workerPoolService
}
