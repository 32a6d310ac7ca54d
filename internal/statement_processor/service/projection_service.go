package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fin-api-ledger/internal/domain/history"
	"github.com/fin-api-ledger/internal/domain/shared"
)

// ProjectionServiceImpl writes one history entry per statement event
type ProjectionServiceImpl struct {
	historyRepo history.Repository
	logger      *slog.Logger
}

func NewProjectionService(historyRepo history.Repository, logger *slog.Logger) ProjectionService {
	return &ProjectionServiceImpl{
		historyRepo: historyRepo,
		logger:      logger,
	}
}

// Project inserts the entry. A duplicate statement id means a redelivery and counts as success;
// a stored entry that disagrees with the event is reported but left in place.
func (s *ProjectionServiceImpl) Project(ctx context.Context, event *shared.StatementEvent) error {
	logger := s.logger
	if event.CorrelationID != "" {
		logger = s.logger.With("correlation_id", event.CorrelationID)
	}

	entry := history.NewEntry(event)
	if err := s.historyRepo.Create(ctx, entry); err != nil {
		if errors.Is(err, history.ErrDuplicateEntry{}) {
			s.checkExisting(ctx, logger, entry)
			return nil
		}
		logger.Error("Failed to project statement", "statement_id", event.StatementID.String(), "error", err)
		return fmt.Errorf("failed to project statement %s: %w", event.StatementID, err)
	}

	logger.Info("Projected statement into history",
		"statement_id", event.StatementID.String(),
		"user_id", event.UserID.String(),
		"type", event.Type,
	)
	return nil
}

func (s *ProjectionServiceImpl) checkExisting(ctx context.Context, logger *slog.Logger, entry *history.Entry) {
	logger = logger.With("statement_id", entry.StatementID.String())

	existing, err := s.historyRepo.GetByStatementID(ctx, entry.StatementID)
	if err != nil {
		logger.Warn("Statement already projected, stored entry could not be read back", "error", err)
		return
	}
	if !existing.Matches(entry) {
		logger.Error("Stored history entry conflicts with statement event",
			"stored_amount", existing.Amount.String(),
			"event_amount", entry.Amount.String(),
			"stored_type", existing.Type,
			"event_type", entry.Type,
		)
		return
	}
	logger.Info("Statement already projected, skipping")
}
