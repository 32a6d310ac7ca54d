package service

import (
	"context"

	"github.com/fin-api-ledger/internal/domain/shared"
)

// ProjectionService applies a statement event to the history read model.
// Projecting the same event twice must succeed without creating a second entry.
type ProjectionService interface {
	Project(ctx context.Context, event *shared.StatementEvent) error
}
