package outbox

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/fin-api-ledger/internal/domain/shared"
)

// Repository persists statement outbox rows. Create is called inside the statement's own transaction
// through WithTx; the rest is used by the relay.
type Repository interface {
	Create(ctx context.Context, message *Message) error
	// GetPending returns up to limit PENDING rows, oldest first
	GetPending(ctx context.Context, limit int) ([]*Message, error)
	UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error
	IncrementAttempts(ctx context.Context, id int64) error
	WithTx(tx pgx.Tx) Repository
}

type ErrMessageNotFound struct {
	ID int64
}

func (e ErrMessageNotFound) Error() string {
	if e.ID == 0 {
		return "outbox message not found"
	}
	return fmt.Sprintf("outbox message %d not found", e.ID)
}

// Is matches any ErrMessageNotFound when the target carries no id
func (e ErrMessageNotFound) Is(target error) bool {
	t, ok := target.(ErrMessageNotFound)
	if !ok {
		return false
	}
	return t.ID == 0 || t.ID == e.ID
}
