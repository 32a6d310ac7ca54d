package history

import (
	"context"

	"github.com/google/uuid"
)

// Repository manages the statement history read model
type Repository interface {
	// Create stores a projected entry. Returns ErrDuplicateEntry when the statement was already projected.
	Create(ctx context.Context, entry *Entry) error
	GetByStatementID(ctx context.Context, statementID uuid.UUID) (*Entry, error)
	// GetByAccountID returns entries the account participates in, newest first
	GetByAccountID(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*Entry, error)
	CountByAccountID(ctx context.Context, accountID uuid.UUID) (int64, error)
}

// ErrEntryNotFound indicates missing history entry
type ErrEntryNotFound struct {
	StatementID uuid.UUID
}

func (e ErrEntryNotFound) Error() string {
	return "history entry not found: " + e.StatementID.String()
}

// Is implements the errors.Is interface for ErrEntryNotFound
func (e ErrEntryNotFound) Is(target error) bool {
	t, ok := target.(ErrEntryNotFound)
	if !ok {
		return false
	}
	if t.StatementID == uuid.Nil {
		return true
	}
	return e.StatementID == t.StatementID
}

// ErrDuplicateEntry indicates the statement has already been projected
type ErrDuplicateEntry struct {
	StatementID uuid.UUID
}

func (e ErrDuplicateEntry) Error() string {
	return "duplicate history entry: " + e.StatementID.String()
}

// Is implements the errors.Is interface for ErrDuplicateEntry
func (e ErrDuplicateEntry) Is(target error) bool {
	t, ok := target.(ErrDuplicateEntry)
	if !ok {
		return false
	}
	if t.StatementID == uuid.Nil {
		return true
	}
	return e.StatementID == t.StatementID
}
