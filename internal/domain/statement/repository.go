package statement

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the append-only ledger store
type Repository interface {
	// Create persists a new statement, assigning its ID and timestamps.
	// No business validation happens here.
	Create(ctx context.Context, statement *Statement) error

	// FindByID returns the statement only when it is owned by ownerID.
	// Returns ErrStatementNotFound otherwise, including when another account owns it.
	FindByID(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) (*Statement, error)

	// FindAllForAccount returns every statement where the account is the owner or the sender, in insertion order
	FindAllForAccount(ctx context.Context, accountID uuid.UUID) ([]*Statement, error)

	// WithAccountLocks runs fn while holding an exclusive lock on every given account.
	// Writes made through the repository passed to fn commit atomically when fn returns nil.
	WithAccountLocks(ctx context.Context, accountIDs []uuid.UUID, fn func(repo Repository) error) error
}

// ErrStatementNotFound indicates a missing statement or one owned by another account
type ErrStatementNotFound struct {
	StatementID uuid.UUID
}

func (e ErrStatementNotFound) Error() string {
	return "statement not found: " + e.StatementID.String()
}

// Is implements the errors.Is interface for ErrStatementNotFound
func (e ErrStatementNotFound) Is(target error) bool {
	t, ok := target.(ErrStatementNotFound)
	if !ok {
		return false
	}
	// If the target StatementID is empty, consider it a match for any ErrStatementNotFound
	if t.StatementID == uuid.Nil {
		return true
	}
	return e.StatementID == t.StatementID
}
