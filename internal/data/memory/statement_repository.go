// Package memory provides in-process implementations of the ledger and identity
// repositories. They back the service tests and local runs without Postgres.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fin-api-ledger/internal/domain/statement"
)

var _ statement.Repository = (*StatementRepository)(nil)

// StatementRepository is an append-only statement log guarded by a single writer lock
type StatementRepository struct {
	writeMu sync.Mutex // serializes locked units of work
	mu      sync.RWMutex
	records []*statement.Statement
	now     func() time.Time
}

func NewStatementRepository() *StatementRepository {
	return &StatementRepository{now: time.Now}
}

// clone copies st including the sender pointer so callers never share stored records.
func clone(st *statement.Statement) *statement.Statement {
	c := *st
	if st.SenderID != nil {
		sender := *st.SenderID
		c.SenderID = &sender
	}
	return &c
}

func (r *StatementRepository) Create(_ context.Context, st *statement.Statement) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	st.ID = uuid.New()
	st.CreatedAt = r.now()
	st.UpdatedAt = st.CreatedAt

	r.records = append(r.records, clone(st))
	return nil
}

func (r *StatementRepository) FindByID(_ context.Context, id uuid.UUID, ownerID uuid.UUID) (*statement.Statement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rec := range r.records {
		if rec.ID == id && rec.UserID == ownerID {
			return clone(rec), nil
		}
	}
	return nil, statement.ErrStatementNotFound{StatementID: id}
}

func (r *StatementRepository) FindAllForAccount(_ context.Context, accountID uuid.UUID) ([]*statement.Statement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*statement.Statement{}
	for _, rec := range r.records {
		if rec.Involves(accountID) {
			out = append(out, clone(rec))
		}
	}
	return out, nil
}

// WithAccountLocks serializes every locked unit of work. Writes are applied
// immediately, so fn must only append after all of its checks pass.
func (r *StatementRepository) WithAccountLocks(_ context.Context, _ []uuid.UUID, fn func(repo statement.Repository) error) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	return fn(r)
}

// Len returns the number of stored statements
func (r *StatementRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}
