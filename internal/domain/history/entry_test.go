package history

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/fin-api-ledger/internal/domain/shared"
	"github.com/fin-api-ledger/internal/domain/statement"
)

func TestNewEntry(t *testing.T) {
	sender := uuid.New()
	recipient := uuid.New()
	event := &shared.StatementEvent{
		StatementID:   uuid.New(),
		UserID:        recipient,
		SenderID:      &sender,
		Type:          statement.OperationTypeTransfer,
		Amount:        decimal.NewFromInt(25),
		CorrelationID: "corr-9",
		CreatedAt:     time.Now(),
	}

	entry := NewEntry(event)

	assert.Equal(t, event.StatementID, entry.StatementID)
	assert.Equal(t, []uuid.UUID{recipient, sender}, entry.Participants)
	assert.Equal(t, "corr-9", entry.CorrelationID)
	assert.False(t, entry.ProjectedAt.IsZero())
	assert.Equal(t, "credit", entry.DirectionFor(recipient))
	assert.Equal(t, "debit", entry.DirectionFor(sender))
}

func TestDirectionFor_Withdraw(t *testing.T) {
	account := uuid.New()
	entry := &Entry{UserID: account, Type: statement.OperationTypeWithdraw, Amount: decimal.NewFromInt(1)}
	assert.Equal(t, "debit", entry.DirectionFor(account))
}

func TestErrors_Is(t *testing.T) {
	id := uuid.New()
	wrapped := fmt.Errorf("projection: %w", ErrDuplicateEntry{StatementID: id})

	assert.True(t, errors.Is(wrapped, ErrDuplicateEntry{}))
	assert.True(t, errors.Is(wrapped, ErrDuplicateEntry{StatementID: id}))
	assert.False(t, errors.Is(wrapped, ErrDuplicateEntry{StatementID: uuid.New()}))
	assert.True(t, errors.Is(ErrEntryNotFound{StatementID: id}, ErrEntryNotFound{}))
	assert.False(t, errors.Is(ErrEntryNotFound{StatementID: id}, ErrDuplicateEntry{}))
}

func TestEntry_Matches(t *testing.T) {
	sender := uuid.New()
	base := &Entry{
		StatementID: uuid.New(),
		UserID:      uuid.New(),
		SenderID:    &sender,
		Type:        statement.OperationTypeTransfer,
		Amount:      decimal.RequireFromString("10.00"),
	}

	same := *base
	same.Amount = decimal.RequireFromString("10")
	same.ProjectedAt = base.ProjectedAt.Add(time.Hour)
	assert.True(t, base.Matches(&same))

	otherAmount := *base
	otherAmount.Amount = decimal.NewFromInt(11)
	assert.False(t, base.Matches(&otherAmount))

	noSender := *base
	noSender.SenderID = nil
	assert.False(t, base.Matches(&noSender))
}
