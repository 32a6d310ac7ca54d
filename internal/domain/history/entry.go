// Package history holds the statement history read model projected from statement events.
// It is eventually consistent with the ledger and never used for balance decisions.
package history

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fin-api-ledger/internal/domain/shared"
	"github.com/fin-api-ledger/internal/domain/statement"
)

// Entry is one projected statement, visible to every participant
type Entry struct {
	StatementID   uuid.UUID               `json:"statement_id"`
	UserID        uuid.UUID               `json:"user_id"`
	SenderID      *uuid.UUID              `json:"sender_id,omitempty"`
	Participants  []uuid.UUID             `json:"-"`
	Type          statement.OperationType `json:"type"`
	Amount        decimal.Decimal         `json:"amount"`
	Description   string                  `json:"description"`
	CorrelationID string                  `json:"correlation_id,omitempty"`
	CreatedAt     time.Time               `json:"created_at"`
	ProjectedAt   time.Time               `json:"projected_at"`
}

// NewEntry projects a statement event
func NewEntry(event *shared.StatementEvent) *Entry {
	st := event.Statement()
	return &Entry{
		StatementID:   event.StatementID,
		UserID:        event.UserID,
		SenderID:      event.SenderID,
		Participants:  st.Participants(),
		Type:          event.Type,
		Amount:        event.Amount,
		Description:   event.Description,
		CorrelationID: event.CorrelationID,
		CreatedAt:     event.CreatedAt,
		ProjectedAt:   time.Now().UTC(),
	}
}

// DirectionFor reports how the entry affected accountID: "credit" or "debit"
func (e *Entry) DirectionFor(accountID uuid.UUID) string {
	st := statement.Statement{UserID: e.UserID, SenderID: e.SenderID, Amount: e.Amount, Type: e.Type}
	if st.EffectOn(accountID).IsNegative() {
		return "debit"
	}
	return "credit"
}

// Matches reports whether other records the same monetary fact. Projection timestamps are ignored.
func (e *Entry) Matches(other *Entry) bool {
	sameSender := (e.SenderID == nil && other.SenderID == nil) ||
		(e.SenderID != nil && other.SenderID != nil && *e.SenderID == *other.SenderID)
	return e.StatementID == other.StatementID &&
		e.UserID == other.UserID &&
		sameSender &&
		e.Type == other.Type &&
		e.Amount.Equal(other.Amount)
}
