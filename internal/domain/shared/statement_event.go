package shared

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fin-api-ledger/internal/domain/statement"
)

// StatementEvent defines the Kafka message announcing an appended statement
type StatementEvent struct {
	StatementID   uuid.UUID               `json:"statement_id"`
	UserID        uuid.UUID               `json:"user_id"`
	SenderID      *uuid.UUID              `json:"sender_id,omitempty"`
	Type          statement.OperationType `json:"type"`
	Amount        decimal.Decimal         `json:"amount"`
	Description   string                  `json:"description"`
	CorrelationID string                  `json:"correlation_id,omitempty"`
	CreatedAt     time.Time               `json:"created_at"`
	OccurredAt    time.Time               `json:"occurred_at"`
}

// NewStatementEvent builds the event for a persisted statement
func NewStatementEvent(st *statement.Statement, correlationID string) *StatementEvent {
	return &StatementEvent{
		StatementID:   st.ID,
		UserID:        st.UserID,
		SenderID:      st.SenderID,
		Type:          st.Type,
		Amount:        st.Amount,
		Description:   st.Description,
		CorrelationID: correlationID,
		CreatedAt:     st.CreatedAt,
		OccurredAt:    time.Now().UTC(),
	}
}

// Statement rebuilds the statement carried by the event
func (e *StatementEvent) Statement() *statement.Statement {
	return &statement.Statement{
		ID:          e.StatementID,
		UserID:      e.UserID,
		SenderID:    e.SenderID,
		Amount:      e.Amount,
		Description: e.Description,
		Type:        e.Type,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.CreatedAt,
	}
}
