package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fin-api-ledger/internal/domain/shared"
)

// Message is one statement event waiting in statement_outbox. AccountID is the statement's owner and
// doubles as the Kafka partition key.
type Message struct {
	ID            int64               `json:"id"`
	StatementID   uuid.UUID           `json:"statement_id"`
	AccountID     uuid.UUID           `json:"account_id"`
	Payload       json.RawMessage     `json:"payload"`
	Status        shared.OutboxStatus `json:"status"`
	Attempts      int                 `json:"attempts"`
	CreatedAt     time.Time           `json:"created_at"`
	LastAttemptAt *time.Time          `json:"last_attempt_at,omitempty"`
}

func NewMessage(event *shared.StatementEvent) (*Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode statement event %s: %w", event.StatementID, err)
	}
	return &Message{
		StatementID: event.StatementID,
		AccountID:   event.UserID,
		Payload:     payload,
		Status:      shared.OutboxStatusPending,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

func (m *Message) touch() {
	now := time.Now().UTC()
	m.LastAttemptAt = &now
}

func (m *Message) IncrementAttempts() {
	m.Attempts++
	m.touch()
}

func (m *Message) MarkAsProcessed() {
	m.Status = shared.OutboxStatusProcessed
	m.touch()
}

// MarkAsFailed parks the message; the relay no longer picks it up
func (m *Message) MarkAsFailed() {
	m.Status = shared.OutboxStatusFailedToPublish
	m.touch()
}

func (m *Message) GetStatementEvent() (*shared.StatementEvent, error) {
	event := new(shared.StatementEvent)
	if err := json.Unmarshal(m.Payload, event); err != nil {
		return nil, fmt.Errorf("decode outbox %d payload: %w", m.ID, err)
	}
	return event, nil
}
