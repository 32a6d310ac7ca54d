package outbox_poller

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fin-api-ledger/internal/domain/outbox"
	"github.com/fin-api-ledger/internal/domain/shared"
	"github.com/fin-api-ledger/internal/domain/statement"
)

type MockOutboxRepo struct {
	mock.Mock
}

func (m *MockOutboxRepo) Create(ctx context.Context, message *outbox.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockOutboxRepo) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepo) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockOutboxRepo) IncrementAttempts(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepo) WithTx(tx pgx.Tx) outbox.Repository {
	args := m.Called(tx)
	return args.Get(0).(outbox.Repository)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishEvent(ctx context.Context, message *outbox.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

type MockMessagePublisher struct {
	mock.Mock
}

func (m *MockMessagePublisher) Publish(ctx context.Context, key string, value interface{}) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockMessagePublisher) Close() error {
	return m.Called().Error(0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// pendingMessage builds an outbox row for a fresh deposit
func pendingMessage(t *testing.T, id int64, attempts int) *outbox.Message {
	t.Helper()
	event := shared.NewStatementEvent(&statement.Statement{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		Amount:    decimal.NewFromInt(25),
		Type:      statement.OperationTypeDeposit,
		CreatedAt: time.Now().UTC(),
	}, "corr-"+uuid.NewString()[:8])

	msg, err := outbox.NewMessage(event)
	require.NoError(t, err)
	msg.ID = id
	msg.Attempts = attempts
	return msg
}

func rawPayload(msg *outbox.Message) json.RawMessage {
	return msg.Payload
}
