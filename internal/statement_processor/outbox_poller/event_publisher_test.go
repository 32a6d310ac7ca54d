package outbox_poller

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fin-api-ledger/internal/domain/outbox"
	"github.com/fin-api-ledger/internal/domain/shared"
)

// carriesCorrelationID matches a context holding the correlation id of msg's event.
func carriesCorrelationID(t *testing.T, msg *outbox.Message) interface{} {
	t.Helper()
	event, err := msg.GetStatementEvent()
	require.NoError(t, err)
	require.NotEmpty(t, event.CorrelationID)
	return mock.MatchedBy(func(c context.Context) bool {
		return shared.CorrelationIDFromContext(c) == event.CorrelationID
	})
}

func TestKafkaEventPublisher_PublishEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("PublishesKeyedByAccountAndMarksProcessed", func(t *testing.T) {
		repo := new(MockOutboxRepo)
		producer := new(MockMessagePublisher)
		publisher := NewKafkaEventPublisher(repo, producer, discardLogger())

		msg := pendingMessage(t, 3, 0)
		producer.On("Publish", carriesCorrelationID(t, msg), msg.AccountID.String(), rawPayload(msg)).Return(nil).Once()
		repo.On("UpdateStatus", ctx, int64(3), shared.OutboxStatusProcessed).Return(nil).Once()

		require.NoError(t, publisher.PublishEvent(ctx, msg))
		producer.AssertExpectations(t)
		repo.AssertExpectations(t)
	})

	t.Run("BrokerFailureLeavesMessagePending", func(t *testing.T) {
		repo := new(MockOutboxRepo)
		producer := new(MockMessagePublisher)
		publisher := NewKafkaEventPublisher(repo, producer, discardLogger())

		msg := pendingMessage(t, 4, 0)
		brokerErr := errors.New("leader not available")
		producer.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(brokerErr).Once()

		err := publisher.PublishEvent(ctx, msg)
		assert.ErrorIs(t, err, brokerErr)
		assert.NotErrorIs(t, err, ErrUnpublishable)
		repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("CorruptPayloadIsParked", func(t *testing.T) {
		repo := new(MockOutboxRepo)
		producer := new(MockMessagePublisher)
		publisher := NewKafkaEventPublisher(repo, producer, discardLogger())

		msg := pendingMessage(t, 5, 0)
		msg.Payload = []byte(`{"statement_id":`)
		repo.On("UpdateStatus", ctx, int64(5), shared.OutboxStatusFailedToPublish).Return(nil).Once()

		err := publisher.PublishEvent(ctx, msg)
		assert.ErrorIs(t, err, ErrUnpublishable)
		producer.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
		repo.AssertExpectations(t)
	})

	t.Run("StatusUpdateFailure", func(t *testing.T) {
		repo := new(MockOutboxRepo)
		producer := new(MockMessagePublisher)
		publisher := NewKafkaEventPublisher(repo, producer, discardLogger())

		msg := pendingMessage(t, 6, 0)
		producer.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
		repo.On("UpdateStatus", ctx, int64(6), shared.OutboxStatusProcessed).Return(errors.New("db down")).Once()

		err := publisher.PublishEvent(ctx, msg)
		assert.ErrorIs(t, err, ErrStatusNotRecorded)
		assert.ErrorContains(t, err, "db down")
		assert.NotErrorIs(t, err, ErrUnpublishable)
	})
}
