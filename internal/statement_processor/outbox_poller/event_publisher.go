package outbox_poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fin-api-ledger/internal/domain/outbox"
	"github.com/fin-api-ledger/internal/domain/shared"
	"github.com/fin-api-ledger/internal/platform/messaging/producers"
)

var (
	// ErrUnpublishable marks a message that was parked and must not be retried
	ErrUnpublishable = errors.New("outbox message cannot be published")
	// ErrStatusNotRecorded means the broker accepted the event but the row is still PENDING.
	// The row is sent again on a later pass; it does not count against the retry budget.
	ErrStatusNotRecorded = errors.New("outbox message published but not marked processed")
)

// EventPublisher relays one outbox message to the message broker
type EventPublisher interface {
	PublishEvent(ctx context.Context, message *outbox.Message) error
}

// KafkaEventPublisher publishes outbox payloads keyed by the owning account and marks them PROCESSED
type KafkaEventPublisher struct {
	outboxRepo outbox.Repository
	producer   producers.MessagePublisher
	logger     *slog.Logger
}

func NewKafkaEventPublisher(
	outboxRepo outbox.Repository,
	producer producers.MessagePublisher,
	logger *slog.Logger,
) EventPublisher {
	return &KafkaEventPublisher{
		outboxRepo: outboxRepo,
		producer:   producer,
		logger:     logger,
	}
}

// PublishEvent sends the payload unchanged. A payload that does not decode is parked as FAILED_TO_PUBLISH.
func (p *KafkaEventPublisher) PublishEvent(ctx context.Context, message *outbox.Message) error {
	event, err := message.GetStatementEvent()
	if err != nil {
		p.logger.Error("Failed to decode statement event from outbox payload",
			"outbox_id", message.ID, "statement_id", message.StatementID, "error", err,
		)
		message.MarkAsFailed()
		if updateErr := p.outboxRepo.UpdateStatus(ctx, message.ID, message.Status); updateErr != nil {
			p.logger.Error("Also failed to mark outbox message FAILED_TO_PUBLISH", "outbox_id", message.ID, "update_error", updateErr)
		}
		return fmt.Errorf("%w: decode payload for outbox %d: %v", ErrUnpublishable, message.ID, err)
	}

	logger := p.logger
	if event.CorrelationID != "" {
		logger = p.logger.With("correlation_id", event.CorrelationID)
	}

	publishCtx := shared.ContextWithCorrelationID(ctx, event.CorrelationID)
	if err := p.producer.Publish(publishCtx, message.AccountID.String(), message.Payload); err != nil {
		return fmt.Errorf("failed to publish statement %s: %w", message.StatementID, err)
	}

	message.MarkAsProcessed()
	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, message.Status); err != nil {
		logger.Error("Failed to mark outbox message PROCESSED",
			"outbox_id", message.ID, "statement_id", message.StatementID, "error", err,
		)
		return fmt.Errorf("%w: statement %s, outbox %d: %w", ErrStatusNotRecorded, message.StatementID, message.ID, err)
	}

	logger.Info("Published statement event", "outbox_id", message.ID, "statement_id", message.StatementID)
	return nil
}
