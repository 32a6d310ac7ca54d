package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/fin-api-ledger/internal/domain/shared"
	"github.com/fin-api-ledger/internal/platform/messaging/producers"
	"github.com/fin-api-ledger/internal/statement_processor/service"
)

var errMissingStatementID = errors.New("statement event has no statement_id")

// StatementEventHandler decodes statement events from Kafka and projects them
type StatementEventHandler struct {
	projectionService service.ProjectionService
	producer          producers.DeadLetterPublisher
	logger            *slog.Logger
}

// NewStatementEventHandler creates a new handler. producer may be nil when the DLQ is disabled.
func NewStatementEventHandler(
	logger *slog.Logger,
	projectionService service.ProjectionService,
	producer producers.DeadLetterPublisher,
) *StatementEventHandler {
	return &StatementEventHandler{
		projectionService: projectionService,
		producer:          producer,
		logger:            logger,
	}
}

// HandleMessage is a consumers.MessageHandler.
// Undecodable messages go to the DLQ and are committed; projection failures are returned so the consumer retries them.
func (h *StatementEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	event, err := decodeStatementEvent(value)
	if err != nil {
		return h.deadLetter(ctx, key, value, err)
	}

	logger := h.logger
	if event.CorrelationID != "" {
		logger = h.logger.With("correlation_id", event.CorrelationID)
	}

	logger.Info("Received statement event",
		"statement_id", event.StatementID.String(),
		"user_id", event.UserID.String(),
		"type", event.Type,
	)

	if err := h.projectionService.Project(ctx, event); err != nil {
		logger.Error("Failed to project statement event",
			"statement_id", event.StatementID.String(),
			"error", err,
		)
		return fmt.Errorf("projecting statement %s failed: %w", event.StatementID, err)
	}

	return nil
}

// deadLetter parks an undecodable message. Without a DLQ the message is dropped, since retrying
// it would stall its partition; a DLQ write failure is returned so the message is retried.
func (h *StatementEventHandler) deadLetter(ctx context.Context, key, value []byte, cause error) error {
	logger := h.logger.With("message_key", string(key))
	logger.Error("Failed to decode statement event", "error", cause)

	var err error = producers.ErrDLQDisabled
	if h.producer != nil {
		err = h.producer.PublishToDLQ(ctx, string(key), value, "undecodable statement event: "+cause.Error())
	}
	switch {
	case err == nil:
		return nil
	case errors.Is(err, producers.ErrDLQDisabled):
		logger.Error("DLQ disabled, dropping undecodable statement event", "payload_bytes", len(value))
		return nil
	default:
		logger.Error("Failed to publish message to DLQ after decode error", "dlq_error", err, "original_error", cause)
		return fmt.Errorf("dead-lettering undecodable statement event: %w", err)
	}
}

func decodeStatementEvent(value []byte) (*shared.StatementEvent, error) {
	var event shared.StatementEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return nil, err
	}
	if event.StatementID == uuid.Nil {
		return nil, errMissingStatementID
	}
	return &event, nil
}
