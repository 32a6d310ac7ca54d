package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/fin-api-ledger/internal/config"
	"github.com/fin-api-ledger/internal/domain/shared"
)

const (
	headerContentType   = "content-type"
	headerCorrelationID = "correlation_id"
)

// eventHeaders tags the record as JSON and forwards the correlation id found on ctx.
func eventHeaders(ctx context.Context) []kafka.Header {
	headers := []kafka.Header{{Key: headerContentType, Value: []byte("application/json")}}
	if id := shared.CorrelationIDFromContext(ctx); id != "" {
		headers = append(headers, kafka.Header{Key: headerCorrelationID, Value: []byte(id)})
	}
	return headers
}

// StatementEventProducer publishes statement events to the statement topic.
// Writes are synchronous so a nil error means the brokers acknowledged the message.
type StatementEventProducer struct {
	logger *slog.Logger
	writer KafkaWriter
	topic  string
}

// NewStatementEventProducer creates the producer and ensures the statement topic exists
func NewStatementEventProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*StatementEventProducer, error) {
	if cfg.StatementTopic == "" {
		return nil, fmt.Errorf("kafka statement topic is not configured")
	}

	if err := ensureTopic(ctx, logger, cfg, cfg.StatementTopic); err != nil {
		return nil, err
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.BrokerList()...),
		Topic:        cfg.StatementTopic,
		Balancer:     &kafka.Hash{}, // same account, same partition
		RequiredAcks: kafka.RequireAll,
		WriteTimeout: cfg.MaxWait,
	}

	return &StatementEventProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.StatementTopic,
	}, nil
}

// Publish writes value under key. json.RawMessage values are sent unchanged.
func (p *StatementEventProducer) Publish(ctx context.Context, key string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal statement event: %w", err)
	}

	msg := kafka.Message{
		Key:     []byte(key),
		Value:   jsonValue,
		Headers: eventHeaders(ctx),
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write statement event to %s (key %s): %w", p.topic, key, err)
	}

	p.logger.Debug("Published statement event", "topic", p.topic, "key", key, "bytes", len(jsonValue))
	return nil
}

func (p *StatementEventProducer) Close() error {
	p.logger.Info("Closing statement event producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
