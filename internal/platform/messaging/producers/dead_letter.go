package producers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/fin-api-ledger/internal/config"
)

// ErrDLQDisabled is returned when publishing through a producer without a DLQ topic
var ErrDLQDisabled = errors.New("dead letter queue is disabled")

const (
	headerDLQReason   = "dlq-reason"
	headerDLQFailedAt = "dlq-failed-at"
)

// DLQProducer parks statement events the consumer could not decode
type DLQProducer struct {
	logger *slog.Logger
	writer KafkaWriter
	topic  string
}

type deadLetter struct {
	OriginalKey   string    `json:"original_key"`
	OriginalValue string    `json:"original_value"`
	Reason        string    `json:"dlq_reason"`
	FailedAt      time.Time `json:"failed_at"`
}

func (d deadLetter) message() (kafka.Message, error) {
	value, err := json.Marshal(d)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal dead letter: %w", err)
	}
	return kafka.Message{
		Key:   []byte(d.OriginalKey),
		Value: value,
		Time:  d.FailedAt,
		Headers: []kafka.Header{
			{Key: headerDLQReason, Value: []byte(d.Reason)},
			{Key: headerDLQFailedAt, Value: []byte(d.FailedAt.Format(time.RFC3339Nano))},
		},
	}, nil
}

// NewDLQProducer returns a nil producer when cfg.DLQTopic is empty
func NewDLQProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*DLQProducer, error) {
	if cfg.DLQTopic == "" {
		logger.Info("DLQ topic is not configured, undecodable statement events will be dropped")
		return nil, nil
	}
	if err := ensureTopic(ctx, logger, cfg, cfg.DLQTopic); err != nil {
		return nil, err
	}

	return &DLQProducer{
		logger: logger.With("topic", cfg.DLQTopic),
		topic:  cfg.DLQTopic,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.BrokerList()...),
			Topic:        cfg.DLQTopic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireAll,
			WriteTimeout: cfg.MaxWait,
		},
	}, nil
}

func (p *DLQProducer) PublishToDLQ(ctx context.Context, key string, originalMessageValue []byte, reason string) error {
	if p == nil || p.writer == nil {
		return ErrDLQDisabled
	}

	msg, err := deadLetter{
		OriginalKey:   key,
		OriginalValue: string(originalMessageValue),
		Reason:        reason,
		FailedAt:      time.Now().UTC(),
	}.message()
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish message to DLQ", "key", key, "error", err)
		return fmt.Errorf("failed to publish message to DLQ %s: %w", p.topic, err)
	}
	p.logger.Warn("Statement event parked in DLQ", "key", key, "reason", reason)
	return nil
}

func (p *DLQProducer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close DLQ writer for %s: %w", p.topic, err)
	}
	return nil
}
