package consumers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/fin-api-ledger/internal/config"
)

// MessageHandler processes one message. An error makes the consumer retry the same message.
type MessageHandler func(ctx context.Context, key []byte, value []byte) error

type Consumer interface {
	Subscribe(ctx context.Context, handler MessageHandler) error
	Close() error
}

// messageReader is the part of *kafka.Reader the consumer needs
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

const maxRetryBackoff = 30 * time.Second

// KafkaConsumer reads the statement topic as part of a consumer group
type KafkaConsumer struct {
	reader       messageReader
	logger       *slog.Logger
	topic        string
	groupID      string
	retryBackoff time.Duration
}

func NewKafkaConsumer(logger *slog.Logger, cfg *config.KafkaConfig) *KafkaConsumer {
	startOffset := cfg.StartOffset
	if startOffset == 0 {
		startOffset = kafka.FirstOffset
	}

	return &KafkaConsumer{
		logger:       logger.With("topic", cfg.StatementTopic, "group_id", cfg.ConsumerGroup),
		topic:        cfg.StatementTopic,
		groupID:      cfg.ConsumerGroup,
		retryBackoff: time.Second,
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:     cfg.BrokerList(),
			Topic:       cfg.StatementTopic,
			GroupID:     cfg.ConsumerGroup,
			MinBytes:    cfg.MinBytes,
			MaxBytes:    cfg.MaxBytes,
			MaxWait:     cfg.MaxWait,
			StartOffset: startOffset,
		}),
	}
}

// sleep waits d or until ctx ends, reporting whether the full wait elapsed
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Subscribe feeds messages to handler until ctx is canceled. A message is committed only after
// handler succeeds; until then it is retried in place with growing backoff, since committing a
// later offset on the same partition would skip it.
func (c *KafkaConsumer) Subscribe(ctx context.Context, handler MessageHandler) error {
	c.logger.Info("Subscribed to Kafka topic")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				c.logger.Info("Context canceled, stopping consumer")
				return nil
			}
			c.logger.Error("Failed to fetch message from Kafka", "error", err)
			if !sleep(ctx, c.retryBackoff) {
				return nil
			}
			continue
		}

		if !c.handle(ctx, msg, handler) {
			return nil
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("Failed to commit message after successful processing",
				"partition", msg.Partition, "offset", msg.Offset, "error", err,
			)
		}
	}
}

// handle runs handler until it succeeds. It returns false when ctx ends first.
func (c *KafkaConsumer) handle(ctx context.Context, msg kafka.Message, handler MessageHandler) bool {
	backoff := c.retryBackoff
	for attempt := 1; ; attempt++ {
		c.logger.Debug("Handling message",
			"partition", msg.Partition, "offset", msg.Offset, "key", string(msg.Key), "attempt", attempt,
		)
		err := handler(ctx, msg.Key, msg.Value)
		if err == nil {
			return true
		}

		c.logger.Error("Failed to process message, retrying before commit",
			"partition", msg.Partition, "offset", msg.Offset, "attempt", attempt, "backoff", backoff, "error", err,
		)
		if !sleep(ctx, backoff) {
			return false
		}
		backoff = min(backoff*2, maxRetryBackoff)
	}
}

func (c *KafkaConsumer) Close() error {
	if c.reader == nil {
		return nil
	}
	return c.reader.Close()
}
