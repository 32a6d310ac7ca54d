package consumers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fin-api-ledger/internal/config"
)

// fakeReader replays queued results and then blocks until the context ends
type fakeReader struct {
	mu        sync.Mutex
	queue     []fetchResult
	committed []int64
	closed    bool
}

type fetchResult struct {
	msg kafka.Message
	err error
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		next := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return next.msg, next.err
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

func (r *fakeReader) commits() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

func TestNewKafkaConsumer(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	cfg := &config.KafkaConfig{
		Brokers:        "localhost:9092, localhost:9093",
		StatementTopic: "statement_events",
		ConsumerGroup:  "statement-processor-group",
		MinBytes:       1024,
		MaxBytes:       10240,
		MaxWait:        time.Second,
	}

	consumer := NewKafkaConsumer(logger, cfg)
	require.NotNil(t, consumer)
	require.NotNil(t, consumer.reader)
	assert.Equal(t, "statement_events", consumer.topic)
	assert.Equal(t, "statement-processor-group", consumer.groupID)
	require.NoError(t, consumer.Close())
}

func newTestConsumer(reader messageReader) *KafkaConsumer {
	return &KafkaConsumer{
		reader:       reader,
		logger:       slog.New(slog.NewJSONHandler(io.Discard, nil)),
		topic:        "statement_events",
		groupID:      "group",
		retryBackoff: time.Millisecond,
	}
}

func TestKafkaConsumer_Subscribe(t *testing.T) {
	reader := &fakeReader{queue: []fetchResult{
		{msg: kafka.Message{Offset: 1, Key: []byte("a"), Value: []byte("ok")}},
		{err: errors.New("transient fetch error")},
		{msg: kafka.Message{Offset: 2, Key: []byte("b"), Value: []byte("flaky")}},
		{msg: kafka.Message{Offset: 3, Key: []byte("c"), Value: []byte("ok")}},
	}}
	consumer := newTestConsumer(reader)

	var mu sync.Mutex
	var handled []string
	flakyFailures := 2
	handler := func(_ context.Context, key, value []byte) error {
		mu.Lock()
		defer mu.Unlock()
		handled = append(handled, string(key))
		if string(value) == "flaky" && flakyFailures > 0 {
			flakyFailures--
			return errors.New("projection failed")
		}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- consumer.Subscribe(ctx, handler) }()

	require.Eventually(t, func() bool { return len(reader.commits()) == 3 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, []int64{1, 2, 3}, reader.commits(), "offsets are committed in order, each after success")
	mu.Lock()
	assert.Equal(t, []string{"a", "b", "b", "b", "c"}, handled)
	mu.Unlock()
}

func TestKafkaConsumer_FailingMessageIsNeverCommitted(t *testing.T) {
	reader := &fakeReader{queue: []fetchResult{
		{msg: kafka.Message{Offset: 7, Key: []byte("x"), Value: []byte("bad")}},
		{msg: kafka.Message{Offset: 8, Key: []byte("y"), Value: []byte("ok")}},
	}}
	consumer := newTestConsumer(reader)

	attempts := make(chan struct{}, 100)
	handler := func(_ context.Context, key, _ []byte) error {
		if string(key) == "x" {
			attempts <- struct{}{}
			return errors.New("mongo unavailable")
		}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- consumer.Subscribe(ctx, handler) }()

	for i := 0; i < 3; i++ {
		select {
		case <-attempts:
		case <-time.After(time.Second):
			t.Fatal("handler was not retried")
		}
	}
	cancel()
	require.NoError(t, <-done)

	assert.Empty(t, reader.commits(), "neither the failing message nor the one behind it may be committed")
}

func TestSleep(t *testing.T) {
	assert.True(t, sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, sleep(ctx, time.Hour))
}

func TestKafkaConsumer_Close(t *testing.T) {
	t.Run("NilReader", func(t *testing.T) {
		consumer := &KafkaConsumer{}
		require.NoError(t, consumer.Close())
	})

	t.Run("ClosesReader", func(t *testing.T) {
		reader := &fakeReader{}
		consumer := &KafkaConsumer{reader: reader}
		require.NoError(t, consumer.Close())
		assert.True(t, reader.closed)
	})
}
