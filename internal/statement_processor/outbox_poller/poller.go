package outbox_poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fin-api-ledger/internal/config"
	"github.com/fin-api-ledger/internal/domain/outbox"
)

// Poller relays pending outbox messages in FIFO order
type Poller struct {
	outboxRepo       outbox.Repository
	publisher        EventPublisher
	logger           *slog.Logger
	pollInterval     time.Duration
	batchSize        int
	maxRetryAttempts int
}

func NewPoller(
	cfg *config.OutboxConfig,
	outboxRepo outbox.Repository,
	publisher EventPublisher,
	logger *slog.Logger,
) *Poller {
	return &Poller{
		outboxRepo:       outboxRepo,
		publisher:        publisher,
		logger:           logger,
		pollInterval:     cfg.PollingInterval,
		batchSize:        cfg.BatchSize,
		maxRetryAttempts: cfg.MaxRetryAttempts,
	}
}

// batchStats summarizes one relay pass over the outbox.
type batchStats struct {
	fetched    int
	published  int
	unrecorded int // published, but still PENDING in the outbox
	parked     int
	failed     int
}

// backlog reports whether the outbox likely holds more publishable rows right now.
func (b batchStats) backlog(batchSize int) bool {
	return b.fetched == batchSize && b.failed == 0 && b.unrecorded == 0
}

// Start relays until ctx is canceled. It polls once immediately and keeps
// going without waiting for the ticker while full batches publish cleanly.
func (p *Poller) Start(ctx context.Context) {
	p.logger.Info("Outbox poller started",
		"poll_interval", p.pollInterval.String(),
		"batch_size", p.batchSize,
		"max_retry_attempts", p.maxRetryAttempts,
	)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		p.drain(ctx)

		select {
		case <-ctx.Done():
			p.logger.Info("Outbox poller stopped")
			return
		case <-ticker.C:
		}
	}
}

func (p *Poller) drain(ctx context.Context) {
	for ctx.Err() == nil {
		if !p.poll(ctx) {
			return
		}
	}
}

// poll runs one batch and reports whether another should follow right away.
func (p *Poller) poll(ctx context.Context) bool {
	stats, err := p.relayBatch(ctx)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Error("Outbox relay pass failed", "error", err)
		}
		return false
	}
	if stats.fetched > 0 {
		p.logger.Debug("Outbox relay pass",
			"fetched", stats.fetched,
			"published", stats.published,
			"unrecorded", stats.unrecorded,
			"parked", stats.parked,
			"failed", stats.failed,
		)
	}
	return stats.backlog(p.batchSize)
}

// relayBatch publishes up to batchSize pending rows, oldest first.
func (p *Poller) relayBatch(ctx context.Context) (batchStats, error) {
	var stats batchStats

	messages, err := p.outboxRepo.GetPending(ctx, p.batchSize)
	if err != nil {
		return stats, fmt.Errorf("fetch pending outbox messages: %w", err)
	}
	stats.fetched = len(messages)

	for _, msg := range messages {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		err := p.publisher.PublishEvent(ctx, msg)
		switch {
		case err == nil:
			stats.published++
		case errors.Is(err, ErrStatusNotRecorded):
			stats.published++
			stats.unrecorded++
			p.logger.Warn("Outbox message will be republished", "outbox_id", msg.ID, "error", err)
		case errors.Is(err, ErrUnpublishable):
			stats.parked++
			p.logger.Warn("Outbox message parked", "outbox_id", msg.ID, "error", err)
		default:
			stats.failed++
			p.recordFailure(ctx, msg, err)
		}
	}
	return stats, nil
}

// recordFailure counts the attempt and parks the message once the retry budget is spent
func (p *Poller) recordFailure(ctx context.Context, msg *outbox.Message, cause error) {
	logger := p.logger.With("outbox_id", msg.ID, "statement_id", msg.StatementID)
	logger.Error("Outbox publish failed", "attempts", msg.Attempts, "error", cause)

	if err := p.outboxRepo.IncrementAttempts(ctx, msg.ID); err != nil {
		logger.Error("Could not record outbox attempt", "error", err)
		return
	}
	msg.IncrementAttempts()

	if msg.Attempts < p.maxRetryAttempts {
		return
	}
	logger.Warn("Outbox retry budget spent, giving up on message", "attempts", msg.Attempts)
	msg.MarkAsFailed()
	if err := p.outboxRepo.UpdateStatus(ctx, msg.ID, msg.Status); err != nil {
		logger.Error("Could not mark outbox message failed", "error", err)
	}
}
