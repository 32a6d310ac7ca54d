package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/fin-api-ledger/internal/domain/outbox"
	"github.com/fin-api-ledger/internal/domain/shared"
	"github.com/fin-api-ledger/internal/platform/persistence"
)

const (
	insertOutboxSQL = `
		INSERT INTO statement_outbox (statement_id, account_id, payload, status, attempts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	pendingOutboxSQL = `
		SELECT id, statement_id, account_id, payload, status, attempts, created_at, last_attempt_at
		FROM statement_outbox
		WHERE status = $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2`

	updateOutboxStatusSQL = `UPDATE statement_outbox SET status = $1, last_attempt_at = now() WHERE id = $2`

	incrementOutboxAttemptsSQL = `UPDATE statement_outbox SET attempts = attempts + 1, last_attempt_at = now() WHERE id = $1`
)

// OutboxRepository stores statement events next to the statements that produced them
type OutboxRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewOutboxRepository(logger *slog.Logger, querier persistence.Querier) outbox.Repository {
	return &OutboxRepository{querier: querier, logger: logger}
}

// WithTx binds the repository to tx so the message commits together with its statement
func (r *OutboxRepository) WithTx(tx pgx.Tx) outbox.Repository {
	return &OutboxRepository{querier: tx, logger: r.logger}
}

func (r *OutboxRepository) Create(ctx context.Context, message *outbox.Message) error {
	row := r.querier.QueryRow(ctx, insertOutboxSQL,
		message.StatementID, message.AccountID, message.Payload, message.Status, message.Attempts, message.CreatedAt,
	)
	if err := row.Scan(&message.ID); err != nil {
		r.logger.Error("Failed to create outbox message", "statement_id", message.StatementID.String(), "error", err)
		return fmt.Errorf("failed to create outbox message: %w", err)
	}
	return nil
}

func (r *OutboxRepository) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	rows, err := r.querier.Query(ctx, pendingOutboxSQL, shared.OutboxStatusPending, limit)
	if err != nil {
		r.logger.Error("Failed to get pending outbox messages", "error", err)
		return nil, fmt.Errorf("failed to get pending outbox messages: %w", err)
	}

	messages, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*outbox.Message, error) {
		return scanMessage(row)
	})
	if err != nil {
		r.logger.Error("Failed to read pending outbox messages", "error", err)
		return nil, fmt.Errorf("failed to read pending outbox messages: %w", err)
	}
	return messages, nil
}

func (r *OutboxRepository) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	return r.touch(ctx, id, "update status", updateOutboxStatusSQL, status, id)
}

func (r *OutboxRepository) IncrementAttempts(ctx context.Context, id int64) error {
	return r.touch(ctx, id, "increment attempts", incrementOutboxAttemptsSQL, id)
}

// touch runs a single-row update and reports a missing row as ErrMessageNotFound
func (r *OutboxRepository) touch(ctx context.Context, id int64, op, query string, args ...any) error {
	tag, err := r.querier.Exec(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to "+op+" of outbox message", "id", id, "error", err)
		return fmt.Errorf("failed to %s of outbox message %d: %w", op, id, err)
	}
	if tag.RowsAffected() == 0 {
		return outbox.ErrMessageNotFound{ID: id}
	}
	return nil
}

func scanMessage(row pgx.Row) (*outbox.Message, error) {
	m := new(outbox.Message)
	if err := row.Scan(
		&m.ID, &m.StatementID, &m.AccountID, &m.Payload, &m.Status, &m.Attempts, &m.CreatedAt, &m.LastAttemptAt,
	); err != nil {
		return nil, err
	}
	return m, nil
}
