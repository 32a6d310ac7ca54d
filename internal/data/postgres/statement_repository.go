// Package postgres provides PostgreSQL implementations of the domain repositories.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/fin-api-ledger/internal/domain/outbox"
	"github.com/fin-api-ledger/internal/domain/shared"
	"github.com/fin-api-ledger/internal/domain/statement"
	"github.com/fin-api-ledger/internal/platform/persistence"
)

const statementColumns = `id, user_id, sender_id, amount::text, description, type, created_at, updated_at`

var _ statement.Repository = (*StatementRepository)(nil)

// StatementRepository implements statement.Repository for PostgreSQL.
// Every appended statement writes its outbox message in the same transaction.
type StatementRepository struct {
	pool    persistence.Pool
	querier persistence.Querier
	tx      pgx.Tx // set when bound to a unit of work
	outbox  outbox.Repository
	logger  *slog.Logger
}

// NewStatementRepository creates a new PostgreSQL statement repository
func NewStatementRepository(logger *slog.Logger, pool persistence.Pool, outboxRepo outbox.Repository) *StatementRepository {
	return &StatementRepository{
		pool:    pool,
		querier: pool,
		outbox:  outboxRepo,
		logger:  logger,
	}
}

// WithTx binds the repository and its outbox to tx
func (r *StatementRepository) WithTx(tx pgx.Tx) *StatementRepository {
	return &StatementRepository{
		pool:    r.pool,
		querier: tx,
		tx:      tx,
		outbox:  r.outbox.WithTx(tx),
		logger:  r.logger,
	}
}

// Create appends st and its outbox message atomically
func (r *StatementRepository) Create(ctx context.Context, st *statement.Statement) error {
	if r.tx != nil {
		return r.insert(ctx, st)
	}
	return persistence.RunInTx(ctx, r.pool, func(tx pgx.Tx) error {
		return r.WithTx(tx).insert(ctx, st)
	})
}

func (r *StatementRepository) insert(ctx context.Context, st *statement.Statement) error {
	query := `
		INSERT INTO statements (user_id, sender_id, amount, description, type)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.querier.QueryRow(ctx, query,
		st.UserID,
		st.SenderID,
		st.Amount.String(),
		st.Description,
		string(st.Type),
	).Scan(&st.ID, &st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to create statement",
			"user_id", st.UserID.String(),
			"type", st.Type,
			"error", err,
		)
		return fmt.Errorf("failed to create statement: %w", err)
	}

	message, err := outbox.NewMessage(shared.NewStatementEvent(st, shared.CorrelationIDFromContext(ctx)))
	if err != nil {
		return fmt.Errorf("failed to build outbox message: %w", err)
	}
	return r.outbox.Create(ctx, message)
}

// FindByID filters by id and owner in a single query so other accounts' statements never surface
func (r *StatementRepository) FindByID(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) (*statement.Statement, error) {
	query := `
		SELECT ` + statementColumns + `
		FROM statements
		WHERE id = $1 AND user_id = $2
	`

	st, err := scanStatement(r.querier.QueryRow(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, statement.ErrStatementNotFound{StatementID: id}
		}
		r.logger.Error("Failed to get statement", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get statement: %w", err)
	}

	return st, nil
}

// FindAllForAccount returns the account's statements as owner or sender, in insertion order
func (r *StatementRepository) FindAllForAccount(ctx context.Context, accountID uuid.UUID) ([]*statement.Statement, error) {
	query := `
		SELECT ` + statementColumns + `
		FROM statements
		WHERE user_id = $1 OR sender_id = $1
		ORDER BY seq ASC
	`

	rows, err := r.querier.Query(ctx, query, accountID)
	if err != nil {
		r.logger.Error("Failed to list statements", "account_id", accountID.String(), "error", err)
		return nil, fmt.Errorf("failed to list statements: %w", err)
	}
	defer rows.Close()

	statements := []*statement.Statement{}
	for rows.Next() {
		st, err := scanStatement(rows)
		if err != nil {
			r.logger.Error("Failed to scan statement", "error", err)
			return nil, fmt.Errorf("failed to scan statement: %w", err)
		}
		statements = append(statements, st)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over statements", "error", err)
		return nil, fmt.Errorf("error iterating over statements: %w", err)
	}

	return statements, nil
}

// WithAccountLocks takes a transaction-scoped advisory lock per account, in a fixed order,
// then runs fn against a repository bound to the same transaction.
func (r *StatementRepository) WithAccountLocks(ctx context.Context, accountIDs []uuid.UUID, fn func(repo statement.Repository) error) error {
	if r.tx != nil {
		if err := r.lockAccounts(ctx, accountIDs); err != nil {
			return err
		}
		return fn(r)
	}

	return persistence.RunInTx(ctx, r.pool, func(tx pgx.Tx) error {
		txRepo := r.WithTx(tx)
		if err := txRepo.lockAccounts(ctx, accountIDs); err != nil {
			return err
		}
		return fn(txRepo)
	})
}

func (r *StatementRepository) lockAccounts(ctx context.Context, accountIDs []uuid.UUID) error {
	query := `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`

	for _, id := range lockOrder(accountIDs) {
		if _, err := r.querier.Exec(ctx, query, id.String()); err != nil {
			r.logger.Error("Failed to lock account", "account_id", id.String(), "error", err)
			return fmt.Errorf("failed to lock account %s: %w", id, err)
		}
	}
	return nil
}

// lockOrder deduplicates ids and sorts them so concurrent callers acquire locks in the same order
func lockOrder(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	ordered := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ordered = append(ordered, id)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].String() < ordered[j].String()
	})
	return ordered
}

func scanStatement(row pgx.Row) (*statement.Statement, error) {
	var (
		st       statement.Statement
		amount   string
		stmtType string
	)
	err := row.Scan(
		&st.ID,
		&st.UserID,
		&st.SenderID,
		&amount,
		&st.Description,
		&stmtType,
		&st.CreatedAt,
		&st.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	st.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid stored amount %q: %w", amount, err)
	}
	st.Type, err = statement.ParseOperationType(stmtType)
	if err != nil {
		return nil, fmt.Errorf("invalid stored type %q: %w", stmtType, err)
	}
	return &st, nil
}
