// Package balance derives account balances from the statement ledger. No balance is
// ever stored; every query replays the account's statements.
package balance

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fin-api-ledger/internal/domain/statement"
)

// Result is the outcome of a balance computation. Statements is nil unless history was requested.
type Result struct {
	Balance    decimal.Decimal        `json:"balance"`
	Statements []*statement.Statement `json:"statement,omitempty"`
}

// Engine computes balances against a statement repository
type Engine struct {
	statements statement.Repository
}

func NewEngine(statements statement.Repository) *Engine {
	return &Engine{statements: statements}
}

// ComputeBalance folds every statement involving accountID
func (e *Engine) ComputeBalance(ctx context.Context, accountID uuid.UUID, includeHistory bool) (*Result, error) {
	return Compute(ctx, e.statements, accountID, includeHistory)
}

// Compute is ComputeBalance against an explicit repository, used inside locked units of work
func Compute(ctx context.Context, repo statement.Repository, accountID uuid.UUID, includeHistory bool) (*Result, error) {
	records, err := repo.FindAllForAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load statements for balance: %w", err)
	}

	result := &Result{Balance: Fold(accountID, records)}
	if includeHistory {
		if records == nil {
			records = []*statement.Statement{}
		}
		result.Statements = records
	}
	return result, nil
}

// Fold sums the effect of each record on accountID, starting at zero
func Fold(accountID uuid.UUID, records []*statement.Statement) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.EffectOn(accountID))
	}
	return total
}
