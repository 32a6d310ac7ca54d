package service

import (
	"errors"

	"github.com/google/uuid"
)

var ErrInvalidPagination = errors.New("page and per_page must be positive")

// BalanceError is returned by GetBalance when the account cannot be resolved
type BalanceError struct {
	AccountID uuid.UUID
	Err       error
}

func (e *BalanceError) Error() string {
	return "unable to get balance for account " + e.AccountID.String() + ": " + e.Err.Error()
}

func (e *BalanceError) Unwrap() error {
	return e.Err
}
