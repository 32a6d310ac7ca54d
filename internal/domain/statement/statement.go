package statement

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Common errors
var (
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrInvalidOperationType = errors.New("invalid operation type")
	ErrSelfTransfer         = errors.New("cannot transfer to the same account")
)

// OperationType is the closed set of monetary operations a statement can record
type OperationType string

const (
	OperationTypeDeposit  OperationType = "deposit"
	OperationTypeWithdraw OperationType = "withdraw"
	OperationTypeTransfer OperationType = "transfer"
)

// ParseOperationType converts a raw value into an OperationType
func ParseOperationType(raw string) (OperationType, error) {
	switch t := OperationType(raw); t {
	case OperationTypeDeposit, OperationTypeWithdraw, OperationTypeTransfer:
		return t, nil
	default:
		return "", ErrInvalidOperationType
	}
}

// Statement is an immutable record of one monetary operation.
// For transfers UserID is the recipient and SenderID the payer; SenderID is nil otherwise.
type Statement struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"user_id"`
	SenderID    *uuid.UUID      `json:"sender_id,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Type        OperationType   `json:"type"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// NewOperation builds an unsaved deposit or withdraw statement for the given account
func NewOperation(accountID uuid.UUID, amount decimal.Decimal, description string, opType OperationType) (*Statement, error) {
	if opType != OperationTypeDeposit && opType != OperationTypeWithdraw {
		return nil, ErrInvalidOperationType
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	return &Statement{
		UserID:      accountID,
		Amount:      amount,
		Description: description,
		Type:        opType,
	}, nil
}

// NewTransfer builds an unsaved transfer statement from senderID to recipientID
func NewTransfer(senderID, recipientID uuid.UUID, amount decimal.Decimal, description string) (*Statement, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if senderID == recipientID {
		return nil, ErrSelfTransfer
	}

	sender := senderID
	return &Statement{
		UserID:      recipientID,
		SenderID:    &sender,
		Amount:      amount,
		Description: description,
		Type:        OperationTypeTransfer,
	}, nil
}

// EffectOn returns the signed change this statement applies to accountID's balance
func (s *Statement) EffectOn(accountID uuid.UUID) decimal.Decimal {
	switch s.Type {
	case OperationTypeDeposit:
		return s.Amount
	case OperationTypeTransfer:
		if s.UserID == accountID {
			return s.Amount
		}
		return s.Amount.Neg()
	case OperationTypeWithdraw:
		return s.Amount.Neg()
	default:
		return decimal.Zero
	}
}

// Involves reports whether accountID is the owner or the sender of the statement
func (s *Statement) Involves(accountID uuid.UUID) bool {
	if s.UserID == accountID {
		return true
	}
	return s.SenderID != nil && *s.SenderID == accountID
}

// Participants returns the owner followed by the sender, if any
func (s *Statement) Participants() []uuid.UUID {
	ids := []uuid.UUID{s.UserID}
	if s.SenderID != nil {
		ids = append(ids, *s.SenderID)
	}
	return ids
}
