package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fin-api-ledger/internal/balance"
	"github.com/fin-api-ledger/internal/domain/history"
	"github.com/fin-api-ledger/internal/domain/statement"
	"github.com/fin-api-ledger/internal/domain/user"
)

// CreateStatementRequest is a deposit or withdraw against the caller's own account
type CreateStatementRequest struct {
	AccountID   uuid.UUID
	Amount      decimal.Decimal
	Description string
	Type        statement.OperationType
}

// CreateTransferRequest moves Amount from SenderID to RecipientID
type CreateTransferRequest struct {
	SenderID    uuid.UUID
	RecipientID uuid.UUID
	Amount      decimal.Decimal
	Description string
}

// StatementService defines the ledger operations exposed to the transport layer
type StatementService interface {
	// CreateStatement records a deposit or withdraw.
	// Returns ErrUserNotFound for an unknown account and ErrInsufficientFunds when a withdraw exceeds the balance.
	CreateStatement(ctx context.Context, req *CreateStatementRequest) (*statement.Statement, error)

	// CreateTransfer records a transfer owned by the recipient.
	// Returns ErrUserNotFound for an unknown recipient and ErrInsufficientFunds when the sender cannot cover it.
	CreateTransfer(ctx context.Context, req *CreateTransferRequest) (*statement.Statement, error)

	// GetStatement returns a statement owned by accountID, or ErrStatementNotFound
	GetStatement(ctx context.Context, accountID, statementID uuid.UUID) (*statement.Statement, error)

	// GetBalance folds the account's full history. An unknown account yields a *BalanceError.
	GetBalance(ctx context.Context, accountID uuid.UUID) (*balance.Result, error)

	// GetStatementHistory pages through the projected history, newest first.
	// Returns entries, total count, and any error
	GetStatementHistory(ctx context.Context, accountID uuid.UUID, page, perPage int) ([]*history.Entry, int64, error)
}

// Session is the result of a successful authentication
type Session struct {
	Token string     `json:"token"`
	User  *user.User `json:"user"`
}

// UserService defines identity operations
type UserService interface {
	// CreateUser registers a user. Returns ErrDuplicateEmail when the email is taken.
	CreateUser(ctx context.Context, name, email, password string) (*user.User, error)

	// Authenticate returns a session token. Unknown email and wrong password both yield ErrIncorrectCredentials.
	Authenticate(ctx context.Context, email, password string) (*Session, error)

	GetProfile(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// TokenIssuer signs session tokens for a user id
type TokenIssuer interface {
	Issue(userID uuid.UUID) (string, error)
}
