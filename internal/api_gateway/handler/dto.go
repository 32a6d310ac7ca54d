package handler

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fin-api-ledger/internal/api_gateway/service"
	"github.com/fin-api-ledger/internal/balance"
	"github.com/fin-api-ledger/internal/domain/history"
	"github.com/fin-api-ledger/internal/domain/statement"
	"github.com/fin-api-ledger/internal/domain/user"
)

// CreateUserRequest represents a registration request
type CreateUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// CreateSessionRequest represents a login request
type CreateSessionRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// StatementRequest is the body of deposit, withdraw and transfer requests.
// Amount accepts a JSON number or a decimal string.
type StatementRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" binding:"max=255"`
}

// Money renders an amount as a bare JSON number such as 100.5.
// It decodes from either a number or a decimal string.
type Money struct {
	decimal.Decimal
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal.String()), nil
}

// UserResponse represents a user in API responses
type UserResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

// SessionResponse carries an issued bearer token
type SessionResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// StatementResponse represents a ledger statement in API responses
type StatementResponse struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	SenderID    string `json:"sender_id,omitempty"`
	Amount      Money  `json:"amount"`
	Description string `json:"description"`
	Type        string `json:"type"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// BalanceResponse is the derived balance together with the statements it was folded from
type BalanceResponse struct {
	Balance    Money               `json:"balance"`
	Statements []StatementResponse `json:"statement"`
}

// HistoryEntryResponse is one projected history row seen from the caller's account
type HistoryEntryResponse struct {
	StatementID   string `json:"statement_id"`
	UserID        string `json:"user_id"`
	SenderID      string `json:"sender_id,omitempty"`
	Type          string `json:"type"`
	Direction     string `json:"direction"`
	Amount        Money  `json:"amount"`
	Description   string `json:"description"`
	CorrelationID string `json:"correlation_id,omitempty"`
	CreatedAt     string `json:"created_at"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=10" binding:"min=1,max=100"`
}

func mapUserToResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:        u.ID.String(),
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}

func mapSessionToResponse(s *service.Session) SessionResponse {
	return SessionResponse{
		Token: s.Token,
		User:  mapUserToResponse(s.User),
	}
}

func mapStatementToResponse(st *statement.Statement) StatementResponse {
	response := StatementResponse{
		ID:          st.ID.String(),
		UserID:      st.UserID.String(),
		Amount:      Money{st.Amount},
		Description: st.Description,
		Type:        string(st.Type),
		CreatedAt:   st.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   st.UpdatedAt.Format(time.RFC3339),
	}
	if st.SenderID != nil {
		response.SenderID = st.SenderID.String()
	}
	return response
}

func mapBalanceToResponse(result *balance.Result) BalanceResponse {
	statements := make([]StatementResponse, 0, len(result.Statements))
	for _, st := range result.Statements {
		statements = append(statements, mapStatementToResponse(st))
	}
	return BalanceResponse{
		Balance:    Money{result.Balance},
		Statements: statements,
	}
}

func mapHistoryEntryToResponse(entry *history.Entry, viewer uuid.UUID) HistoryEntryResponse {
	response := HistoryEntryResponse{
		StatementID:   entry.StatementID.String(),
		UserID:        entry.UserID.String(),
		Type:          string(entry.Type),
		Direction:     entry.DirectionFor(viewer),
		Amount:        Money{entry.Amount},
		Description:   entry.Description,
		CorrelationID: entry.CorrelationID,
		CreatedAt:     entry.CreatedAt.Format(time.RFC3339),
	}
	if entry.SenderID != nil {
		response.SenderID = entry.SenderID.String()
	}
	return response
}
