package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/fin-api-ledger/internal/balance"
	"github.com/fin-api-ledger/internal/domain/history"
	"github.com/fin-api-ledger/internal/domain/statement"
	"github.com/fin-api-ledger/internal/domain/user"
)

// StatementServiceImpl implements the StatementService interface
type StatementServiceImpl struct {
	users      user.Repository
	statements statement.Repository
	history    history.Repository
	engine     *balance.Engine
	logger     *slog.Logger
}

// NewStatementService creates a new statement service
func NewStatementService(logger *slog.Logger, users user.Repository, statements statement.Repository, historyRepo history.Repository) StatementService {
	return &StatementServiceImpl{
		users:      users,
		statements: statements,
		history:    historyRepo,
		engine:     balance.NewEngine(statements),
		logger:     logger,
	}
}

// CreateStatement validates, checks funds for withdrawals and appends under the account lock
func (s *StatementServiceImpl) CreateStatement(ctx context.Context, req *CreateStatementRequest) (*statement.Statement, error) {
	st, err := statement.NewOperation(req.AccountID, req.Amount, req.Description, req.Type)
	if err != nil {
		return nil, err
	}

	if _, err := s.users.FindByID(ctx, req.AccountID); err != nil {
		return nil, err
	}

	err = s.statements.WithAccountLocks(ctx, []uuid.UUID{req.AccountID}, func(repo statement.Repository) error {
		if st.Type == statement.OperationTypeWithdraw {
			if err := s.ensureFunds(ctx, repo, req.AccountID, st); err != nil {
				return err
			}
		}
		return repo.Create(ctx, st)
	})
	if err != nil {
		s.logFailure("Failed to create statement", err,
			"account_id", req.AccountID.String(),
			"type", string(req.Type),
			"amount", req.Amount.String(),
		)
		return nil, err
	}

	s.logger.Info("Statement created",
		"statement_id", st.ID.String(),
		"account_id", st.UserID.String(),
		"type", string(st.Type),
		"amount", st.Amount.String(),
	)
	return st, nil
}

// CreateTransfer checks the recipient exists and the sender can cover the amount, then appends
// one transfer record while holding both account locks.
func (s *StatementServiceImpl) CreateTransfer(ctx context.Context, req *CreateTransferRequest) (*statement.Statement, error) {
	st, err := statement.NewTransfer(req.SenderID, req.RecipientID, req.Amount, req.Description)
	if err != nil {
		return nil, err
	}

	if _, err := s.users.FindByID(ctx, req.RecipientID); err != nil {
		return nil, err
	}

	err = s.statements.WithAccountLocks(ctx, []uuid.UUID{req.SenderID, req.RecipientID}, func(repo statement.Repository) error {
		if err := s.ensureFunds(ctx, repo, req.SenderID, st); err != nil {
			return err
		}
		return repo.Create(ctx, st)
	})
	if err != nil {
		s.logFailure("Failed to create transfer", err,
			"sender_id", req.SenderID.String(),
			"recipient_id", req.RecipientID.String(),
			"amount", req.Amount.String(),
		)
		return nil, err
	}

	s.logger.Info("Transfer created",
		"statement_id", st.ID.String(),
		"sender_id", req.SenderID.String(),
		"recipient_id", req.RecipientID.String(),
		"amount", st.Amount.String(),
	)
	return st, nil
}

// ensureFunds rejects st when its amount is strictly greater than the payer's balance
func (s *StatementServiceImpl) ensureFunds(ctx context.Context, repo statement.Repository, payerID uuid.UUID, st *statement.Statement) error {
	current, err := balance.Compute(ctx, repo, payerID, false)
	if err != nil {
		return err
	}
	if st.Amount.GreaterThan(current.Balance) {
		return statement.ErrInsufficientFunds
	}
	return nil
}

// GetStatement resolves the account, then looks the statement up scoped to it
func (s *StatementServiceImpl) GetStatement(ctx context.Context, accountID, statementID uuid.UUID) (*statement.Statement, error) {
	if _, err := s.users.FindByID(ctx, accountID); err != nil {
		return nil, err
	}
	return s.statements.FindByID(ctx, statementID, accountID)
}

// GetBalance returns the derived balance and every statement the account participates in
func (s *StatementServiceImpl) GetBalance(ctx context.Context, accountID uuid.UUID) (*balance.Result, error) {
	if _, err := s.users.FindByID(ctx, accountID); err != nil {
		if errors.Is(err, user.ErrUserNotFound{}) {
			return nil, &BalanceError{AccountID: accountID, Err: err}
		}
		return nil, err
	}

	result, err := s.engine.ComputeBalance(ctx, accountID, true)
	if err != nil {
		s.logger.Error("Failed to compute balance", "account_id", accountID.String(), "error", err)
		return nil, err
	}
	return result, nil
}

// GetStatementHistory returns a page of the projected history and the total entry count
func (s *StatementServiceImpl) GetStatementHistory(ctx context.Context, accountID uuid.UUID, page, perPage int) ([]*history.Entry, int64, error) {
	if page < 1 || perPage < 1 {
		return nil, 0, ErrInvalidPagination
	}
	if _, err := s.users.FindByID(ctx, accountID); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage
	entries, err := s.history.GetByAccountID(ctx, accountID, perPage, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.history.CountByAccountID(ctx, accountID)
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

// logFailure logs business rejections at info and everything else at error
func (s *StatementServiceImpl) logFailure(msg string, err error, attrs ...any) {
	attrs = append(attrs, "error", err)
	if errors.Is(err, statement.ErrInsufficientFunds) {
		s.logger.Info(msg, attrs...)
		return
	}
	s.logger.Error(msg, attrs...)
}
