package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/fin-api-ledger/internal/domain/history"
	"github.com/fin-api-ledger/internal/domain/statement"
	"github.com/fin-api-ledger/internal/domain/user"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u *user.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

type MockStatementRepository struct {
	mock.Mock
}

func (m *MockStatementRepository) Create(ctx context.Context, st *statement.Statement) error {
	args := m.Called(ctx, st)
	return args.Error(0)
}

func (m *MockStatementRepository) FindByID(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) (*statement.Statement, error) {
	args := m.Called(ctx, id, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*statement.Statement), args.Error(1)
}

func (m *MockStatementRepository) FindAllForAccount(ctx context.Context, accountID uuid.UUID) ([]*statement.Statement, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*statement.Statement), args.Error(1)
}

// WithAccountLocks records the lock set and runs fn against the same mock
func (m *MockStatementRepository) WithAccountLocks(ctx context.Context, accountIDs []uuid.UUID, fn func(repo statement.Repository) error) error {
	args := m.Called(ctx, accountIDs)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(m)
}

type MockHistoryRepository struct {
	mock.Mock
}

func (m *MockHistoryRepository) Create(ctx context.Context, entry *history.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockHistoryRepository) GetByStatementID(ctx context.Context, statementID uuid.UUID) (*history.Entry, error) {
	args := m.Called(ctx, statementID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*history.Entry), args.Error(1)
}

func (m *MockHistoryRepository) GetByAccountID(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*history.Entry, error) {
	args := m.Called(ctx, accountID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*history.Entry), args.Error(1)
}

func (m *MockHistoryRepository) CountByAccountID(ctx context.Context, accountID uuid.UUID) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) Issue(userID uuid.UUID) (string, error) {
	args := m.Called(userID)
	return args.String(0), args.Error(1)
}
