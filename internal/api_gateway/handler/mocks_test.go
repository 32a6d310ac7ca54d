package handler

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/fin-api-ledger/internal/api_gateway/service"
	"github.com/fin-api-ledger/internal/balance"
	"github.com/fin-api-ledger/internal/domain/history"
	"github.com/fin-api-ledger/internal/domain/statement"
	"github.com/fin-api-ledger/internal/domain/user"
)

type MockStatementService struct {
	mock.Mock
}

func (m *MockStatementService) CreateStatement(ctx context.Context, req *service.CreateStatementRequest) (*statement.Statement, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*statement.Statement), args.Error(1)
}

func (m *MockStatementService) CreateTransfer(ctx context.Context, req *service.CreateTransferRequest) (*statement.Statement, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*statement.Statement), args.Error(1)
}

func (m *MockStatementService) GetStatement(ctx context.Context, accountID, statementID uuid.UUID) (*statement.Statement, error) {
	args := m.Called(ctx, accountID, statementID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*statement.Statement), args.Error(1)
}

func (m *MockStatementService) GetBalance(ctx context.Context, accountID uuid.UUID) (*balance.Result, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*balance.Result), args.Error(1)
}

func (m *MockStatementService) GetStatementHistory(ctx context.Context, accountID uuid.UUID, page, perPage int) ([]*history.Entry, int64, error) {
	args := m.Called(ctx, accountID, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*history.Entry), args.Get(1).(int64), args.Error(2)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) CreateUser(ctx context.Context, name, email, password string) (*user.User, error) {
	args := m.Called(ctx, name, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserService) Authenticate(ctx context.Context, email, password string) (*service.Session, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Session), args.Error(1)
}

func (m *MockUserService) GetProfile(ctx context.Context, id uuid.UUID) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}
