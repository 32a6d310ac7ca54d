package balance

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fin-api-ledger/internal/domain/statement"
)

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

func (m *MockStatementRepository) WithAccountLocks(ctx context.Context, accountIDs []uuid.UUID, fn func(repo statement.Repository) error) error {
	args := m.Called(ctx, accountIDs)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(m)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestFold(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	t.Run("EmptyHistoryIsZero", func(t *testing.T) {
		assert.True(t, Fold(a, nil).IsZero())
	})

	t.Run("AllOperationTypes", func(t *testing.T) {
		records := []*statement.Statement{
			{UserID: a, Amount: dec("100"), Type: statement.OperationTypeDeposit},
			{UserID: a, Amount: dec("30.25"), Type: statement.OperationTypeWithdraw},
			{UserID: b, SenderID: &a, Amount: dec("20"), Type: statement.OperationTypeTransfer},
			{UserID: a, SenderID: &b, Amount: dec("5.5"), Type: statement.OperationTypeTransfer},
		}

		assert.True(t, dec("55.25").Equal(Fold(a, records)), "got %s", Fold(a, records))
	})

	t.Run("OrderDoesNotMatter", func(t *testing.T) {
		records := []*statement.Statement{
			{UserID: a, Amount: dec("10"), Type: statement.OperationTypeWithdraw},
			{UserID: a, Amount: dec("10"), Type: statement.OperationTypeDeposit},
		}
		reversed := []*statement.Statement{records[1], records[0]}

		assert.True(t, Fold(a, records).Equal(Fold(a, reversed)))
	})
}

func TestEngine_ComputeBalance(t *testing.T) {
	ctx := context.Background()
	accountID := uuid.New()

	t.Run("WithHistory", func(t *testing.T) {
		repo := new(MockStatementRepository)
		engine := NewEngine(repo)
		records := []*statement.Statement{
			{ID: uuid.New(), UserID: accountID, Amount: dec("100"), Type: statement.OperationTypeDeposit},
			{ID: uuid.New(), UserID: accountID, Amount: dec("40"), Type: statement.OperationTypeWithdraw},
		}
		repo.On("FindAllForAccount", ctx, accountID).Return(records, nil).Once()

		result, err := engine.ComputeBalance(ctx, accountID, true)

		require.NoError(t, err)
		assert.True(t, dec("60").Equal(result.Balance))
		assert.Equal(t, records, result.Statements)
		repo.AssertExpectations(t)
	})

	t.Run("WithoutHistory", func(t *testing.T) {
		repo := new(MockStatementRepository)
		engine := NewEngine(repo)
		repo.On("FindAllForAccount", ctx, accountID).Return([]*statement.Statement{
			{UserID: accountID, Amount: dec("1"), Type: statement.OperationTypeDeposit},
		}, nil).Once()

		result, err := engine.ComputeBalance(ctx, accountID, false)

		require.NoError(t, err)
		assert.True(t, dec("1").Equal(result.Balance))
		assert.Nil(t, result.Statements)
	})

	t.Run("EmptyHistoryIsEmptySlice", func(t *testing.T) {
		repo := new(MockStatementRepository)
		engine := NewEngine(repo)
		repo.On("FindAllForAccount", ctx, accountID).Return(nil, nil).Once()

		result, err := engine.ComputeBalance(ctx, accountID, true)

		require.NoError(t, err)
		assert.True(t, result.Balance.IsZero())
		assert.NotNil(t, result.Statements)
		assert.Empty(t, result.Statements)
	})

	t.Run("StoreErrorPropagates", func(t *testing.T) {
		repo := new(MockStatementRepository)
		engine := NewEngine(repo)
		storeErr := errors.New("connection reset")
		repo.On("FindAllForAccount", ctx, accountID).Return(nil, storeErr).Once()

		result, err := engine.ComputeBalance(ctx, accountID, false)

		assert.Nil(t, result)
		assert.ErrorIs(t, err, storeErr)
	})
}
