package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fin-api-ledger/internal/data/memory"
	"github.com/fin-api-ledger/internal/domain/statement"
	"github.com/fin-api-ledger/internal/domain/user"
)

type ledgerHarness struct {
	t          *testing.T
	ctx        context.Context
	users      *memory.UserRepository
	statements *memory.StatementRepository
	service    StatementService
}

func newLedgerHarness(t *testing.T) *ledgerHarness {
	users := memory.NewUserRepository()
	statements := memory.NewStatementRepository()
	return &ledgerHarness{
		t:          t,
		ctx:        context.Background(),
		users:      users,
		statements: statements,
		service:    NewStatementService(discardLogger(), users, statements, new(MockHistoryRepository)),
	}
}

func (h *ledgerHarness) account() uuid.UUID {
	id := uuid.New()
	require.NoError(h.t, h.users.Create(h.ctx, &user.User{ID: id, Name: "acc", Email: id.String() + "@example.com"}))
	return id
}

func (h *ledgerHarness) operate(account uuid.UUID, opType statement.OperationType, amount string) (*statement.Statement, error) {
	return h.service.CreateStatement(h.ctx, &CreateStatementRequest{
		AccountID: account,
		Amount:    decimal.RequireFromString(amount),
		Type:      opType,
	})
}

func (h *ledgerHarness) balance(account uuid.UUID) decimal.Decimal {
	result, err := h.service.GetBalance(h.ctx, account)
	require.NoError(h.t, err)
	return result.Balance
}

func TestLedger_NewAccountHasZeroBalance(t *testing.T) {
	h := newLedgerHarness(t)
	a := h.account()

	result, err := h.service.GetBalance(h.ctx, a)

	require.NoError(t, err)
	assert.True(t, result.Balance.IsZero())
	assert.Empty(t, result.Statements)
}

func TestLedger_DepositsSum(t *testing.T) {
	h := newLedgerHarness(t)
	a := h.account()

	for _, amount := range []string{"10", "0.5", "99.99", "1000"} {
		_, err := h.operate(a, statement.OperationTypeDeposit, amount)
		require.NoError(t, err)
	}

	assert.True(t, decimal.RequireFromString("1110.49").Equal(h.balance(a)))
}

func TestLedger_DepositWithdrawScenario(t *testing.T) {
	h := newLedgerHarness(t)
	a := h.account()

	_, err := h.operate(a, statement.OperationTypeDeposit, "100")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(100).Equal(h.balance(a)))

	withdraw, err := h.operate(a, statement.OperationTypeWithdraw, "100")
	require.NoError(t, err)
	assert.Equal(t, statement.OperationTypeWithdraw, withdraw.Type)
	assert.True(t, decimal.NewFromInt(100).Equal(withdraw.Amount))
	assert.True(t, h.balance(a).IsZero())

	before := h.statements.Len()
	_, err = h.operate(a, statement.OperationTypeWithdraw, "1")
	assert.ErrorIs(t, err, statement.ErrInsufficientFunds)
	assert.Equal(t, before, h.statements.Len(), "rejected withdraw must not append")
}

func TestLedger_TransferScenario(t *testing.T) {
	h := newLedgerHarness(t)
	a := h.account()
	b := h.account()

	_, err := h.operate(a, statement.OperationTypeDeposit, "100")
	require.NoError(t, err)
	sumBefore := h.balance(a).Add(h.balance(b))

	transfer, err := h.service.CreateTransfer(h.ctx, &CreateTransferRequest{
		SenderID:    a,
		RecipientID: b,
		Amount:      decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	assert.Equal(t, b, transfer.UserID)
	require.NotNil(t, transfer.SenderID)
	assert.Equal(t, a, *transfer.SenderID)
	assert.Equal(t, statement.OperationTypeTransfer, transfer.Type)
	assert.True(t, decimal.NewFromInt(100).Equal(transfer.Amount))

	assert.True(t, h.balance(a).IsZero())
	assert.True(t, decimal.NewFromInt(100).Equal(h.balance(b)))
	assert.True(t, sumBefore.Equal(h.balance(a).Add(h.balance(b))))
}

func TestLedger_StatementLookupIsOwnerScoped(t *testing.T) {
	h := newLedgerHarness(t)
	a := h.account()
	b := h.account()

	st, err := h.operate(a, statement.OperationTypeDeposit, "5")
	require.NoError(t, err)

	found, err := h.service.GetStatement(h.ctx, a, st.ID)
	require.NoError(t, err)
	assert.Equal(t, st.ID, found.ID)

	other, err := h.service.GetStatement(h.ctx, b, st.ID)
	assert.Nil(t, other)
	assert.ErrorIs(t, err, statement.ErrStatementNotFound{StatementID: st.ID})
}

func TestLedger_UnknownAccountHasNoSideEffects(t *testing.T) {
	h := newLedgerHarness(t)
	a := h.account()
	ghost := uuid.New()

	_, err := h.operate(ghost, statement.OperationTypeDeposit, "1")
	assert.ErrorIs(t, err, user.ErrUserNotFound{})

	_, err = h.service.CreateTransfer(h.ctx, &CreateTransferRequest{SenderID: a, RecipientID: ghost, Amount: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, user.ErrUserNotFound{})

	_, err = h.service.GetStatement(h.ctx, ghost, uuid.New())
	assert.ErrorIs(t, err, user.ErrUserNotFound{})

	_, err = h.service.GetBalance(h.ctx, ghost)
	var balanceErr *BalanceError
	assert.ErrorAs(t, err, &balanceErr)

	assert.Equal(t, 0, h.statements.Len())
}

func TestLedger_ConcurrentWithdrawalsNeverOverdraw(t *testing.T) {
	h := newLedgerHarness(t)
	a := h.account()

	_, err := h.operate(a, statement.OperationTypeDeposit, "10")
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := h.operate(a, statement.OperationTypeWithdraw, "1"); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)
	assert.True(t, h.balance(a).IsZero())
}
