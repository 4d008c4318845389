package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanqqq29/monopoly-bank/internal/store"
)

func newTestLedger(t *testing.T) (*Ledger, *store.Memory) {
	t.Helper()
	st := store.NewMemory()
	l, err := New(context.Background(), st)
	require.NoError(t, err)
	return l, st
}

func TestInitializeIsCreateOnly(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	a, err := l.Initialize(ctx, "card_1", 100)
	require.NoError(t, err)
	assert.Equal(t, int64(100), a.Balance)
	require.Len(t, a.Transactions, 1)
	assert.Equal(t, KindInitialize, a.Transactions[0].Kind)
	assert.Equal(t, BankID, a.Transactions[0].From)

	_, err = l.Initialize(ctx, "card_1", 500)
	assert.ErrorIs(t, err, ErrExists)
}

func TestInitializeRejectsReservedAndEmptyIDs(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := l.Initialize(ctx, BankID, 100)
	assert.ErrorIs(t, err, ErrInvalidAccount)
	_, err = l.Initialize(ctx, "", 100)
	assert.ErrorIs(t, err, ErrInvalidAccount)
}

func TestDepositWithdrawScenario(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := l.Initialize(ctx, "card_1", 100)
	require.NoError(t, err)
	_, err = l.Deposit(ctx, "card_1", 50)
	require.NoError(t, err)
	a, err := l.Withdraw(ctx, "card_1", 30)
	require.NoError(t, err)

	assert.Equal(t, int64(120), a.Balance)
	require.Len(t, a.Transactions, 3)
	assert.Equal(t, KindInitialize, a.Transactions[0].Kind)
	assert.Equal(t, KindDeposit, a.Transactions[1].Kind)
	assert.Equal(t, KindWithdraw, a.Transactions[2].Kind)
}

func TestBalanceEqualsSignedSumOfTransactions(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := l.Initialize(ctx, "card_1", 200)
	require.NoError(t, err)
	_, err = l.Initialize(ctx, "card_2", 50)
	require.NoError(t, err)
	_, err = l.Deposit(ctx, "card_1", 75)
	require.NoError(t, err)
	_, err = l.Withdraw(ctx, "card_1", 25)
	require.NoError(t, err)
	_, err = l.Transfer(ctx, "card_1", "card_2", 100)
	require.NoError(t, err)

	for _, a := range l.All() {
		var sum int64
		for _, txn := range a.Transactions {
			if txn.To == a.ID {
				sum += txn.Amount
			} else {
				sum -= txn.Amount
			}
		}
		assert.Equal(t, a.Balance, sum, "account %s", a.ID)
		assert.GreaterOrEqual(t, a.Balance, int64(0))
	}
}

func TestDepositValidation(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := l.Deposit(ctx, "card_1", 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = l.Deposit(ctx, "card_1", -5)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = l.Deposit(ctx, "card_missing", 10)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWithdrawInsufficientFundsLeavesBalance(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := l.Initialize(ctx, "card_1", 40)
	require.NoError(t, err)

	_, err = l.Withdraw(ctx, "card_1", 1000)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	a, err := l.Get("card_1")
	require.NoError(t, err)
	assert.Equal(t, int64(40), a.Balance)
	assert.Len(t, a.Transactions, 1)
}

func TestTransferScenario(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := l.Initialize(ctx, "card_1", 120)
	require.NoError(t, err)
	_, err = l.Initialize(ctx, "card_2", 0)
	require.NoError(t, err)

	txn, err := l.Transfer(ctx, "card_1", "card_2", 80)
	require.NoError(t, err)
	assert.Equal(t, KindTransfer, txn.Kind)

	from, err := l.Get("card_1")
	require.NoError(t, err)
	to, err := l.Get("card_2")
	require.NoError(t, err)

	assert.Equal(t, int64(40), from.Balance)
	assert.Equal(t, int64(80), to.Balance)

	// Both histories reference the same logical event.
	last := func(a Account) Transaction { return a.Transactions[len(a.Transactions)-1] }
	assert.Equal(t, last(from).ID, last(to).ID)
	assert.Equal(t, last(from).Timestamp, last(to).Timestamp)
	assert.Equal(t, int64(80), last(from).Amount)
}

func TestTransferValidation(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := l.Initialize(ctx, "card_1", 100)
	require.NoError(t, err)

	_, err = l.Transfer(ctx, "card_1", "card_1", 10)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = l.Transfer(ctx, "card_1", "card_2", 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = l.Transfer(ctx, "card_1", "card_missing", 10)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = l.Transfer(ctx, "card_missing", "card_1", 10)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = l.Transfer(ctx, "card_1", "card_2", 10)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTransferAtomicOnPersistenceFailure(t *testing.T) {
	l, st := newTestLedger(t)
	ctx := context.Background()

	_, err := l.Initialize(ctx, "card_1", 120)
	require.NoError(t, err)
	_, err = l.Initialize(ctx, "card_2", 0)
	require.NoError(t, err)

	st.FailSaves = errors.New("disk full")
	_, err = l.Transfer(ctx, "card_1", "card_2", 80)
	assert.ErrorIs(t, err, ErrPersistence)

	// Neither side moved.
	from, err := l.Get("card_1")
	require.NoError(t, err)
	to, err := l.Get("card_2")
	require.NoError(t, err)
	assert.Equal(t, int64(120), from.Balance)
	assert.Equal(t, int64(0), to.Balance)
	assert.Len(t, from.Transactions, 1)
	assert.Len(t, to.Transactions, 1)

	// Clearing the fault makes the same transfer succeed.
	st.FailSaves = nil
	_, err = l.Transfer(ctx, "card_1", "card_2", 80)
	require.NoError(t, err)
}

func TestMutationFailureLeavesMemoryUntouched(t *testing.T) {
	l, st := newTestLedger(t)
	ctx := context.Background()

	_, err := l.Initialize(ctx, "card_1", 100)
	require.NoError(t, err)

	st.FailSaves = errors.New("disk full")
	_, err = l.Deposit(ctx, "card_1", 50)
	assert.ErrorIs(t, err, ErrPersistence)

	a, err := l.Get("card_1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), a.Balance)
	assert.Len(t, a.Transactions, 1)
}

func TestPersistedSnapshotRoundTrips(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()

	l, err := New(ctx, st)
	require.NoError(t, err)
	_, err = l.Initialize(ctx, "card_1", 100)
	require.NoError(t, err)
	_, err = l.Deposit(ctx, "card_1", 50)
	require.NoError(t, err)

	// A fresh ledger over the same store sees the same state.
	restored, err := New(ctx, st)
	require.NoError(t, err)
	a, err := restored.Get("card_1")
	require.NoError(t, err)
	assert.Equal(t, int64(150), a.Balance)
	assert.Len(t, a.Transactions, 2)
}

func TestReset(t *testing.T) {
	l, st := newTestLedger(t)
	ctx := context.Background()

	_, err := l.Initialize(ctx, "card_1", 100)
	require.NoError(t, err)
	require.NoError(t, l.Reset(ctx))

	assert.Equal(t, 0, l.Count())
	_, err = l.Get("card_1")
	assert.ErrorIs(t, err, ErrNotFound)

	restored, err := New(ctx, st)
	require.NoError(t, err)
	assert.Equal(t, 0, restored.Count())
}

func TestAccountCopiesAreIndependent(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	a, err := l.Initialize(ctx, "card_1", 100)
	require.NoError(t, err)
	a.Balance = 999999
	a.Transactions[0].Amount = 7

	cur, err := l.Get("card_1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), cur.Balance)
	assert.Equal(t, int64(100), cur.Transactions[0].Amount)
}

func TestMoneySupplyAndCount(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := l.Initialize(ctx, "card_1", 1500)
	require.NoError(t, err)
	_, err = l.Initialize(ctx, "card_2", 1500)
	require.NoError(t, err)
	_, err = l.Transfer(ctx, "card_1", "card_2", 200)
	require.NoError(t, err)

	// Transfers move money around; they never mint or burn it.
	assert.Equal(t, int64(3000), l.MoneySupply())
	assert.Equal(t, 2, l.Count())
}
