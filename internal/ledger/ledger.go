// Package ledger is the authoritative mapping of card ids to balances and
// transaction histories. All mutations happen inside one critical section
// and are persisted in full before they become visible, so a successful
// return is equivalent to "saved" and callers never observe partial state.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/wanqqq29/monopoly-bank/internal/store"
)

type Ledger struct {
	mu       sync.Mutex
	accounts map[string]*Account
	store    store.Store

	// now is swappable in tests.
	now func() time.Time
}

// New restores the ledger from the persisted store. An empty store yields an
// empty ledger; any other load failure is fatal to construction.
func New(ctx context.Context, st store.Store) (*Ledger, error) {
	l := &Ledger{
		accounts: make(map[string]*Account),
		store:    st,
		now:      time.Now,
	}
	blob, err := st.Load(ctx, store.StateKey)
	if errors.Is(err, store.ErrNotFound) {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load: %v", ErrPersistence, err)
	}
	accounts, err := unmarshalSnapshot(blob)
	if err != nil {
		return nil, fmt.Errorf("restore ledger snapshot: %w", err)
	}
	l.accounts = accounts
	return l, nil
}

func (l *Ledger) newTransaction(from, to string, amount int64, kind Kind) Transaction {
	return Transaction{
		ID:        ulid.Make().String(),
		From:      from,
		To:        to,
		Amount:    amount,
		Timestamp: l.now().UnixMilli(),
		Kind:      kind,
	}
}

// persist writes the full account set, with the staged accounts replacing
// their current versions, and installs the staged accounts only after the
// write succeeds. Both sides of a transfer therefore land in one store
// write, never two.
func (l *Ledger) persist(ctx context.Context, staged ...*Account) error {
	next := make(map[string]*Account, len(l.accounts)+len(staged))
	for id, a := range l.accounts {
		next[id] = a
	}
	for _, a := range staged {
		next[a.ID] = a
	}
	blob, err := marshalSnapshot(next)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrPersistence, err)
	}
	if err := l.store.Save(ctx, store.StateKey, blob); err != nil {
		return fmt.Errorf("%w: save: %v", ErrPersistence, err)
	}
	l.accounts = next
	return nil
}

// Initialize creates an account. It is create-only: an existing id fails
// with ErrExists. The opening balance arrives as one initialize transaction
// from the bank (amount zero is allowed here, unlike the other operations,
// so blank cards can be formatted empty).
func (l *Ledger) Initialize(ctx context.Context, id string, initial int64) (Account, error) {
	if id == "" || id == BankID {
		return Account{}, ErrInvalidAccount
	}
	if initial < 0 {
		return Account{}, ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.accounts[id]; ok {
		return Account{}, ErrExists
	}
	txn := l.newTransaction(BankID, id, initial, KindInitialize)
	a := &Account{
		ID:           id,
		Balance:      initial,
		Transactions: []Transaction{txn},
		LastUpdated:  txn.Timestamp,
	}
	if err := l.persist(ctx, a); err != nil {
		return Account{}, err
	}
	return *a.clone(), nil
}

// Deposit credits an account from the bank.
func (l *Ledger) Deposit(ctx context.Context, id string, amount int64) (Account, error) {
	if amount <= 0 {
		return Account{}, ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	cur, ok := l.accounts[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	txn := l.newTransaction(BankID, id, amount, KindDeposit)
	a := cur.clone()
	a.Balance += amount
	a.Transactions = append(a.Transactions, txn)
	a.LastUpdated = txn.Timestamp
	if err := l.persist(ctx, a); err != nil {
		return Account{}, err
	}
	return *a.clone(), nil
}

// Withdraw debits an account to the bank, keeping the balance non-negative.
func (l *Ledger) Withdraw(ctx context.Context, id string, amount int64) (Account, error) {
	if amount <= 0 {
		return Account{}, ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	cur, ok := l.accounts[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	if cur.Balance < amount {
		return Account{}, ErrInsufficientFunds
	}
	txn := l.newTransaction(id, BankID, amount, KindWithdraw)
	a := cur.clone()
	a.Balance -= amount
	a.Transactions = append(a.Transactions, txn)
	a.LastUpdated = txn.Timestamp
	if err := l.persist(ctx, a); err != nil {
		return Account{}, err
	}
	return *a.clone(), nil
}

// Transfer moves money between two accounts atomically: both balances move
// and both histories gain the same transaction record, or nothing changes.
// The two updated accounts go to the store in one write.
func (l *Ledger) Transfer(ctx context.Context, fromID, toID string, amount int64) (Transaction, error) {
	if amount <= 0 || fromID == toID {
		return Transaction{}, ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	curFrom, ok1 := l.accounts[fromID]
	curTo, ok2 := l.accounts[toID]
	if !ok1 || !ok2 {
		return Transaction{}, ErrNotFound
	}
	if curFrom.Balance < amount {
		return Transaction{}, ErrInsufficientFunds
	}

	txn := l.newTransaction(fromID, toID, amount, KindTransfer)

	from := curFrom.clone()
	from.Balance -= amount
	from.Transactions = append(from.Transactions, txn)
	from.LastUpdated = txn.Timestamp

	to := curTo.clone()
	to.Balance += amount
	to.Transactions = append(to.Transactions, txn)
	to.LastUpdated = txn.Timestamp

	if err := l.persist(ctx, from, to); err != nil {
		return Transaction{}, err
	}
	return txn, nil
}

// Reset wipes every account. Irreversible.
func (l *Ledger) Reset(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	blob, err := marshalSnapshot(map[string]*Account{})
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrPersistence, err)
	}
	if err := l.store.Save(ctx, store.StateKey, blob); err != nil {
		return fmt.Errorf("%w: save: %v", ErrPersistence, err)
	}
	l.accounts = make(map[string]*Account)
	return nil
}

// Get returns a copy of one account's current state.
func (l *Ledger) Get(id string) (Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok := l.accounts[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	return *a.clone(), nil
}

// All returns copies of every account, ordered by id.
func (l *Ledger) All() []Account {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Account, 0, len(l.accounts))
	for _, a := range l.accounts {
		out = append(out, *a.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Count reports how many cards are in play.
func (l *Ledger) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.accounts)
}

// MoneySupply is the sum of all balances, a quick sanity figure for the
// banker overview.
func (l *Ledger) MoneySupply() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	var total int64
	for _, a := range l.accounts {
		total += a.Balance
	}
	return total
}
