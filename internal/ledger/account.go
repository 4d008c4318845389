package ledger

// BankID is the reserved counterparty for initialize, deposit and withdraw
// transactions. It is not a real account and can never be created as one.
const BankID = "BANK"

type Kind string

const (
	KindInitialize Kind = "initialize"
	KindDeposit    Kind = "deposit"
	KindWithdraw   Kind = "withdraw"
	KindTransfer   Kind = "transfer"
)

// Transaction is an immutable audit record. A transfer appends the same
// record (same ID, same timestamp) to both histories.
type Transaction struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Amount    int64  `json:"amount"`
	Timestamp int64  `json:"timestamp"` // unix milliseconds
	Kind      Kind   `json:"kind"`
}

// Account is one card's ledger entry. Balance always equals the signed sum
// of its transactions and never goes negative.
type Account struct {
	ID           string        `json:"id"`
	Balance      int64         `json:"balance"`
	Transactions []Transaction `json:"transactions"`
	LastUpdated  int64         `json:"last_updated"` // unix milliseconds
}

func (a *Account) clone() *Account {
	cp := *a
	cp.Transactions = make([]Transaction, len(a.Transactions))
	copy(cp.Transactions, a.Transactions)
	return &cp
}
