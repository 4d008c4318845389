package ledger

import "errors"

var (
	// ErrNotFound means the account has never been initialized.
	ErrNotFound = errors.New("ledger: account not found")

	// ErrExists means Initialize was called for an id that already has an
	// account. Initialize is create-only.
	ErrExists = errors.New("ledger: account already exists")

	// ErrInvalidAmount covers non-positive amounts and self-transfers.
	ErrInvalidAmount = errors.New("ledger: invalid amount")

	// ErrInvalidAccount rejects empty ids and the reserved bank id.
	ErrInvalidAccount = errors.New("ledger: invalid account id")

	// ErrInsufficientFunds means the debit would take the balance negative.
	ErrInsufficientFunds = errors.New("ledger: insufficient funds")

	// ErrPersistence wraps store failures. The in-memory state is untouched
	// whenever it is returned.
	ErrPersistence = errors.New("ledger: persistence failure")
)
