package store

import (
	"context"
	"errors"
)

// StateKey is the key under which the full ledger snapshot is persisted.
// Kept identical to the original web app's localStorage key so exported
// state files stay recognizable.
const StateKey = "monopoly_bank_data"

var ErrNotFound = errors.New("store: key not found")

// Store is the minimal key-value capability the ledger persists through.
// Save must replace the whole value; partial updates are not part of the
// contract.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
}
