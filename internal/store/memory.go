package store

import (
	"context"
	"sync"
)

// Memory keeps values in process. Used by tests and as a fallback backend
// for throwaway game sessions.
type Memory struct {
	mu     sync.Mutex
	values map[string][]byte

	// FailSaves makes every Save return the given error. Tests use it to
	// exercise the ledger's no-partial-save guarantee.
	FailSaves error
}

func NewMemory() *Memory {
	return &Memory{values: make(map[string][]byte)}
}

func (m *Memory) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, nil
}

func (m *Memory) Save(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSaves != nil {
		return m.FailSaves
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	m.values[key] = cp
	return nil
}
