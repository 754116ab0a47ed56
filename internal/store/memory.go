package store

import (
	"context"
	"sync"

	"github.com/serroba/ratelog/internal/ratelimit"
)

// MemoryStore is an in-memory implementation of ratelimit.Store.
// It keeps a private copy so callers never share slices with it.
type MemoryStore struct {
	mu   sync.Mutex
	data ratelimit.Snapshot
}

// NewMemoryStore creates an empty in-memory snapshot store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(_ context.Context) (ratelimit.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.data == nil {
		return ratelimit.Snapshot{}, nil
	}

	return m.data.Clone(), nil
}

func (m *MemoryStore) Persist(_ context.Context, data ratelimit.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data = data.Clone()

	return nil
}

func (m *MemoryStore) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data = nil

	return nil
}

// Ping always succeeds.
func (m *MemoryStore) Ping(_ context.Context) error {
	return nil
}

// Compile-time check.
var _ ratelimit.Store = (*MemoryStore)(nil)
