// internal/store/store.go
//
// Key-value persistence used by the leaderboard, settings and custom card sets.
// Each logical record lives under one key and is always written whole, so a
// failed write leaves the previous value in place.
//
// Characteristics (memory implementation):
//   - Values kept in a map keyed by record name.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - State is lost when the process restarts; use OpenSQLite for durability.

package store

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned by lookups for ids that are not stored.
var ErrNotFound = errors.New("not found")

// KV defines the persistence interface for serialized records.
// Implementations may be backed by memory (this file) or SQLite (sqlite.go).
type KV interface {
	// Get returns the value stored under key. ok is false when absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set replaces the value under key.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// memory is an in-memory map-based KV implementation.
type memory struct {
	mu   sync.RWMutex      // guards vals
	vals map[string]string // keyed by record name
}

// NewMemoryKV constructs a new in-memory KV.
func NewMemoryKV() KV {
	return &memory{vals: make(map[string]string)}
}

func (m *memory) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.vals[key]
	return v, ok, nil
}

func (m *memory) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vals[key] = value
	return nil
}

func (m *memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.vals, key)
	return nil
}
