package store

import (
	"errors"
	"sort"
	"sync"
)

var errSaveRefused = errors.New("store: save refused")

// MemStore is an in-memory Store for tests that never touches the registry
// or the filesystem.
type MemStore struct {
	mu       sync.Mutex
	entries  map[string]string
	failSave bool
}

// NewMemStore returns a new empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{entries: make(map[string]string)}
}

// SetFailSave makes all subsequent Save calls fail.
func (m *MemStore) SetFailSave(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSave = fail
}

// Load returns the blob stored under key.
func (m *MemStore) Load(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	blob, ok := m.entries[key]
	return blob, ok, nil
}

// Save stores blob under key.
func (m *MemStore) Save(key, blob string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSave {
		return errSaveRefused
	}
	m.entries[key] = blob
	return nil
}

// Keys lists every stored key in sorted order.
func (m *MemStore) Keys() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Path returns ":memory:" to indicate this is an in-memory store.
func (m *MemStore) Path() string { return ":memory:" }

// Ensure MemStore implements Store.
var _ Store = (*MemStore)(nil)
