package credentials

import (
	"context"
	"sync"
)

// MemoryStore is a Store that lives only as long as the process
type MemoryStore struct {
	mu     sync.RWMutex
	values map[Key]string
}

// NewMemoryStore creates an empty in-memory Store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: map[Key]string{}}
}

// Get implements Store
func (m *MemoryStore) Get(_ context.Context, key Key) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

// Set implements Store
func (m *MemoryStore) Set(_ context.Context, key Key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// Delete implements Store
func (m *MemoryStore) Delete(_ context.Context, key Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Clear implements Store
func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = map[Key]string{}
	return nil
}
