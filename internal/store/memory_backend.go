package store

import "sync"

// MemoryBackend is an in-process Backend for tests. It counts saves per
// location and can be told to fail the next writes.
type MemoryBackend[T any] struct {
	mu      sync.RWMutex
	data    map[string][]T
	saves   map[string]int
	failErr error
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend[T any]() *MemoryBackend[T] {
	return &MemoryBackend[T]{
		data:  make(map[string][]T),
		saves: make(map[string]int),
	}
}

// Load returns a copy of the stored snapshots.
func (m *MemoryBackend[T]) Load(location string) ([]T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	history, ok := m.data[location]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]T, len(history))
	copy(out, history)
	return out, nil
}

// Save stores a copy of history unless a failure has been injected.
func (m *MemoryBackend[T]) Save(location string, history []T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	stored := make([]T, len(history))
	copy(stored, history)
	m.data[location] = stored
	m.saves[location]++
	return nil
}

// FailWith makes every following Save return err. Pass nil to recover.
func (m *MemoryBackend[T]) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failErr = err
}

// Saves returns how many successful saves location has seen.
func (m *MemoryBackend[T]) Saves(location string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves[location]
}

// Stored returns the persisted snapshots for location, or nil.
func (m *MemoryBackend[T]) Stored(location string) []T {
	history, err := m.Load(location)
	if err != nil {
		return nil
	}
	return history
}
