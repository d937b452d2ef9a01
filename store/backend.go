package store

import (
	"errors"
	"sync"
)

// ErrKeyNotFound is returned by Backend.Get for absent keys.
var ErrKeyNotFound = errors.New("key not found")

// Backend is a minimal durable key-value capability. Implementations must be
// safe for concurrent use; values are short opaque strings.
type Backend interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
	Close() error
}

// MemoryBackend is a process-lifetime Backend used as the fallback tier when
// the primary backend is unavailable, and as an isolated backend in tests.
type MemoryBackend struct {
	mu     sync.RWMutex
	values map[string]string

	// FailWrites forces Set to error. Test hook for the both-backends-fail
	// path; never set outside tests.
	FailWrites bool
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: make(map[string]string)}
}

// Get returns the stored value for key, or ErrKeyNotFound.
func (m *MemoryBackend) Get(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return v, nil
}

func (m *MemoryBackend) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWrites {
		return errors.New("memory backend write disabled")
	}
	m.values[key] = value
	return nil
}

func (m *MemoryBackend) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, key)
	return nil
}

// Close is a no-op for the in-memory backend.
func (m *MemoryBackend) Close() error { return nil }
