package storage

import (
	"context"
	"sync"
)

// Memory is an in-process Store. It backs tests and single-process
// deployments where the session should not outlive the process.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

// Read implements [Store].
func (m *Memory) Read(_ context.Context, keys ...string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]string, len(keys))
	for _, key := range keys {
		if value, ok := m.data[key]; ok {
			out[key] = value
		}
	}
	return out, nil
}

// Apply implements [Store]. The whole mutation happens under one lock, so
// readers see either everything or nothing.
func (m *Memory) Apply(_ context.Context, set map[string]string, del []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, value := range set {
		m.data[key] = value
	}
	for _, key := range del {
		delete(m.data, key)
	}
	return nil
}

// Len reports the number of stored keys. Test helper.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
