package mocks

import (
	"sync"
	"time"
)

// MockLease is an in-memory stand-in for the redis lease.
type MockLease struct {
	mu   sync.Mutex
	held map[string]bool

	// Err makes every acquire fail, for testing the degraded path.
	Err error
}

func (m *MockLease) AcquireLease(key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return false, m.Err
	}

	if m.held == nil {
		m.held = make(map[string]bool)
	}
	if m.held[key] {
		return false, nil
	}
	m.held[key] = true
	return true, nil
}

func (m *MockLease) ReleaseLease(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.held, key)
	return nil
}
