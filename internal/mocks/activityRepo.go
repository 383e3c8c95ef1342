package mocks

import (
	"sync"

	"github.com/rentiva/veriprop/internal/models"
)

// MockActivityRepo records every audit entry it receives so tests can
// assert on what was (or wasn't) written.
type MockActivityRepo struct {
	mu      sync.Mutex
	Entries []models.ActivityLog

	// InsertErr makes every Insert fail, for testing that audit
	// failures are swallowed.
	InsertErr error
}

func (m *MockActivityRepo) CountConsecutiveFailedLoginAttempts(userID, action_desc string) int {
	return 0
}

func (m *MockActivityRepo) Insert(log *models.ActivityLog) (*models.ActivityLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.InsertErr != nil {
		return nil, m.InsertErr
	}

	m.Entries = append(m.Entries, *log)
	return log, nil
}

func (m *MockActivityRepo) ListForEntity(entity, entityID string) ([]models.ActivityLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.ActivityLog
	for _, entry := range m.Entries {
		if entry.Entity == entity && entry.EntityId == entityID {
			out = append(out, entry)
		}
	}
	return out, nil
}
