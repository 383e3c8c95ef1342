package mocks

import (
	"sync"

	"github.com/rentiva/veriprop/internal/models"
)

// MockDocumentRepo keeps verification documents in memory.
type MockDocumentRepo struct {
	mu   sync.Mutex
	Docs []models.VerificationDocument

	// UpdateErr makes UpdateVerification fail, for testing that
	// persistence failures never change the verification outcome.
	UpdateErr error

	Updated []models.VerificationDocument
}

func (m *MockDocumentRepo) Insert(doc *models.VerificationDocument) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Docs = append(m.Docs, *doc)
	return doc.ID, nil
}

func (m *MockDocumentRepo) GetOne(id string) (*models.VerificationDocument, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.Docs {
		if m.Docs[i].ID == id {
			doc := m.Docs[i]
			return &doc, true, nil
		}
	}
	return nil, false, nil
}

func (m *MockDocumentRepo) ListForRequest(requestID string) ([]models.VerificationDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.VerificationDocument
	for _, doc := range m.Docs {
		if doc.RequestID == requestID {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (m *MockDocumentRepo) UpdateVerification(doc *models.VerificationDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.UpdateErr != nil {
		return m.UpdateErr
	}

	m.Updated = append(m.Updated, *doc)
	for i := range m.Docs {
		if m.Docs[i].ID == doc.ID {
			m.Docs[i] = *doc
		}
	}
	return nil
}

func (m *MockDocumentRepo) CountVerified(requestID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, doc := range m.Docs {
		if doc.RequestID == requestID && doc.Status == models.VerificationStatusVerified {
			count++
		}
	}
	return count, nil
}
