package mocks

import (
	"sync"

	"github.com/rentiva/veriprop/internal/models"

	"github.com/google/uuid"
)

// MockRequestRepo keeps verification requests in memory.
type MockRequestRepo struct {
	mu       sync.Mutex
	Requests []models.VerificationRequest
}

func (m *MockRequestRepo) Insert(customerID, customerType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	req := models.VerificationRequest{
		ID:                  uuid.NewString(),
		CustomerID:          customerID,
		CustomerType:        customerType,
		Status:              models.VerificationStatusPending,
		OwnerApprovalStatus: models.OwnerApprovalPending,
	}
	m.Requests = append(m.Requests, req)
	return req.ID, nil
}

func (m *MockRequestRepo) GetOne(id string) (*models.VerificationRequest, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.Requests {
		if m.Requests[i].ID == id {
			req := m.Requests[i]
			return &req, true, nil
		}
	}
	return nil, false, nil
}

func (m *MockRequestRepo) GetLatestForCustomer(customerID string) (*models.VerificationRequest, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := len(m.Requests) - 1; i >= 0; i-- {
		if m.Requests[i].CustomerID == customerID {
			req := m.Requests[i]
			return &req, true, nil
		}
	}
	return nil, false, nil
}

func (m *MockRequestRepo) Update(req *models.VerificationRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.Requests {
		if m.Requests[i].ID == req.ID {
			m.Requests[i] = *req
			return nil
		}
	}
	return nil
}

func (m *MockRequestRepo) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.Requests {
		if m.Requests[i].ID == id {
			m.Requests = append(m.Requests[:i], m.Requests[i+1:]...)
			return nil
		}
	}
	return nil
}
