package mocks

import (
	"context"
	"sync"

	"github.com/rentiva/veriprop/internal/provider"
)

// MockProvider satisfies the engine's provider interface with canned
// results and counts every call, so tests can assert that no network
// round trip happened on early-exit paths.
type MockProvider struct {
	mu    sync.Mutex
	calls int

	// Result is returned from every Verify method. Tests mutate it
	// between calls to drive different outcomes.
	Result *provider.VerificationResult

	// LastNumber captures the document number the engine resolved.
	LastNumber string
}

func (m *MockProvider) record(number string) *provider.VerificationResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	m.LastNumber = number
	return m.Result
}

func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockProvider) VerifyNIN(ctx context.Context, number, firstName, lastName, dob string) *provider.VerificationResult {
	return m.record(number)
}

func (m *MockProvider) VerifyPassport(ctx context.Context, number, firstName, lastName string) *provider.VerificationResult {
	return m.record(number)
}

func (m *MockProvider) VerifyDriversLicense(ctx context.Context, number, firstName, lastName, dob string) *provider.VerificationResult {
	return m.record(number)
}

func (m *MockProvider) VerifyVotersCard(ctx context.Context, number, firstName, lastName string) *provider.VerificationResult {
	return m.record(number)
}

func (m *MockProvider) VerifyBVN(ctx context.Context, number, firstName, lastName, dob string) *provider.VerificationResult {
	return m.record(number)
}

func (m *MockProvider) VerifyDocumentImage(ctx context.Context, documentType, fileURL string, metadata map[string]string) *provider.VerificationResult {
	return m.record(fileURL)
}

func (m *MockProvider) CheckStatus(ctx context.Context, referenceID string) *provider.VerificationResult {
	return m.record(referenceID)
}
