package provider

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rentiva/veriprop/internal/models"

	"github.com/stretchr/testify/require"
)

type capturingAudit struct {
	mu   sync.Mutex
	logs []models.ProviderCallLog
}

func (a *capturingAudit) Insert(log *models.ProviderCallLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logs = append(a.logs, *log)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *capturingAudit) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	audit := &capturingAudit{}
	return New(server.URL, "test-app", "test-secret", audit, testLogger()), audit
}

func registryResponse(entity map[string]any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"entity":       entity,
			"reference_id": "ref-123",
		})
	}
}

func TestVerifyNIN_MatchAboveThreshold(t *testing.T) {
	var gotAppID, gotAuth string
	var gotPayload map[string]any

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAppID = r.Header.Get("AppId")
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotPayload)

		json.NewEncoder(w).Encode(map[string]any{
			"entity": map[string]any{
				"firstname": "Adaeze",
				"surname":   "Okafor",
			},
			"reference_id": "ref-123",
		})
	})

	result := client.VerifyNIN(context.Background(), "12345678901", "Adaeze", "Okafor", "")

	require.True(t, result.Success)
	require.Equal(t, StatusVerified, result.Status)
	require.Equal(t, 100.0, result.Confidence)
	require.Equal(t, "ref-123", result.ReferenceID)
	require.NotNil(t, result.Data)
	require.Equal(t, "Adaeze", result.Data.FirstName)
	require.Equal(t, "Okafor", result.Data.LastName)

	require.Equal(t, "test-app", gotAppID)
	require.Equal(t, "test-secret", gotAuth)
	require.Equal(t, "12345678901", gotPayload["nin"])
}

func TestVerifyNIN_MismatchBelowThreshold(t *testing.T) {
	client, _ := newTestClient(t, registryResponse(map[string]any{
		"firstname": "Chukwuemeka",
		"surname":   "Eze",
	}))

	result := client.VerifyNIN(context.Background(), "12345678901", "Adaeze", "Okafor", "")

	require.False(t, result.Success)
	require.Equal(t, StatusFailed, result.Status)
	require.NotEmpty(t, result.Error)
	require.Less(t, result.Confidence, RegistryThreshold)
}

func TestVerifyNIN_DateOfBirthBlend(t *testing.T) {
	client, _ := newTestClient(t, registryResponse(map[string]any{
		"first_name":    "Adaeze",
		"last_name":     "Okafor",
		"date_of_birth": "01/01/1990",
	}))

	// provider returns a slash date; ours is dash, they must still match
	result := client.VerifyNIN(context.Background(), "12345678901", "Adaeze", "Okafor", "1990-01-01")

	require.True(t, result.Success)
	require.Equal(t, 100.0, result.Confidence)
}

func TestVerifyNIN_DateOfBirthMismatchDragsScore(t *testing.T) {
	client, _ := newTestClient(t, registryResponse(map[string]any{
		"first_name":    "Adaeze",
		"last_name":     "Okafor",
		"date_of_birth": "1991-05-05",
	}))

	result := client.VerifyNIN(context.Background(), "12345678901", "Adaeze", "Okafor", "1990-01-01")

	// names 100 each at 0.4, dob 0 at 0.2
	require.InDelta(t, 80.0, result.Confidence, 0.001)
	require.True(t, result.Success)
}

func TestVerifyPassport_CamelCaseAliases(t *testing.T) {
	client, _ := newTestClient(t, registryResponse(map[string]any{
		"firstName": "Adaeze",
		"lastName":  "Okafor",
		"issuing_state": "Lagos",
	}))

	result := client.VerifyPassport(context.Background(), "A01234567", "Adaeze", "Okafor")

	require.True(t, result.Success)
	require.Equal(t, "Adaeze", result.Data.FirstName)
	require.Equal(t, "Lagos", result.Data.Extra["issuing_state"])
}

func TestRegistryLookup_ServerError(t *testing.T) {
	client, audit := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	result := client.VerifyVotersCard(context.Background(), "90123456789", "Adaeze", "Okafor")

	require.False(t, result.Success)
	require.Equal(t, StatusFailed, result.Status)
	require.Contains(t, result.Error, "500")

	// the failed call is still audited
	require.Len(t, audit.logs, 1)
	require.False(t, audit.logs[0].Success)
	require.Equal(t, http.StatusInternalServerError, audit.logs[0].StatusCode)
}

func TestRegistryLookup_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close() // nothing listening anymore

	client := New(server.URL, "app", "secret", nil, testLogger())
	result := client.VerifyNIN(context.Background(), "12345678901", "Adaeze", "Okafor", "")

	require.False(t, result.Success)
	require.Equal(t, StatusFailed, result.Status)
	require.NotEmpty(t, result.Error)
}

func TestAuditPayloadIsRedacted(t *testing.T) {
	client, audit := newTestClient(t, registryResponse(map[string]any{
		"firstname": "Adaeze",
		"surname":   "Okafor",
	}))

	client.VerifyNIN(context.Background(), "12345678901", "Adaeze", "Okafor", "")

	require.Len(t, audit.logs, 1)
	payload := audit.logs[0].RequestPayload
	require.NotContains(t, payload, "12345678901")
	require.Contains(t, payload, "12*******01")
}

func TestVerifyBVN_PerFieldScores(t *testing.T) {
	client, _ := newTestClient(t, registryResponse(map[string]any{
		"first_name": map[string]any{"confidence_value": 90.0, "status": true},
		"last_name":  map[string]any{"confidence_value": 100.0, "status": true},
	}))

	result := client.VerifyBVN(context.Background(), "12345678901", "Adaeze", "Okafor", "")

	require.True(t, result.Success)
	require.Equal(t, StatusVerified, result.Status)
	require.InDelta(t, 95.0, result.Confidence, 0.001)
	require.Nil(t, result.Data)
}

func TestVerifyBVN_FieldMismatchFails(t *testing.T) {
	client, _ := newTestClient(t, registryResponse(map[string]any{
		"first_name": map[string]any{"confidence_value": 100.0, "status": true},
		"last_name":  map[string]any{"confidence_value": 100.0, "status": false},
	}))

	result := client.VerifyBVN(context.Background(), "12345678901", "Adaeze", "Okafor", "")

	require.False(t, result.Success)
	require.Equal(t, StatusFailed, result.Status)
}

func TestVerifyDocumentImage_AboveThreshold(t *testing.T) {
	client, _ := newTestClient(t, registryResponse(map[string]any{
		"confidence_value": 85.0,
		"text_data": map[string]any{
			"first_name": "Adaeze",
			"last_name":  "Okafor",
		},
	}))

	result := client.VerifyDocumentImage(context.Background(), "utility_bill", "https://cdn.example.com/doc.jpg", nil)

	require.True(t, result.Success)
	require.Equal(t, StatusVerified, result.Status)
	require.Equal(t, "Adaeze", result.Data.FirstName)
}

func TestVerifyDocumentImage_LowConfidenceGoesToReview(t *testing.T) {
	client, _ := newTestClient(t, registryResponse(map[string]any{
		"confidence_value": 40.0,
	}))

	result := client.VerifyDocumentImage(context.Background(), "utility_bill", "https://cdn.example.com/doc.jpg", nil)

	require.False(t, result.Success)
	require.Equal(t, StatusPending, result.Status)
	require.True(t, result.RequiresManualReview)
}

func TestVerifyDocumentImage_ProviderErrorGoesToReview(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	result := client.VerifyDocumentImage(context.Background(), "utility_bill", "https://cdn.example.com/doc.jpg", nil)

	require.False(t, result.Success)
	require.Equal(t, StatusPending, result.Status)
	require.True(t, result.RequiresManualReview)
	require.NotEmpty(t, result.Error)
}

func TestCheckStatus(t *testing.T) {
	client, _ := newTestClient(t, registryResponse(map[string]any{
		"status":           "completed",
		"confidence_value": 92.0,
	}))

	result := client.CheckStatus(context.Background(), "ref-123")

	require.True(t, result.Success)
	require.Equal(t, StatusVerified, result.Status)
	require.Equal(t, "ref-123", result.ReferenceID)
}

func TestMaskNumber(t *testing.T) {
	require.Equal(t, "12*******01", maskNumber("12345678901"))
	require.Equal(t, "****", maskNumber("123"))
	require.Equal(t, "****", maskNumber("1234"))
	require.Equal(t, "12*34", maskNumber("12934"))
	require.True(t, strings.HasPrefix(maskNumber("ABCDEFGH"), "AB"))
}
