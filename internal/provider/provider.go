// Package provider talks to the external KYC data provider and
// translates its responses into the result shape the rest of the
// system works with. Nothing outside this package should see raw
// provider field names, and no provider outage should ever surface as
// a Go error to a caller; a failed call comes back as a failed
// VerificationResult instead.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/rentiva/veriprop/internal/models"
)

// A slow registry must not hold request-handling capacity hostage, so
// every provider call is bounded by this timeout.
const defaultTimeout = 30 * time.Second

const (
	StatusVerified = "verified"
	StatusFailed   = "failed"
	StatusPending  = "pending"
)

const (
	// RegistryThreshold is the minimum blended confidence for a registry
	// lookup (NIN, passport, licence, voter's card) to count as verified.
	RegistryThreshold = 80.0

	// ImageThreshold is lower because OCR and image-quality issues make
	// document analysis inherently noisier; borderline results fall back
	// to manual review rather than hard failure.
	ImageThreshold = 70.0
)

// IdentityData is the one canonical shape for identity fields returned
// by the provider, whatever the provider happened to call them.
type IdentityData struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	MiddleName  string `json:"middle_name,omitempty"`
	DateOfBirth string `json:"date_of_birth,omitempty"`
	Gender      string `json:"gender,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Photo       string `json:"photo,omitempty"`

	// Fields specific to the document that was checked, e.g. the issuing
	// state of a driver's licence.
	Extra map[string]string `json:"extra,omitempty"`
}

type VerificationResult struct {
	Success              bool          `json:"success"`
	Status               string        `json:"status"`
	Confidence           float64       `json:"confidence"`
	ReferenceID          string        `json:"reference_id"`
	Data                 *IdentityData `json:"data,omitempty"`
	RequiresManualReview bool          `json:"requires_manual_review,omitempty"`
	Error                string        `json:"error,omitempty"`
}

// AuditLogger persists a record of every provider call. Implementations
// must tolerate being called with already-redacted payloads; the client
// never hands them clear-text document numbers.
type AuditLogger interface {
	Insert(log *models.ProviderCallLog) error
}

type Client struct {
	baseURL    string
	appID      string
	secretKey  string
	httpClient *http.Client
	audit      AuditLogger
	logger     *slog.Logger
}

func New(baseURL, appID, secretKey string, audit AuditLogger, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		appID:      appID,
		secretKey:  secretKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
		audit:      audit,
		logger:     logger,
	}
}

// callResponse is the decoded body of a provider call plus transport
// metadata. ok is false for network errors and non-2xx responses.
type callResponse struct {
	body       map[string]any
	statusCode int
	ok         bool
	err        string
}

// call posts a JSON payload to the provider and records an audit entry
// whatever the outcome. redacted is the payload with sensitive values
// masked; it is what gets logged, never the live payload.
func (c *Client) call(ctx context.Context, endpoint string, payload, redacted map[string]any) *callResponse {
	started := time.Now()

	audit := func(response string, statusCode int, success bool) {
		if c.audit == nil {
			return
		}

		redactedJSON, _ := json.Marshal(redacted)

		err := c.audit.Insert(&models.ProviderCallLog{
			Endpoint:       endpoint,
			RequestPayload: string(redactedJSON),
			Response:       response,
			StatusCode:     statusCode,
			DurationMs:     time.Since(started).Milliseconds(),
			Success:        success,
		})
		if err != nil {
			// Verification must not depend on audit-log availability.
			c.logger.Warn("provider audit log write failed", "endpoint", endpoint, "error", err)
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		audit(err.Error(), 0, false)
		return &callResponse{err: "invalid request payload"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		audit(err.Error(), 0, false)
		return &callResponse{err: "could not build provider request"}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("AppId", c.appID)
	req.Header.Set("Authorization", c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		audit(err.Error(), 0, false)
		return &callResponse{err: "identity provider is unreachable"}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		audit(err.Error(), resp.StatusCode, false)
		return &callResponse{statusCode: resp.StatusCode, err: "could not read provider response"}
	}

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	audit(string(raw), resp.StatusCode, ok)

	if !ok {
		return &callResponse{
			statusCode: resp.StatusCode,
			err:        fmt.Sprintf("identity provider returned status %d", resp.StatusCode),
		}
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return &callResponse{statusCode: resp.StatusCode, err: "provider returned a malformed response"}
	}

	return &callResponse{body: decoded, statusCode: resp.StatusCode, ok: true}
}

func failedResult(reason string) *VerificationResult {
	return &VerificationResult{
		Success: false,
		Status:  StatusFailed,
		Error:   reason,
	}
}
