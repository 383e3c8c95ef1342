package provider

import (
	"context"
)

// VerifyDocumentImage submits an uploaded document for OCR and
// authenticity analysis instead of a registry lookup. A bad photo is
// not evidence of a bad identity, so transport and analysis failures
// degrade to a pending result flagged for manual review rather than a
// hard failure.
func (c *Client) VerifyDocumentImage(ctx context.Context, documentType, fileURL string, metadata map[string]string) *VerificationResult {
	payload := map[string]any{
		"document_type": documentType,
		"image_url":     fileURL,
	}
	for key, value := range metadata {
		payload[key] = value
	}

	// The file URL is a time-limited storage link, not an identifier;
	// nothing here needs masking.
	resp := c.call(ctx, "/api/v1/document/analysis", payload, payload)
	if !resp.ok {
		return &VerificationResult{
			Status:               StatusPending,
			RequiresManualReview: true,
			Error:                resp.err,
		}
	}

	entity, exists := resp.body["entity"].(map[string]any)
	if !exists {
		return &VerificationResult{
			Status:               StatusPending,
			RequiresManualReview: true,
			Error:                "provider returned no analysis result",
		}
	}

	confidence, _ := entity["confidence_value"].(float64)

	result := &VerificationResult{
		Confidence:  confidence,
		ReferenceID: referenceID(resp.body),
	}

	if textData, exists := entity["text_data"].(map[string]any); exists {
		result.Data = normalizeIdentity(textData)
	}

	if confidence >= ImageThreshold {
		result.Success = true
		result.Status = StatusVerified
	} else {
		result.Status = StatusPending
		result.RequiresManualReview = true
	}

	return result
}

// CheckStatus polls the provider for the outcome of an asynchronous
// analysis by its reference.
func (c *Client) CheckStatus(ctx context.Context, referenceID string) *VerificationResult {
	payload := map[string]any{"reference_id": referenceID}

	resp := c.call(ctx, "/api/v1/status", payload, payload)
	if !resp.ok {
		return failedResult(resp.err)
	}

	entity, exists := resp.body["entity"].(map[string]any)
	if !exists {
		return failedResult("provider returned no status record")
	}

	status, _ := entity["status"].(string)
	confidence, _ := entity["confidence_value"].(float64)

	result := &VerificationResult{
		Confidence:  confidence,
		ReferenceID: referenceID,
	}

	switch status {
	case "completed", "verified", "successful":
		result.Success = true
		result.Status = StatusVerified
	case "pending", "processing":
		result.Status = StatusPending
	default:
		result.Status = StatusFailed
		result.Error = "provider reported the check as " + statusOrUnknown(status)
	}

	return result
}

func statusOrUnknown(status string) string {
	if status == "" {
		return "unknown"
	}
	return status
}
