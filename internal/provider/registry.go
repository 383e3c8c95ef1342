package provider

import (
	"context"

	"github.com/google/uuid"
)

// Registry lookups all follow the same shape: post the document number
// to the registry endpoint, normalize the returned entity, score it
// against the claimed name (and date of birth when we have one), then
// apply the registry threshold.

func (c *Client) VerifyNIN(ctx context.Context, number, firstName, lastName, dob string) *VerificationResult {
	return c.registryLookup(ctx, "/api/v1/kyc/nin", "nin", number, firstName, lastName, dob)
}

func (c *Client) VerifyPassport(ctx context.Context, number, firstName, lastName string) *VerificationResult {
	return c.registryLookup(ctx, "/api/v1/kyc/passport", "passport_number", number, firstName, lastName, "")
}

// VerifyDriversLicense forwards the date of birth when present; the
// licence registry requires it for some issuing states.
func (c *Client) VerifyDriversLicense(ctx context.Context, number, firstName, lastName, dob string) *VerificationResult {
	return c.registryLookup(ctx, "/api/v1/kyc/dl", "license_number", number, firstName, lastName, dob)
}

func (c *Client) VerifyVotersCard(ctx context.Context, number, firstName, lastName string) *VerificationResult {
	return c.registryLookup(ctx, "/api/v1/kyc/vin", "vin", number, firstName, lastName, "")
}

func (c *Client) registryLookup(ctx context.Context, endpoint, numberField, number, firstName, lastName, dob string) *VerificationResult {
	payload := map[string]any{
		numberField:  number,
		"first_name": firstName,
		"last_name":  lastName,
	}
	if dob != "" {
		payload["dob"] = dob
	}

	redacted := map[string]any{
		numberField:  maskNumber(number),
		"first_name": firstName,
		"last_name":  lastName,
	}
	if dob != "" {
		redacted["dob"] = dob
	}

	resp := c.call(ctx, endpoint, payload, redacted)
	if !resp.ok {
		return failedResult(resp.err)
	}

	entity, exists := resp.body["entity"].(map[string]any)
	if !exists {
		return failedResult("provider returned no identity record")
	}

	data := normalizeIdentity(entity)
	confidence := blendConfidence(firstName, lastName, dob, data)

	result := &VerificationResult{
		Confidence:  confidence,
		ReferenceID: referenceID(resp.body),
		Data:        data,
	}

	if confidence >= RegistryThreshold {
		result.Success = true
		result.Status = StatusVerified
	} else {
		result.Status = StatusFailed
		result.Error = "identity details did not match the registry record"
	}

	return result
}

// VerifyBVN hits the bank-verification endpoint, which has its own
// response shape: the registry scores each field itself and returns a
// per-field confidence instead of the raw values, so we use its
// numbers directly rather than recomputing.
func (c *Client) VerifyBVN(ctx context.Context, number, firstName, lastName, dob string) *VerificationResult {
	payload := map[string]any{
		"bvn":        number,
		"first_name": firstName,
		"last_name":  lastName,
	}
	redacted := map[string]any{
		"bvn":        maskNumber(number),
		"first_name": firstName,
		"last_name":  lastName,
	}
	if dob != "" {
		payload["dob"] = dob
		redacted["dob"] = dob
	}

	resp := c.call(ctx, "/api/v1/kyc/bvn", payload, redacted)
	if !resp.ok {
		return failedResult(resp.err)
	}

	entity, exists := resp.body["entity"].(map[string]any)
	if !exists {
		return failedResult("provider returned no identity record")
	}

	fields := []string{"first_name", "last_name"}
	if dob != "" {
		fields = append(fields, "date_of_birth")
	}

	var total float64
	var counted int
	allMatched := true

	for _, field := range fields {
		fieldEntry, exists := entity[field].(map[string]any)
		if !exists {
			continue
		}

		if score, exists := fieldEntry["confidence_value"].(float64); exists {
			total += score
			counted++
		}
		if matched, exists := fieldEntry["status"].(bool); exists && !matched {
			allMatched = false
		}
	}

	if counted == 0 {
		return failedResult("bank registry returned no match scores")
	}

	confidence := total / float64(counted)

	result := &VerificationResult{
		Confidence:  confidence,
		ReferenceID: referenceID(resp.body),
	}

	if allMatched && confidence >= RegistryThreshold {
		result.Success = true
		result.Status = StatusVerified
	} else {
		result.Status = StatusFailed
		result.Error = "identity details did not match the bank record"
	}

	return result
}

func referenceID(body map[string]any) string {
	for _, key := range []string{"reference_id", "reference", "request_id"} {
		if ref, exists := body[key].(string); exists && ref != "" {
			return ref
		}
	}

	// Some endpoints do not echo a reference; mint one so the attempt
	// is still traceable through the audit log.
	return uuid.NewString()
}
