// Package verification turns "verify this person's identity with this
// document type" into a decision. It reconciles the provider's raw
// opinion with our own confidence computation; the system's score, not
// the provider's, is authoritative for the final call.
package verification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rentiva/veriprop/internal/match"
	"github.com/rentiva/veriprop/internal/models"
	"github.com/rentiva/veriprop/internal/provider"
	"github.com/rentiva/veriprop/internal/repository"
	"github.com/rentiva/veriprop/internal/secure"
)

// Typed failures raised before any provider call is made. Handlers map
// these onto client-correctable responses.
var (
	ErrMissingIdentityFields      = errors.New("verification: claimed first and last name are required")
	ErrDocumentNotFound           = errors.New("verification: no document of the requested type")
	ErrDocumentNumberUnresolvable = errors.New("verification: could not resolve a document number")
	ErrVerificationInFlight       = errors.New("verification: an attempt for this document is already running")
	ErrAsyncUnavailable           = errors.New("verification: no dispatcher configured")
)

const leaseTTL = 60 * time.Second

type ClaimedIdentity struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	DateOfBirth string `json:"date_of_birth,omitempty"`
}

type Matches struct {
	Name bool  `json:"name"`
	DOB  *bool `json:"dob,omitempty"`
}

// ComparisonResult is our own, system-controlled read of how well the
// provider's record matches the claimed identity. It is embedded in
// audit output, never persisted as its own entity.
type ComparisonResult struct {
	TenantData   ClaimedIdentity        `json:"tenant_data"`
	ProviderData *provider.IdentityData `json:"provider_data,omitempty"`
	Matches      Matches                `json:"matches"`
	Confidence   float64                `json:"confidence"`
}

type Outcome struct {
	Success    bool                         `json:"success"`
	Result     *provider.VerificationResult `json:"result"`
	Comparison *ComparisonResult            `json:"comparison,omitempty"`
}

// ProviderAPI is the slice of the provider client the engine uses.
type ProviderAPI interface {
	VerifyNIN(ctx context.Context, number, firstName, lastName, dob string) *provider.VerificationResult
	VerifyPassport(ctx context.Context, number, firstName, lastName string) *provider.VerificationResult
	VerifyDriversLicense(ctx context.Context, number, firstName, lastName, dob string) *provider.VerificationResult
	VerifyVotersCard(ctx context.Context, number, firstName, lastName string) *provider.VerificationResult
	VerifyBVN(ctx context.Context, number, firstName, lastName, dob string) *provider.VerificationResult
	VerifyDocumentImage(ctx context.Context, documentType, fileURL string, metadata map[string]string) *provider.VerificationResult
	CheckStatus(ctx context.Context, referenceID string) *provider.VerificationResult
}

// Lease serializes verification attempts per document. Optional: with
// a nil lease the at-most-one-attempt guarantee falls back to the
// caller (e.g. the UI disabling its verify action).
type Lease interface {
	AcquireLease(key string, ttl time.Duration) (bool, error)
	ReleaseLease(key string) error
}

type VerifyJob struct {
	RequestID    string          `json:"request_id"`
	DocumentID   string          `json:"document_id"`
	SubjectID    string          `json:"subject_id"`
	DocumentType string          `json:"document_type"`
	Claimed      ClaimedIdentity `json:"claimed"`
}

// Dispatcher hands a verification job to a durable queue so it can run
// off the request path. The engine works fully without one.
type Dispatcher interface {
	DispatchVerification(job *VerifyJob) error
}

type Engine struct {
	Provider   ProviderAPI
	Encryptor  *secure.Encryptor
	Documents  repository.VerificationDocumentRepository
	Activity   repository.ActivityRepository
	Lease      Lease
	Dispatcher Dispatcher
	Logger     *slog.Logger
}

func New(engine *Engine) *Engine {
	return engine
}

// VerifyIdentity runs one verification attempt end to end: pick the
// document, resolve its number, call the provider, compute our own
// comparison, reconcile, persist the outcome and audit the attempt.
// Provider failures come back inside the Outcome; the returned error
// only ever carries the typed local failures above.
func (e *Engine) VerifyIdentity(ctx context.Context, subjectID, documentType string, docs []models.VerificationDocument, claimed ClaimedIdentity) (*Outcome, error) {
	if strings.TrimSpace(claimed.FirstName) == "" || strings.TrimSpace(claimed.LastName) == "" {
		return nil, ErrMissingIdentityFields
	}

	doc := SelectDocument(documentType, docs)
	if doc == nil {
		return nil, ErrDocumentNotFound
	}

	number := ExtractNumber(doc, e.Encryptor)
	if number == "" {
		return nil, ErrDocumentNumberUnresolvable
	}

	if e.Lease != nil {
		acquired, err := e.Lease.AcquireLease("kyc:verify:"+doc.ID, leaseTTL)
		if err != nil {
			// A broken lease store must not stop verification; we just
			// lose the serialization guarantee for this attempt.
			e.Logger.Warn("verification lease unavailable", "document_id", doc.ID, "error", err)
		} else if !acquired {
			return nil, ErrVerificationInFlight
		} else {
			defer e.Lease.ReleaseLease("kyc:verify:" + doc.ID)
		}
	}

	result := e.dispatch(ctx, doc, number, claimed)

	comparison := e.compare(claimed, result)

	// Providers sometimes apply cruder matching than ours and reject
	// legitimate matches. When our fuzzy score clears the threshold, our
	// opinion wins and the provider's rejection is overridden.
	if comparison != nil && comparison.Confidence >= provider.RegistryThreshold && !result.Success {
		result.Success = true
		result.Status = provider.StatusVerified
		result.Confidence = comparison.Confidence
		result.Error = ""
	}

	e.persistAttempt(subjectID, doc, result, comparison)

	return &Outcome{
		Success:    result.Success,
		Result:     result,
		Comparison: comparison,
	}, nil
}

// VerifyAsync queues the attempt instead of running it inline.
func (e *Engine) VerifyAsync(job *VerifyJob) error {
	if e.Dispatcher == nil {
		return ErrAsyncUnavailable
	}
	return e.Dispatcher.DispatchVerification(job)
}

func (e *Engine) dispatch(ctx context.Context, doc *models.VerificationDocument, number string, claimed ClaimedIdentity) *provider.VerificationResult {
	switch CanonicalDocumentType(doc.DocumentType) {
	case models.DocumentTypeNIN:
		return e.Provider.VerifyNIN(ctx, number, claimed.FirstName, claimed.LastName, claimed.DateOfBirth)
	case models.DocumentTypeBVN:
		return e.Provider.VerifyBVN(ctx, number, claimed.FirstName, claimed.LastName, claimed.DateOfBirth)
	case models.DocumentTypePassport:
		return e.Provider.VerifyPassport(ctx, number, claimed.FirstName, claimed.LastName)
	case models.DocumentTypeDriversLicense:
		return e.Provider.VerifyDriversLicense(ctx, number, claimed.FirstName, claimed.LastName, claimed.DateOfBirth)
	case models.DocumentTypeVotersCard:
		return e.Provider.VerifyVotersCard(ctx, number, claimed.FirstName, claimed.LastName)
	default:
		// Utility bills and other non-registry documents go through
		// image analysis; there is no registry to ask.
		return e.Provider.VerifyDocumentImage(ctx, doc.DocumentType, doc.FileURL.String, nil)
	}
}

// compare recomputes match confidence from the claimed identity and the
// provider's normalized fields. This is deliberately a second,
// system-controlled computation, not a pass-through of the provider's
// own opinion. BVN responses carry no raw fields, only the registry's
// per-field scores, so there the provider confidence is all we have.
func (e *Engine) compare(claimed ClaimedIdentity, result *provider.VerificationResult) *ComparisonResult {
	if result.Data == nil {
		if result.ReferenceID == "" {
			return nil
		}
		return &ComparisonResult{
			TenantData: claimed,
			Matches:    Matches{Name: result.Success},
			Confidence: result.Confidence,
		}
	}

	claimedName := claimed.FirstName + " " + claimed.LastName
	observedName := strings.TrimSpace(result.Data.FirstName + " " + result.Data.LastName)

	nameConfidence := match.NameMatchConfidence(claimedName, observedName)

	comparison := &ComparisonResult{
		TenantData:   claimed,
		ProviderData: result.Data,
		Matches:      Matches{Name: nameConfidence >= provider.RegistryThreshold},
		Confidence:   nameConfidence,
	}

	if claimed.DateOfBirth != "" && result.Data.DateOfBirth != "" {
		dobMatched := match.Normalize(claimed.DateOfBirth) == match.Normalize(result.Data.DateOfBirth)
		comparison.Matches.DOB = &dobMatched

		dobConfidence := 0.0
		if dobMatched {
			dobConfidence = 100
		}
		comparison.Confidence = nameConfidence*0.6 + dobConfidence*0.4
	}

	return comparison
}

// persistAttempt records the outcome on the document row and in the
// audit trail. Verification correctness never depends on either write:
// failures are logged and swallowed.
func (e *Engine) persistAttempt(subjectID string, doc *models.VerificationDocument, result *provider.VerificationResult, comparison *ComparisonResult) {
	doc.Status = result.Status
	doc.Confidence = sql.NullFloat64{Float64: result.Confidence, Valid: true}
	if result.Error != "" {
		doc.FailureReason = sql.NullString{String: result.Error, Valid: true}
	} else {
		doc.FailureReason = sql.NullString{}
	}
	if result.ReferenceID != "" {
		doc.ProviderReference = sql.NullString{String: result.ReferenceID, Valid: true}
	}

	if err := e.Documents.UpdateVerification(doc); err != nil {
		if errors.Is(err, repository.ErrStaleRecord) {
			e.Logger.Warn("concurrent update on verification document", "document_id", doc.ID)
		} else {
			e.Logger.Warn("could not persist verification outcome", "document_id", doc.ID, "error", err)
		}
	}

	description := fmt.Sprintf("Verification attempt on %s document: %s (confidence %.1f)", doc.DocumentType, result.Status, result.Confidence)
	if comparison != nil {
		description = fmt.Sprintf("%s, name match %t", description, comparison.Matches.Name)
	}

	_, err := e.Activity.Insert(&models.ActivityLog{
		UserID:      subjectID,
		Entity:      repository.ActivityLogVerificationDocumentEntity,
		EntityId:    doc.ID,
		Description: description,
	})
	if err != nil {
		e.Logger.Warn("could not write verification audit entry", "document_id", doc.ID, "error", err)
	}
}
