package models

import (
	"database/sql"
	"time"
)

// VerificationRequest is the root record of one identity-verification
// attempt for a customer. It exclusively owns its documents; deleting a
// request deletes the documents with it.
type VerificationRequest struct {
	ID                  string         `db:"id"`
	CustomerID          string         `db:"customer_id"`
	CustomerType        string         `db:"customer_type"`
	Status              string         `db:"status"`
	OwnerApprovalStatus string         `db:"owner_approval_status"`
	OwnerReviewedAt     sql.NullTime   `db:"owner_reviewed_at"`
	OwnerNotes          sql.NullString `db:"owner_notes"`
	ReviewedBy          sql.NullString `db:"reviewed_by"`
	ReviewedAt          sql.NullTime   `db:"reviewed_at"`
	RejectionReason     sql.NullString `db:"rejection_reason"`
	SubmittedAt         time.Time      `db:"submitted_at"`
	CompletedAt         sql.NullTime   `db:"completed_at"`
	UpdatedAt           time.Time      `db:"updated_at"`
}

type VerificationDocument struct {
	ID                string          `db:"id"`
	RequestID         string          `db:"request_id"`
	DocumentType      string          `db:"document_type"`
	FileName          string          `db:"file_name"`
	FileURL           sql.NullString  `db:"file_url"`
	DocumentNumber    sql.NullString  `db:"document_number"`
	Metadata          sql.NullString  `db:"metadata"`
	Status            string          `db:"status"`
	Confidence        sql.NullFloat64 `db:"confidence"`
	FailureReason     sql.NullString  `db:"failure_reason"`
	ProviderReference sql.NullString  `db:"provider_reference"`
	CreatedAt         time.Time       `db:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at"`
}

// Verification statuses apply to both requests and documents.
const (
	VerificationStatusPending    = "pending"
	VerificationStatusInProgress = "in_progress"
	VerificationStatusVerified   = "verified"
	VerificationStatusFailed     = "failed"
	VerificationStatusRejected   = "rejected"
)

const (
	OwnerApprovalPending  = "pending"
	OwnerApprovalApproved = "approved"
	OwnerApprovalRejected = "rejected"
)

const (
	DocumentTypeNIN            = "nin"
	DocumentTypeBVN            = "bvn"
	DocumentTypePassport       = "passport"
	DocumentTypeDriversLicense = "drivers_license"
	DocumentTypeVotersCard     = "voters_card"
	DocumentTypeUtilityBill    = "utility_bill"
	DocumentTypeProofOfAddress = "proof_of_address"
)
