package workflow

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rentiva/veriprop/internal/helper"
	"github.com/rentiva/veriprop/internal/models"
	"github.com/rentiva/veriprop/internal/repository"
)

var (
	ErrRequestNotFound = errors.New("workflow: verification request not found")

	// ErrReasonRequired guards rejection and resubmission: a subject must
	// always be told why.
	ErrReasonRequired = errors.New("workflow: a non-empty reason is required")

	// ErrNoVerifiedDocuments blocks an owner approval when not a single
	// document passed verification, unless the caller explicitly
	// overrides.
	ErrNoVerifiedDocuments = errors.New("workflow: request has no verified documents")

	ErrActorNotAllowed = errors.New("workflow: actor role cannot perform this action")
)

// Notifier sends a templated email. Delivery is best-effort; a failed
// send never blocks a state transition.
type Notifier interface {
	Send(recipient string, data any, patterns ...string) error
}

type Workflow struct {
	Requests  repository.VerificationRequestRepository
	Documents repository.VerificationDocumentRepository
	Users     repository.UserRepository
	Activity  repository.ActivityRepository
	Notifier  Notifier
	Helper    *helper.HelperRepository
	Logger    *slog.Logger

	// RequireAdminSignOff keeps owner approval from being the final
	// word: owners review their own tenants, so deployments usually want
	// an independent platform-level check before "verified".
	RequireAdminSignOff bool
}

func New(wf *Workflow) *Workflow {
	return wf
}

// Start creates a request for a subject, or hands back the one already
// in flight. Starting over on top of a terminal request is an illegal
// transition; admins wipe the old request first.
func (wf *Workflow) Start(customerID, customerType string) (*models.VerificationRequest, error) {
	existing, found, err := wf.Requests.GetLatestForCustomer(customerID)
	if err != nil {
		return nil, err
	}

	if found {
		state := StateOf(existing)
		if state == StateVerified || state == StateRejected || state == StateFailed {
			return nil, &TransitionError{From: state, Action: ActionStart}
		}
		return existing, nil
	}

	id, err := wf.Requests.Insert(customerID, customerType)
	if err != nil {
		return nil, err
	}

	req, _, err := wf.Requests.GetOne(id)
	if err != nil {
		return nil, err
	}

	wf.audit(customerID, req.ID, "Verification request submitted", "")

	return req, nil
}

// RecordAttempt moves a pending request to in_progress the first time a
// document verification is attempted, whatever that attempt's outcome.
// Calling it on a request already in progress is a no-op.
func (wf *Workflow) RecordAttempt(requestID string) error {
	req, state, err := wf.load(requestID)
	if err != nil {
		return err
	}

	if err := checkTransition(state, ActionRecordAttempt); err != nil {
		return err
	}

	if state != StatePending {
		return nil
	}

	req.Status = models.VerificationStatusInProgress

	if err := wf.Requests.Update(req); err != nil {
		return err
	}

	wf.audit(req.CustomerID, req.ID, "First verification attempt recorded", "")

	return nil
}

// Approve records the owner's approval. It requires at least one
// verified document; override bypasses that check and is itself
// recorded in the audit trail.
func (wf *Workflow) Approve(requestID string, reviewer *models.User, notes string, override bool) error {
	if reviewer.Role != models.UserRolePropertyOwner && reviewer.Role != models.UserRoleAdmin {
		return ErrActorNotAllowed
	}

	req, state, err := wf.load(requestID)
	if err != nil {
		return err
	}

	if err := checkTransition(state, ActionApprove); err != nil {
		return err
	}

	if !override {
		verified, err := wf.Documents.CountVerified(req.ID)
		if err != nil {
			return err
		}
		if verified == 0 {
			return ErrNoVerifiedDocuments
		}
	}

	now := time.Now()

	req.OwnerApprovalStatus = models.OwnerApprovalApproved
	req.OwnerReviewedAt = sql.NullTime{Time: now, Valid: true}
	if notes != "" {
		req.OwnerNotes = sql.NullString{String: notes, Valid: true}
	}

	if !wf.RequireAdminSignOff {
		req.Status = models.VerificationStatusVerified
		req.CompletedAt = sql.NullTime{Time: now, Valid: true}
		req.ReviewedBy = sql.NullString{String: reviewer.ID, Valid: true}
		req.ReviewedAt = sql.NullTime{Time: now, Valid: true}
	}

	if err := wf.Requests.Update(req); err != nil {
		return err
	}

	description := "Owner approved verification request"
	if override {
		description += " (override: no verified documents)"
	}
	wf.audit(reviewer.ID, req.ID, description, notes)

	wf.notify(req.CustomerID, "verification-approved.tmpl", map[string]any{
		"Final": !wf.RequireAdminSignOff,
	})

	return nil
}

// Reject records a rejection with a mandatory reason. An owner
// rejection leaves the request open for resubmission; an admin
// rejection is terminal.
func (wf *Workflow) Reject(requestID string, reviewer *models.User, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return ErrReasonRequired
	}

	if reviewer.Role != models.UserRolePropertyOwner && reviewer.Role != models.UserRoleAdmin {
		return ErrActorNotAllowed
	}

	req, state, err := wf.load(requestID)
	if err != nil {
		return err
	}

	if err := checkTransition(state, ActionReject); err != nil {
		return err
	}

	now := time.Now()
	req.RejectionReason = sql.NullString{String: reason, Valid: true}

	if reviewer.Role == models.UserRoleAdmin {
		req.Status = models.VerificationStatusRejected
		req.CompletedAt = sql.NullTime{Time: now, Valid: true}
		req.ReviewedBy = sql.NullString{String: reviewer.ID, Valid: true}
		req.ReviewedAt = sql.NullTime{Time: now, Valid: true}
	} else {
		req.OwnerApprovalStatus = models.OwnerApprovalRejected
		req.OwnerReviewedAt = sql.NullTime{Time: now, Valid: true}
	}

	if err := wf.Requests.Update(req); err != nil {
		return err
	}

	wf.audit(reviewer.ID, req.ID, "Verification request rejected", reason)

	wf.notify(req.CustomerID, "verification-rejected.tmpl", map[string]any{
		"Reason":      reason,
		"CanResubmit": reviewer.Role != models.UserRoleAdmin,
	})

	return nil
}

// AdminVerify is the platform admin's final sign-off on an
// owner-approved request. The admin is deliberately a separate actor
// from the owner who approved.
func (wf *Workflow) AdminVerify(requestID string, admin *models.User) error {
	if admin.Role != models.UserRoleAdmin {
		return ErrActorNotAllowed
	}

	req, state, err := wf.load(requestID)
	if err != nil {
		return err
	}

	if err := checkTransition(state, ActionAdminVerify); err != nil {
		return err
	}

	now := time.Now()
	req.Status = models.VerificationStatusVerified
	req.CompletedAt = sql.NullTime{Time: now, Valid: true}
	req.ReviewedBy = sql.NullString{String: admin.ID, Valid: true}
	req.ReviewedAt = sql.NullTime{Time: now, Valid: true}

	if err := wf.Requests.Update(req); err != nil {
		return err
	}

	wf.audit(admin.ID, req.ID, "Admin confirmed verification", "")

	wf.notify(req.CustomerID, "verification-approved.tmpl", map[string]any{
		"Final": true,
	})

	return nil
}

// RequestResubmission reopens an owner-rejected request so the subject
// can upload new documents. Prior documents are not deleted, only
// superseded by whatever is uploaded next.
func (wf *Workflow) RequestResubmission(requestID string, actor *models.User, reason string) error {
	req, state, err := wf.load(requestID)
	if err != nil {
		return err
	}

	if err := checkTransition(state, ActionRequestResubmission); err != nil {
		return err
	}

	req.Status = models.VerificationStatusPending
	req.OwnerApprovalStatus = models.OwnerApprovalPending
	req.OwnerReviewedAt = sql.NullTime{}
	req.OwnerNotes = sql.NullString{}
	req.RejectionReason = sql.NullString{}
	req.CompletedAt = sql.NullTime{}

	if err := wf.Requests.Update(req); err != nil {
		return err
	}

	wf.audit(actor.ID, req.ID, "Resubmission requested", reason)

	wf.notify(req.CustomerID, "resubmission-requested.tmpl", map[string]any{
		"Reason": reason,
	})

	return nil
}

// RequestAdditionalDocument asks the subject for more documents without
// changing the request's state.
func (wf *Workflow) RequestAdditionalDocument(requestID string, actor *models.User, documentTypes []string, message string) error {
	req, state, err := wf.load(requestID)
	if err != nil {
		return err
	}

	if err := checkTransition(state, ActionRequestAdditionalDocument); err != nil {
		return err
	}

	description := fmt.Sprintf("Additional documents requested: %s", strings.Join(documentTypes, ", "))
	wf.audit(actor.ID, req.ID, description, message)

	wf.notify(req.CustomerID, "additional-document-requested.tmpl", map[string]any{
		"DocumentTypes": documentTypes,
		"Message":       message,
	})

	return nil
}

// Delete wipes a request and all its documents so a subject can start
// over cleanly. Admin-only, for abuse and error recovery; not part of
// the normal flow, and not available on terminal requests.
func (wf *Workflow) Delete(requestID string, admin *models.User, reason string) error {
	if admin.Role != models.UserRoleAdmin {
		return ErrActorNotAllowed
	}

	req, state, err := wf.load(requestID)
	if err != nil {
		return err
	}

	if err := checkTransition(state, ActionDelete); err != nil {
		return err
	}

	if err := wf.Requests.Delete(req.ID); err != nil {
		return err
	}

	// The audit entry outlives the deleted request on purpose.
	wf.audit(admin.ID, req.ID, "Verification request deleted", reason)

	return nil
}

func (wf *Workflow) load(requestID string) (*models.VerificationRequest, State, error) {
	req, found, err := wf.Requests.GetOne(requestID)
	if err != nil {
		return nil, StateNotStarted, err
	}
	if !found {
		return nil, StateNotStarted, ErrRequestNotFound
	}

	return req, StateOf(req), nil
}

func (wf *Workflow) audit(actorID, requestID, description, reason string) {
	entry := &models.ActivityLog{
		UserID:      actorID,
		Entity:      repository.ActivityLogVerificationRequestEntity,
		EntityId:    requestID,
		Description: description,
	}
	if reason != "" {
		entry.Reason = sql.NullString{String: reason, Valid: true}
	}

	if _, err := wf.Activity.Insert(entry); err != nil {
		wf.Logger.Warn("could not write workflow audit entry", "request_id", requestID, "error", err)
	}
}

// notify emails the subject off the critical path. Failures are caught
// and reported by the background task runner, never surfaced to the
// transition that triggered them.
func (wf *Workflow) notify(customerID, template string, data map[string]any) {
	if wf.Notifier == nil {
		return
	}

	wf.Helper.BackgroundTask(nil, func() error {
		user, found, err := wf.Users.GetOne(customerID)
		if err != nil || !found {
			return fmt.Errorf("workflow: looking up %s for notification: %w", customerID, err)
		}

		emailData := wf.Helper.NewEmailData()
		emailData["FirstName"] = user.FirstName
		for key, value := range data {
			emailData[key] = value
		}

		return wf.Notifier.Send(user.Email, emailData, template)
	})
}
