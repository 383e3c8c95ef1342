// Package workflow governs the lifecycle of a verification request
// across its three actors: the automated engine, the property owner
// reviewing their own tenants, and the platform admin giving the final
// sign-off. The two persisted status fields (kyc status and owner
// approval) are collapsed into one combined state here so the rest of
// the system never reasons about invalid cross-products of the two.
package workflow

import (
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/rentiva/veriprop/internal/models"
)

type State string

const (
	StateNotStarted    State = "not_started"
	StatePending       State = "pending"
	StateInProgress    State = "in_progress"
	StateOwnerApproved State = "owner_approved"
	StateOwnerRejected State = "owner_rejected"
	StateVerified      State = "verified"
	StateRejected      State = "rejected"
	StateFailed        State = "failed"
)

type Action string

const (
	ActionStart                     Action = "start"
	ActionRecordAttempt             Action = "record_attempt"
	ActionApprove                   Action = "approve"
	ActionReject                    Action = "reject"
	ActionRequestResubmission       Action = "request_resubmission"
	ActionRequestAdditionalDocument Action = "request_additional_document"
	ActionAdminVerify               Action = "admin_verify"
	ActionDelete                    Action = "delete"
)

// transitions is the single source of truth for which actions are
// legal from which state. Anything not listed fails with a
// TransitionError.
var transitions = map[State][]Action{
	StateNotStarted: {ActionStart},
	StatePending:    {ActionRecordAttempt, ActionRequestAdditionalDocument, ActionDelete},
	StateInProgress: {
		ActionRecordAttempt,
		ActionApprove,
		ActionReject,
		ActionRequestAdditionalDocument,
		ActionDelete,
	},
	StateOwnerApproved: {ActionAdminVerify, ActionReject, ActionDelete},
	StateOwnerRejected: {ActionRequestResubmission, ActionDelete},

	// Terminal states allow nothing. A verified or rejected request can
	// only be revisited by an admin wiping it and starting over, which
	// is intentionally not modeled as a transition.
	StateVerified: {},
	StateRejected: {},
	StateFailed:   {},
}

// TransitionError identifies the violated precondition: the state the
// request was in and the action that was attempted against it.
type TransitionError struct {
	From   State
	Action Action
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("workflow: cannot %s a request in state %s", e.Action, e.From)
}

func CanTransition(from State, action Action) bool {
	return slices.Contains(transitions[from], action)
}

func checkTransition(from State, action Action) error {
	if !CanTransition(from, action) {
		return &TransitionError{From: from, Action: action}
	}
	return nil
}

// StateOf derives the combined state from a request row. A nil request
// means the subject has never started verification.
func StateOf(req *models.VerificationRequest) State {
	if req == nil {
		return StateNotStarted
	}

	switch req.Status {
	case models.VerificationStatusVerified:
		return StateVerified
	case models.VerificationStatusRejected:
		return StateRejected
	case models.VerificationStatusFailed:
		return StateFailed
	case models.VerificationStatusPending:
		return StatePending
	}

	// Request is in progress; the owner's decision refines the state.
	switch req.OwnerApprovalStatus {
	case models.OwnerApprovalApproved:
		return StateOwnerApproved
	case models.OwnerApprovalRejected:
		return StateOwnerRejected
	default:
		return StateInProgress
	}
}
