package workflow

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/rentiva/veriprop/internal/mocks"
	"github.com/rentiva/veriprop/internal/models"
	"github.com/rentiva/veriprop/internal/repository"

	"github.com/stretchr/testify/require"
)

var (
	tenant = &models.User{ID: "tenant-1", Role: models.UserRoleTenant}
	owner  = &models.User{ID: "owner-1", Role: models.UserRolePropertyOwner}
	admin  = &models.User{ID: "admin-1", Role: models.UserRoleAdmin}
)

func testWorkflow() (*Workflow, *mocks.MockRequestRepo, *mocks.MockDocumentRepo, *mocks.MockActivityRepo) {
	requests := &mocks.MockRequestRepo{}
	documents := &mocks.MockDocumentRepo{}
	activity := &mocks.MockActivityRepo{}

	wf := New(&Workflow{
		Requests:  requests,
		Documents: documents,
		Activity:  activity,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	return wf, requests, documents, activity
}

// seed puts a request in the repo at the given combined state.
func seed(requests *mocks.MockRequestRepo, state State) *models.VerificationRequest {
	id, _ := requests.Insert("tenant-1", models.UserRoleTenant)
	req, _, _ := requests.GetOne(id)

	switch state {
	case StatePending:
		req.Status = models.VerificationStatusPending
	case StateInProgress:
		req.Status = models.VerificationStatusInProgress
	case StateOwnerApproved:
		req.Status = models.VerificationStatusInProgress
		req.OwnerApprovalStatus = models.OwnerApprovalApproved
	case StateOwnerRejected:
		req.Status = models.VerificationStatusInProgress
		req.OwnerApprovalStatus = models.OwnerApprovalRejected
	case StateVerified:
		req.Status = models.VerificationStatusVerified
	case StateRejected:
		req.Status = models.VerificationStatusRejected
	}

	requests.Update(req)
	return req
}

func addVerifiedDocument(documents *mocks.MockDocumentRepo, requestID string) {
	documents.Insert(&models.VerificationDocument{
		ID:           "doc-1",
		RequestID:    requestID,
		DocumentType: models.DocumentTypeNIN,
		Status:       models.VerificationStatusVerified,
	})
}

func TestStart_CreatesRequest(t *testing.T) {
	wf, _, _, activity := testWorkflow()

	req, err := wf.Start("tenant-1", models.UserRoleTenant)
	require.NoError(t, err)
	require.Equal(t, models.VerificationStatusPending, req.Status)
	require.NotEmpty(t, activity.Entries)
}

func TestStart_ReturnsExistingOpenRequest(t *testing.T) {
	wf, _, _, _ := testWorkflow()

	first, err := wf.Start("tenant-1", models.UserRoleTenant)
	require.NoError(t, err)

	second, err := wf.Start("tenant-1", models.UserRoleTenant)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
}

func TestStart_TerminalRequestBlocks(t *testing.T) {
	wf, requests, _, _ := testWorkflow()
	seed(requests, StateVerified)

	_, err := wf.Start("tenant-1", models.UserRoleTenant)

	var transitionErr *TransitionError
	require.ErrorAs(t, err, &transitionErr)
	require.Equal(t, StateVerified, transitionErr.From)
}

func TestRecordAttempt(t *testing.T) {
	wf, requests, _, _ := testWorkflow()
	req := seed(requests, StatePending)

	require.NoError(t, wf.RecordAttempt(req.ID))

	updated, _, _ := requests.GetOne(req.ID)
	require.Equal(t, models.VerificationStatusInProgress, updated.Status)

	// repeated attempts are a no-op, not an error
	require.NoError(t, wf.RecordAttempt(req.ID))
}

func TestRecordAttempt_TerminalRequest(t *testing.T) {
	wf, requests, _, _ := testWorkflow()
	req := seed(requests, StateRejected)

	var transitionErr *TransitionError
	require.ErrorAs(t, wf.RecordAttempt(req.ID), &transitionErr)
}

func TestApprove_OwnerWithVerifiedDocument(t *testing.T) {
	wf, requests, documents, _ := testWorkflow()
	req := seed(requests, StateInProgress)
	addVerifiedDocument(documents, req.ID)

	require.NoError(t, wf.Approve(req.ID, owner, "looks good", false))

	updated, _, _ := requests.GetOne(req.ID)
	require.Equal(t, models.OwnerApprovalApproved, updated.OwnerApprovalStatus)
	// without admin sign-off required, owner approval is final
	require.Equal(t, models.VerificationStatusVerified, updated.Status)
	require.True(t, updated.CompletedAt.Valid)
}

func TestApprove_WithAdminSignOffRequired(t *testing.T) {
	wf, requests, documents, _ := testWorkflow()
	wf.RequireAdminSignOff = true

	req := seed(requests, StateInProgress)
	addVerifiedDocument(documents, req.ID)

	require.NoError(t, wf.Approve(req.ID, owner, "", false))

	updated, _, _ := requests.GetOne(req.ID)
	require.Equal(t, models.OwnerApprovalApproved, updated.OwnerApprovalStatus)
	require.Equal(t, models.VerificationStatusInProgress, updated.Status)
	require.Equal(t, StateOwnerApproved, StateOf(updated))

	// the admin's confirmation completes it
	require.NoError(t, wf.AdminVerify(req.ID, admin))

	final, _, _ := requests.GetOne(req.ID)
	require.Equal(t, models.VerificationStatusVerified, final.Status)
	require.True(t, final.CompletedAt.Valid)
}

func TestApprove_RequiresVerifiedDocument(t *testing.T) {
	wf, requests, _, _ := testWorkflow()
	req := seed(requests, StateInProgress)

	err := wf.Approve(req.ID, owner, "", false)
	require.ErrorIs(t, err, ErrNoVerifiedDocuments)

	// an explicit override records the approval anyway
	require.NoError(t, wf.Approve(req.ID, owner, "", true))
}

func TestApprove_ActorAndStateChecks(t *testing.T) {
	wf, requests, documents, _ := testWorkflow()
	req := seed(requests, StateInProgress)
	addVerifiedDocument(documents, req.ID)

	require.ErrorIs(t, wf.Approve(req.ID, tenant, "", false), ErrActorNotAllowed)

	pending := seed(requests, StatePending)
	var transitionErr *TransitionError
	require.ErrorAs(t, wf.Approve(pending.ID, owner, "", false), &transitionErr)
}

func TestReject_RequiresReason(t *testing.T) {
	wf, requests, _, _ := testWorkflow()
	req := seed(requests, StateInProgress)

	require.ErrorIs(t, wf.Reject(req.ID, owner, ""), ErrReasonRequired)
	require.ErrorIs(t, wf.Reject(req.ID, owner, "   "), ErrReasonRequired)
}

func TestReject_OwnerRejectionIsRecoverable(t *testing.T) {
	wf, requests, _, _ := testWorkflow()
	req := seed(requests, StateInProgress)

	require.NoError(t, wf.Reject(req.ID, owner, "document is blurry"))

	updated, _, _ := requests.GetOne(req.ID)
	require.Equal(t, StateOwnerRejected, StateOf(updated))
	require.Equal(t, "document is blurry", updated.RejectionReason.String)
	require.False(t, updated.CompletedAt.Valid)

	// the subject can be asked to resubmit
	require.NoError(t, wf.RequestResubmission(req.ID, owner, "please upload a clearer scan"))

	reopened, _, _ := requests.GetOne(req.ID)
	require.Equal(t, StatePending, StateOf(reopened))
	require.Equal(t, models.OwnerApprovalPending, reopened.OwnerApprovalStatus)
	require.False(t, reopened.RejectionReason.Valid)
}

func TestReject_AdminRejectionIsTerminal(t *testing.T) {
	wf, requests, _, _ := testWorkflow()
	req := seed(requests, StateInProgress)

	require.NoError(t, wf.Reject(req.ID, admin, "fraudulent document"))

	updated, _, _ := requests.GetOne(req.ID)
	require.Equal(t, StateRejected, StateOf(updated))
	require.True(t, updated.CompletedAt.Valid)

	var transitionErr *TransitionError
	require.ErrorAs(t, wf.RequestResubmission(req.ID, owner, "try again"), &transitionErr)
}

func TestRequestResubmission_OnlyAfterOwnerRejection(t *testing.T) {
	wf, requests, _, _ := testWorkflow()
	req := seed(requests, StateInProgress)

	var transitionErr *TransitionError
	require.ErrorAs(t, wf.RequestResubmission(req.ID, owner, "reason"), &transitionErr)
}

func TestAdminVerify_OnlyAdmins(t *testing.T) {
	wf, requests, _, _ := testWorkflow()
	req := seed(requests, StateOwnerApproved)

	require.ErrorIs(t, wf.AdminVerify(req.ID, owner), ErrActorNotAllowed)
	require.NoError(t, wf.AdminVerify(req.ID, admin))
}

func TestRequestAdditionalDocument_LeavesStateUntouched(t *testing.T) {
	wf, requests, _, activity := testWorkflow()
	req := seed(requests, StateInProgress)

	require.NoError(t, wf.RequestAdditionalDocument(req.ID, owner, []string{"utility_bill"}, "need proof of address"))

	updated, _, _ := requests.GetOne(req.ID)
	require.Equal(t, StateInProgress, StateOf(updated))
	require.NotEmpty(t, activity.Entries)
}

func TestDelete(t *testing.T) {
	wf, requests, _, activity := testWorkflow()
	req := seed(requests, StateOwnerRejected)

	require.ErrorIs(t, wf.Delete(req.ID, owner, "nope"), ErrActorNotAllowed)

	require.NoError(t, wf.Delete(req.ID, admin, "customer requested a fresh start"))

	_, found, _ := requests.GetOne(req.ID)
	require.False(t, found)

	// the audit entry outlives the deleted request
	entries, _ := activity.ListForEntity(repository.ActivityLogVerificationRequestEntity, req.ID)
	require.NotEmpty(t, entries)
}

func TestDelete_TerminalRequestBlocks(t *testing.T) {
	wf, requests, _, _ := testWorkflow()
	req := seed(requests, StateVerified)

	var transitionErr *TransitionError
	require.ErrorAs(t, wf.Delete(req.ID, admin, "reason"), &transitionErr)
}

func TestAuditFailuresAreSwallowed(t *testing.T) {
	wf, requests, documents, activity := testWorkflow()
	activity.InsertErr = errors.New("db down")

	req := seed(requests, StateInProgress)
	addVerifiedDocument(documents, req.ID)

	require.NoError(t, wf.Approve(req.ID, owner, "", false))
}

func TestMissingRequest(t *testing.T) {
	wf, _, _, _ := testWorkflow()

	require.ErrorIs(t, wf.RecordAttempt("no-such-id"), ErrRequestNotFound)
	require.ErrorIs(t, wf.Approve("no-such-id", owner, "", false), ErrRequestNotFound)
}
