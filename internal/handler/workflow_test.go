package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rentiva/veriprop/internal/context"
	"github.com/rentiva/veriprop/internal/errHandler"
	"github.com/rentiva/veriprop/internal/mocks"
	"github.com/rentiva/veriprop/internal/models"
	"github.com/rentiva/veriprop/internal/workflow"

	"github.com/stretchr/testify/require"
)

func newWorkflowTestHandler(requests *mocks.MockRequestRepo, documents *mocks.MockDocumentRepo) *WorkflowHandler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	wf := workflow.New(&workflow.Workflow{
		Requests:  requests,
		Documents: documents,
		Activity:  &mocks.MockActivityRepo{},
		Logger:    logger,
	})

	return NewWorkflowHandler(&WorkflowHandler{
		Workflow:   wf,
		ErrHandler: errHandler.New("", "http://localhost", nil, logger),
	})
}

// seedRequest puts an in-progress request with one verified document in
// the repos and returns its id.
func seedRequest(requests *mocks.MockRequestRepo, documents *mocks.MockDocumentRepo) string {
	id, _ := requests.Insert("tenant-1", models.UserRoleTenant)
	req, _, _ := requests.GetOne(id)
	req.Status = models.VerificationStatusInProgress
	requests.Update(req)

	documents.Insert(&models.VerificationDocument{
		ID:        "doc-1",
		RequestID: id,
		Status:    models.VerificationStatusVerified,
	})

	return id
}

func postWorkflowAction(t *testing.T, handlerFunc http.HandlerFunc, requestID string, actor *models.User, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Buffer
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(payload)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest("POST", "/verifications/"+requestID+"/action", reader)
	require.NoError(t, err)
	req.SetPathValue("id", requestID)
	req = context.ContextSetAuthenticatedUser(req, actor)

	rr := httptest.NewRecorder()
	handlerFunc(rr, req)
	return rr
}

func TestHandleApproveVerification(t *testing.T) {
	requests := &mocks.MockRequestRepo{}
	documents := &mocks.MockDocumentRepo{}
	h := newWorkflowTestHandler(requests, documents)

	requestID := seedRequest(requests, documents)
	reviewer := &models.User{ID: "owner-1", Role: models.UserRolePropertyOwner}

	rr := postWorkflowAction(t, h.HandleApproveVerification, requestID, reviewer, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	updated, _, _ := requests.GetOne(requestID)
	require.Equal(t, models.VerificationStatusVerified, updated.Status)
}

func TestHandleApproveVerification_IllegalTransitionIsConflict(t *testing.T) {
	requests := &mocks.MockRequestRepo{}
	documents := &mocks.MockDocumentRepo{}
	h := newWorkflowTestHandler(requests, documents)

	requestID := seedRequest(requests, documents)
	reviewer := &models.User{ID: "owner-1", Role: models.UserRolePropertyOwner}

	// first approval completes the request, the second hits a terminal state
	rr := postWorkflowAction(t, h.HandleApproveVerification, requestID, reviewer, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = postWorkflowAction(t, h.HandleApproveVerification, requestID, reviewer, nil)
	require.Equal(t, http.StatusConflict, rr.Code)
}

func TestHandleApproveVerification_NoVerifiedDocuments(t *testing.T) {
	requests := &mocks.MockRequestRepo{}
	documents := &mocks.MockDocumentRepo{}
	h := newWorkflowTestHandler(requests, documents)

	id, _ := requests.Insert("tenant-1", models.UserRoleTenant)
	req, _, _ := requests.GetOne(id)
	req.Status = models.VerificationStatusInProgress
	requests.Update(req)

	reviewer := &models.User{ID: "owner-1", Role: models.UserRolePropertyOwner}

	rr := postWorkflowAction(t, h.HandleApproveVerification, id, reviewer, nil)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	// override approves anyway
	rr = postWorkflowAction(t, h.HandleApproveVerification, id, reviewer, map[string]any{"override": true})
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestHandleRejectVerification_RequiresReason(t *testing.T) {
	requests := &mocks.MockRequestRepo{}
	documents := &mocks.MockDocumentRepo{}
	h := newWorkflowTestHandler(requests, documents)

	requestID := seedRequest(requests, documents)
	reviewer := &models.User{ID: "owner-1", Role: models.UserRolePropertyOwner}

	rr := postWorkflowAction(t, h.HandleRejectVerification, requestID, reviewer, map[string]any{"reason": ""})
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = postWorkflowAction(t, h.HandleRejectVerification, requestID, reviewer, map[string]any{"reason": "document is blurry"})
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestHandleDeleteVerification_UnknownRequest(t *testing.T) {
	requests := &mocks.MockRequestRepo{}
	documents := &mocks.MockDocumentRepo{}
	h := newWorkflowTestHandler(requests, documents)

	admin := &models.User{ID: "admin-1", Role: models.UserRoleAdmin}

	rr := postWorkflowAction(t, h.HandleDeleteVerification, "no-such-id", admin, nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
}
