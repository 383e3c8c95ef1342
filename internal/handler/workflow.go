package handler

import (
	"errors"
	"net/http"

	"github.com/rentiva/veriprop/internal/context"
	"github.com/rentiva/veriprop/internal/errHandler"
	"github.com/rentiva/veriprop/internal/repository"
	"github.com/rentiva/veriprop/internal/request"
	"github.com/rentiva/veriprop/internal/response"
	"github.com/rentiva/veriprop/internal/validator"
	"github.com/rentiva/veriprop/internal/workflow"
)

type WorkflowHandler struct {
	Workflow *workflow.Workflow

	ErrHandler *errHandler.ErrorRepository
}

func NewWorkflowHandler(handler *WorkflowHandler) *WorkflowHandler {
	return &WorkflowHandler{
		Workflow:   handler.Workflow,
		ErrHandler: handler.ErrHandler,
	}
}

// respondWorkflowError maps the workflow's typed failures onto HTTP
// statuses. Illegal transitions and lost concurrency races are
// conflicts; everything the client can correct is a validation failure.
func (h *WorkflowHandler) respondWorkflowError(w http.ResponseWriter, r *http.Request, err error) {
	var transitionErr *workflow.TransitionError

	switch {
	case errors.As(err, &transitionErr):
		h.ErrHandler.Conflict(w, r, transitionErr)
	case errors.Is(err, repository.ErrStaleRecord):
		h.ErrHandler.Conflict(w, r, errors.New("the request was modified by someone else, please retry"))
	case errors.Is(err, workflow.ErrRequestNotFound):
		h.ErrHandler.NotFound(w, r)
	case errors.Is(err, workflow.ErrActorNotAllowed):
		h.ErrHandler.Forbidden(w, r)
	case errors.Is(err, workflow.ErrReasonRequired):
		h.ErrHandler.FailedValidation(w, r, []string{"A reason is required"})
	case errors.Is(err, workflow.ErrNoVerifiedDocuments):
		h.ErrHandler.FailedValidation(w, r, []string{"Request has no verified documents. Pass override to approve anyway"})
	default:
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *WorkflowHandler) HandleApproveVerification(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Notes    string `json:"notes"`
		Override bool   `json:"override"`
	}

	// Notes and override are optional; an empty body is a plain approval.
	if r.ContentLength > 0 {
		err := request.DecodeJSON(w, r, &input)
		if err != nil {
			h.ErrHandler.BadRequest(w, r, err)
			return
		}
	}

	user := context.ContextGetAuthenticatedUser(r)
	requestID := r.PathValue("id")

	err := h.Workflow.Approve(requestID, user, input.Notes, input.Override)
	if err != nil {
		h.respondWorkflowError(w, r, err)
		return
	}

	message := "Verification request approved"
	err = response.JSONOkResponse(w, nil, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *WorkflowHandler) HandleRejectVerification(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Reason    string              `json:"reason"`
		Validator validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.Reason), "Reason is required")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	user := context.ContextGetAuthenticatedUser(r)
	requestID := r.PathValue("id")

	err = h.Workflow.Reject(requestID, user, input.Reason)
	if err != nil {
		h.respondWorkflowError(w, r, err)
		return
	}

	message := "Verification request rejected"
	err = response.JSONOkResponse(w, nil, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleAdminVerify is the platform admin's final sign-off on an
// owner-approved request.
func (h *WorkflowHandler) HandleAdminVerify(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)
	requestID := r.PathValue("id")

	err := h.Workflow.AdminVerify(requestID, user)
	if err != nil {
		h.respondWorkflowError(w, r, err)
		return
	}

	message := "Verification confirmed"
	err = response.JSONOkResponse(w, nil, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *WorkflowHandler) HandleRequestResubmission(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Reason    string              `json:"reason"`
		Validator validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.Reason), "Reason is required")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	user := context.ContextGetAuthenticatedUser(r)
	requestID := r.PathValue("id")

	err = h.Workflow.RequestResubmission(requestID, user, input.Reason)
	if err != nil {
		h.respondWorkflowError(w, r, err)
		return
	}

	message := "Resubmission requested"
	err = response.JSONOkResponse(w, nil, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *WorkflowHandler) HandleRequestAdditionalDocument(w http.ResponseWriter, r *http.Request) {
	var input struct {
		DocumentTypes []string            `json:"document_types"`
		Message       string              `json:"message"`
		Validator     validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(len(input.DocumentTypes) > 0, "At least one document type is required")
	input.Validator.Check(validator.NoDuplicates(input.DocumentTypes), "Document types must not repeat")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	user := context.ContextGetAuthenticatedUser(r)
	requestID := r.PathValue("id")

	err = h.Workflow.RequestAdditionalDocument(requestID, user, input.DocumentTypes, input.Message)
	if err != nil {
		h.respondWorkflowError(w, r, err)
		return
	}

	message := "Additional documents requested"
	err = response.JSONOkResponse(w, nil, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleDeleteVerification wipes a request and its documents so the
// subject can start over. Admin-only.
func (h *WorkflowHandler) HandleDeleteVerification(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Reason string `json:"reason"`
	}

	// The reason body is optional on delete.
	if r.ContentLength > 0 {
		err := request.DecodeJSON(w, r, &input)
		if err != nil {
			h.ErrHandler.BadRequest(w, r, err)
			return
		}
	}

	user := context.ContextGetAuthenticatedUser(r)
	requestID := r.PathValue("id")

	err := h.Workflow.Delete(requestID, user, input.Reason)
	if err != nil {
		h.respondWorkflowError(w, r, err)
		return
	}

	message := "Verification request deleted"
	err = response.JSONOkResponse(w, nil, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
