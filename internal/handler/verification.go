package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rentiva/veriprop/internal/context"
	"github.com/rentiva/veriprop/internal/errHandler"
	"github.com/rentiva/veriprop/internal/file"
	"github.com/rentiva/veriprop/internal/helper"
	"github.com/rentiva/veriprop/internal/models"
	"github.com/rentiva/veriprop/internal/provider"
	"github.com/rentiva/veriprop/internal/repository"
	"github.com/rentiva/veriprop/internal/request"
	"github.com/rentiva/veriprop/internal/response"
	"github.com/rentiva/veriprop/internal/secure"
	"github.com/rentiva/veriprop/internal/validator"
	"github.com/rentiva/veriprop/internal/verification"
	"github.com/rentiva/veriprop/internal/workflow"
)

type VerificationResponseData struct {
	ID                  string                 `json:"id"`
	CustomerID          string                 `json:"customer_id"`
	CustomerType        string                 `json:"customer_type"`
	Status              string                 `json:"status"`
	OwnerApprovalStatus string                 `json:"owner_approval_status"`
	RejectionReason     string                 `json:"rejection_reason,omitempty"`
	SubmittedAt         time.Time              `json:"submitted_at"`
	CompletedAt         *time.Time             `json:"completed_at,omitempty"`
	Documents           []DocumentResponseData `json:"documents,omitempty"`
}

type DocumentResponseData struct {
	ID            string    `json:"id"`
	DocumentType  string    `json:"document_type"`
	FileName      string    `json:"file_name"`
	FileURL       string    `json:"file_url,omitempty"`
	Status        string    `json:"status"`
	Confidence    *float64  `json:"confidence,omitempty"`
	FailureReason string    `json:"failure_reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// StatusCache keeps recent provider status lookups so repeated polling
// from a client does not turn into repeated provider calls. Any Get
// error counts as a miss.
type StatusCache interface {
	Get(key string) (string, error)
	Set(key, value string, expiration time.Duration) error
}

type VerificationHandler struct {
	RequestRepo  repository.VerificationRequestRepository
	DocumentRepo repository.VerificationDocumentRepository
	ActivityRepo repository.ActivityRepository

	Engine       *verification.Engine
	Provider     verification.ProviderAPI
	Workflow     *workflow.Workflow
	FileUploader *file.FileUploader
	Encryptor    *secure.Encryptor
	StatusCache  StatusCache

	ErrHandler *errHandler.ErrorRepository
	Helper     *helper.HelperRepository
}

func NewVerificationHandler(handler *VerificationHandler) *VerificationHandler {
	return &VerificationHandler{
		RequestRepo:  handler.RequestRepo,
		DocumentRepo: handler.DocumentRepo,
		ActivityRepo: handler.ActivityRepo,
		Engine:       handler.Engine,
		Provider:     handler.Provider,
		Workflow:     handler.Workflow,
		FileUploader: handler.FileUploader,
		Encryptor:    handler.Encryptor,
		StatusCache:  handler.StatusCache,
		ErrHandler:   handler.ErrHandler,
		Helper:       handler.Helper,
	}
}

// HandleStartVerification opens a verification request for the
// authenticated user, or returns the one already in flight.
func (h *VerificationHandler) HandleStartVerification(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	req, err := h.Workflow.Start(user.ID, user.Role)
	if err != nil {
		var transitionErr *workflow.TransitionError
		if errors.As(err, &transitionErr) {
			h.ErrHandler.Conflict(w, r, transitionErr)
			return
		}
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	message := "Verification request submitted"
	err = response.JSONCreatedResponse(w, formatVerificationRequest(req, nil), message)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleUploadDocument receives one identity document as multipart form
// data, pushes the file to cloud storage and stores the document record.
// A supplied document number is encrypted before it touches the database.
func (h *VerificationHandler) HandleUploadDocument(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)
	requestID := r.PathValue("id")

	req, found, err := h.RequestRepo.GetOne(requestID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found {
		h.ErrHandler.NotFound(w, r)
		return
	}

	if req.CustomerID != user.ID && user.Role != models.UserRoleAdmin {
		h.ErrHandler.Forbidden(w, r)
		return
	}

	err = r.ParseMultipartForm(10 << 20) // 10 MB
	if err != nil {
		h.ErrHandler.BadRequest(w, r, errors.New("invalid request data"))
		return
	}

	documentType := r.FormValue("document_type")
	documentNumber := r.FormValue("document_number")
	metadata := r.FormValue("metadata")

	var v validator.Validator
	v.Check(validator.NotBlank(documentType), "Document type is required")
	v.Check(validator.In(verification.CanonicalDocumentType(documentType),
		models.DocumentTypeNIN,
		models.DocumentTypeBVN,
		models.DocumentTypePassport,
		models.DocumentTypeDriversLicense,
		models.DocumentTypeVotersCard,
		models.DocumentTypeUtilityBill,
		models.DocumentTypeProofOfAddress,
	), "Document type is not recognized")

	if v.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, v.Errors)
		return
	}

	upload, uploadHandler, err := r.FormFile("file")
	if err != nil {
		h.ErrHandler.BadRequest(w, r, errors.New("error retrieving the file"))
		return
	}
	defer upload.Close()

	fileExtension := filepath.Ext(uploadHandler.Filename)

	// Save the file temporarily to the server
	tempFile, err := os.CreateTemp("", fmt.Sprintf("upload-*%s", fileExtension))
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	defer tempFile.Close()
	defer os.Remove(tempFile.Name())

	_, err = tempFile.ReadFrom(upload)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	publicID := fmt.Sprintf("%s-%s", req.ID, verification.CanonicalDocumentType(documentType))
	fileURL, err := h.FileUploader.UploadDocument(tempFile.Name(), publicID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	doc := &models.VerificationDocument{
		RequestID:    req.ID,
		DocumentType: documentType,
		FileName:     uploadHandler.Filename,
	}
	doc.FileURL.String = fileURL
	doc.FileURL.Valid = true

	if documentNumber != "" {
		encrypted, err := h.Encryptor.Encrypt(documentNumber)
		if err != nil {
			h.ErrHandler.ServerError(w, r, err)
			return
		}
		doc.DocumentNumber.String = encrypted
		doc.DocumentNumber.Valid = true
	}

	if metadata != "" {
		doc.Metadata.String = metadata
		doc.Metadata.Valid = true
	}

	docID, err := h.DocumentRepo.Insert(doc)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	h.Helper.BackgroundTask(r, func() error {
		_, err := h.ActivityRepo.Insert(&models.ActivityLog{
			UserID:      user.ID,
			Entity:      repository.ActivityLogVerificationDocumentEntity,
			EntityId:    docID,
			Description: fmt.Sprintf("Uploaded %s document", documentType),
		})

		if err != nil {
			log.Printf("Error logging document upload action: %v", err)
			return err
		}

		return nil
	})

	data := map[string]string{
		"document_id": docID,
		"file_url":    fileURL,
	}
	message := "Document uploaded successfully"
	err = response.JSONCreatedResponse(w, data, message)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleVerifyDocument runs one verification attempt against the
// provider, inline by default or queued when the client asks for async.
func (h *VerificationHandler) HandleVerifyDocument(w http.ResponseWriter, r *http.Request) {
	var input struct {
		DocumentType string              `json:"document_type"`
		DateOfBirth  string              `json:"date_of_birth"`
		Async        bool                `json:"async"`
		Validator    validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.DocumentType), "Document type is required")
	if input.DateOfBirth != "" {
		input.Validator.Check(validator.IsDate(input.DateOfBirth), "Date of birth must be in YYYY-MM-DD format")
	}

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	user := context.ContextGetAuthenticatedUser(r)
	requestID := r.PathValue("id")

	req, found, err := h.RequestRepo.GetOne(requestID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found {
		h.ErrHandler.NotFound(w, r)
		return
	}

	if req.CustomerID != user.ID && user.Role != models.UserRoleAdmin {
		h.ErrHandler.Forbidden(w, r)
		return
	}

	// The claimed identity comes from the subject's own profile, not the
	// request body, so a caller cannot verify documents against an
	// identity they do not hold.
	subject, found, err := h.Workflow.Users.GetOne(req.CustomerID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found {
		h.ErrHandler.NotFound(w, r)
		return
	}

	claimed := verification.ClaimedIdentity{
		FirstName:   subject.FirstName,
		LastName:    subject.LastName,
		DateOfBirth: subject.DateOfBirth.String,
	}
	if input.DateOfBirth != "" {
		claimed.DateOfBirth = input.DateOfBirth
	}

	if input.Async {
		job := &verification.VerifyJob{
			RequestID:    req.ID,
			SubjectID:    req.CustomerID,
			DocumentType: input.DocumentType,
			Claimed:      claimed,
		}

		err = h.Engine.VerifyAsync(job)
		if err != nil {
			if errors.Is(err, verification.ErrAsyncUnavailable) {
				h.ErrHandler.BadRequest(w, r, errors.New("async verification is not available"))
				return
			}
			h.ErrHandler.ServerError(w, r, err)
			return
		}

		message := "Verification queued"
		err = response.JSONOkResponse(w, map[string]string{"request_id": req.ID}, message, nil)
		if err != nil {
			h.ErrHandler.ServerError(w, r, err)
		}
		return
	}

	docs, err := h.DocumentRepo.ListForRequest(req.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if err := h.Workflow.RecordAttempt(req.ID); err != nil {
		var transitionErr *workflow.TransitionError
		if errors.As(err, &transitionErr) {
			h.ErrHandler.Conflict(w, r, transitionErr)
			return
		}
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	outcome, err := h.Engine.VerifyIdentity(r.Context(), req.CustomerID, input.DocumentType, docs, claimed)
	if err != nil {
		switch {
		case errors.Is(err, verification.ErrMissingIdentityFields),
			errors.Is(err, verification.ErrDocumentNotFound),
			errors.Is(err, verification.ErrDocumentNumberUnresolvable):
			h.ErrHandler.BadRequest(w, r, err)
		case errors.Is(err, verification.ErrVerificationInFlight):
			h.ErrHandler.Conflict(w, r, err)
		default:
			h.ErrHandler.ServerError(w, r, err)
		}
		return
	}

	message := "Verification attempt completed"
	err = response.JSONOkResponse(w, outcome, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleGetVerification returns a request with its documents.
func (h *VerificationHandler) HandleGetVerification(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)
	requestID := r.PathValue("id")

	req, found, err := h.RequestRepo.GetOne(requestID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found {
		h.ErrHandler.NotFound(w, r)
		return
	}

	if !canViewRequest(user, req) {
		h.ErrHandler.Forbidden(w, r)
		return
	}

	docs, err := h.DocumentRepo.ListForRequest(req.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	message := "Data retrieved successfully"
	err = response.JSONOkResponse(w, formatVerificationRequest(req, docs), message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleCustomerVerification returns the latest request for a customer,
// whatever state it is in. Reviewers use this to pull up a tenant's
// verification standing in one call.
func (h *VerificationHandler) HandleCustomerVerification(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)
	customerID := r.PathValue("id")

	if customerID != user.ID && user.Role != models.UserRoleAdmin && user.Role != models.UserRolePropertyOwner {
		h.ErrHandler.Forbidden(w, r)
		return
	}

	req, found, err := h.RequestRepo.GetLatestForCustomer(customerID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found {
		h.ErrHandler.NotFound(w, r)
		return
	}

	docs, err := h.DocumentRepo.ListForRequest(req.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	message := "Data retrieved successfully"
	err = response.JSONOkResponse(w, formatVerificationRequest(req, docs), message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleVerificationActivity returns the audit trail of a request in
// chronological order.
func (h *VerificationHandler) HandleVerificationActivity(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)
	requestID := r.PathValue("id")

	req, found, err := h.RequestRepo.GetOne(requestID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found {
		h.ErrHandler.NotFound(w, r)
		return
	}

	if !canViewRequest(user, req) {
		h.ErrHandler.Forbidden(w, r)
		return
	}

	entries, err := h.ActivityRepo.ListForEntity(repository.ActivityLogVerificationRequestEntity, req.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	queryValues := retrieveUrlQueryValues(r)

	type activityEntry struct {
		ActorID     string    `json:"actor_id"`
		Description string    `json:"description"`
		Reason      string    `json:"reason,omitempty"`
		CreatedAt   time.Time `json:"created_at"`
	}

	data := make([]activityEntry, 0, len(entries))
	for _, entry := range entries {
		if queryValues.StartDate != nil && entry.CreatedAt.Before(*queryValues.StartDate) {
			continue
		}
		if queryValues.EndDate != nil && entry.CreatedAt.After(queryValues.EndDate.AddDate(0, 0, 1)) {
			continue
		}
		data = append(data, activityEntry{
			ActorID:     entry.UserID,
			Description: entry.Description,
			Reason:      entry.Reason.String,
			CreatedAt:   entry.CreatedAt,
		})
	}

	if queryValues.Offset < len(data) {
		end := queryValues.Offset + queryValues.Limit
		if end > len(data) {
			end = len(data)
		}
		data = data[queryValues.Offset:end]
	} else {
		data = data[:0]
	}

	message := "Data retrieved successfully"
	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

const providerStatusCacheTTL = 30 * time.Second

// HandleDocumentStatus re-polls the provider for a document that was
// left pending asynchronous analysis. Poll responses are cached
// briefly so a refreshing client does not turn into repeated provider
// calls.
func (h *VerificationHandler) HandleDocumentStatus(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)
	requestID := r.PathValue("id")
	documentID := r.PathValue("docID")

	req, found, err := h.RequestRepo.GetOne(requestID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found {
		h.ErrHandler.NotFound(w, r)
		return
	}

	if !canViewRequest(user, req) {
		h.ErrHandler.Forbidden(w, r)
		return
	}

	doc, found, err := h.DocumentRepo.GetOne(documentID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found || doc.RequestID != req.ID {
		h.ErrHandler.NotFound(w, r)
		return
	}

	message := "Data retrieved successfully"

	// Only a pending document with a provider reference has anything
	// left to poll for.
	if doc.Status != models.VerificationStatusPending || !doc.ProviderReference.Valid {
		err = response.JSONOkResponse(w, formatVerificationDocument(doc), message, nil)
		if err != nil {
			h.ErrHandler.ServerError(w, r, err)
		}
		return
	}

	reference := doc.ProviderReference.String
	cacheKey := "kyc:status:" + reference

	var result *provider.VerificationResult

	if h.StatusCache != nil {
		if cached, err := h.StatusCache.Get(cacheKey); err == nil && cached != "" {
			var cachedResult provider.VerificationResult
			if err := json.Unmarshal([]byte(cached), &cachedResult); err == nil {
				result = &cachedResult
			}
		}
	}

	if result == nil {
		result = h.Provider.CheckStatus(r.Context(), reference)

		if h.StatusCache != nil {
			if payload, err := json.Marshal(result); err == nil {
				if err := h.StatusCache.Set(cacheKey, string(payload), providerStatusCacheTTL); err != nil {
					log.Printf("Error caching provider status for %s: %v", reference, err)
				}
			}
		}
	}

	// Persist a settled outcome so the next read does not poll again.
	if result.Status != "" && result.Status != doc.Status {
		doc.Status = result.Status
		doc.Confidence = sql.NullFloat64{Float64: result.Confidence, Valid: true}
		if result.Error != "" {
			doc.FailureReason = sql.NullString{String: result.Error, Valid: true}
		}

		updated := *doc
		h.Helper.BackgroundTask(r, func() error {
			err := h.DocumentRepo.UpdateVerification(&updated)
			if err != nil {
				log.Printf("Error persisting polled status for document %s: %v", updated.ID, err)
				return err
			}
			return nil
		})
	}

	data := map[string]any{
		"document":        formatVerificationDocument(doc),
		"provider_status": result,
	}

	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func canViewRequest(user *models.User, req *models.VerificationRequest) bool {
	if req.CustomerID == user.ID {
		return true
	}
	return user.Role == models.UserRoleAdmin || user.Role == models.UserRolePropertyOwner
}

func formatVerificationRequest(req *models.VerificationRequest, docs []models.VerificationDocument) *VerificationResponseData {
	data := &VerificationResponseData{
		ID:                  req.ID,
		CustomerID:          req.CustomerID,
		CustomerType:        req.CustomerType,
		Status:              req.Status,
		OwnerApprovalStatus: req.OwnerApprovalStatus,
		SubmittedAt:         req.SubmittedAt,
	}

	if req.RejectionReason.Valid {
		data.RejectionReason = req.RejectionReason.String
	}
	if req.CompletedAt.Valid {
		completed := req.CompletedAt.Time
		data.CompletedAt = &completed
	}

	if len(docs) > 0 {
		data.Documents = make([]DocumentResponseData, len(docs))
		for i, doc := range docs {
			data.Documents[i] = formatVerificationDocument(&doc)
		}
	}

	return data
}

func formatVerificationDocument(doc *models.VerificationDocument) DocumentResponseData {
	data := DocumentResponseData{
		ID:           doc.ID,
		DocumentType: doc.DocumentType,
		FileName:     doc.FileName,
		Status:       doc.Status,
		CreatedAt:    doc.CreatedAt,
	}

	if doc.FileURL.Valid {
		data.FileURL = doc.FileURL.String
	}
	if doc.Confidence.Valid {
		confidence := doc.Confidence.Float64
		data.Confidence = &confidence
	}
	if doc.FailureReason.Valid {
		data.FailureReason = doc.FailureReason.String
	}

	return data
}
