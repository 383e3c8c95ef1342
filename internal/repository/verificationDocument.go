package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rentiva/veriprop/internal/models"
)

type VerificationDocumentRepository interface {
	Insert(doc *models.VerificationDocument) (string, error)
	GetOne(id string) (*models.VerificationDocument, bool, error)
	ListForRequest(requestID string) ([]models.VerificationDocument, error)
	UpdateVerification(doc *models.VerificationDocument) error
	CountVerified(requestID string) (int, error)
}

type VerificationDocumentRepositoryImpl struct {
	db *DB
}

func NewVerificationDocumentRepository(db *DB) VerificationDocumentRepository {
	return &VerificationDocumentRepositoryImpl{db: db}
}

func (repo *VerificationDocumentRepositoryImpl) Insert(doc *models.VerificationDocument) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var id string
	query := `
		INSERT INTO verification_documents (request_id, document_type, file_name, file_url, document_number, metadata, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	err := repo.db.GetContext(ctx, &id, query,
		doc.RequestID,
		doc.DocumentType,
		doc.FileName,
		doc.FileURL,
		doc.DocumentNumber,
		doc.Metadata,
		models.VerificationStatusPending,
	)
	if err != nil {
		return "", err
	}

	return id, nil
}

func (repo *VerificationDocumentRepositoryImpl) GetOne(id string) (*models.VerificationDocument, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var doc models.VerificationDocument

	query := `SELECT * FROM verification_documents WHERE id = $1`

	err := repo.db.GetContext(ctx, &doc, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}

	return &doc, true, err
}

func (repo *VerificationDocumentRepositoryImpl) ListForRequest(requestID string) ([]models.VerificationDocument, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var docs []models.VerificationDocument

	query := `
		SELECT * FROM verification_documents
		WHERE request_id = $1
		ORDER BY created_at ASC`

	err := repo.db.SelectContext(ctx, &docs, query, requestID)
	if err != nil {
		return nil, err
	}

	return docs, nil
}

// UpdateVerification writes the outcome of one verification attempt.
// Guarded by updated_at so two concurrent attempts for the same
// document cannot silently overwrite each other's outcome.
func (repo *VerificationDocumentRepositoryImpl) UpdateVerification(doc *models.VerificationDocument) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE verification_documents
		SET status = $1,
			confidence = $2,
			failure_reason = $3,
			provider_reference = $4,
			updated_at = now()
		WHERE id = $5 AND updated_at = $6`

	result, err := repo.db.ExecContext(ctx, query,
		doc.Status,
		doc.Confidence,
		doc.FailureReason,
		doc.ProviderReference,
		doc.ID,
		doc.UpdatedAt,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if affected == 0 {
		return ErrStaleRecord
	}

	return nil
}

func (repo *VerificationDocumentRepositoryImpl) CountVerified(requestID string) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var count int

	query := `
		SELECT count(*) FROM verification_documents
		WHERE request_id = $1 AND status = $2`

	err := repo.db.GetContext(ctx, &count, query, requestID, models.VerificationStatusVerified)
	if err != nil {
		return 0, err
	}

	return count, nil
}
