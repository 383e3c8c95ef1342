package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rentiva/veriprop/internal/models"
)

type VerificationRequestRepository interface {
	Insert(customerID, customerType string) (string, error)
	GetOne(id string) (*models.VerificationRequest, bool, error)
	GetLatestForCustomer(customerID string) (*models.VerificationRequest, bool, error)
	Update(req *models.VerificationRequest) error
	Delete(id string) error
}

type VerificationRequestRepositoryImpl struct {
	db *DB
}

func NewVerificationRequestRepository(db *DB) VerificationRequestRepository {
	return &VerificationRequestRepositoryImpl{db: db}
}

func (repo *VerificationRequestRepositoryImpl) Insert(customerID, customerType string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var id string
	query := `
		INSERT INTO verification_requests (customer_id, customer_type, status, owner_approval_status)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	err := repo.db.GetContext(ctx, &id, query,
		customerID,
		customerType,
		models.VerificationStatusPending,
		models.OwnerApprovalPending,
	)
	if err != nil {
		return "", err
	}

	return id, nil
}

func (repo *VerificationRequestRepositoryImpl) GetOne(id string) (*models.VerificationRequest, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var req models.VerificationRequest

	query := `SELECT * FROM verification_requests WHERE id = $1`

	err := repo.db.GetContext(ctx, &req, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}

	return &req, true, err
}

func (repo *VerificationRequestRepositoryImpl) GetLatestForCustomer(customerID string) (*models.VerificationRequest, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var req models.VerificationRequest

	query := `
		SELECT * FROM verification_requests
		WHERE customer_id = $1
		ORDER BY submitted_at DESC
		LIMIT 1`

	err := repo.db.GetContext(ctx, &req, query, customerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}

	return &req, true, err
}

// Update writes the mutable lifecycle fields of a request. The row's
// updated_at must still match the value the caller read; a stale read
// means another actor (engine or reviewer) got there first and the
// caller's decision must not clobber theirs.
func (repo *VerificationRequestRepositoryImpl) Update(req *models.VerificationRequest) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE verification_requests
		SET status = $1,
			owner_approval_status = $2,
			owner_reviewed_at = $3,
			owner_notes = $4,
			reviewed_by = $5,
			reviewed_at = $6,
			rejection_reason = $7,
			completed_at = $8,
			updated_at = now()
		WHERE id = $9 AND updated_at = $10`

	result, err := repo.db.ExecContext(ctx, query,
		req.Status,
		req.OwnerApprovalStatus,
		req.OwnerReviewedAt,
		req.OwnerNotes,
		req.ReviewedBy,
		req.ReviewedAt,
		req.RejectionReason,
		req.CompletedAt,
		req.ID,
		req.UpdatedAt,
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

func (repo *VerificationRequestRepositoryImpl) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	// Documents are removed with the request via the FK cascade.
	query := `DELETE FROM verification_requests WHERE id = $1`

	_, err := repo.db.ExecContext(ctx, query, id)
	return err
}
