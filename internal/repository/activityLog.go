// Logging is a critical part of the system
// Every action (synchronous or asynchronous) should be logged.
// This helps in audit and will also be used to trace activites.
// There's no such thing as too much log
// ...
// We used polymorphism to define entity and entity_id
// This allow our table to be used for different part of the application
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rentiva/veriprop/internal/models"
)

type ActivityRepository interface {
	CountConsecutiveFailedLoginAttempts(userID, action_desc string) int
	Insert(log *models.ActivityLog) (*models.ActivityLog, error)
	ListForEntity(entity, entityID string) ([]models.ActivityLog, error)
}

const (
	// ActivityLogUserEntity is used in activites that has to do with user accounts and the users table
	ActivityLogUserEntity = "user"

	// ActivityLogVerificationRequestEntity is used for lifecycle actions on verification requests:
	// submission, owner review, admin sign-off, resubmission and deletion
	ActivityLogVerificationRequestEntity = "verification_request"

	// ActivityLogVerificationDocumentEntity is used for per-document verification attempts and their outcomes
	ActivityLogVerificationDocumentEntity = "verification_document"
)

type ActivityRepositoryImpl struct {
	db *DB
}

func NewActivityRepository(db *DB) ActivityRepository {
	return &ActivityRepositoryImpl{db: db}
}

func (repo *ActivityRepositoryImpl) Insert(log *models.ActivityLog) (*models.ActivityLog, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var entry models.ActivityLog

	query := `
		INSERT INTO activity_logs (user_id, entity, entity_id, description, reason)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	err := repo.db.GetContext(ctx, &entry, query,
		log.UserID,
		log.Entity,
		log.EntityId,
		log.Description,
		log.Reason,
	)

	if err != nil {
		return nil, err
	}

	return &entry, nil
}

func (repo *ActivityRepositoryImpl) ListForEntity(entity, entityID string) ([]models.ActivityLog, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var entries []models.ActivityLog

	query := `
		SELECT id, user_id, entity, entity_id, description, reason, created_at
		FROM activity_logs
		WHERE entity = $1 AND entity_id = $2
		ORDER BY created_at ASC`

	err := repo.db.SelectContext(ctx, &entries, query, entity, entityID)
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// CountConsecutiveFailedLoginAttempts counts the number of consecutive failed login attempts for a user.
// This function is used to determine if a user’s account should be temporarily locked after 3 consecutive failures.
// It checks the most recent login attempts in descending order and counts failures until a successful login or the limit is reached.
func (repo *ActivityRepositoryImpl) CountConsecutiveFailedLoginAttempts(userID, action_desc string) int {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var descriptions []string

	// Query the most recent login attempts for the user, limiting to the last 3 entries
	query := `
		SELECT description
		FROM activity_logs
		WHERE user_id = $1 AND entity = $2
		ORDER BY created_at DESC
		LIMIT 3
	`
	err := repo.db.SelectContext(ctx, &descriptions, query, userID, ActivityLogUserEntity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0
		}
		return 0
	}

	// Count consecutive failed logins
	count := 0
	for _, desc := range descriptions {
		if desc == action_desc {
			count++
		} else {
			break // Stop counting if we encounter a non-failed login
		}
	}

	return count
}
