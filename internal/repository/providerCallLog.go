package repository

import (
	"context"

	"github.com/rentiva/veriprop/internal/models"
)

type ProviderCallLogRepository interface {
	Insert(log *models.ProviderCallLog) error
}

type ProviderCallLogRepositoryImpl struct {
	db *DB
}

func NewProviderCallLogRepository(db *DB) ProviderCallLogRepository {
	return &ProviderCallLogRepositoryImpl{db: db}
}

func (repo *ProviderCallLogRepositoryImpl) Insert(log *models.ProviderCallLog) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		INSERT INTO provider_call_logs (endpoint, request_payload, response, status_code, duration_ms, success)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := repo.db.ExecContext(ctx, query,
		log.Endpoint,
		log.RequestPayload,
		log.Response,
		log.StatusCode,
		log.DurationMs,
		log.Success,
	)
	return err
}
