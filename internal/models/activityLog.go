package models

import (
	"database/sql"
	"time"
)

type ActivityLog struct {
	ID          string         `db:"id"`
	UserID      string         `db:"user_id"`
	Entity      string         `db:"entity"`
	EntityId    string         `db:"entity_id"`
	Description string         `db:"description"`
	Reason      sql.NullString `db:"reason"`
	CreatedAt   time.Time      `db:"created_at"`
}

// ProviderCallLog records every outbound call to the KYC provider.
// Request payloads are stored with document numbers already redacted;
// a clear-text identifier must never reach this table.
type ProviderCallLog struct {
	ID             string    `db:"id"`
	Endpoint       string    `db:"endpoint"`
	RequestPayload string    `db:"request_payload"`
	Response       string    `db:"response"`
	StatusCode     int       `db:"status_code"`
	DurationMs     int64     `db:"duration_ms"`
	Success        bool      `db:"success"`
	CreatedAt      time.Time `db:"created_at"`
}
