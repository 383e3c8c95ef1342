package repository

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/rentiva/veriprop/assets"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/lib/pq"
)

const defaultTimeout = 3 * time.Second

// ErrStaleRecord is returned by update methods that carry an
// optimistic-concurrency check when the row changed underneath the
// caller. The caller should reload and retry or surface a conflict.
var ErrStaleRecord = errors.New("repository: record was modified by another actor")

type DB struct {
	*sqlx.DB
}

// Database interface defines available repositories
type Database interface {
	User() UserRepository
	Activity() ActivityRepository
	VerificationRequest() VerificationRequestRepository
	VerificationDocument() VerificationDocumentRepository
	ProviderCallLog() ProviderCallLogRepository

	Close() error
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// DatabaseImpl implements the Database interface
type DatabaseImpl struct {
	db              *DB
	userRepo        UserRepository
	activityRepo    ActivityRepository
	requestRepo     VerificationRequestRepository
	documentRepo    VerificationDocumentRepository
	providerLogRepo ProviderCallLogRepository

	mu sync.Mutex
}

// New initializes a database connection and runs migrations if enabled
func New(dsn string, automigrate bool) (Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "postgres", "postgres://"+dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(2 * time.Hour)

	// Run migrations if enabled
	if automigrate {
		iofsDriver, err := iofs.New(assets.EmbeddedFiles, "migrations")
		if err != nil {
			return nil, err
		}

		migrator, err := migrate.NewWithSourceInstance("iofs", iofsDriver, "postgres://"+dsn)
		if err != nil {
			return nil, err
		}

		if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return nil, err
		}
	}

	// Return DatabaseImpl instance without pre-initializing repositories
	return &DatabaseImpl{db: &DB{db}}, nil
}

func (d *DatabaseImpl) Close() error {
	return d.db.Close()
}

func (d *DatabaseImpl) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	tx, err := d.db.BeginTxx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

func (d *DatabaseImpl) User() UserRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.userRepo == nil {
		d.userRepo = NewUserRepository(d.db)
	}
	return d.userRepo
}

func (d *DatabaseImpl) Activity() ActivityRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.activityRepo == nil {
		d.activityRepo = NewActivityRepository(d.db)
	}
	return d.activityRepo
}

func (d *DatabaseImpl) VerificationRequest() VerificationRequestRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.requestRepo == nil {
		d.requestRepo = NewVerificationRequestRepository(d.db)
	}
	return d.requestRepo
}

func (d *DatabaseImpl) VerificationDocument() VerificationDocumentRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.documentRepo == nil {
		d.documentRepo = NewVerificationDocumentRepository(d.db)
	}
	return d.documentRepo
}

func (d *DatabaseImpl) ProviderCallLog() ProviderCallLogRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.providerLogRepo == nil {
		d.providerLogRepo = NewProviderCallLogRepository(d.db)
	}
	return d.providerLogRepo
}
