package seeders

import (
	"context"
	"log"

	"github.com/cradoe/gopass"
)

// seedAdminUser makes sure there is always one platform admin who can
// review verification requests and give final sign-offs. The default
// password is meant to be changed immediately after first login.
func (seeder *Seeder) seedAdminUser() {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	tx, err := seeder.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Fatalf("Failed to start transaction: %v", err)
	}

	hashedPassword, err := gopass.Hash("ChangeMe@001")
	if err != nil {
		tx.Rollback()
		log.Fatalf("Failed to hash admin password: %v", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO users (first_name, last_name, phone_number, email, role, hashed_password)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (email) DO NOTHING;`,
		"Platform", "Admin", "+2340000000000", "admin@rentiva.io", "admin", hashedPassword,
	)
	if err != nil {
		tx.Rollback()
		log.Fatalf("Failed to insert admin user: %v", err)
	}

	if err = tx.Commit(); err != nil {
		log.Fatalf("Failed to commit transaction: %v", err)
	}
}
