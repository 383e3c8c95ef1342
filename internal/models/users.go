package models

import (
	"database/sql"
	"time"
)

type User struct {
	ID             string         `db:"id"`
	FirstName      string         `db:"first_name"`
	LastName       string         `db:"last_name"`
	PhoneNumber    string         `db:"phone_number"`
	Email          string         `db:"email"`
	Role           string         `db:"role"`
	Status         string         `db:"status"`
	DateOfBirth    sql.NullString `db:"date_of_birth"`
	CreatedAt      time.Time      `db:"created_at"`
	DeletedAt      sql.NullTime   `db:"deleted_at"`
	HashedPassword string         `db:"hashed_password"`
}

const (
	// UserRoleTenant is the default role. Tenants submit their own
	// identity documents for verification.
	UserRoleTenant = "tenant"

	// UserRolePropertyOwner reviews the verification requests of tenants
	// applying to their own properties.
	UserRolePropertyOwner = "property_owner"

	// UserRoleDeveloper and UserRolePropertyManager go through the same
	// verification pipeline as tenants but are reviewed by platform admins.
	UserRoleDeveloper       = "developer"
	UserRolePropertyManager = "property_manager"

	// UserRoleAdmin is the platform-level actor. Admins give the final
	// sign-off on owner-approved requests and can wipe a verification
	// for a clean resubmission.
	UserRoleAdmin = "admin"
)

const (
	UserAccountActiveStatus = "active"
	UserAccountLockedStatus = "locked"
)
