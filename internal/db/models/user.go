package models

import (
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
)

// UserType classifies a platform account and selects its default
// permission set in the permission registry.
type UserType string

const (
	// UserTypeSuperAdmin has the full platform catalog, including system operations.
	UserTypeSuperAdmin UserType = "SUPERADMIN"
	// UserTypeAdmin manages tenant content and users.
	UserTypeAdmin UserType = "ADMIN"
	// UserTypePublisher uploads and manages sermon content.
	UserTypePublisher UserType = "PUBLISHER"
	// UserTypeAdvertiser manages ad campaigns.
	UserTypeAdvertiser UserType = "ADVERTISER"
	// UserTypeListener is the baseline consumer account.
	UserTypeListener UserType = "LISTENER"
)

// User represents a platform account. Users carry an effective permission
// set computed by the authorization service, which is always a subset of
// the assigned role's persisted permission set.
type User struct {
	// ID is the unique identifier for the user.
	ID uint64 `gorm:"primaryKey"`
	// Active indicates whether the user account is active.
	Active bool
	// Username is the unique username for login.
	Username string `gorm:"unique;size:100;not null"`
	// Email is the user's email address.
	Email string `gorm:"unique;size:255;not null"`
	// Password is the Argon2id hashed password.
	Password string `gorm:"size:255"`
	// FirstName is the user's first or given name.
	FirstName string `gorm:"size:100"`
	// LastName is the user's last or family name.
	LastName string `gorm:"size:100"`
	// UserType classifies the account (SUPERADMIN, ADMIN, PUBLISHER, ADVERTISER, LISTENER).
	UserType UserType `gorm:"type:varchar(20);not null;default:'LISTENER'"`
	// RoleID is the ID of the role assigned to this user. The users table is
	// the membership ledger: a role's member list is exactly the rows
	// referencing it here.
	RoleID uint `gorm:"column:role_id;index"`
	// Role is the associated role (enforced with a foreign key constraint).
	Role Role `gorm:"foreignKey:RoleID;references:ID;constraint:OnDelete:RESTRICT,OnUpdate:CASCADE"`
	// Permissions is the effective permission set: the validated intersection
	// of the registry defaults for UserType and the assigned role's catalog.
	Permissions datatypes.JSONSlice[string] `gorm:"column:permissions"`
	// CreatedAt is the timestamp when the user was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the user was last updated (managed by GORM).
	UpdatedAt time.Time
	// DeletedAt is the soft delete timestamp (nil if not deleted, managed by GORM).
	DeletedAt *time.Time
}

// TableName specifies the database table name for the User model.
// This overrides GORM's default pluralized table naming.
func (User) TableName() string {
	return "users"
}

// PermissionActions returns the user's effective permission set.
func (u *User) PermissionActions() []string {
	return u.Permissions
}

// HashPassword hashes a plaintext password using the Argon2id algorithm.
// This function should be used when creating or updating user passwords.
// It uses the default Argon2id parameters for secure password hashing.
func HashPassword(password string) string {
	hashedPassword, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		log.Fatal().Msgf("failed to hash password: %v", err)
	}

	return hashedPassword
}

// VerifyPassword verifies a plaintext password against the user's stored hashed password.
// It uses constant-time comparison to prevent timing attacks.
// Returns true if the password matches, false otherwise.
func (u *User) VerifyPassword(password string) bool {
	match, err := argon2id.ComparePasswordAndHash(password, u.Password)
	if err != nil {
		log.Error().Msgf("failed to verify password: %v", err)
		return false
	}

	return match
}
