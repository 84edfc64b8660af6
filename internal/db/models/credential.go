package models

import (
	"time"

	"gorm.io/datatypes"
)

// CredentialEnvironment separates live traffic keys from test keys.
type CredentialEnvironment string

const (
	// CredentialEnvLive is for production API traffic.
	CredentialEnvLive CredentialEnvironment = "live"
	// CredentialEnvTest is for integration and sandbox traffic.
	CredentialEnvTest CredentialEnvironment = "test"
)

// CredentialType distinguishes how a credential is used.
type CredentialType string

const (
	// CredentialTypeServer is a machine-to-machine key.
	CredentialTypeServer CredentialType = "server"
	// CredentialTypePersonal is a key bound to interactive tooling of one user.
	CredentialTypePersonal CredentialType = "personal"
)

// CredentialStatus is the lifecycle state of a credential.
type CredentialStatus string

const (
	// CredentialStatusActive means the credential may authenticate requests.
	CredentialStatusActive CredentialStatus = "active"
	// CredentialStatusRevoked is terminal: a revoked credential never
	// transitions back to active.
	CredentialStatusRevoked CredentialStatus = "revoked"
)

// Credential is a permission-scoped API key bound to an owning user.
// The raw secret is never stored; only a SHA-256 hash and a short prefix
// for operator identification are persisted. The granted permission set is
// validated at issuance to be a subset of the owner's effective permissions.
type Credential struct {
	// ID is the unique identifier for the credential.
	ID uint64 `gorm:"primaryKey"`
	// SecretHash is the hex-encoded SHA-256 hash of the raw secret.
	SecretHash string `gorm:"unique;size:64;not null"`
	// SecretPrefix is the first characters of the raw secret, kept so
	// operators can match a key in hand against the record.
	SecretPrefix string `gorm:"size:8;not null"`
	// Label is a free-form operator note.
	Label string `gorm:"size:255"`
	// UserID is the owning user.
	UserID uint64 `gorm:"not null;index"`
	// User is the associated owner (loaded via foreign key).
	User User `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	// Environment is live or test.
	Environment CredentialEnvironment `gorm:"type:varchar(10);not null;default:'test'"`
	// Type is server or personal.
	Type CredentialType `gorm:"type:varchar(10);not null;default:'server'"`
	// Status is active or revoked.
	Status CredentialStatus `gorm:"type:varchar(10);not null;default:'active'"`
	// Permissions is the granted permission subset.
	Permissions datatypes.JSONSlice[string] `gorm:"column:permissions"`
	// ExpiresAt is the optional expiry; nil means the credential does not expire.
	ExpiresAt *time.Time
	// RevokedAt is set when the credential is revoked.
	RevokedAt *time.Time
	// RevokedBy is the user who revoked the credential.
	RevokedBy *uint64
	// LastUsedAt is stamped on successful verification.
	LastUsedAt *time.Time
	// CreatedAt is the timestamp when the credential was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the credential was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Credential model.
// This overrides GORM's default pluralized table naming.
func (Credential) TableName() string {
	return "credentials"
}

// PermissionActions returns the credential's granted permission set.
func (c *Credential) PermissionActions() []string {
	return c.Permissions
}

// IsExpired reports whether the credential is past its expiry at the given time.
func (c *Credential) IsExpired(now time.Time) bool {
	return c.ExpiresAt != nil && now.After(*c.ExpiresAt)
}

// IsRevoked reports whether the credential has been revoked.
func (c *Credential) IsRevoked() bool {
	return c.Status == CredentialStatusRevoked
}
