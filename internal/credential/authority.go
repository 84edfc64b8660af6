// Package credential implements the credential authority: issuance,
// verification, and one-way revocation of permission-scoped API keys.
package credential

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/openpulpit/openpulpit/internal/authz"
	"github.com/openpulpit/openpulpit/internal/db/models"
	"github.com/openpulpit/openpulpit/internal/secret"
)

var (
	// ErrCredentialNotFound is returned when a credential is not found.
	ErrCredentialNotFound = errors.New("credential not found")
	// ErrCredentialRevoked is returned for any operation against a revoked
	// credential. Revocation is terminal.
	ErrCredentialRevoked = errors.New("credential is revoked")
	// ErrCredentialExpired is returned when verifying a credential past its expiry.
	ErrCredentialExpired = errors.New("credential is expired")
	// ErrOwnerRequired is returned when issuing without an owning user.
	ErrOwnerRequired = errors.New("credential owner is required")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Authority issues, verifies, and revokes credentials.
type Authority struct {
	db  *gorm.DB
	now func() time.Time
}

// NewAuthority creates a credential authority.
func NewAuthority(db *gorm.DB) *Authority {
	return &Authority{db: db, now: time.Now}
}

// IssueRequest describes a credential to be issued.
type IssueRequest struct {
	Label       string
	Environment models.CredentialEnvironment
	Type        models.CredentialType
	Permissions []string
	ExpiresAt   *time.Time
}

// Issue creates a credential for the owner. The requested permissions are
// validated against the owner's effective permission set at issuance time;
// any action outside that set fails the whole request with a
// ValidationError listing the offending actions in request order. The raw
// secret is returned exactly once and never stored.
func (a *Authority) Issue(owner *models.User, req IssueRequest) (*models.Credential, string, error) {
	if a.db == nil {
		return nil, "", ErrDBNil
	}
	if owner == nil || owner.ID == 0 {
		return nil, "", ErrOwnerRequired
	}

	var offending []string
	for _, action := range req.Permissions {
		if !authz.HasPermission(owner, action) {
			offending = append(offending, action)
		}
	}

	if len(offending) > 0 {
		return nil, "", authz.NewValidationError(
			"requested permissions exceed the owner's effective permissions", offending)
	}

	raw := secret.NewToken()

	cred := &models.Credential{
		SecretHash:   HashSecret(raw),
		SecretPrefix: secret.Prefix(raw),
		Label:        req.Label,
		UserID:       owner.ID,
		Environment:  req.Environment,
		Type:         req.Type,
		Status:       models.CredentialStatusActive,
		Permissions:  datatypes.NewJSONSlice(req.Permissions),
		ExpiresAt:    req.ExpiresAt,
	}

	if err := a.db.Create(cred).Error; err != nil {
		return nil, "", err
	}

	return cred, raw, nil
}

// Verify looks up a credential by its raw secret and checks that it is
// usable. The owner is preloaded and LastUsedAt stamped on success.
func (a *Authority) Verify(raw string) (*models.Credential, error) {
	if a.db == nil {
		return nil, ErrDBNil
	}

	var cred models.Credential
	result := a.db.Preload("User").Where("secret_hash = ?", HashSecret(raw)).First(&cred)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrCredentialNotFound
		}
		return nil, result.Error
	}

	if cred.IsRevoked() {
		return nil, ErrCredentialRevoked
	}

	now := a.now()
	if cred.IsExpired(now) {
		return nil, ErrCredentialExpired
	}

	if err := a.db.Model(&models.Credential{}).
		Where("id = ?", cred.ID).
		Update("last_used_at", now).Error; err != nil {
		return nil, err
	}

	cred.LastUsedAt = &now

	return &cred, nil
}

// Revoke marks the credential revoked. The transition is one-way: revoking
// an already revoked credential fails with ErrCredentialRevoked and the
// record never returns to active.
func (a *Authority) Revoke(id, revokedBy uint64) error {
	if a.db == nil {
		return ErrDBNil
	}

	var cred models.Credential
	result := a.db.First(&cred, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return ErrCredentialNotFound
		}
		return result.Error
	}

	if cred.IsRevoked() {
		return ErrCredentialRevoked
	}

	now := a.now()

	return a.db.Model(&models.Credential{}).
		Where("id = ? AND status = ?", id, models.CredentialStatusActive).
		Updates(map[string]interface{}{
			"status":     models.CredentialStatusRevoked,
			"revoked_at": now,
			"revoked_by": revokedBy,
		}).Error
}

// ListByOwner retrieves all credentials of the owning user, newest first.
func (a *Authority) ListByOwner(userID uint64) ([]models.Credential, error) {
	if a.db == nil {
		return nil, ErrDBNil
	}

	var creds []models.Credential
	result := a.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&creds)
	if result.Error != nil {
		return nil, result.Error
	}

	return creds, nil
}

// HashSecret returns the hex-encoded SHA-256 hash of a raw secret.
func HashSecret(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
