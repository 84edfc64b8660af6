// Package credentials provides handlers for issuing, listing and revoking
// API credentials.
package credentials

import (
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/openpulpit/openpulpit/internal/authz"
	"github.com/openpulpit/openpulpit/internal/config"
	"github.com/openpulpit/openpulpit/internal/credential"
	"github.com/openpulpit/openpulpit/internal/db/controller/user"
	"github.com/openpulpit/openpulpit/internal/db/models"
	"github.com/openpulpit/openpulpit/internal/web/handler"
	"github.com/openpulpit/openpulpit/internal/web/middleware/apikey"
)

// Path is the base path for credential management.
const Path = handler.RootPath + "/credentials"

// Permissions guarding the credential routes.
const (
	PermRead   = "credential:read"
	PermCreate = "credential:create"
	PermRevoke = "credential:revoke"
)

// Service provides issue, list and revoke operations for credentials.
type Service struct {
	cfg       *config.Config
	db        *gorm.DB
	authority *credential.Authority
	validator *validator.Validate
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, _ *authz.Service) error {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return nil
	}

	s.db = db
	s.cfg = cfg
	s.authority = credential.NewAuthority(db)
	s.validator = validator.New()

	// Routes
	app.Get(Path, apikey.RequirePermission(PermRead), s.List)
	app.Post(Path, apikey.RequirePermission(PermCreate), s.Issue)
	app.Post(Path+"/:id/revoke", apikey.RequirePermission(PermRevoke), s.Revoke)

	return nil
}

type issueRequest struct {
	Username    string     `json:"username" validate:"required"`
	Label       string     `json:"label" validate:"required,max=100"`
	Environment string     `json:"environment" validate:"required,oneof=live test"`
	Type        string     `json:"type" validate:"required,oneof=server personal"`
	Permissions []string   `json:"permissions" validate:"required,min=1"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

type credentialView struct {
	ID          uint64     `json:"id"`
	Label       string     `json:"label"`
	Prefix      string     `json:"prefix"`
	Environment string     `json:"environment"`
	Type        string     `json:"type"`
	Status      string     `json:"status"`
	UserID      uint64     `json:"user_id"`
	Permissions []string   `json:"permissions"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	RevokedAt   *time.Time `json:"revoked_at,omitempty"`
	LastUsedAt  *time.Time `json:"last_used_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func newCredentialView(cred *models.Credential) credentialView {
	return credentialView{
		ID:          cred.ID,
		Label:       cred.Label,
		Prefix:      cred.SecretPrefix,
		Environment: string(cred.Environment),
		Type:        string(cred.Type),
		Status:      string(cred.Status),
		UserID:      cred.UserID,
		Permissions: cred.PermissionActions(),
		ExpiresAt:   cred.ExpiresAt,
		RevokedAt:   cred.RevokedAt,
		LastUsedAt:  cred.LastUsedAt,
		CreatedAt:   cred.CreatedAt,
	}
}

// List returns the credentials owned by a user. Secrets are never
// returned, only the stored prefix.
func (s *Service) List(c *fiber.Ctx) error {
	username := c.Query("username")
	if username == "" {
		return fiber.NewError(fiber.StatusBadRequest, "username query parameter is required")
	}

	u, err := user.FindByUsername(s.db, username)
	if err != nil {
		return err
	}

	creds, err := s.authority.ListByOwner(u.ID)
	if err != nil {
		return err
	}

	views := make([]credentialView, 0, len(creds))
	for i := range creds {
		views = append(views, newCredentialView(&creds[i]))
	}

	return c.JSON(fiber.Map{"credentials": views})
}

// Issue creates a credential for a user. The requested permissions must
// all be inside the owner's effective permission set. The raw secret is
// returned exactly once, in this response; only its hash is stored.
func (s *Service) Issue(c *fiber.Ctx) error {
	req := new(issueRequest)
	if err := c.BodyParser(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := s.validator.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	owner, err := user.FindByUsername(s.db, req.Username)
	if err != nil {
		return err
	}

	cred, secret, err := s.authority.Issue(owner, credential.IssueRequest{
		Label:       req.Label,
		Environment: models.CredentialEnvironment(req.Environment),
		Type:        models.CredentialType(req.Type),
		Permissions: req.Permissions,
		ExpiresAt:   req.ExpiresAt,
	})
	if err != nil {
		return err
	}

	log.Info().Uint64("credential_id", cred.ID).Str("owner", owner.Username).
		Str("prefix", cred.SecretPrefix).Msg("credential issued")

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"credential": newCredentialView(cred),
		"secret":     secret,
	})
}

// Revoke revokes a credential. Revocation is one-way: a revoked
// credential can never be reactivated, and revoking twice is an error.
func (s *Service) Revoke(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid credential id")
	}

	var revokedBy uint64
	if caller, ok := c.Locals(apikey.LocalCredential).(*models.Credential); ok {
		revokedBy = caller.UserID
	}

	if err := s.authority.Revoke(id, revokedBy); err != nil {
		return err
	}

	log.Info().Uint64("credential_id", id).Uint64("revoked_by", revokedBy).
		Msg("credential revoked")

	return c.SendStatus(fiber.StatusNoContent)
}
