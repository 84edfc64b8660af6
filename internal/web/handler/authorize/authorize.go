// Package authorize provides handlers for permission checks and for
// managing a user's effective permission set.
package authorize

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/openpulpit/openpulpit/internal/authz"
	"github.com/openpulpit/openpulpit/internal/config"
	"github.com/openpulpit/openpulpit/internal/db/controller/user"
	"github.com/openpulpit/openpulpit/internal/web/handler"
	"github.com/openpulpit/openpulpit/internal/web/middleware/apikey"
)

// Paths served by this handler.
const (
	Path      = handler.RootPath + "/authorize"
	UsersPath = handler.RootPath + "/users"
)

// Permissions guarding the routes.
const (
	PermRead   = "user:read"
	PermUpdate = "user:update"
)

// Service answers permission queries and mutates user permission sets.
type Service struct {
	cfg       *config.Config
	db        *gorm.DB
	svc       *authz.Service
	validator *validator.Validate
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, svc *authz.Service) error {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return nil
	}

	s.db = db
	s.cfg = cfg
	s.svc = svc
	s.validator = validator.New()

	// Routes
	app.Post(Path, apikey.RequirePermission(PermRead), s.Check)
	app.Get(UsersPath+"/:username/permissions", apikey.RequirePermission(PermRead), s.Permissions)
	app.Put(UsersPath+"/:username/permissions", apikey.RequirePermission(PermUpdate), s.Assign)
	app.Post(UsersPath+"/:username/permissions/initialize", apikey.RequirePermission(PermUpdate), s.Initialize)

	return nil
}

type checkRequest struct {
	Username   string `json:"username" validate:"required"`
	Permission string `json:"permission" validate:"required"`
}

type assignRequest struct {
	Permissions []string `json:"permissions" validate:"required"`
}

// Check answers whether a user's effective permission set contains the
// given action. The answer is computed from the stored set alone.
func (s *Service) Check(c *fiber.Ctx) error {
	req := new(checkRequest)
	if err := c.BodyParser(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := s.validator.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	u, err := user.FindByUsername(s.db, req.Username)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"username":   u.Username,
		"permission": req.Permission,
		"allowed":    authz.HasPermission(u, req.Permission),
	})
}

// Permissions returns a user's effective permission set.
func (s *Service) Permissions(c *fiber.Ctx) error {
	u, err := user.FindByUsername(s.db, c.Params("username"))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"username":    u.Username,
		"role":        u.Role.Slug,
		"permissions": u.PermissionActions(),
	})
}

// Assign replaces a user's effective permission set. The request is
// validated against the user's role before anything is written; a single
// unknown action rejects the whole request.
func (s *Service) Assign(c *fiber.Ctx) error {
	req := new(assignRequest)
	if err := c.BodyParser(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := s.validator.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	u, err := user.FindByUsername(s.db, c.Params("username"))
	if err != nil {
		return err
	}

	if err := s.svc.ValidatePermissionAssignment(&u.Role, req.Permissions); err != nil {
		return err
	}

	if err := user.UpdatePermissions(s.db, u.ID, req.Permissions); err != nil {
		return err
	}

	log.Info().Str("username", u.Username).Int("permissions", len(req.Permissions)).
		Msg("user permissions assigned")

	return c.JSON(fiber.Map{
		"username":    u.Username,
		"permissions": req.Permissions,
	})
}

// Initialize recomputes a user's effective permission set from the
// defaults for its user type, clamped to the role's permission set.
func (s *Service) Initialize(c *fiber.Ctx) error {
	u, err := user.FindByUsername(s.db, c.Params("username"))
	if err != nil {
		return err
	}

	if err := s.svc.InitializeUserPermissions(u); err != nil {
		return err
	}

	// Reload so the response carries the role that was actually resolved.
	u, err = user.FindByUsername(s.db, u.Username)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"username":    u.Username,
		"role":        u.Role.Slug,
		"permissions": u.PermissionActions(),
	})
}
