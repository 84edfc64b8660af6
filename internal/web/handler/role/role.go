// Package role provides handlers for managing roles (CRUD) in the API.
package role

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/openpulpit/openpulpit/internal/authz"
	"github.com/openpulpit/openpulpit/internal/config"
	"github.com/openpulpit/openpulpit/internal/db/controller/permission"
	rolectl "github.com/openpulpit/openpulpit/internal/db/controller/role"
	"github.com/openpulpit/openpulpit/internal/db/models"
	"github.com/openpulpit/openpulpit/internal/web/handler"
	"github.com/openpulpit/openpulpit/internal/web/middleware/apikey"
)

// Path is the base path for role management.
const Path = handler.RootPath + "/roles"

// Permissions guarding the role routes.
const (
	PermRead   = "role:read"
	PermCreate = "role:create"
	PermUpdate = "role:update"
	PermDelete = "role:delete"
	PermGrant  = "role:grant"
)

// Service provides CRUD operations for roles.
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
	app.Get(Path, apikey.RequirePermission(PermRead), s.List)
	app.Post(Path, apikey.RequirePermission(PermCreate), s.Create)
	app.Get(Path+"/:slug", apikey.RequirePermission(PermRead), s.Get)
	app.Put(Path+"/:slug", apikey.RequirePermission(PermUpdate), s.Update)
	app.Delete(Path+"/:slug", apikey.RequirePermission(PermDelete), s.Delete)
	app.Get(Path+"/:slug/permissions", apikey.RequirePermission(PermRead), s.Permissions)
	app.Put(Path+"/:slug/permissions", apikey.RequirePermission(PermGrant), s.Grant)
	app.Post(Path+"/:slug/permissions/validate", apikey.RequirePermission(PermRead), s.Validate)

	return nil
}

type createRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=100"`
	Description string `json:"description" validate:"max=255"`
}

type updateRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=100"`
	Description string `json:"description" validate:"max=255"`
	Version     uint   `json:"version" validate:"required"`
}

type grantRequest struct {
	Permissions []string `json:"permissions" validate:"required"`
	Version     uint     `json:"version" validate:"required"`
}

type validateRequest struct {
	Permissions []string `json:"permissions" validate:"required"`
}

type roleView struct {
	ID          uint     `json:"id"`
	Name        string   `json:"name"`
	Slug        string   `json:"slug"`
	Description string   `json:"description"`
	IsSystem    bool     `json:"is_system"`
	Version     uint     `json:"version"`
	Permissions []string `json:"permissions"`
}

func newRoleView(r *models.Role) roleView {
	return roleView{
		ID:          r.ID,
		Name:        r.Name,
		Slug:        r.Slug,
		Description: r.Description,
		IsSystem:    r.IsSystem,
		Version:     r.Version,
		Permissions: r.Actions(),
	}
}

// List returns all roles with their permission sets.
func (s *Service) List(c *fiber.Ctx) error {
	roles, err := rolectl.List(s.db)
	if err != nil {
		return err
	}

	views := make([]roleView, 0, len(roles))
	for i := range roles {
		views = append(views, newRoleView(&roles[i]))
	}

	return c.JSON(fiber.Map{"roles": views})
}

// Get returns a single role by slug.
func (s *Service) Get(c *fiber.Ctx) error {
	r, err := rolectl.FindBySlug(s.db, c.Params("slug"))
	if err != nil {
		return err
	}

	return c.JSON(newRoleView(r))
}

// Create creates a new role with an empty permission set.
func (s *Service) Create(c *fiber.Ctx) error {
	req := new(createRequest)
	if err := c.BodyParser(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := s.validator.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	r := &models.Role{Name: req.Name, Description: req.Description}
	if err := rolectl.Create(s.db, r); err != nil {
		return err
	}

	log.Info().Str("role", r.Name).Str("slug", r.Slug).Msg("role created")

	return c.Status(fiber.StatusCreated).JSON(newRoleView(r))
}

// Update renames a role. The caller has to send the version it read; a
// stale version is rejected with a conflict.
func (s *Service) Update(c *fiber.Ctx) error {
	req := new(updateRequest)
	if err := c.BodyParser(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := s.validator.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	r, err := rolectl.FindBySlug(s.db, c.Params("slug"))
	if err != nil {
		return err
	}

	r.Name = req.Name
	r.Description = req.Description
	r.Version = req.Version

	if err := rolectl.Update(s.db, r); err != nil {
		return err
	}

	return c.JSON(newRoleView(r))
}

// Delete removes a role. System roles are refused.
func (s *Service) Delete(c *fiber.Ctx) error {
	r, err := rolectl.FindBySlug(s.db, c.Params("slug"))
	if err != nil {
		return err
	}

	if err := rolectl.Delete(s.db, r.ID); err != nil {
		return err
	}

	log.Info().Str("role", r.Name).Msg("role deleted")

	return c.SendStatus(fiber.StatusNoContent)
}

// Permissions returns the permission actions attached to a role.
func (s *Service) Permissions(c *fiber.Ctx) error {
	actions, err := s.svc.GetRolePermissions(c.Params("slug"))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"permissions": actions})
}

// Grant replaces a role's permission set. Every requested action must
// exist in the permission registry; unknown actions are reported
// together in the order they were requested.
func (s *Service) Grant(c *fiber.Ctx) error {
	req := new(grantRequest)
	if err := c.BodyParser(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := s.validator.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	r, err := rolectl.FindBySlug(s.db, c.Params("slug"))
	if err != nil {
		return err
	}

	known, err := permission.ActionIDMap(s.db)
	if err != nil {
		return err
	}

	var (
		ids       = make([]uint, 0, len(req.Permissions))
		offending []string
	)

	for _, action := range req.Permissions {
		id, ok := known[action]
		if !ok {
			offending = append(offending, action)
			continue
		}

		ids = append(ids, id)
	}

	if len(offending) > 0 {
		return authz.NewValidationError("unknown permissions requested", offending)
	}

	r.Version = req.Version
	if err := rolectl.ReplacePermissions(s.db, r, ids); err != nil {
		return err
	}

	log.Info().Str("role", r.Name).Int("permissions", len(ids)).Msg("role permissions granted")

	// Reload so the response reflects the rewritten linkage.
	r, err = rolectl.FindByID(s.db, r.ID)
	if err != nil {
		return err
	}

	return c.JSON(newRoleView(r))
}

// Validate checks a requested permission assignment against the role's
// permission set without persisting anything.
func (s *Service) Validate(c *fiber.Ctx) error {
	req := new(validateRequest)
	if err := c.BodyParser(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := s.validator.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	r, err := rolectl.FindBySlug(s.db, c.Params("slug"))
	if err != nil {
		return err
	}

	if err := s.svc.ValidatePermissionAssignment(r, req.Permissions); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"valid": true})
}
