// Package permissions provides the read-only permission catalog handler.
package permissions

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/openpulpit/openpulpit/internal/authz"
	"github.com/openpulpit/openpulpit/internal/config"
	"github.com/openpulpit/openpulpit/internal/db/controller/permission"
	"github.com/openpulpit/openpulpit/internal/web/handler"
	"github.com/openpulpit/openpulpit/internal/web/middleware/apikey"
)

// Path is the base path for the permission catalog.
const Path = handler.RootPath + "/permissions"

// PermRead guards the catalog routes.
const PermRead = "permission:read"

// Service serves the permission catalog.
type Service struct {
	cfg *config.Config
	db  *gorm.DB
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

	// Routes
	app.Get(Path, apikey.RequirePermission(PermRead), s.List)

	return nil
}

type permissionView struct {
	ID          uint   `json:"id"`
	Action      string `json:"action"`
	Resource    string `json:"resource"`
	Verb        string `json:"verb"`
	Description string `json:"description"`
}

// List returns the full permission catalog ordered by action.
func (s *Service) List(c *fiber.Ctx) error {
	perms, err := permission.GetAll(s.db)
	if err != nil {
		return err
	}

	views := make([]permissionView, 0, len(perms))
	for _, p := range perms {
		views = append(views, permissionView{
			ID:          p.ID,
			Action:      p.Action,
			Resource:    p.Resource,
			Verb:        p.Verb,
			Description: p.Description,
		})
	}

	return c.JSON(fiber.Map{"permissions": views})
}
