// Package seeder implements the one-time, dependency-ordered bootstrap of
// baseline roles, permissions, role-permission linkage, and users. Each of
// the three stages is individually idempotent: a non-empty store is detected
// up front and the stage becomes a no-op.
package seeder

import (
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/openpulpit/openpulpit/internal/authz"
	"github.com/openpulpit/openpulpit/internal/db/controller/permission"
	"github.com/openpulpit/openpulpit/internal/db/controller/role"
	"github.com/openpulpit/openpulpit/internal/db/controller/user"
	"github.com/openpulpit/openpulpit/internal/db/models"
)

// ran guards the whole process against bootstrapping more than once.
var ran atomic.Bool //nolint:gochecknoglobals

// Seeder runs the three-stage bootstrap sequence against one database.
type Seeder struct {
	db       *gorm.DB
	registry *authz.Registry
	svc      *authz.Service
	data     Datasets
}

// New creates a Seeder.
func New(db *gorm.DB, registry *authz.Registry, data Datasets) *Seeder {
	return &Seeder{
		db:       db,
		registry: registry,
		svc:      authz.NewService(db, registry),
		data:     data,
	}
}

// Bootstrap runs the sequence at most once per process. Concurrent callers
// lose the flag race and return immediately; the count guards inside each
// stage additionally protect restarts against non-empty stores.
func Bootstrap(db *gorm.DB, registry *authz.Registry, data Datasets) error {
	if !ran.CompareAndSwap(false, true) {
		log.Debug().Msg("bootstrap already ran in this process, skipping")
		return nil
	}

	return New(db, registry, data).Run()
}

// Run executes the three stages strictly in order. Stage two depends on
// roles existing and stage three on both roles and permission linkage, so
// the stages must never be reordered or run concurrently.
func (s *Seeder) Run() error {
	if err := s.seedRoles(); err != nil {
		return err
	}

	if err := s.seedPermissions(); err != nil {
		return err
	}

	return s.seedUsers()
}

// seedRoles bulk-inserts the static role dataset if the role store is empty.
func (s *Seeder) seedRoles() error {
	count, err := role.Count(s.db)
	if err != nil {
		return err
	}

	if count > 0 {
		log.Debug().Int64("roles", count).Msg("role store not empty, skipping role seeding")
		return nil
	}

	roles := make([]models.Role, 0, len(s.data.Roles))
	for _, rec := range s.data.Roles {
		roles = append(roles, models.Role{
			Name:        rec.Name,
			Description: rec.Description,
			IsSystem:    rec.System,
		})
	}

	if len(roles) == 0 {
		return nil
	}

	if err = s.db.Create(&roles).Error; err != nil {
		return err
	}

	log.Info().Int("roles", len(roles)).Msg("seeded role dataset")

	return nil
}

// seedPermissions bulk-inserts the static permission dataset if the
// permission store is empty, then links every existing role to the inserted
// permissions named by its nominal catalog. Catalog actions that do not
// resolve to an inserted permission are skipped with a warning; the batch is
// never aborted for them.
func (s *Seeder) seedPermissions() error {
	count, err := permission.Count(s.db)
	if err != nil {
		return err
	}

	if count > 0 {
		log.Debug().Int64("permissions", count).Msg("permission store not empty, skipping permission seeding")
		return nil
	}

	perms := make([]models.Permission, 0, len(s.data.Permissions))
	for _, rec := range s.data.Permissions {
		perms = append(perms, models.Permission{
			Action:      rec.Action,
			Description: rec.Description,
		})
	}

	if err = permission.BulkInsert(s.db, perms); err != nil {
		return err
	}

	actionIDs := make(map[string]uint, len(perms))
	for _, p := range perms {
		actionIDs[p.Action] = p.ID
	}

	roles, err := role.List(s.db)
	if err != nil {
		return err
	}

	for i := range roles {
		r := &roles[i]

		catalog := s.registry.RoleCatalog(r.Name)

		if unknown := s.registry.UnknownActions(catalog, actionIDs); len(unknown) > 0 {
			log.Warn().Str("role", r.Name).Strs("actions", unknown).
				Msg("catalog actions not in permission dataset, skipping")
		}

		ids := make([]uint, 0, len(catalog))
		for _, action := range catalog {
			if id, ok := actionIDs[action]; ok {
				ids = append(ids, id)
			}
		}

		if err = role.ReplacePermissions(s.db, r, ids); err != nil {
			return err
		}
	}

	log.Info().Int("permissions", len(perms)).Int("roles", len(roles)).
		Msg("seeded permission dataset and role linkage")

	return nil
}

// seedUsers creates the static user dataset if the user store is empty.
// Unlike stage two, a user record naming a role that does not exist is
// fatal: the stage aborts with an integrity error instead of skipping the
// record, because a user without a resolvable role would dangle.
func (s *Seeder) seedUsers() error {
	count, err := user.Count(s.db)
	if err != nil {
		return err
	}

	if count > 0 {
		log.Debug().Int64("users", count).Msg("user store not empty, skipping user seeding")
		return nil
	}

	for _, rec := range s.data.Users {
		userType := models.UserType(rec.Type)

		roleName := rec.Role
		if roleName == "" {
			roleName = s.registry.DefaultRoleName(userType)
		}

		r, err := role.FindByName(s.db, roleName)
		if err != nil {
			return &authz.IntegrityError{
				Stage:     "user seeding",
				Reference: rec.Username,
				Err:       err,
			}
		}

		u := models.User{
			Active:    true,
			Username:  rec.Username,
			Email:     rec.Email,
			Password:  models.HashPassword(rec.Password),
			FirstName: rec.FirstName,
			LastName:  rec.LastName,
			UserType:  userType,
			// Creating the user with the role assigned is the membership
			// write: the users table is the role membership ledger.
			RoleID: r.ID,
		}

		if err = user.Create(s.db, &u); err != nil {
			return err
		}

		if err = s.svc.InitializeUserPermissions(&u); err != nil {
			return err
		}
	}

	log.Info().Int("users", len(s.data.Users)).Msg("seeded user dataset")

	return nil
}
