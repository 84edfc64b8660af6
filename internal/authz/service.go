package authz

import (
	"gorm.io/gorm"

	"github.com/openpulpit/openpulpit/internal/db/controller/role"
	"github.com/openpulpit/openpulpit/internal/db/controller/user"
	"github.com/openpulpit/openpulpit/internal/db/models"
)

// PermissionHolder is any subject carrying a permission set: users hold
// their effective set, credentials their granted subset.
type PermissionHolder interface {
	PermissionActions() []string
}

// Service computes and validates permission sets. It takes its dependencies
// explicitly so stores can be substituted in tests.
type Service struct {
	db       *gorm.DB
	registry *Registry
}

// NewService creates a new authorization service.
func NewService(db *gorm.DB, registry *Registry) *Service {
	return &Service{db: db, registry: registry}
}

// Registry exposes the permission registry the service was built with.
func (s *Service) Registry() *Registry {
	return s.registry
}

// InitializeUserPermissions resolves the user's role and assigns the user's
// effective permission set: the intersection of the registry defaults for
// the user's type and the role's persisted permission set. The intersection
// guards against a role whose stored permissions have since been narrowed
// administratively, so it runs even though the registry is the nominal
// source of truth.
//
// When the user has no role assigned yet, the type's default role is
// resolved and assigned. A missing role yields role.ErrRoleNotFound.
func (s *Service) InitializeUserPermissions(u *models.User) error {
	var (
		r   *models.Role
		err error
	)

	if u.RoleID != 0 {
		r, err = role.FindByID(s.db, u.RoleID)
	} else {
		r, err = role.FindByName(s.db, s.registry.DefaultRoleName(u.UserType))
	}

	if err != nil {
		return err
	}

	candidate := s.registry.ResolveDefaults(u.UserType)
	effective := Intersect(candidate, r.Actions())

	if u.RoleID != r.ID {
		if err = user.AssignRole(s.db, u.ID, r.ID); err != nil {
			return err
		}

		u.RoleID = r.ID
	}

	if err = user.UpdatePermissions(s.db, u.ID, effective); err != nil {
		return err
	}

	u.Permissions = effective

	return nil
}

// ValidatePermissionAssignment checks that every requested action is a
// member of the role's persisted permission set. It performs no I/O and
// never mutates: persistence of a validated assignment is a separate,
// subsequent write. On failure the returned ValidationError lists exactly
// the offending actions in their original request order.
func (s *Service) ValidatePermissionAssignment(r *models.Role, requested []string) error {
	var offending []string

	for _, action := range requested {
		if !r.HasAction(action) {
			offending = append(offending, action)
		}
	}

	if len(offending) > 0 {
		return NewValidationError("requested permissions are outside the role's catalog", offending)
	}

	return nil
}

// HasPermission reports whether the subject's current permission set
// contains the action. Pure membership test, no I/O.
func HasPermission(subject PermissionHolder, action string) bool {
	for _, a := range subject.PermissionActions() {
		if a == action {
			return true
		}
	}

	return false
}

// GetRolePermissions returns the persisted permission actions of the role
// with the given slug, or role.ErrRoleNotFound if no such role exists.
func (s *Service) GetRolePermissions(slug string) ([]string, error) {
	r, err := role.FindBySlug(s.db, slug)
	if err != nil {
		return nil, err
	}

	return r.Actions(), nil
}

// Intersect returns the elements of candidate that are also members of
// allowed, preserving candidate's order.
func Intersect(candidate, allowed []string) []string {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		allowedSet[a] = struct{}{}
	}

	result := make([]string, 0, len(candidate))
	for _, c := range candidate {
		if _, ok := allowedSet[c]; ok {
			result = append(result, c)
		}
	}

	return result
}
