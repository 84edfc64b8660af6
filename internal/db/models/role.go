package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Role represents a role in the role-based access control (RBAC) system.
// Roles bundle permissions and are assigned to platform users.
// Examples include the "Super Admin", "Publisher", and "Listener" roles.
type Role struct {
	// ID is the unique identifier for the role.
	ID uint `gorm:"primaryKey"`
	// Name is the unique display name of the role (e.g., "Super Admin").
	Name string `gorm:"unique;size:100;not null"`
	// Slug is the normalized, URL-safe form of Name (e.g., "super-admin").
	// It is recomputed from Name on every write, never set directly.
	Slug string `gorm:"uniqueIndex;size:100;not null"`
	// Description provides a human-readable description of the role's purpose.
	Description string `gorm:"size:255"`
	// IsSystem indicates if this is a system role that cannot be deleted.
	IsSystem bool `gorm:"default:false"`
	// Version is the optimistic concurrency stamp. Writers that mutate the
	// permission set or membership must present the version they read.
	Version uint `gorm:"not null;default:1"`
	// Permissions is the set of permissions granted to this role.
	Permissions []Permission `gorm:"many2many:role_permissions;"`
	// Users is the back-reference to all users currently assigned this role.
	Users []User `gorm:"foreignKey:RoleID"`
	// CreatedAt is the timestamp when the role was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the role was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Role model.
// This overrides GORM's default pluralized table naming.
func (Role) TableName() string {
	return "roles"
}

// BeforeSave keeps the slug synchronized with the name on every write path
// and starts the version counter for new records.
func (r *Role) BeforeSave(_ *gorm.DB) error {
	r.Slug = Slugify(r.Name)

	if r.Version == 0 {
		r.Version = 1
	}

	return nil
}

// Actions returns the permission action tokens of the loaded permission set.
// The Permissions association must have been preloaded by the caller.
func (r *Role) Actions() []string {
	actions := make([]string, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		actions = append(actions, p.Action)
	}

	return actions
}

// HasAction reports whether the loaded permission set contains the action.
func (r *Role) HasAction(action string) bool {
	for _, p := range r.Permissions {
		if p.Action == action {
			return true
		}
	}

	return false
}

// Slugify normalizes a role name into its slug form: lowercase, with every
// run of non-alphanumeric characters collapsed into a single hyphen and
// leading/trailing hyphens removed.
func Slugify(name string) string {
	var (
		b        strings.Builder
		pending  bool
		hasRunes bool
	)

	for _, r := range strings.ToLower(name) {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !isAlnum {
			pending = hasRunes
			continue
		}

		if pending {
			b.WriteByte('-')
			pending = false
		}

		b.WriteRune(r)
		hasRunes = true
	}

	return b.String()
}
