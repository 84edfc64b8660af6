package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// ActionSeparator divides the resource and verb parts of a permission action.
const ActionSeparator = ":"

// Permission represents a specific permission in the authorization system.
// Permissions define granular access rights to platform resources and actions.
// They are created once from the static catalog during bootstrap seeding and
// assigned to roles, which are then assigned to users.
type Permission struct {
	// ID is the unique identifier for the permission.
	ID uint `gorm:"primaryKey"`
	// Action is the unique permission token in resource:verb format
	// (e.g., "sermon:read", "ads:create", "system:restart").
	Action string `gorm:"unique;size:100;not null"`
	// Resource is the resource part of Action (e.g., "sermon", "ads").
	Resource string `gorm:"size:100;not null"`
	// Verb is the verb part of Action (e.g., "read", "create").
	Verb string `gorm:"size:50;not null"`
	// Description provides a human-readable explanation of what this permission grants.
	Description string `gorm:"size:255"`
	// CreatedAt is the timestamp when the permission was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the permission was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Permission model.
// This overrides GORM's default pluralized table naming.
func (Permission) TableName() string {
	return "permissions"
}

// BeforeSave derives the resource and verb columns from the action token.
func (p *Permission) BeforeSave(_ *gorm.DB) error {
	p.Resource, p.Verb = SplitAction(p.Action)
	return nil
}

// SplitAction splits an action token into its resource and verb parts.
// A token without a separator yields the whole token as resource and an
// empty verb.
func SplitAction(action string) (resource, verb string) {
	resource, verb, _ = strings.Cut(action, ActionSeparator)
	return resource, verb
}

// ValidAction reports whether the token has the resource:verb format with
// both parts non-empty.
func ValidAction(action string) bool {
	resource, verb, found := strings.Cut(action, ActionSeparator)
	return found && resource != "" && verb != "" && !strings.Contains(verb, ActionSeparator)
}
