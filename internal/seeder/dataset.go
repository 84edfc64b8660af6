package seeder

import (
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Dataset file names expected inside the seed directory.
const (
	RolesFile       = "roles.toml"
	PermissionsFile = "permissions.toml"
	UsersFile       = "users.toml"
)

// RoleRecord is one entry of the static role dataset.
type RoleRecord struct {
	Name        string `toml:"name"`
	Description string `toml:"description"`
	System      bool   `toml:"system"`
}

// PermissionRecord is one entry of the static permission dataset.
type PermissionRecord struct {
	Action      string `toml:"action"`
	Description string `toml:"description"`
}

// UserRecord is one entry of the static user dataset. Role is optional;
// an empty value assigns the default role for the record's type.
type UserRecord struct {
	Username  string `toml:"username"`
	Email     string `toml:"email"`
	Password  string `toml:"password"`
	FirstName string `toml:"firstName"`
	LastName  string `toml:"lastName"`
	Type      string `toml:"type"`
	Role      string `toml:"role"`
}

// Datasets bundles the three static seed datasets in their file order.
type Datasets struct {
	Roles       []RoleRecord
	Permissions []PermissionRecord
	Users       []UserRecord
}

type rolesFile struct {
	Roles []RoleRecord `toml:"roles"`
}

type permissionsFile struct {
	Permissions []PermissionRecord `toml:"permissions"`
}

type usersFile struct {
	Users []UserRecord `toml:"users"`
}

// LoadDatasets reads the three seed dataset files from the given directory.
func LoadDatasets(dir string) (Datasets, error) {
	var (
		roles rolesFile
		perms permissionsFile
		users usersFile
	)

	if _, err := toml.DecodeFile(filepath.Join(dir, RolesFile), &roles); err != nil {
		return Datasets{}, errors.Wrap(err, "failed to read role dataset")
	}

	if _, err := toml.DecodeFile(filepath.Join(dir, PermissionsFile), &perms); err != nil {
		return Datasets{}, errors.Wrap(err, "failed to read permission dataset")
	}

	if _, err := toml.DecodeFile(filepath.Join(dir, UsersFile), &users); err != nil {
		return Datasets{}, errors.Wrap(err, "failed to read user dataset")
	}

	return Datasets{
		Roles:       roles.Roles,
		Permissions: perms.Permissions,
		Users:       users.Users,
	}, nil
}
