package authz

import (
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/openpulpit/openpulpit/internal/db/models"
)

var (
	// ErrFallbackEmpty is returned when the registry file defines no fallback set.
	ErrFallbackEmpty = errors.New("registry fallback set cannot be empty")
	// ErrDefaultRoleEmpty is returned when the registry file defines no default role.
	ErrDefaultRoleEmpty = errors.New("registry defaultRole cannot be empty")
)

// Registry is the canonical catalog of default permission sets per user type
// and nominal permission catalogs per role, loaded once from configuration.
// It replaces branch-per-enum construction of permission sets with a
// data-driven mapping and is immutable after loading.
type Registry struct {
	fallback    []string
	defaultRole string
	types       map[models.UserType]typeDefaults
	catalogs    map[string][]string
}

type typeDefaults struct {
	Role    string   `toml:"role"`
	Actions []string `toml:"actions"`
}

type registryFile struct {
	Fallback    []string                `toml:"fallback"`
	DefaultRole string                  `toml:"defaultRole"`
	Types       map[string]typeDefaults `toml:"types"`
	Catalogs    map[string][]string     `toml:"catalogs"`
}

// LoadRegistry reads the registry catalog from a TOML file.
func LoadRegistry(path string) (*Registry, error) {
	var file registryFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return nil, errors.Wrap(err, "failed to read registry file")
	}

	return newRegistry(file)
}

// LoadRegistryFromString reads the registry catalog from TOML data.
func LoadRegistryFromString(data string) (*Registry, error) {
	var file registryFile
	if _, err := toml.Decode(data, &file); err != nil {
		return nil, errors.Wrap(err, "failed to decode registry data")
	}

	return newRegistry(file)
}

func newRegistry(file registryFile) (*Registry, error) {
	if len(file.Fallback) == 0 {
		return nil, ErrFallbackEmpty
	}
	if file.DefaultRole == "" {
		return nil, ErrDefaultRoleEmpty
	}

	if err := checkActions("fallback", file.Fallback); err != nil {
		return nil, err
	}

	types := make(map[models.UserType]typeDefaults, len(file.Types))
	for name, def := range file.Types {
		if err := checkActions("types."+name, def.Actions); err != nil {
			return nil, err
		}

		types[models.UserType(name)] = def
	}

	for name, actions := range file.Catalogs {
		if err := checkActions("catalogs."+name, actions); err != nil {
			return nil, err
		}
	}

	return &Registry{
		fallback:    file.Fallback,
		defaultRole: file.DefaultRole,
		types:       types,
		catalogs:    file.Catalogs,
	}, nil
}

func checkActions(section string, actions []string) error {
	for _, a := range actions {
		if !models.ValidAction(a) {
			return errors.Errorf("registry %s: action %q is not in resource:verb format", section, a)
		}
	}

	return nil
}

// ResolveDefaults returns the default permission set for the user type.
// The result is a fresh copy in catalog order. An unknown type resolves to
// the read-only fallback set instead of failing.
func (r *Registry) ResolveDefaults(userType models.UserType) []string {
	if def, ok := r.types[userType]; ok {
		return append([]string(nil), def.Actions...)
	}

	return append([]string(nil), r.fallback...)
}

// DefaultRoleName returns the role name a user of the given type is assigned
// by default. Unknown types map to the registry-wide default role.
func (r *Registry) DefaultRoleName(userType models.UserType) string {
	if def, ok := r.types[userType]; ok && def.Role != "" {
		return def.Role
	}

	return r.defaultRole
}

// RoleCatalog returns the nominal permission catalog configured for the
// role name, or nil if the role has no configured catalog. The result is a
// fresh copy in catalog order.
func (r *Registry) RoleCatalog(roleName string) []string {
	actions, ok := r.catalogs[roleName]
	if !ok {
		return nil
	}

	return append([]string(nil), actions...)
}

// UnknownActions returns the subset of actions without an entry in known,
// in input order. Seeding uses it to report catalog drift against the
// permission dataset before linking a role.
func (r *Registry) UnknownActions(actions []string, known map[string]uint) []string {
	var unknown []string
	for _, a := range actions {
		if _, ok := known[a]; !ok {
			unknown = append(unknown, a)
		}
	}

	return unknown
}

// CatalogRoleNames returns the role names having a configured catalog,
// sorted for deterministic iteration.
func (r *Registry) CatalogRoleNames() []string {
	names := make([]string, 0, len(r.catalogs))
	for name := range r.catalogs {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
