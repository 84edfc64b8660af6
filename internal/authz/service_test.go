package authz

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	rolectl "github.com/openpulpit/openpulpit/internal/db/controller/role"
	"github.com/openpulpit/openpulpit/internal/db/models"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	// Migrate the schema
	err = db.AutoMigrate(
		&models.Role{},
		&models.Permission{},
		&models.RolePermission{},
		&models.User{},
	)
	require.NoError(t, err, "failed to migrate test database")

	return db
}

// seedRoleWithActions creates a role carrying the given permission actions.
func seedRoleWithActions(t *testing.T, db *gorm.DB, name string, actions []string) *models.Role {
	t.Helper()

	r := models.Role{Name: name}
	require.NoError(t, rolectl.Create(db, &r))

	ids := make([]uint, 0, len(actions))
	for _, action := range actions {
		p := models.Permission{Action: action}
		require.NoError(t, db.Where(models.Permission{Action: action}).FirstOrCreate(&p).Error)
		ids = append(ids, p.ID)
	}

	require.NoError(t, rolectl.ReplacePermissions(db, &r, ids))

	loaded, err := rolectl.FindByID(db, r.ID)
	require.NoError(t, err)

	return loaded
}

// testRegistry builds a registry with the platform's default shape.
func testRegistry(t *testing.T) *Registry {
	t.Helper()

	r, err := newRegistry(registryFile{
		Fallback:    []string{"sermon:read"},
		DefaultRole: "Listener",
		Types: map[string]typeDefaults{
			"SUPERADMIN": {
				Role:    "Super Administrator",
				Actions: []string{"sermon:read", "ads:create", "system:restart"},
			},
			"LISTENER": {
				Role:    "Listener",
				Actions: []string{"sermon:read", "playlist:read"},
			},
		},
		Catalogs: map[string][]string{
			"Listener": {"sermon:read", "playlist:read"},
		},
	})
	require.NoError(t, err)

	return r
}

func TestInitializeUserPermissions(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, testRegistry(t))

	superRole := seedRoleWithActions(t, db, "Super Administrator",
		[]string{"sermon:read", "ads:create", "system:restart"})
	listenerRole := seedRoleWithActions(t, db, "Listener",
		[]string{"sermon:read", "playlist:read"})

	superadmin := models.User{
		Username: "superadmin",
		Email:    "superadmin@example.com",
		UserType: models.UserTypeSuperAdmin,
		RoleID:   superRole.ID,
	}
	require.NoError(t, db.Create(&superadmin).Error)

	listener := models.User{
		Username: "listener",
		Email:    "listener@example.com",
		UserType: models.UserTypeListener,
		RoleID:   listenerRole.ID,
	}
	require.NoError(t, db.Create(&listener).Error)

	require.NoError(t, svc.InitializeUserPermissions(&superadmin))
	require.NoError(t, svc.InitializeUserPermissions(&listener))

	// the superadmin defaults include system operations, the listener's never do
	assert.True(t, HasPermission(&superadmin, "system:restart"))
	assert.True(t, HasPermission(&superadmin, "ads:create"))
	assert.False(t, HasPermission(&listener, "system:restart"))
	assert.True(t, HasPermission(&listener, "sermon:read"))
}

func TestInitializeUserPermissionsIntersectsWithRole(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, testRegistry(t))

	// the role was narrowed administratively below the registry defaults
	narrowed := seedRoleWithActions(t, db, "Super Administrator",
		[]string{"sermon:read", "ads:create"})

	u := models.User{
		Username: "superadmin",
		Email:    "superadmin@example.com",
		UserType: models.UserTypeSuperAdmin,
		RoleID:   narrowed.ID,
	}
	require.NoError(t, db.Create(&u).Error)

	require.NoError(t, svc.InitializeUserPermissions(&u))

	// the effective set is clamped to what the role still carries
	assert.Equal(t, []string{"sermon:read", "ads:create"}, u.PermissionActions())
	assert.False(t, HasPermission(&u, "system:restart"))
}

func TestInitializeUserPermissionsAssignsDefaultRole(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, testRegistry(t))

	listenerRole := seedRoleWithActions(t, db, "Listener",
		[]string{"sermon:read", "playlist:read"})

	u := models.User{
		Username: "drifter",
		Email:    "drifter@example.com",
		UserType: models.UserTypeListener,
	}
	require.NoError(t, db.Create(&u).Error)

	require.NoError(t, svc.InitializeUserPermissions(&u))
	assert.Equal(t, listenerRole.ID, u.RoleID)
	assert.Equal(t, []string{"sermon:read", "playlist:read"}, u.PermissionActions())
}

func TestInitializeUserPermissionsMissingRole(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, testRegistry(t))

	u := models.User{
		Username: "orphan",
		Email:    "orphan@example.com",
		UserType: models.UserTypeListener,
	}
	require.NoError(t, db.Create(&u).Error)

	err := svc.InitializeUserPermissions(&u)
	assert.ErrorIs(t, err, rolectl.ErrRoleNotFound)
}

func TestValidatePermissionAssignment(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, testRegistry(t))

	r := seedRoleWithActions(t, db, "Listener", []string{"sermon:read", "playlist:read"})

	// inside the role's set
	require.NoError(t, svc.ValidatePermissionAssignment(r, []string{"playlist:read", "sermon:read"}))

	// the empty request is trivially valid
	require.NoError(t, svc.ValidatePermissionAssignment(r, nil))

	// every offending action is reported, in request order
	err := svc.ValidatePermissionAssignment(r, []string{
		"ads:create", "sermon:read", "system:restart",
	})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, []string{"ads:create", "system:restart"}, validationErr.Offending)
}

func TestHasPermission(t *testing.T) {
	u := &models.User{Permissions: datatypes.NewJSONSlice([]string{"sermon:read", "ads:create"})}

	assert.True(t, HasPermission(u, "ads:create"))
	assert.False(t, HasPermission(u, "ads:delete"))
	assert.False(t, HasPermission(&models.User{}, "sermon:read"))
}

func TestGetRolePermissions(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, testRegistry(t))

	seedRoleWithActions(t, db, "Listener", []string{"sermon:read", "playlist:read"})

	actions, err := svc.GetRolePermissions("listener")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"sermon:read", "playlist:read"}, actions)

	_, err = svc.GetRolePermissions("no-such-role")
	assert.ErrorIs(t, err, rolectl.ErrRoleNotFound)
}

func TestIntersect(t *testing.T) {
	testCases := []struct {
		name      string
		candidate []string
		allowed   []string
		expected  []string
	}{
		{
			name:      "keeps candidate order",
			candidate: []string{"c", "a", "b"},
			allowed:   []string{"a", "b", "c"},
			expected:  []string{"c", "a", "b"},
		},
		{
			name:      "drops disallowed members",
			candidate: []string{"a", "x", "b"},
			allowed:   []string{"a", "b"},
			expected:  []string{"a", "b"},
		},
		{
			name:      "empty candidate",
			candidate: nil,
			allowed:   []string{"a"},
			expected:  []string{},
		},
		{
			name:      "empty allowed",
			candidate: []string{"a"},
			allowed:   nil,
			expected:  []string{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Intersect(tc.candidate, tc.allowed))
		})
	}
}
