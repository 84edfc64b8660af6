package apikey

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/openpulpit/openpulpit/internal/credential"
	"github.com/openpulpit/openpulpit/internal/db/models"
	"github.com/openpulpit/openpulpit/internal/web/handler"
)

// setupTestApp builds a fiber app with the credential middleware, one public
// route and one route requiring sermon:read.
func setupTestApp(t *testing.T) (*fiber.App, *credential.Authority, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	err = db.AutoMigrate(&models.Role{}, &models.User{}, &models.Credential{})
	require.NoError(t, err, "failed to migrate test database")

	authority := credential.NewAuthority(db)

	app := fiber.New(fiber.Config{ErrorHandler: handler.ErrorHandler})
	app.Use(Middleware(authority))

	app.Get("/public", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})
	app.Get("/protected", RequirePermission("sermon:read"), func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	return app, authority, db
}

// issueKey creates an owner and a credential carrying the given permissions,
// returning the raw secret.
func issueKey(t *testing.T, authority *credential.Authority, db *gorm.DB, perms []string) string {
	t.Helper()

	r := models.Role{Name: "Listener"}
	require.NoError(t, db.Create(&r).Error)

	u := models.User{
		Username:    "listener",
		Email:       "listener@example.com",
		RoleID:      r.ID,
		Permissions: datatypes.NewJSONSlice(perms),
	}
	require.NoError(t, db.Create(&u).Error)

	_, raw, err := authority.Issue(&u, credential.IssueRequest{
		Label:       "test key",
		Environment: models.CredentialEnvTest,
		Type:        models.CredentialTypeServer,
		Permissions: perms,
	})
	require.NoError(t, err)

	return raw
}

func get(t *testing.T, app *fiber.App, target, key string) int {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	if key != "" {
		req.Header.Set(Header, key)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	resp.Body.Close()

	return resp.StatusCode
}

func TestMiddlewareAllowsUnauthenticatedPublicRoutes(t *testing.T) {
	app, _, _ := setupTestApp(t)

	assert.Equal(t, http.StatusOK, get(t, app, "/public", ""))
	assert.Equal(t, http.StatusUnauthorized, get(t, app, "/protected", ""))
}

func TestMiddlewareVerifiesKey(t *testing.T) {
	app, authority, db := setupTestApp(t)
	raw := issueKey(t, authority, db, []string{"sermon:read"})

	assert.Equal(t, http.StatusOK, get(t, app, "/protected", raw))
	assert.Equal(t, http.StatusUnauthorized, get(t, app, "/protected", "bogus-key"))
}

func TestRequirePermissionRejectsMissingAction(t *testing.T) {
	app, authority, db := setupTestApp(t)

	// the key carries playlist access only
	raw := issueKey(t, authority, db, []string{"playlist:read"})

	assert.Equal(t, http.StatusForbidden, get(t, app, "/protected", raw))
}

func TestMiddlewareRejectsRevokedKey(t *testing.T) {
	app, authority, db := setupTestApp(t)
	raw := issueKey(t, authority, db, []string{"sermon:read"})

	verified, err := authority.Verify(raw)
	require.NoError(t, err)
	require.NoError(t, authority.Revoke(verified.ID, verified.UserID))

	assert.Equal(t, http.StatusUnauthorized, get(t, app, "/protected", raw))
}
