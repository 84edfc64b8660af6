package credentials

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/openpulpit/openpulpit/internal/authz"
	"github.com/openpulpit/openpulpit/internal/config"
	"github.com/openpulpit/openpulpit/internal/db/models"
	"github.com/openpulpit/openpulpit/internal/secret"
	"github.com/openpulpit/openpulpit/internal/web/handler"
	"github.com/openpulpit/openpulpit/internal/web/middleware/apikey"
)

// setupTestApp builds a fiber app with the credential routes registered and
// every request authenticated with credential management rights.
func setupTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	err = db.AutoMigrate(&models.Role{}, &models.User{}, &models.Credential{})
	require.NoError(t, err, "failed to migrate test database")

	registry, err := authz.LoadRegistryFromString(`
fallback = ["sermon:read"]
defaultRole = "Listener"
`)
	require.NoError(t, err)

	app := fiber.New(fiber.Config{ErrorHandler: handler.ErrorHandler})

	app.Use(func(c *fiber.Ctx) error {
		c.Locals(apikey.LocalCredential, &models.Credential{
			ID:          1,
			UserID:      42,
			Permissions: datatypes.NewJSONSlice([]string{PermRead, PermCreate, PermRevoke}),
		})

		return c.Next()
	})

	cfg := &config.Config{Webserver: config.Webserver{Port: 8080, URL: "http://localhost:8080"}}
	svc := authz.NewService(db, registry)

	h := Service{}
	require.NoError(t, h.Init(app, cfg, db, svc))

	return app, db
}

// seedOwner creates a user holding the given effective permission set.
func seedOwner(t *testing.T, db *gorm.DB, actions []string) *models.User {
	t.Helper()

	r := models.Role{Name: "Publisher"}
	require.NoError(t, db.Create(&r).Error)

	u := models.User{
		Username:    "publisher",
		Email:       "publisher@example.com",
		RoleID:      r.ID,
		Permissions: datatypes.NewJSONSlice(actions),
	}
	require.NoError(t, db.Create(&u).Error)

	return &u
}

func doJSON(t *testing.T, app *fiber.App, method, target string, body, out interface{}) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}

	return resp.StatusCode
}

type issueResponse struct {
	Credential credentialView `json:"credential"`
	Secret     string         `json:"secret"`
}

func TestIssue(t *testing.T) {
	app, db := setupTestApp(t)
	seedOwner(t, db, []string{"sermon:read", "sermon:create"})

	var resp issueResponse
	status := doJSON(t, app, http.MethodPost, Path, fiber.Map{
		"username":    "publisher",
		"label":       "ci pipeline",
		"environment": "live",
		"type":        "server",
		"permissions": []string{"sermon:read"},
	}, &resp)

	assert.Equal(t, http.StatusCreated, status)
	assert.Len(t, resp.Secret, secret.TokenLen)
	assert.Equal(t, resp.Secret[:secret.PrefixLen], resp.Credential.Prefix)
	assert.Equal(t, "active", resp.Credential.Status)
	assert.Equal(t, []string{"sermon:read"}, resp.Credential.Permissions)

	// the secret never appears in the listing
	var listResp struct {
		Credentials []credentialView `json:"credentials"`
	}

	status = doJSON(t, app, http.MethodGet, Path+"?username=publisher", nil, &listResp)
	assert.Equal(t, http.StatusOK, status)
	require.Len(t, listResp.Credentials, 1)
	assert.Equal(t, resp.Credential.Prefix, listResp.Credentials[0].Prefix)
}

func TestIssueRejectsOverreach(t *testing.T) {
	app, db := setupTestApp(t)

	// the owner's effective set has no ads access at all
	seedOwner(t, db, []string{"sermon:read"})

	var errResp handler.ErrorResponse
	status := doJSON(t, app, http.MethodPost, Path, fiber.Map{
		"username":    "publisher",
		"label":       "overreach",
		"environment": "live",
		"type":        "personal",
		"permissions": []string{"ads:create", "sermon:read"},
	}, &errResp)

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, handler.CodeValidation, errResp.Code)
	assert.Equal(t, []string{"ads:create"}, errResp.Errors)
}

func TestIssueInvalidRequest(t *testing.T) {
	app, db := setupTestApp(t)
	seedOwner(t, db, []string{"sermon:read"})

	// unsupported environment value
	var errResp handler.ErrorResponse
	status := doJSON(t, app, http.MethodPost, Path, fiber.Map{
		"username":    "publisher",
		"label":       "bad env",
		"environment": "staging",
		"type":        "server",
		"permissions": []string{"sermon:read"},
	}, &errResp)
	assert.Equal(t, http.StatusBadRequest, status)

	// unknown owner
	status = doJSON(t, app, http.MethodPost, Path, fiber.Map{
		"username":    "nobody",
		"label":       "orphan",
		"environment": "live",
		"type":        "server",
		"permissions": []string{"sermon:read"},
	}, &errResp)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestRevoke(t *testing.T) {
	app, db := setupTestApp(t)
	seedOwner(t, db, []string{"sermon:read"})

	var resp issueResponse
	doJSON(t, app, http.MethodPost, Path, fiber.Map{
		"username":    "publisher",
		"label":       "doomed",
		"environment": "live",
		"type":        "server",
		"permissions": []string{"sermon:read"},
	}, &resp)

	target := fmt.Sprintf("%s/%d/revoke", Path, resp.Credential.ID)

	req := httptest.NewRequest(http.MethodPost, target, nil)
	httpResp, err := app.Test(req)
	require.NoError(t, err)
	httpResp.Body.Close()
	assert.Equal(t, http.StatusNoContent, httpResp.StatusCode)

	// the revocation records who revoked, taken from the calling credential
	var stored models.Credential
	require.NoError(t, db.First(&stored, resp.Credential.ID).Error)
	assert.Equal(t, models.CredentialStatusRevoked, stored.Status)
	require.NotNil(t, stored.RevokedBy)
	assert.Equal(t, uint64(42), *stored.RevokedBy)

	// revoking again is rejected, revocation is one-way
	var errResp handler.ErrorResponse
	status := doJSON(t, app, http.MethodPost, target, nil, &errResp)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, handler.CodeValidation, errResp.Code)
}
