package apikey

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/openpulpit/openpulpit/internal/authz"
	"github.com/openpulpit/openpulpit/internal/credential"
	"github.com/openpulpit/openpulpit/internal/db/models"
	"github.com/openpulpit/openpulpit/internal/web/handler"
)

// Header carries the raw credential secret on API requests.
const Header = "X-Api-Key"

// Locals keys populated by Middleware.
const (
	LocalCredential  = "credential"
	LocalPermissions = "permissions"
)

// Middleware authenticates requests carrying a credential secret. A valid
// key attaches the credential and its granted permission set to the request
// locals; requests without a key continue unauthenticated and are rejected
// by RequirePermission on protected routes.
func Middleware(authority *credential.Authority) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Get(Header)
		if raw == "" {
			return c.Next()
		}

		cred, err := authority.Verify(raw)
		if err != nil {
			if errors.Is(err, credential.ErrCredentialNotFound) ||
				errors.Is(err, credential.ErrCredentialRevoked) ||
				errors.Is(err, credential.ErrCredentialExpired) {
				return c.Status(fiber.StatusUnauthorized).JSON(handler.ErrorResponse{
					Error:   true,
					Message: "invalid api key",
					Code:    handler.CodeValidation,
				})
			}

			return err
		}

		c.Locals(LocalCredential, cred)
		c.Locals(LocalPermissions, cred.PermissionActions())

		return c.Next()
	}
}

// RequirePermission creates Fiber middleware that requires the
// authenticated credential to carry a specific permission.
func RequirePermission(action string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cred, ok := c.Locals(LocalCredential).(*models.Credential)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(handler.ErrorResponse{
				Error:   true,
				Message: "authentication required",
				Code:    handler.CodeValidation,
			})
		}

		if !authz.HasPermission(cred, action) {
			log.Warn().Uint64("credential_id", cred.ID).Str("permission", action).
				Msg("credential lacks required permission")

			return c.Status(fiber.StatusForbidden).JSON(handler.ErrorResponse{
				Error:   true,
				Message: "missing permission: " + action,
				Code:    handler.CodeValidation,
			})
		}

		return c.Next()
	}
}
