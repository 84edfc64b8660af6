package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/openpulpit/openpulpit/internal/authz"
	"github.com/openpulpit/openpulpit/internal/credential"
	"github.com/openpulpit/openpulpit/internal/db/controller/permission"
	"github.com/openpulpit/openpulpit/internal/db/controller/role"
	"github.com/openpulpit/openpulpit/internal/db/controller/user"
)

// Error codes surfaced to API consumers.
const (
	CodeNotFound   = "NOT_FOUND"
	CodeValidation = "VALIDATION_ERROR"
	CodeIntegrity  = "INTEGRITY_ERROR"
	CodeConflict   = "CONFLICT"
	CodeInternal   = "INTERNAL_ERROR"
)

// ErrorResponse is the structured error envelope every failing API call
// returns, so consumers never have to parse free-form messages.
type ErrorResponse struct {
	Error   bool     `json:"error"`
	Message string   `json:"message"`
	Code    string   `json:"code"`
	Errors  []string `json:"errors,omitempty"`
}

// ErrorHandler translates service errors into the structured error envelope.
// It is installed as the fiber app's error handler so handlers can simply
// return errors from the authorization service and controllers.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var (
		validationErr *authz.ValidationError
		integrityErr  *authz.IntegrityError
		fiberErr      *fiber.Error
	)

	switch {
	case errors.As(err, &validationErr):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   true,
			Message: validationErr.Message,
			Code:    CodeValidation,
			Errors:  validationErr.Offending,
		})

	case isNotFound(err):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   true,
			Message: err.Error(),
			Code:    CodeNotFound,
		})

	case errors.Is(err, role.ErrVersionConflict):
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
			Error:   true,
			Message: err.Error(),
			Code:    CodeConflict,
		})

	case errors.Is(err, role.ErrRoleAlreadyExists),
		errors.Is(err, role.ErrRoleNameEmpty),
		errors.Is(err, role.ErrSystemRole),
		errors.Is(err, user.ErrUserAlreadyExists),
		errors.Is(err, credential.ErrCredentialRevoked),
		errors.Is(err, credential.ErrCredentialExpired):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   true,
			Message: err.Error(),
			Code:    CodeValidation,
		})

	case errors.As(err, &integrityErr):
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   true,
			Message: integrityErr.Error(),
			Code:    CodeIntegrity,
		})

	case errors.As(err, &fiberErr):
		return c.Status(fiberErr.Code).JSON(ErrorResponse{
			Error:   true,
			Message: fiberErr.Message,
			Code:    codeForStatus(fiberErr.Code),
		})
	}

	log.Error().Err(err).Str("path", c.Path()).Msg("unexpected error")

	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error:   true,
		Message: "internal server error",
		Code:    CodeInternal,
	})
}

func isNotFound(err error) bool {
	return errors.Is(err, role.ErrRoleNotFound) ||
		errors.Is(err, permission.ErrPermissionNotFound) ||
		errors.Is(err, user.ErrUserNotFound) ||
		errors.Is(err, credential.ErrCredentialNotFound)
}

func codeForStatus(status int) string {
	switch {
	case status == fiber.StatusNotFound:
		return CodeNotFound
	case status >= fiber.StatusBadRequest && status < fiber.StatusInternalServerError:
		return CodeValidation
	default:
		return CodeInternal
	}
}
