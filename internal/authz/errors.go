package authz

import (
	"fmt"
	"strings"
)

// ValidationError reports requested permission actions that fall outside an
// allowed set. Offending preserves the order in which the actions were
// requested so the boundary layer can echo them back verbatim.
type ValidationError struct {
	Message   string
	Offending []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Offending) == 0 {
		return e.Message
	}

	return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Offending, ", "))
}

// NewValidationError builds a ValidationError for the given offending actions.
func NewValidationError(message string, offending []string) *ValidationError {
	return &ValidationError{Message: message, Offending: offending}
}

// IntegrityError reports a seed or reference record pointing at an entity
// that does not exist. During bootstrap it is fatal to the stage that
// produced it.
type IntegrityError struct {
	Stage     string
	Reference string
	Err       error
}

// Error implements the error interface.
func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity error in %s: %q references a missing record: %v",
		e.Stage, e.Reference, e.Err)
}

// Unwrap exposes the underlying lookup error for errors.Is checks.
func (e *IntegrityError) Unwrap() error {
	return e.Err
}
