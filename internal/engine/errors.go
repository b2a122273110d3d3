package engine

import (
	"fmt"

	"github.com/mverot/dealdesk/internal/models"
	"github.com/mverot/dealdesk/validation"
)

// Error taxonomy. Handlers match these with errors.As and map them to HTTP
// codes; nothing in the engine retries or swallows them except document
// generation, which is advisory.

// ValidationError carries per-field violations for malformed input.
type ValidationError struct {
	Violations validation.Violations
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %v", map[string]string(e.Violations))
}

func newValidationError(v validation.Violations) *ValidationError {
	return &ValidationError{Violations: v}
}

// ResolutionError means a package, add-on, or organization reference matched
// nothing. Recoverable by the caller with a corrected reference.
type ResolutionError struct {
	Kind string // "package", "add-on", or "organization"
	Ref  string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("could not resolve %s %q", e.Kind, e.Ref)
}

// NotFoundError covers missing quotes/workflows and the no-pending-step case:
// the caller's view of the workflow is stale.
type NotFoundError struct {
	Resource string
	Ref      string
}

func (e *NotFoundError) Error() string {
	if e.Ref == "" {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.Ref)
}

// PersonaMismatchError is raised when the acting role does not match the
// pending step's persona. No state is mutated.
type PersonaMismatchError struct {
	Want models.Persona
	Got  models.Persona
}

func (e *PersonaMismatchError) Error() string {
	return fmt.Sprintf("pending step requires %s, acting role is %s", e.Want, e.Got)
}

// InvalidEditError rejects a step replacement that would alter, demote, or
// drop an already approved step. The edit is all-or-nothing.
type InvalidEditError struct {
	Reason string
}

func (e *InvalidEditError) Error() string { return "invalid workflow edit: " + e.Reason }

// ExternalServiceError wraps a collaborator failure (catalog store, document
// generator). Catalog failures abort quote creation; docgen failures degrade.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }
