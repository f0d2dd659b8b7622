/*
errors.go - Centralized error types for the calculation engine

PURPOSE:
  All engine error types in one place. Callers classify with errors.Is /
  errors.As; surrounding layers (API, reconciler) map them to transport
  concerns.

ERROR CATEGORIES:
  1. Input errors   - Invalid household data. Surfaced, never retried.
  2. Catalog errors - No rule record covers the request. Surfaced; the
                      engine never guesses a limit.
  3. External errors - Reconciliation transport failures. Recovered locally
                      by degrading to "unverified", logged, not surfaced.

NOTE:
  A tolerance-exceeding reconciliation mismatch is NOT an error. It is a
  normal, reportable outcome carried on ReconciliationOutcome.

SEE ALSO:
  - types.go: Household.Validate produces InvalidInputError
  - catalog.go: Catalog lookups produce CatalogMissingError
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidInput is returned for malformed household data: negative
	// income, zero or negative size, unknown categorical tag.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCatalogMissing is returned when no catalog record covers the
	// requested (jurisdiction, program, size, date).
	ErrCatalogMissing = errors.New("catalog record missing")

	// ErrUnsupportedJurisdiction is returned when the catalog has no data
	// at all for a jurisdiction code.
	ErrUnsupportedJurisdiction = errors.New("unsupported jurisdiction")

	// ErrExternalService is returned by the external calculator client when
	// the call fails or times out. The reconciler recovers from it; it never
	// propagates to the end caller.
	ErrExternalService = errors.New("external calculation service unavailable")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidInputError reports which household field failed validation.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Reason)
}

func (e *InvalidInputError) Unwrap() error { return ErrInvalidInput }

// CatalogMissingError reports which catalog lookup found no covering record.
type CatalogMissingError struct {
	Jurisdiction Jurisdiction
	Program      ProgramID
	Record       string // "income_limit", "deduction_schedule", "benefit_schedule", "program"
	Size         int
	AsOf         Date
}

func (e *CatalogMissingError) Error() string {
	return fmt.Sprintf("no %s record covers jurisdiction=%s program=%s size=%d as of %s",
		e.Record, e.Jurisdiction, e.Program, e.Size, e.AsOf)
}

func (e *CatalogMissingError) Unwrap() error { return ErrCatalogMissing }

// ExternalServiceError reports an external calculator failure with its cause.
type ExternalServiceError struct {
	Endpoint string
	Cause    error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("external calculator at %s failed: %v", e.Endpoint, e.Cause)
}

func (e *ExternalServiceError) Unwrap() error { return ErrExternalService }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError reports whether the error is the caller's fault (HTTP 400).
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrUnsupportedJurisdiction)
}

// IsNotFound reports whether the error indicates missing reference data.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCatalogMissing)
}

// IsRecoverable reports whether the error degrades gracefully rather than
// failing the request (reconciliation transport failures).
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrExternalService)
}
