/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupling the engine
  types from the wire contract. All monetary fields are integer minor units
  (cents); all dates are "YYYY-MM-DD" strings.

NAMING CONVENTION:
  - *Request: Request body types from clients
  - *DTO: Response types returned to clients

VALIDATION:
  Structural validation (negative income, bad size) happens in the engine;
  handlers only parse and map errors to status codes.

SEE ALSO:
  - handlers.go: Uses these types
  - engine/types.go: The domain types these mirror
*/
package api

import (
	"github.com/civista/benefits-engine/engine"
	"github.com/civista/benefits-engine/radar"
	"github.com/civista/benefits-engine/reconcile"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// HouseholdDTO mirrors engine.Household on the wire. Cents everywhere.
type HouseholdDTO struct {
	Size                   int    `json:"size"`
	EarnedIncome           int64  `json:"earned_income"`
	UnearnedIncome         int64  `json:"unearned_income"`
	SelfEmploymentIncome   int64  `json:"self_employment_income,omitempty"`
	SelfEmploymentExpenses int64  `json:"self_employment_expenses,omitempty"`
	HasElderly             bool   `json:"has_elderly,omitempty"`
	HasDisabled            bool   `json:"has_disabled,omitempty"`
	ShelterCost            int64  `json:"shelter_cost,omitempty"`
	UtilityCost            int64  `json:"utility_cost,omitempty"`
	DependentCareCost      int64  `json:"dependent_care_cost,omitempty"`
	MedicalExpenses        int64  `json:"medical_expenses,omitempty"`
	CategoricalEligibility string `json:"categorical_eligibility,omitempty"`
}

func (d HouseholdDTO) toHousehold() engine.Household {
	categorical := engine.CategoricalEligibility(d.CategoricalEligibility)
	if d.CategoricalEligibility == "" {
		categorical = engine.CategoricalNone
	}
	return engine.Household{
		Size:                   d.Size,
		EarnedIncome:           engine.Cents(d.EarnedIncome),
		UnearnedIncome:         engine.Cents(d.UnearnedIncome),
		SelfEmploymentIncome:   engine.Cents(d.SelfEmploymentIncome),
		SelfEmploymentExpenses: engine.Cents(d.SelfEmploymentExpenses),
		HasElderly:             d.HasElderly,
		HasDisabled:            d.HasDisabled,
		ShelterCost:            engine.Cents(d.ShelterCost),
		UtilityCost:            engine.Cents(d.UtilityCost),
		DependentCareCost:      engine.Cents(d.DependentCareCost),
		MedicalExpenses:        engine.Cents(d.MedicalExpenses),
		Categorical:            categorical,
	}
}

// CalculationRequest asks for one program's eligibility/benefit result.
type CalculationRequest struct {
	Household    HouseholdDTO `json:"household"`
	Jurisdiction string       `json:"jurisdiction"`
	Program      string       `json:"program"`
	AsOf         string       `json:"as_of"`
}

// ScanRequest asks for a full radar report.
type ScanRequest struct {
	Household       HouseholdDTO    `json:"household"`
	Jurisdiction    string          `json:"jurisdiction"`
	AsOf            string          `json:"as_of"`
	PreviousResults []engine.Result `json:"previous_results,omitempty"`
}

// ReconcileRequest asks for a verified calculation.
type ReconcileRequest struct {
	Household    HouseholdDTO `json:"household"`
	Jurisdiction string       `json:"jurisdiction"`
	Program      string       `json:"program"`
	AsOf         string       `json:"as_of"`
	HouseholdID  string       `json:"household_id,omitempty"`
}

// UnclaimedRequest asks which eligible programs lack an active enrollment.
type UnclaimedRequest struct {
	Household    HouseholdDTO `json:"household"`
	Jurisdiction string       `json:"jurisdiction"`
	AsOf         string       `json:"as_of"`
	HouseholdID  string       `json:"household_id"`
}

// CreateEnrollmentRequest records a new active enrollment.
type CreateEnrollmentRequest struct {
	HouseholdID string `json:"household_id"`
	Program     string `json:"program"`
	StartedAt   string `json:"started_at"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// ResultDTO wraps an engine result; the engine type already carries json
// tags, so the wrapper only adds the as-of context.
type ResultDTO struct {
	AsOf   string        `json:"as_of"`
	Result engine.Result `json:"result"`
}

// ScanResponseDTO wraps a radar report with the unclaimed overlay when the
// caller asked for it.
type ScanResponseDTO struct {
	Report    radar.Report             `json:"report"`
	Unclaimed []radar.UnclaimedProgram `json:"unclaimed,omitempty"`
}

// ReconcileResponseDTO carries the full reconciliation outcome.
type ReconcileResponseDTO struct {
	Outcome reconcile.Outcome `json:"outcome"`
}

// ProgramDTO describes one supported program.
type ProgramDTO struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ToleranceRate string `json:"tolerance_rate"`
}

// ReconciliationRunDTO is one persisted reconciliation run.
type ReconciliationRunDTO struct {
	ID              string `json:"id"`
	HouseholdID     string `json:"household_id,omitempty"`
	Program         string `json:"program"`
	LocalBenefit    int64  `json:"local_benefit"`
	ExternalBenefit *int64 `json:"external_benefit,omitempty"`
	AbsoluteDelta   int64  `json:"absolute_delta"`
	RelativeDelta   string `json:"relative_delta"`
	Tolerance       string `json:"tolerance"`
	WithinTolerance bool   `json:"within_tolerance"`
	Resolution      string `json:"resolution"`
	CreatedAt       string `json:"created_at"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}
