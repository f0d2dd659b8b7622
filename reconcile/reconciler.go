/*
reconciler.go - Tolerance comparison and conflict resolution

PURPOSE:
  Compares the local benefit amount against the external service's answer
  under the program's configured tolerance:

    |local - external| / max(external, 1) <= toleranceRate

  Within tolerance, the local result stands, annotated verified. Outside
  tolerance, the external value is authoritative and a conflict is recorded
  with both values retained for audit. Transport failure degrades to
  unverified - eligibility screens always return a definite answer and
  never block on an unavailable external service.

DECORATOR:
  VerifyingCalculator wraps the pure local calculation, so the core engine
  runs and tests entirely offline and verification bolts on at the edge.
*/
package reconcile

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/civista/benefits-engine/engine"
)

// =============================================================================
// OUTCOME
// =============================================================================

// Resolution says which value is authoritative after reconciliation.
type Resolution string

const (
	// ResolutionLocalVerified: within tolerance, local result stands.
	ResolutionLocalVerified Resolution = "local_verified"

	// ResolutionExternalAuthoritative: outside tolerance, external wins.
	ResolutionExternalAuthoritative Resolution = "external_authoritative"

	// ResolutionLocalUnverified: external unreachable, local stands.
	ResolutionLocalUnverified Resolution = "local_unverified"
)

// Outcome is the full reconciliation record for one program calculation.
// Both values are retained whenever a conflict is recorded.
type Outcome struct {
	RunID   string           `json:"run_id"`
	Program engine.ProgramID `json:"program"`

	Local    engine.Result  `json:"local"`
	External *engine.Result `json:"external,omitempty"`

	AbsoluteDelta   engine.Money    `json:"absolute_delta"`
	RelativeDelta   decimal.Decimal `json:"relative_delta"`
	Tolerance       decimal.Decimal `json:"tolerance"`
	WithinTolerance bool            `json:"within_tolerance"`
	Resolution      Resolution      `json:"resolution"`

	// AuthoritativeBenefit is the benefit amount after resolution.
	AuthoritativeBenefit engine.Money `json:"authoritative_benefit"`
}

// =============================================================================
// RECONCILER
// =============================================================================

// Reconciler compares local results against the external calculator.
type Reconciler struct {
	catalog  engine.Catalog
	external ExternalCalculator
	logger   *zap.Logger
}

// NewReconciler creates a Reconciler. Pass zap.NewNop() to silence logging
// in tests.
func NewReconciler(catalog engine.Catalog, external ExternalCalculator, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{catalog: catalog, external: external, logger: logger}
}

// Reconcile submits the household to the external service and resolves the
// comparison. Transport failures never propagate: the outcome degrades to
// unverified and the error is logged.
func (r *Reconciler) Reconcile(ctx context.Context, h engine.Household, jurisdiction engine.Jurisdiction, program engine.ProgramID, asOf engine.Date, local engine.Result) (Outcome, error) {
	rules, err := r.catalog.Program(jurisdiction, program)
	if err != nil {
		return Outcome{}, err
	}

	outcome := Outcome{
		RunID:     uuid.NewString(),
		Program:   program,
		Local:     local,
		Tolerance: rules.ToleranceRate,
	}

	external, err := r.external.Calculate(ctx, h, jurisdiction, program, asOf)
	if err != nil {
		// Degrade, never fail: reconciliation is an enhancement.
		r.logger.Warn("external verification unavailable, returning unverified local result",
			zap.String("run_id", outcome.RunID),
			zap.String("program", string(program)),
			zap.Error(err))
		outcome.Local.Verification = engine.VerificationUnverified
		outcome.Resolution = ResolutionLocalUnverified
		outcome.AuthoritativeBenefit = local.Benefit
		outcome.RelativeDelta = decimal.Zero
		return outcome, nil
	}

	outcome.External = &external
	outcome.AbsoluteDelta = local.Benefit.Sub(external.Benefit).Abs()
	outcome.RelativeDelta = relativeDelta(local.Benefit, external.Benefit)
	outcome.WithinTolerance = outcome.RelativeDelta.LessThanOrEqual(rules.ToleranceRate)

	if outcome.WithinTolerance {
		outcome.Local.Verification = engine.VerificationVerified
		outcome.Resolution = ResolutionLocalVerified
		outcome.AuthoritativeBenefit = local.Benefit
		return outcome, nil
	}

	// Conflict: external is authoritative, both values retained for audit.
	outcome.Local.Verification = engine.VerificationConflict
	outcome.Resolution = ResolutionExternalAuthoritative
	outcome.AuthoritativeBenefit = external.Benefit
	r.logger.Warn("reconciliation conflict, external value authoritative",
		zap.String("run_id", outcome.RunID),
		zap.String("program", string(program)),
		zap.String("local_benefit", local.Benefit.String()),
		zap.String("external_benefit", external.Benefit.String()),
		zap.String("relative_delta", outcome.RelativeDelta.String()),
		zap.String("tolerance", rules.ToleranceRate.String()))
	return outcome, nil
}

// relativeDelta computes |local - external| / max(external, 1), working in
// cents so equal values compare exactly.
func relativeDelta(local, external engine.Money) decimal.Decimal {
	delta := decimal.NewFromInt(int64(local.Sub(external).Abs()))
	denominator := decimal.NewFromInt(int64(external.Max(engine.Cents(1))))
	return delta.Div(denominator)
}

// =============================================================================
// VERIFYING CALCULATOR - Decorator around the local engine
// =============================================================================

// VerifyingCalculator runs the local pipeline and reconciles the result in
// one call. The local calculation always completes; cancellation mid-call
// aborts only the external verification.
type VerifyingCalculator struct {
	calculator *engine.Calculator
	reconciler *Reconciler
}

// NewVerifyingCalculator wraps a catalog-backed local calculation with
// external verification.
func NewVerifyingCalculator(catalog engine.Catalog, external ExternalCalculator, logger *zap.Logger) *VerifyingCalculator {
	return &VerifyingCalculator{
		calculator: engine.NewCalculator(catalog),
		reconciler: NewReconciler(catalog, external, logger),
	}
}

// CalculateVerified computes locally, then reconciles. Local calculation
// errors surface; verification problems degrade inside the outcome.
func (v *VerifyingCalculator) CalculateVerified(ctx context.Context, h engine.Household, jurisdiction engine.Jurisdiction, program engine.ProgramID, asOf engine.Date) (Outcome, error) {
	local, err := v.calculator.CalculateBenefit(h, jurisdiction, program, asOf)
	if err != nil {
		return Outcome{}, err
	}
	return v.reconciler.Reconcile(ctx, h, jurisdiction, program, asOf, local)
}
