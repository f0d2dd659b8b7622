package reconcile_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/civista/benefits-engine/catalog"
	"github.com/civista/benefits-engine/engine"
	"github.com/civista/benefits-engine/reconcile"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var fy2024AsOf = engine.NewDate(2024, time.March, 1)

// stubCalculator returns a canned external result or error.
type stubCalculator struct {
	result engine.Result
	err    error
	calls  int
}

func (s *stubCalculator) Calculate(ctx context.Context, h engine.Household, jurisdiction engine.Jurisdiction, program engine.ProgramID, asOf engine.Date) (engine.Result, error) {
	s.calls++
	if s.err != nil {
		return engine.Result{}, s.err
	}
	return s.result, nil
}

// cashLocal computes the local cash-assistance result for the shared fixture:
// size 1, $200/mo unearned -> net 110.00, benefit 197.00.
func cashLocal(t *testing.T) (engine.Household, engine.Result) {
	t.Helper()
	h := engine.Household{Size: 1, UnearnedIncome: 20000}
	local, err := engine.NewCalculator(catalog.Builtin2024()).CalculateBenefit(h, catalog.Jurisdiction2024, catalog.ProgramCashAssistance, fy2024AsOf)
	require.NoError(t, err)
	require.True(t, local.Eligible)
	require.Equal(t, engine.Cents(19700), local.Benefit)
	return h, local
}

func reconcileWith(t *testing.T, external reconcile.ExternalCalculator, h engine.Household, program engine.ProgramID, local engine.Result) reconcile.Outcome {
	t.Helper()
	r := reconcile.NewReconciler(catalog.Builtin2024(), external, zap.NewNop())
	outcome, err := r.Reconcile(context.Background(), h, catalog.Jurisdiction2024, program, fy2024AsOf, local)
	require.NoError(t, err)
	return outcome
}

// =============================================================================
// TOLERANCE COMPARISON
// =============================================================================

func TestReconcile_EqualValuesVerifyLocal(t *testing.T) {
	// GIVEN: External agrees to the cent
	// THEN: Local result stands, annotated verified, zero deltas

	h, local := cashLocal(t)
	external := &stubCalculator{result: engine.Result{
		Program: catalog.ProgramCashAssistance, Eligible: true, Benefit: 19700,
	}}
	outcome := reconcileWith(t, external, h, catalog.ProgramCashAssistance, local)

	assert.True(t, outcome.WithinTolerance)
	assert.Equal(t, reconcile.ResolutionLocalVerified, outcome.Resolution)
	assert.Equal(t, engine.VerificationVerified, outcome.Local.Verification)
	assert.Equal(t, engine.Cents(19700), outcome.AuthoritativeBenefit)
	assert.Equal(t, engine.Cents(0), outcome.AbsoluteDelta)
	assert.True(t, outcome.RelativeDelta.IsZero())
	assert.NotEmpty(t, outcome.RunID)
}

func TestReconcile_SmallDriftWithinTolerance(t *testing.T) {
	// Food assistance tolerates 5%: a 190-cent drift on 8200 is ~2.3%.
	h := engine.Household{Size: 1, EarnedIncome: 150000, ShelterCost: 80000}
	local, err := engine.NewCalculator(catalog.Builtin2024()).CalculateBenefit(h, catalog.Jurisdiction2024, catalog.ProgramFoodAssistance, fy2024AsOf)
	require.NoError(t, err)
	require.Equal(t, engine.Cents(8010), local.Benefit)

	external := &stubCalculator{result: engine.Result{
		Program: catalog.ProgramFoodAssistance, Eligible: true, Benefit: 8200,
	}}
	outcome := reconcileWith(t, external, h, catalog.ProgramFoodAssistance, local)

	assert.True(t, outcome.WithinTolerance)
	assert.Equal(t, reconcile.ResolutionLocalVerified, outcome.Resolution)
	// Within tolerance the LOCAL value remains authoritative.
	assert.Equal(t, engine.Cents(8010), outcome.AuthoritativeBenefit)
	assert.Equal(t, engine.Cents(190), outcome.AbsoluteDelta)
}

func TestReconcile_ConflictMakesExternalAuthoritative(t *testing.T) {
	// GIVEN: External reports 15% more than local on cash assistance, whose
	//        tolerance is a strict 2%
	// THEN: Conflict recorded, external value authoritative, BOTH values
	//       retained for audit

	h, local := cashLocal(t)
	external := &stubCalculator{result: engine.Result{
		Program: catalog.ProgramCashAssistance, Eligible: true, Benefit: 22655,
	}}
	outcome := reconcileWith(t, external, h, catalog.ProgramCashAssistance, local)

	assert.False(t, outcome.WithinTolerance)
	assert.Equal(t, reconcile.ResolutionExternalAuthoritative, outcome.Resolution)
	assert.Equal(t, engine.VerificationConflict, outcome.Local.Verification)
	assert.Equal(t, engine.Cents(22655), outcome.AuthoritativeBenefit)

	// Audit trail keeps both sides.
	assert.Equal(t, engine.Cents(19700), outcome.Local.Benefit)
	require.NotNil(t, outcome.External)
	assert.Equal(t, engine.Cents(22655), outcome.External.Benefit)
	assert.Equal(t, engine.Cents(2955), outcome.AbsoluteDelta)
}

func TestReconcile_BothZeroBenefitsAgree(t *testing.T) {
	// Zero-vs-zero must not divide by zero and must verify cleanly.
	h := engine.Household{Size: 1, UnearnedIncome: 20000}
	local := engine.Result{Program: catalog.ProgramMedicalAssistance, Eligible: true, Benefit: 0}
	external := &stubCalculator{result: engine.Result{
		Program: catalog.ProgramMedicalAssistance, Eligible: true, Benefit: 0,
	}}
	outcome := reconcileWith(t, external, h, catalog.ProgramMedicalAssistance, local)

	assert.True(t, outcome.WithinTolerance)
	assert.Equal(t, reconcile.ResolutionLocalVerified, outcome.Resolution)
}

// =============================================================================
// GRACEFUL DEGRADATION
// =============================================================================

func TestReconcile_ExternalFailureDegradesToUnverified(t *testing.T) {
	// GIVEN: The external service is unreachable
	// THEN: No error surfaces; the local result stands marked unverified

	h, local := cashLocal(t)
	external := &stubCalculator{err: &engine.ExternalServiceError{
		Endpoint: "https://calc.example.gov",
		Cause:    errors.New("connection refused"),
	}}
	outcome := reconcileWith(t, external, h, catalog.ProgramCashAssistance, local)

	assert.Equal(t, reconcile.ResolutionLocalUnverified, outcome.Resolution)
	assert.Equal(t, engine.VerificationUnverified, outcome.Local.Verification)
	assert.Equal(t, engine.Cents(19700), outcome.AuthoritativeBenefit)
	assert.Nil(t, outcome.External)
}

func TestReconcile_UnknownProgramSurfaces(t *testing.T) {
	// Catalog misses are the caller's problem, unlike transport failures.
	h, local := cashLocal(t)
	r := reconcile.NewReconciler(catalog.Builtin2024(), &stubCalculator{}, zap.NewNop())
	_, err := r.Reconcile(context.Background(), h, catalog.Jurisdiction2024, "housing-vouchers", fy2024AsOf, local)
	assert.ErrorIs(t, err, engine.ErrCatalogMissing)
}

// =============================================================================
// VERIFYING CALCULATOR DECORATOR
// =============================================================================

func TestCalculateVerified_RunsLocalThenReconciles(t *testing.T) {
	h, _ := cashLocal(t)
	external := &stubCalculator{result: engine.Result{
		Program: catalog.ProgramCashAssistance, Eligible: true, Benefit: 19700,
	}}
	v := reconcile.NewVerifyingCalculator(catalog.Builtin2024(), external, zap.NewNop())

	outcome, err := v.CalculateVerified(context.Background(), h, catalog.Jurisdiction2024, catalog.ProgramCashAssistance, fy2024AsOf)
	require.NoError(t, err)
	assert.Equal(t, engine.Cents(19700), outcome.Local.Benefit)
	assert.Equal(t, reconcile.ResolutionLocalVerified, outcome.Resolution)
	assert.Equal(t, 1, external.calls)
}

func TestCalculateVerified_LocalErrorsSurfaceWithoutExternalCall(t *testing.T) {
	external := &stubCalculator{}
	v := reconcile.NewVerifyingCalculator(catalog.Builtin2024(), external, zap.NewNop())

	h := engine.Household{Size: 1, UnearnedIncome: -1}
	_, err := v.CalculateVerified(context.Background(), h, catalog.Jurisdiction2024, catalog.ProgramCashAssistance, fy2024AsOf)
	assert.ErrorIs(t, err, engine.ErrInvalidInput)
	assert.Equal(t, 0, external.calls)
}
