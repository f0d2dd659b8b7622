package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civista/benefits-engine/catalog"
	"github.com/civista/benefits-engine/engine"
	"github.com/civista/benefits-engine/radar"
	"github.com/civista/benefits-engine/reconcile"
	"github.com/civista/benefits-engine/store/sqlite"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// =============================================================================
// CATALOG RECORDS
// =============================================================================

func TestStore_CatalogRoundTrip(t *testing.T) {
	// GIVEN: The FY2024 seed saved as a catalog document
	// WHEN: Loading the jurisdiction's snapshot back
	// THEN: Lookups answer identically to the in-memory seed

	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveCatalog(ctx, catalog.Builtin2024File()))

	snapshot, err := store.LoadCatalog(ctx, catalog.Jurisdiction2024)
	require.NoError(t, err)
	assert.Equal(t, "fy2024-federal", snapshot.Version())

	asOf := engine.NewDate(2024, time.March, 1)
	want, err := catalog.Builtin2024().IncomeLimit(catalog.Jurisdiction2024, catalog.ProgramFoodAssistance, 1, asOf)
	require.NoError(t, err)
	got, err := snapshot.IncomeLimit(catalog.Jurisdiction2024, catalog.ProgramFoodAssistance, 1, asOf)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestStore_LoadCatalogUnknownJurisdiction(t *testing.T) {
	store := newStore(t)
	_, err := store.LoadCatalog(context.Background(), "XX-NOWHERE")
	assert.ErrorIs(t, err, engine.ErrUnsupportedJurisdiction)
}

// =============================================================================
// ENROLLMENTS
// =============================================================================

func TestStore_EnrollmentLifecycle(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	id, err := store.SaveEnrollment(ctx, "hh-1", "food-assistance", engine.NewDate(2024, time.January, 15))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	enrollments, err := store.ListEnrollments(ctx, "hh-1")
	require.NoError(t, err)
	require.Len(t, enrollments, 1)
	assert.Equal(t, id, enrollments[0].ID)
	assert.Equal(t, engine.ProgramID("food-assistance"), enrollments[0].Program)
	assert.Equal(t, radar.EnrollmentActive, enrollments[0].Status)
	assert.Equal(t, "2024-01-15", enrollments[0].StartedAt.String())
	assert.True(t, enrollments[0].EndedAt.IsZero())

	endedAt := engine.NewDate(2024, time.June, 30)
	require.NoError(t, store.TerminateEnrollment(ctx, id, endedAt))

	enrollments, err = store.ListEnrollments(ctx, "hh-1")
	require.NoError(t, err)
	require.Len(t, enrollments, 1)
	assert.Equal(t, radar.EnrollmentTerminated, enrollments[0].Status)
	assert.Equal(t, "2024-06-30", enrollments[0].EndedAt.String())
}

func TestStore_TerminateUnknownEnrollment(t *testing.T) {
	store := newStore(t)
	err := store.TerminateEnrollment(context.Background(), "no-such-id", engine.Today())
	assert.Error(t, err)
}

func TestStore_ListEnrollmentsScopedToHousehold(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	_, err := store.SaveEnrollment(ctx, "hh-1", "food-assistance", engine.NewDate(2024, time.January, 1))
	require.NoError(t, err)
	_, err = store.SaveEnrollment(ctx, "hh-2", "energy-assistance", engine.NewDate(2024, time.January, 1))
	require.NoError(t, err)

	enrollments, err := store.ListEnrollments(ctx, "hh-1")
	require.NoError(t, err)
	require.Len(t, enrollments, 1)
	assert.Equal(t, engine.ProgramID("food-assistance"), enrollments[0].Program)

	enrollments, err = store.ListEnrollments(ctx, "hh-3")
	require.NoError(t, err)
	assert.Empty(t, enrollments)
}

// =============================================================================
// RECONCILIATION RUNS
// =============================================================================

func TestStore_ReconciliationRunsRetainBothValues(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	external := engine.Result{Program: "cash-assistance", Eligible: true, Benefit: 22655}
	outcome := reconcile.Outcome{
		RunID:                "run-1",
		Program:              "cash-assistance",
		Local:                engine.Result{Program: "cash-assistance", Eligible: true, Benefit: 19700},
		External:             &external,
		AbsoluteDelta:        2955,
		WithinTolerance:      false,
		Resolution:           reconcile.ResolutionExternalAuthoritative,
		AuthoritativeBenefit: 22655,
	}
	require.NoError(t, store.SaveReconciliationRun(ctx, "hh-9", outcome))

	runs, err := store.ListReconciliationRuns(ctx, "cash-assistance")
	require.NoError(t, err)
	require.Len(t, runs, 1)

	run := runs[0]
	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, "hh-9", run.HouseholdID)
	assert.Equal(t, engine.Cents(19700), run.LocalBenefit)
	require.NotNil(t, run.ExternalBenefit)
	assert.Equal(t, engine.Cents(22655), *run.ExternalBenefit)
	assert.Equal(t, engine.Cents(2955), run.AbsoluteDelta)
	assert.False(t, run.WithinTolerance)
	assert.Equal(t, reconcile.ResolutionExternalAuthoritative, run.Resolution)
}

func TestStore_ReconciliationRunsUnverifiedHasNoExternal(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	outcome := reconcile.Outcome{
		RunID:      "run-2",
		Program:    "food-assistance",
		Local:      engine.Result{Program: "food-assistance", Eligible: true, Benefit: 8010},
		Resolution: reconcile.ResolutionLocalUnverified,
	}
	require.NoError(t, store.SaveReconciliationRun(ctx, "", outcome))

	runs, err := store.ListReconciliationRuns(ctx, "food-assistance")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Nil(t, runs[0].ExternalBenefit)
}

func TestStore_ListReconciliationRunsFiltersByProgram(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	for i, program := range []engine.ProgramID{"food-assistance", "cash-assistance"} {
		outcome := reconcile.Outcome{
			RunID:      string(rune('a' + i)),
			Program:    program,
			Resolution: reconcile.ResolutionLocalVerified,
		}
		require.NoError(t, store.SaveReconciliationRun(ctx, "", outcome))
	}

	runs, err := store.ListReconciliationRuns(ctx, "food-assistance")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, engine.ProgramID("food-assistance"), runs[0].Program)

	all, err := store.ListReconciliationRuns(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
