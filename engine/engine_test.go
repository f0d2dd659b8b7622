package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civista/benefits-engine/catalog"
	"github.com/civista/benefits-engine/engine"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var fy2024AsOf = engine.NewDate(2024, time.March, 1)

func newCalculator(t *testing.T) *engine.Calculator {
	t.Helper()
	return engine.NewCalculator(catalog.Builtin2024())
}

func calculate(t *testing.T, h engine.Household, program engine.ProgramID) engine.Result {
	t.Helper()
	result, err := newCalculator(t).CalculateBenefit(h, catalog.Jurisdiction2024, program, fy2024AsOf)
	require.NoError(t, err)
	return result
}

// =============================================================================
// END-TO-END PIPELINE
// =============================================================================

func TestCalculateBenefit_SingleEarnerWithShelter(t *testing.T) {
	// GIVEN: Size 1, $1,500/mo earned, $800/mo shelter, FY2024 federal tables
	// WHEN: Calculating the food-assistance benefit
	// THEN: Every intermediate figure and the final $80.10 match the
	//       hand-derived worksheet:
	//         standard 198.00, earned-income 300.00, adjusted 1002.00,
	//         shelter excess 800 - 501 = 299.00, net 703.00,
	//         benefit 291.00 - round(703.00 * 0.30) = 80.10

	h := engine.Household{Size: 1, EarnedIncome: 150000, ShelterCost: 80000}
	result := calculate(t, h, catalog.ProgramFoodAssistance)

	assert.True(t, result.Eligible)
	assert.Equal(t, engine.Cents(150000), result.GrossIncome)
	assert.Equal(t, engine.Cents(19800), result.Deductions.Standard)
	assert.Equal(t, engine.Cents(30000), result.Deductions.EarnedIncome)
	assert.Equal(t, engine.Cents(29900), result.Deductions.ExcessShelter)
	assert.Equal(t, engine.Cents(70300), result.NetIncome)
	assert.Equal(t, engine.Cents(8010), result.Benefit)
	assert.Equal(t, engine.CategoricalNone, result.CategoricalTrigger)
	assert.Equal(t, engine.VerificationUnverified, result.Verification)

	// The trail records pipeline order: normalize, deductions, tests, formula.
	assert.Equal(t, []engine.RuleID{
		engine.RuleIncomeNormalize,
		engine.RuleDeductionStandard,
		engine.RuleDeductionEarnedIncome,
		engine.RuleDeductionShelter,
		engine.RuleTestGross,
		engine.RuleTestNet,
		engine.RuleBenefitFormula,
	}, result.AppliedRules)
}

func TestCalculateBenefit_ZeroIncomeGetsMaximumAllotment(t *testing.T) {
	h := engine.Household{Size: 1}
	result := calculate(t, h, catalog.ProgramFoodAssistance)

	assert.True(t, result.Eligible)
	assert.Equal(t, engine.Cents(0), result.NetIncome)
	assert.Equal(t, engine.Cents(29100), result.Benefit)
}

func TestCalculateBenefit_NetExactlyAtLimitIsEligible(t *testing.T) {
	// GIVEN: Unearned income tuned so net lands exactly on the size-1 net
	//        limit (1413.00 - 198.00 standard = 1215.00)
	// THEN: Equality is eligible; one cent more is not

	atLimit := engine.Household{Size: 1, UnearnedIncome: 141300}
	result := calculate(t, atLimit, catalog.ProgramFoodAssistance)
	assert.True(t, result.Eligible)
	assert.Equal(t, engine.Cents(121500), result.NetIncome)
	// The formula bottoms out below the minimum benefit at this income.
	assert.Equal(t, engine.Cents(2300), result.Benefit)
	assert.True(t, result.HasRule(engine.RuleBenefitMinimum))

	oneCentOver := engine.Household{Size: 1, UnearnedIncome: 141301}
	result = calculate(t, oneCentOver, catalog.ProgramFoodAssistance)
	assert.False(t, result.Eligible)
	assert.Equal(t, engine.Cents(0), result.Benefit)
	assert.True(t, result.HasRule(engine.RuleTestNet))
}

func TestCalculateBenefit_BenefitMonotoneInIncome(t *testing.T) {
	// More income never yields a larger benefit.
	previous := engine.Cents(1 << 40)
	for unearned := int64(0); unearned <= 150000; unearned += 5000 {
		h := engine.Household{Size: 1, UnearnedIncome: engine.Cents(unearned)}
		result := calculate(t, h, catalog.ProgramFoodAssistance)
		assert.LessOrEqual(t, int64(result.Benefit), int64(previous),
			"benefit increased when unearned income rose to %d", unearned)
		previous = result.Benefit
	}
}

// =============================================================================
// CATEGORICAL ELIGIBILITY
// =============================================================================

func TestCalculateBenefit_CategoricalBypassesIncomeTests(t *testing.T) {
	// GIVEN: Size 4 with gross income far above every limit, but enrolled in
	//        a broad-based qualifying program
	// THEN: Eligible with no threshold rules in the trail; the benefit
	//       formula still runs on the computed net income

	h := engine.Household{
		Size:         4,
		EarnedIncome: 500000,
		Categorical:  engine.CategoricalBroadBased,
	}
	result := calculate(t, h, catalog.ProgramFoodAssistance)

	assert.True(t, result.Eligible)
	assert.Equal(t, engine.CategoricalBroadBased, result.CategoricalTrigger)
	assert.True(t, result.HasRule(engine.CategoricalRule(engine.CategoricalBroadBased)))
	assert.False(t, result.HasRule(engine.RuleTestGross))
	assert.False(t, result.HasRule(engine.RuleTestNet))
	// At this income the formula yields zero; eligibility alone is the win.
	assert.Equal(t, engine.Cents(0), result.Benefit)
}

func TestCalculateBenefit_CategoricalIgnoredWhereProgramRejectsIt(t *testing.T) {
	// Cash assistance accepts no categorical tags: the same household is
	// strictly income-tested and fails the gross test.
	h := engine.Household{
		Size:         4,
		EarnedIncome: 500000,
		Categorical:  engine.CategoricalBroadBased,
	}
	result := calculate(t, h, catalog.ProgramCashAssistance)

	assert.False(t, result.Eligible)
	assert.Equal(t, engine.CategoricalNone, result.CategoricalTrigger)
	assert.True(t, result.HasRule(engine.RuleTestGross))
}

// =============================================================================
// GROSS-TEST WAIVER
// =============================================================================

func TestCalculateBenefit_GrossTestWaivedForElderly(t *testing.T) {
	// GIVEN: Elderly household over the gross limit (1600.00 > 1580.00) but
	//        under the net limit after deductions
	// THEN: Eligible via the waiver, with the waiver in the audit trail

	h := engine.Household{
		Size:           1,
		UnearnedIncome: 160000,
		ShelterCost:    100000,
		HasElderly:     true,
	}
	result := calculate(t, h, catalog.ProgramFoodAssistance)

	assert.True(t, result.Eligible)
	// net = 1600.00 - 198.00 standard - (1000.00 - 701.00) shelter = 1103.00
	assert.Equal(t, engine.Cents(110300), result.NetIncome)
	assert.True(t, result.HasRule(engine.RuleTestGrossWaived))
	assert.False(t, result.HasRule(engine.RuleTestGross))

	// The same household without the elderly member fails the gross test.
	h.HasElderly = false
	result = calculate(t, h, catalog.ProgramFoodAssistance)
	assert.False(t, result.Eligible)
	assert.True(t, result.HasRule(engine.RuleTestGross))
}

func TestCalculateBenefit_MedicalDeductionFlowsThroughPipeline(t *testing.T) {
	h := engine.Household{
		Size:            1,
		UnearnedIncome:  100000,
		HasElderly:      true,
		MedicalExpenses: 25000,
	}
	result := calculate(t, h, catalog.ProgramFoodAssistance)
	assert.Equal(t, engine.Cents(21500), result.Deductions.Medical)
	assert.True(t, result.HasRule(engine.RuleDeductionMedical))
}

// =============================================================================
// OTHER PROGRAMS
// =============================================================================

func TestCalculateBenefit_EnergyAssistanceFlatGrant(t *testing.T) {
	// Zero reduction rate: any eligible household gets the flat grant.
	h := engine.Household{Size: 1, UnearnedIncome: 100000}
	result := calculate(t, h, catalog.ProgramEnergyAssistance)
	assert.True(t, result.Eligible)
	assert.Equal(t, engine.Cents(4500), result.Benefit)
}

func TestCalculateBenefit_MedicalAssistanceCoverageOnly(t *testing.T) {
	// Coverage program: eligibility yes/no, benefit amount always zero.
	h := engine.Household{Size: 1, UnearnedIncome: 100000}
	result := calculate(t, h, catalog.ProgramMedicalAssistance)
	assert.True(t, result.Eligible)
	assert.Equal(t, engine.Cents(0), result.Benefit)
}

// =============================================================================
// ERROR PATHS
// =============================================================================

func TestCalculateBenefit_UnknownJurisdiction(t *testing.T) {
	h := engine.Household{Size: 1}
	_, err := newCalculator(t).CalculateBenefit(h, "XX-NOWHERE", catalog.ProgramFoodAssistance, fy2024AsOf)
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrUnsupportedJurisdiction)
	assert.True(t, engine.IsClientError(err))
}

func TestCalculateBenefit_UnknownProgram(t *testing.T) {
	h := engine.Household{Size: 1}
	_, err := newCalculator(t).CalculateBenefit(h, catalog.Jurisdiction2024, "housing-vouchers", fy2024AsOf)
	require.Error(t, err)
	assert.True(t, engine.IsNotFound(err))
}

func TestCalculateBenefit_DateOutsideEffectiveRange(t *testing.T) {
	// The food-assistance tables end 2024-09-30; a later date has no
	// covering record and must fail loudly, never fall back silently.
	h := engine.Household{Size: 1}
	asOf := engine.NewDate(2026, time.January, 15)
	_, err := newCalculator(t).CalculateBenefit(h, catalog.Jurisdiction2024, catalog.ProgramFoodAssistance, asOf)
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrCatalogMissing)
}

func TestCalculateBenefit_InvalidHousehold(t *testing.T) {
	h := engine.Household{Size: 1, UnearnedIncome: -500}
	_, err := newCalculator(t).CalculateBenefit(h, catalog.Jurisdiction2024, catalog.ProgramFoodAssistance, fy2024AsOf)
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrInvalidInput)
	assert.True(t, engine.IsClientError(err))
}

func TestCalculateBenefit_UnknownCategoricalTagRejected(t *testing.T) {
	h := engine.Household{Size: 1, Categorical: "mystery_program"}
	_, err := newCalculator(t).CalculateBenefit(h, catalog.Jurisdiction2024, catalog.ProgramFoodAssistance, fy2024AsOf)
	assert.ErrorIs(t, err, engine.ErrInvalidInput)
}
