/*
engine.go - The calculation pipeline

PURPOSE:
  Wires the stages together for one (household, program, date) calculation:

    normalize income -> deduction chain -> categorical resolve
      -> threshold tests (unless bypassed) -> benefit formula

  The Calculator holds only a read-only catalog snapshot; every call is a
  pure function over its arguments, safe to run in parallel across programs
  and households with no locking.

TRACEABILITY:
  Result.AppliedRules accumulates, in order, every rule that moved a dollar
  or decided eligibility. The rule trail plus the input is sufficient to
  re-derive the output; the test suite does exactly that.

SEE ALSO:
  - radar/: runs this pipeline across all supported programs
  - reconcile/: wraps results with external verification
*/
package engine

// Calculator runs eligibility and benefit calculations against one catalog
// snapshot. Construct per batch (or cache briefly); the snapshot is treated
// as immutable for the Calculator's lifetime.
type Calculator struct {
	catalog Catalog
}

// NewCalculator creates a Calculator over a read-only catalog snapshot.
func NewCalculator(catalog Catalog) *Calculator {
	return &Calculator{catalog: catalog}
}

// CheckEligibility runs the full calculation for one program. It is the
// screen-level entry point; the result carries the same audit trail as
// CalculateBenefit because explainability requires it either way.
func (c *Calculator) CheckEligibility(h Household, jurisdiction Jurisdiction, program ProgramID, asOf Date) (Result, error) {
	return c.CalculateBenefit(h, jurisdiction, program, asOf)
}

// CalculateBenefit runs the full pipeline: income normalization, the
// deduction chain, categorical short-circuit or threshold tests, and the
// benefit formula. Returns InvalidInputError for malformed households and
// CatalogMissingError when no rule record covers the request.
func (c *Calculator) CalculateBenefit(h Household, jurisdiction Jurisdiction, program ProgramID, asOf Date) (Result, error) {
	income, err := NormalizeIncome(h)
	if err != nil {
		return Result{}, err
	}

	rules, err := c.catalog.Program(jurisdiction, program)
	if err != nil {
		return Result{}, err
	}
	schedule, err := c.catalog.DeductionSchedule(jurisdiction, program, asOf)
	if err != nil {
		return Result{}, err
	}

	result := Result{
		Program:            program,
		GrossIncome:        income.Gross,
		CategoricalTrigger: CategoricalNone,
		Verification:       VerificationUnverified,
	}
	result.applied(RuleIncomeNormalize)

	deductions, deductionRules := Deductions(h, income, schedule)
	result.Deductions = deductions
	result.NetIncome = NetIncome(income.Gross, deductions)
	result.AppliedRules = append(result.AppliedRules, deductionRules...)

	if trigger := ResolveCategorical(h, rules); trigger != CategoricalNone {
		// Categorical eligibility bypasses the threshold tests entirely.
		// Net income was still computed above; the benefit formula needs it.
		result.Eligible = true
		result.CategoricalTrigger = trigger
		result.applied(CategoricalRule(trigger))
	} else {
		limit, err := c.catalog.IncomeLimit(jurisdiction, program, h.Size, asOf)
		if err != nil {
			return Result{}, err
		}
		outcome := TestThresholds(h, income, result.NetIncome, limit, rules)
		result.AppliedRules = append(result.AppliedRules, outcome.Rules...)
		result.Eligible = outcome.Passed
	}

	if !result.Eligible {
		return result, nil
	}

	benefits, err := c.catalog.BenefitSchedule(jurisdiction, program, asOf)
	if err != nil {
		return Result{}, err
	}
	benefit, benefitRules := BenefitAmount(h.Size, result.NetIncome, benefits)
	result.Benefit = benefit
	result.AppliedRules = append(result.AppliedRules, benefitRules...)

	return result, nil
}
