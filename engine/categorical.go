/*
categorical.go - Categorical eligibility resolver

PURPOSE:
  Short-circuits the income threshold tests when a household already
  receives a qualifying benefit (cash assistance, supplemental security) or
  meets a broad-based categorical rule. Which categories a program accepts
  is table-driven from ProgramRules, since catalogs vary by jurisdiction.

  When categorical eligibility triggers, net income is still computed - the
  benefit formula needs it - but it is never compared against limits, and
  the triggering category lands in the applied-rule trail for auditability.
*/
package engine

// ResolveCategorical reports whether the household's categorical tag
// short-circuits the income tests for the given program. Returns the
// triggering category, or CategoricalNone when the tests must run.
func ResolveCategorical(h Household, rules ProgramRules) CategoricalEligibility {
	if rules.AcceptsCategory(h.Categorical) {
		return h.Categorical
	}
	return CategoricalNone
}
