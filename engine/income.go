/*
income.go - Income normalization

PURPOSE:
  Collapses heterogeneous income inputs (earned, unearned, self-employment)
  into one canonical monthly gross figure. Downstream deduction logic never
  needs to know income provenance; the one exception is the earned-income
  deduction, which applies to the earned portion only, so normalization also
  reports the countable earned subtotal.

SELF-EMPLOYMENT:
  Self-employment income enters net of allowed business expenses. If the
  expenses exceed the self-employment gross, the contribution floors at zero
  rather than offsetting other income. Self-employment net counts as EARNED
  income for the earned-income deduction.
*/
package engine

// NormalizedIncome is the canonical monthly income for one household.
type NormalizedIncome struct {
	// Gross is the canonical monthly gross income: earned + unearned +
	// self-employment net.
	Gross Money

	// Earned is the countable earned subtotal (earned + self-employment
	// net), the base for the earned-income deduction.
	Earned Money
}

// NormalizeIncome validates the household's income components and produces
// the canonical gross figure. Returns InvalidInputError for any negative
// component.
func NormalizeIncome(h Household) (NormalizedIncome, error) {
	if err := h.Validate(); err != nil {
		return NormalizedIncome{}, err
	}

	selfEmploymentNet := h.SelfEmploymentIncome.Sub(h.SelfEmploymentExpenses).FloorZero()
	earned := h.EarnedIncome.Add(selfEmploymentNet)

	return NormalizedIncome{
		Gross:  earned.Add(h.UnearnedIncome),
		Earned: earned,
	}, nil
}
