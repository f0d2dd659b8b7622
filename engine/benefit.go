/*
benefit.go - Benefit amount formula

PURPOSE:
  Converts net income and household size into a monthly currency amount:

    benefit = max(0, maxAllotment(size) - round(net * reductionRate))

  with a program-defined minimum benefit floor for otherwise-eligible small
  households. Rounding is half-up at the cent level, applied exactly once at
  the end of the multiplication - never mid-formula. Repeated rounding is a
  primary source of fixture mismatches and is deliberately impossible here:
  Money.MulRate is the single rounding site.
*/
package engine

// BenefitAmount computes the monthly benefit for an eligible household.
// Returns the amount and the formula rules applied.
func BenefitAmount(size int, net Money, schedule BenefitSchedule) (Money, []RuleID) {
	rules := []RuleID{RuleBenefitFormula}

	maxAllotment := schedule.MaxAllotmentFor(size)
	benefit := maxAllotment.Sub(net.MulRate(schedule.ReductionRate)).FloorZero()

	if size <= schedule.MinimumBenefitMaxSize && benefit < schedule.MinimumBenefit {
		benefit = schedule.MinimumBenefit
		rules = append(rules, RuleBenefitMinimum)
	}
	return benefit, rules
}
