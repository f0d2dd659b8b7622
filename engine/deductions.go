/*
deductions.go - The ordered deduction chain

PURPOSE:
  Computes the five deductions that turn gross income into net income:
  standard, earned-income, dependent-care, medical, and excess-shelter.

ORDER MATTERS:
  The excess-shelter deduction is computed from income AFTER the first four
  deductions - its threshold is a percentage of that adjusted figure, so
  reordering the chain changes the result. The order below is asserted by
  the applied-rule trail and verified exactly in tests:

    1. Standard deduction       (fixed by household size bracket)
    2. Earned-income deduction  (percentage of earned income only)
    3. Dependent-care deduction (actual cost; capped only if catalog says so)
    4. Medical deduction        (elderly/disabled only; costs over a floor)
    5. Excess-shelter deduction (shelter+utilities over a ratio of adjusted
                                 income; capped unless the elderly/disabled
                                 exception applies)

  Net income = gross - sum of applicable deductions, floored at zero.

ROUNDING:
  The two percentage computations (earned-income deduction, shelter
  threshold) each round half-up exactly once via Money.MulRate. Nothing is
  rounded mid-chain a second time.
*/
package engine

// Deductions applies the full chain for one household under one program's
// schedule. Every deduction that moves a dollar appends its rule to the
// result trail via the returned rule list, in application order.
func Deductions(h Household, income NormalizedIncome, schedule DeductionSchedule) (DeductionSet, []RuleID) {
	var set DeductionSet
	var rules []RuleID

	// 1. Standard deduction, fixed by size bracket.
	set.Standard = schedule.StandardFor(h.Size)
	if !set.Standard.IsZero() {
		rules = append(rules, RuleDeductionStandard)
	}

	// 2. Earned-income deduction: percentage of the earned portion only.
	set.EarnedIncome = income.Earned.MulRate(schedule.EarnedIncomeRate)
	if !set.EarnedIncome.IsZero() {
		rules = append(rules, RuleDeductionEarnedIncome)
	}

	// 3. Dependent care: actual cost, capped only when the catalog says so.
	set.DependentCare = h.DependentCareCost
	if schedule.DependentCareCap != nil {
		set.DependentCare = set.DependentCare.Min(*schedule.DependentCareCap)
	}
	if !set.DependentCare.IsZero() {
		rules = append(rules, RuleDeductionDependentCare)
	}

	// 4. Medical: elderly/disabled households only, costs above the floor.
	if h.HasElderlyOrDisabled() {
		set.Medical = h.MedicalExpenses.Sub(schedule.MedicalFloor).FloorZero()
		if !set.Medical.IsZero() {
			rules = append(rules, RuleDeductionMedical)
		}
	}

	// 5. Excess shelter, computed from income after the first four.
	adjusted := income.Gross.Sub(set.Standard).Sub(set.EarnedIncome).
		Sub(set.DependentCare).Sub(set.Medical).FloorZero()
	set.ExcessShelter = excessShelter(h, adjusted, schedule)
	if !set.ExcessShelter.IsZero() {
		rules = append(rules, RuleDeductionShelter)
	}

	return set, rules
}

// excessShelter returns shelter+utility costs exceeding the schedule's ratio
// of adjusted income, capped unless the household qualifies for the
// elderly/disabled uncapped exception.
func excessShelter(h Household, adjusted Money, schedule DeductionSchedule) Money {
	shelterCosts := h.ShelterCost.Add(h.UtilityCost)
	threshold := adjusted.MulRate(schedule.ShelterRatio)
	excess := shelterCosts.Sub(threshold).FloorZero()

	uncapped := schedule.UncappedShelterForElderlyDisabled && h.HasElderlyOrDisabled()
	if !uncapped {
		excess = excess.Min(schedule.ShelterCap)
	}
	return excess
}

// NetIncome applies the deduction total to gross income, floored at zero.
// Deductions never increase income.
func NetIncome(gross Money, set DeductionSet) Money {
	return gross.Sub(set.Total()).FloorZero()
}
