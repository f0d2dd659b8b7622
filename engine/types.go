/*
Package engine provides the core eligibility and benefit calculation engine.

PURPOSE:
  This package contains the domain types and algorithms for determining
  whether a household qualifies for means-tested assistance programs and,
  if so, how much it receives each month. Income normalization, deduction
  chains, categorical short-circuits, threshold tests, and benefit formulas
  all live here.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: A currency amount in integer minor units (cents)
  - Date: A day-granular calendar date (eligibility periods are day-granular)
  - Household: The immutable per-request input describing one household
  - DeductionSet: The derived deduction breakdown for one calculation
  - Result: The eligibility decision with its full applied-rule trail

DESIGN PRINCIPLES:
  1. Integer money: All currency is int64 cents. Floating point never touches
     a dollar amount; percentage math goes through decimal.Decimal and is
     rounded exactly once per formula.
  2. Purity: Every calculation is a pure function over an immutable Household
     and a read-only catalog snapshot. Safe to run in parallel, trivially
     reproducible.
  3. Traceability: Every rule that moves a dollar or decides eligibility
     appends its identifier to Result.AppliedRules, in application order.
     A reviewer can re-derive the output from the input and the rule trail.
  4. Data-driven rules: Limits, deduction constants, and program behavior
     come from the catalog, keyed by (jurisdiction, program, size, date).
     New jurisdictions are catalog entries, not new code paths.

USAGE:
  calc := engine.NewCalculator(snapshot)
  result, err := calc.CalculateBenefit(household, "food-assistance", asOf)

SEE ALSO:
  - catalog.go: Rule catalog record types and the Catalog interface
  - deductions.go: The ordered deduction chain
  - benefit.go: Benefit amount formula
*/
package engine

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Currency in integer minor units (cents)
// =============================================================================

// Money is a currency amount in cents. Negative values are permitted for
// deltas; household inputs are validated to be non-negative.
type Money int64

// Cents constructs a Money value from a raw cent count.
func Cents(n int64) Money { return Money(n) }

// Dollars constructs a Money value from whole dollars.
func Dollars(n int64) Money { return Money(n * 100) }

func (m Money) Add(o Money) Money { return m + o }
func (m Money) Sub(o Money) Money { return m - o }
func (m Money) Neg() Money        { return -m }
func (m Money) IsNegative() bool  { return m < 0 }
func (m Money) IsZero() bool      { return m == 0 }

// Min returns the smaller of two amounts.
func (m Money) Min(o Money) Money {
	if m < o {
		return m
	}
	return o
}

// Max returns the larger of two amounts.
func (m Money) Max(o Money) Money {
	if m > o {
		return m
	}
	return o
}

// FloorZero clamps negative amounts to zero.
func (m Money) FloorZero() Money {
	if m < 0 {
		return 0
	}
	return m
}

// MulRate multiplies by a decimal rate and rounds half-up at the cent level.
// This is the ONLY place a rate meets a dollar amount; callers apply it once
// per formula, never mid-chain, so repeated rounding cannot drift.
func (m Money) MulRate(rate decimal.Decimal) Money {
	product := decimal.NewFromInt(int64(m)).Mul(rate)
	return Money(product.Round(0).IntPart())
}

// Abs returns the absolute value.
func (m Money) Abs() Money {
	if m < 0 {
		return -m
	}
	return m
}

// String formats as dollars with two decimal places, e.g. "1500.00".
func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// =============================================================================
// DATE - Day-granular calendar date
// =============================================================================

// Date is a calendar date. Eligibility periods are day-granular, so no
// time-of-day or timezone component exists; everything normalizes to UTC
// midnight.
type Date struct {
	t time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), now.Month(), now.Day())
}

// ParseDate parses a "2006-01-02" date string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return Date{t: t}, nil
}

func (d Date) Before(o Date) bool        { return d.t.Before(o.t) }
func (d Date) After(o Date) bool         { return d.t.After(o.t) }
func (d Date) Equal(o Date) bool         { return d.t.Equal(o.t) }
func (d Date) BeforeOrEqual(o Date) bool { return !d.t.After(o.t) }
func (d Date) AfterOrEqual(o Date) bool  { return !d.t.Before(o.t) }
func (d Date) IsZero() bool              { return d.t.IsZero() }
func (d Date) Year() int                 { return d.t.Year() }
func (d Date) AddDays(n int) Date        { return Date{t: d.t.AddDate(0, 0, n)} }
func (d Date) AddMonths(n int) Date      { return Date{t: d.t.AddDate(0, n, 0)} }
func (d Date) String() string            { return d.t.Format("2006-01-02") }

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' {
		s = s[1 : len(s)-1]
	}
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ProgramID string
type Jurisdiction string

// RuleID identifies a single rule application in a result's audit trail.
type RuleID string

const (
	RuleIncomeNormalize        RuleID = "income.normalize"
	RuleDeductionStandard      RuleID = "deduction.standard"
	RuleDeductionEarnedIncome  RuleID = "deduction.earned_income"
	RuleDeductionDependentCare RuleID = "deduction.dependent_care"
	RuleDeductionMedical       RuleID = "deduction.medical"
	RuleDeductionShelter       RuleID = "deduction.excess_shelter"
	RuleTestGross              RuleID = "test.gross_income"
	RuleTestGrossWaived        RuleID = "test.gross_income.waived"
	RuleTestNet                RuleID = "test.net_income"
	RuleBenefitFormula         RuleID = "benefit.formula"
	RuleBenefitMinimum         RuleID = "benefit.minimum"
)

// CategoricalRule returns the audit-trail identifier for a categorical
// eligibility trigger, e.g. "categorical.broad_based".
func CategoricalRule(c CategoricalEligibility) RuleID {
	return RuleID("categorical." + string(c))
}

// =============================================================================
// CATEGORICAL ELIGIBILITY - Tagged variant with an explicit none case
// =============================================================================

// CategoricalEligibility marks a household as already receiving a qualifying
// benefit. Modeled as an enumerated type with an explicit none case so the
// threshold bypass is a single exhaustive check, never an ad hoc nil test.
type CategoricalEligibility string

const (
	CategoricalNone                 CategoricalEligibility = "none"
	CategoricalCashAssistance       CategoricalEligibility = "cash_assistance"
	CategoricalSupplementalSecurity CategoricalEligibility = "supplemental_security"
	CategoricalBroadBased           CategoricalEligibility = "broad_based"
)

// Valid reports whether c is one of the known categories.
func (c CategoricalEligibility) Valid() bool {
	switch c {
	case CategoricalNone, CategoricalCashAssistance, CategoricalSupplementalSecurity, CategoricalBroadBased:
		return true
	}
	return false
}

// =============================================================================
// HOUSEHOLD - Immutable per-request calculation input
// =============================================================================

// Household describes one household for a single calculation. The engine
// never persists it; construct per request. All money fields are cents.
type Household struct {
	Size int

	// Monthly income components before normalization.
	EarnedIncome           Money
	UnearnedIncome         Money
	SelfEmploymentIncome   Money
	SelfEmploymentExpenses Money

	HasElderly  bool
	HasDisabled bool

	// Monthly expenses feeding the deduction chain.
	ShelterCost       Money
	UtilityCost       Money
	DependentCareCost Money
	MedicalExpenses   Money

	Categorical CategoricalEligibility
}

// HasElderlyOrDisabled reports whether the household qualifies for the
// elderly/disabled carve-outs (medical deduction, uncapped shelter,
// gross-test waiver).
func (h Household) HasElderlyOrDisabled() bool {
	return h.HasElderly || h.HasDisabled
}

// Validate checks structural invariants. Negative money anywhere or a
// non-positive size is a caller error, never retried.
func (h Household) Validate() error {
	if h.Size < 1 {
		return &InvalidInputError{Field: "size", Reason: fmt.Sprintf("household size must be >= 1, got %d", h.Size)}
	}
	fields := []struct {
		name  string
		value Money
	}{
		{"earned_income", h.EarnedIncome},
		{"unearned_income", h.UnearnedIncome},
		{"self_employment_income", h.SelfEmploymentIncome},
		{"self_employment_expenses", h.SelfEmploymentExpenses},
		{"shelter_cost", h.ShelterCost},
		{"utility_cost", h.UtilityCost},
		{"dependent_care_cost", h.DependentCareCost},
		{"medical_expenses", h.MedicalExpenses},
	}
	for _, f := range fields {
		if f.value.IsNegative() {
			return &InvalidInputError{Field: f.name, Reason: "must not be negative"}
		}
	}
	if h.Categorical == "" {
		// Zero value means the caller never set it; treat as none.
		return nil
	}
	if !h.Categorical.Valid() {
		return &InvalidInputError{Field: "categorical_eligibility", Reason: fmt.Sprintf("unknown category %q", h.Categorical)}
	}
	return nil
}

// =============================================================================
// DEDUCTION SET - Derived per calculation, never persisted
// =============================================================================

// DeductionSet is the breakdown of deductions applied to one household for
// one program. It is a derived value: recomputing from the same household
// and catalog always yields the same set.
type DeductionSet struct {
	Standard      Money
	EarnedIncome  Money
	DependentCare Money
	Medical       Money
	ExcessShelter Money
}

// Total returns the sum of all deductions.
func (d DeductionSet) Total() Money {
	return d.Standard + d.EarnedIncome + d.DependentCare + d.Medical + d.ExcessShelter
}

// =============================================================================
// RESULT - Eligibility decision with full audit trail
// =============================================================================

// VerificationStatus records how a result fared against the external
// authoritative calculator. Local-only results are Unverified until the
// reconciler annotates them.
type VerificationStatus string

const (
	VerificationUnverified VerificationStatus = "unverified"
	VerificationVerified   VerificationStatus = "verified"
	VerificationConflict   VerificationStatus = "conflict"
)

// Result is the outcome of one program calculation for one household.
type Result struct {
	Program      ProgramID    `json:"program"`
	Eligible     bool         `json:"eligible"`
	GrossIncome  Money        `json:"gross_income"`
	NetIncome    Money        `json:"net_income"`
	Benefit      Money        `json:"benefit"`
	Deductions   DeductionSet `json:"deductions"`
	AppliedRules []RuleID     `json:"applied_rules"`

	// CategoricalTrigger is set when categorical eligibility bypassed the
	// income tests; CategoricalNone otherwise.
	CategoricalTrigger CategoricalEligibility `json:"categorical_trigger"`

	Verification VerificationStatus `json:"verification"`
}

// applied appends a rule identifier to the audit trail.
func (r *Result) applied(rule RuleID) {
	r.AppliedRules = append(r.AppliedRules, rule)
}

// HasRule reports whether the audit trail contains the given rule.
func (r Result) HasRule(rule RuleID) bool {
	for _, id := range r.AppliedRules {
		if id == rule {
			return true
		}
	}
	return false
}
