/*
catalog.go - Rule catalog record types and the Catalog interface

PURPOSE:
  Defines the reference data the engine calculates from: income limits,
  deduction constants, and benefit formulas, all keyed by (jurisdiction,
  program, household size, date). The engine consumes these through the
  Catalog interface; the catalog package provides the snapshot
  implementation and loaders.

EFFECTIVE DATING:
  Records are immutable once effective. A new record supersedes rather than
  mutates an old one: among records whose [EffectiveFrom, EffectiveTo] range
  covers the calculation date, the one with the latest EffectiveFrom wins.
  This is what makes historical recalculation reproducible.

DATA-DRIVEN RULES:
  Program behavior that varies by jurisdiction (gross-test waiver for
  elderly/disabled, accepted categorical-eligibility categories, shelter cap
  exception, reconciliation tolerance) is carried on these records, never
  hardcoded per program.

SEE ALSO:
  - catalog/snapshot.go: Snapshot implementation of Catalog
  - catalog/builtin.go: Federal FY2024 seed tables
*/
package engine

import "github.com/shopspring/decimal"

// =============================================================================
// INCOME LIMIT - (program, size, effective range) -> gross/net limits
// =============================================================================

// IncomeLimit is one effective-dated income limit record.
type IncomeLimit struct {
	Jurisdiction  Jurisdiction
	Program       ProgramID
	HouseholdSize int
	EffectiveFrom Date
	EffectiveTo   Date // inclusive; zero value means open-ended
	GrossLimit    Money
	NetLimit      Money
}

// Covers reports whether this record applies on the given date.
func (l IncomeLimit) Covers(asOf Date) bool {
	if asOf.Before(l.EffectiveFrom) {
		return false
	}
	return l.EffectiveTo.IsZero() || asOf.BeforeOrEqual(l.EffectiveTo)
}

// =============================================================================
// DEDUCTION SCHEDULE - Constants for the deduction chain
// =============================================================================

// StandardDeductionBracket maps a household-size range to a standard
// deduction amount. MaxSize zero means open-ended (6+ style brackets).
type StandardDeductionBracket struct {
	MinSize int
	MaxSize int
	Amount  Money
}

// DeductionSchedule carries every constant the deduction chain needs for one
// program. Effective-dated like income limits.
type DeductionSchedule struct {
	Jurisdiction  Jurisdiction
	Program       ProgramID
	EffectiveFrom Date
	EffectiveTo   Date

	StandardBrackets []StandardDeductionBracket

	// EarnedIncomeRate is the fraction of earned income deducted (e.g. 0.20).
	EarnedIncomeRate decimal.Decimal

	// DependentCareCap caps the dependent-care deduction when non-nil;
	// nil means actual cost, uncapped.
	DependentCareCap *Money

	// MedicalFloor: only costs exceeding this floor are deductible, and only
	// for households with an elderly or disabled member.
	MedicalFloor Money

	// ShelterRatio: shelter + utility costs exceeding this fraction of
	// income-after-other-deductions are deductible (e.g. 0.50).
	ShelterRatio decimal.Decimal

	// ShelterCap limits the excess-shelter deduction unless the household
	// qualifies for the elderly/disabled uncapped exception.
	ShelterCap Money

	// UncappedShelterForElderlyDisabled lifts ShelterCap for households
	// with an elderly or disabled member.
	UncappedShelterForElderlyDisabled bool
}

func (s DeductionSchedule) Covers(asOf Date) bool {
	if asOf.Before(s.EffectiveFrom) {
		return false
	}
	return s.EffectiveTo.IsZero() || asOf.BeforeOrEqual(s.EffectiveTo)
}

// StandardFor returns the standard deduction for a household size.
func (s DeductionSchedule) StandardFor(size int) Money {
	for _, b := range s.StandardBrackets {
		if size >= b.MinSize && (b.MaxSize == 0 || size <= b.MaxSize) {
			return b.Amount
		}
	}
	return 0
}

// =============================================================================
// BENEFIT SCHEDULE - Allotment table and formula constants
// =============================================================================

// BenefitSchedule defines the benefit formula for one program:
// benefit = max(0, maxAllotment(size) - round(net * ReductionRate)).
type BenefitSchedule struct {
	Jurisdiction  Jurisdiction
	Program       ProgramID
	EffectiveFrom Date
	EffectiveTo   Date

	// MaxAllotments maps household size to the maximum monthly benefit.
	// Sizes beyond the table extend by AllotmentIncrement per member.
	MaxAllotments      map[int]Money
	AllotmentIncrement Money

	// ReductionRate is the fraction of net income subtracted from the
	// maximum allotment (e.g. 0.30). Zero means a flat grant.
	ReductionRate decimal.Decimal

	// MinimumBenefit floors the benefit for otherwise-eligible households
	// of size <= MinimumBenefitMaxSize.
	MinimumBenefit        Money
	MinimumBenefitMaxSize int
}

func (b BenefitSchedule) Covers(asOf Date) bool {
	if asOf.Before(b.EffectiveFrom) {
		return false
	}
	return b.EffectiveTo.IsZero() || asOf.BeforeOrEqual(b.EffectiveTo)
}

// MaxAllotmentFor returns the maximum allotment for a household size,
// extending past the table via the per-member increment.
func (b BenefitSchedule) MaxAllotmentFor(size int) Money {
	if amount, ok := b.MaxAllotments[size]; ok {
		return amount
	}
	largest := 0
	for s := range b.MaxAllotments {
		if s > largest {
			largest = s
		}
	}
	if largest == 0 || size < largest {
		return 0
	}
	return b.MaxAllotments[largest] + Money(int64(size-largest))*b.AllotmentIncrement
}

// =============================================================================
// PROGRAM RULES - Per-program behavior flags
// =============================================================================

// ProgramRules carries the jurisdiction-specific behavior switches for one
// program. Everything here is table-driven so catalogs can vary by
// jurisdiction without code changes.
type ProgramRules struct {
	Jurisdiction Jurisdiction
	Program      ProgramID
	Name         string

	// WaiveGrossTestForElderlyDisabled skips the gross-income test for
	// households containing an elderly or disabled member.
	WaiveGrossTestForElderlyDisabled bool

	// CategoricalCategories lists which categorical-eligibility tags
	// short-circuit the income tests for this program. Empty means the
	// program is strictly income-tested.
	CategoricalCategories []CategoricalEligibility

	// ToleranceRate is the relative reconciliation tolerance for this
	// program (e.g. 0.02). Stricter for tax-credit-adjacent programs.
	ToleranceRate decimal.Decimal
}

// AcceptsCategory reports whether the given tag short-circuits this program.
func (p ProgramRules) AcceptsCategory(c CategoricalEligibility) bool {
	if c == CategoricalNone || c == "" {
		return false
	}
	for _, accepted := range p.CategoricalCategories {
		if accepted == c {
			return true
		}
	}
	return false
}

// =============================================================================
// CATALOG - Read-only reference data source
// =============================================================================

// Catalog is the engine's view of the rule catalog: an injected, versioned,
// read-only snapshot. Implementations must be safe for concurrent readers.
type Catalog interface {
	// Programs returns every program the jurisdiction supports, ordered by
	// program ID. Returns ErrUnsupportedJurisdiction for unknown codes.
	Programs(jurisdiction Jurisdiction) ([]ProgramRules, error)

	// Program returns the rules for one program.
	Program(jurisdiction Jurisdiction, program ProgramID) (ProgramRules, error)

	// IncomeLimit returns the limit record covering (program, size, asOf).
	IncomeLimit(jurisdiction Jurisdiction, program ProgramID, size int, asOf Date) (IncomeLimit, error)

	// DeductionSchedule returns the deduction constants covering asOf.
	DeductionSchedule(jurisdiction Jurisdiction, program ProgramID, asOf Date) (DeductionSchedule, error)

	// BenefitSchedule returns the benefit formula constants covering asOf.
	BenefitSchedule(jurisdiction Jurisdiction, program ProgramID, asOf Date) (BenefitSchedule, error)
}
