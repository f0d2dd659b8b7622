/*
Package catalog provides the program rule catalog: versioned, effective-dated
reference data the engine calculates from.

PURPOSE:
  Holds income limits, deduction constants, benefit schedules, and program
  behavior flags, keyed by (jurisdiction, program, household size, date).
  Pure data; the only logic here is record selection.

SNAPSHOT SEMANTICS:
  A Snapshot is an immutable, versioned view built once from a catalog file
  (or the builtin seed) and passed explicitly into each calculation. It is
  never a mutable singleton: concurrent readers share it freely, and
  historical recalculation just means building a snapshot from the catalog
  as it stood at the time.

SUPERSESSION:
  Records are immutable once effective. When several records cover the same
  calculation date, the one with the latest effective-from date wins - a new
  record supersedes rather than mutates an old one.

SEE ALSO:
  - loader.go: JSON/YAML catalog files
  - builtin.go: Federal FY2024 seed tables
  - engine/catalog.go: The record types and Catalog interface
*/
package catalog

import (
	"sort"

	"github.com/civista/benefits-engine/engine"
)

// =============================================================================
// SNAPSHOT - Immutable catalog view
// =============================================================================

// Snapshot implements engine.Catalog over in-memory records. Build one via
// BuildSnapshot (from a File) or Builtin2024.
type Snapshot struct {
	version       string
	jurisdictions map[engine.Jurisdiction]*jurisdictionData
}

type jurisdictionData struct {
	order    []engine.ProgramID
	programs map[engine.ProgramID]*programData
}

type programData struct {
	rules      engine.ProgramRules
	limits     []limitTable
	deductions []engine.DeductionSchedule
	benefits   []engine.BenefitSchedule
}

// limitTable is one effective-dated set of per-size income limits, extended
// past the largest tabulated size by per-additional-member increments.
type limitTable struct {
	effectiveFrom   engine.Date
	effectiveTo     engine.Date
	bySize          map[int]grossNet
	additionalGross engine.Money
	additionalNet   engine.Money
}

type grossNet struct {
	gross engine.Money
	net   engine.Money
}

func (t limitTable) covers(asOf engine.Date) bool {
	if asOf.Before(t.effectiveFrom) {
		return false
	}
	return t.effectiveTo.IsZero() || asOf.BeforeOrEqual(t.effectiveTo)
}

// limitFor extends the table beyond its largest size via the increments.
func (t limitTable) limitFor(size int) (grossNet, bool) {
	if gn, ok := t.bySize[size]; ok {
		return gn, true
	}
	largest := 0
	for s := range t.bySize {
		if s > largest {
			largest = s
		}
	}
	if largest == 0 || size < largest {
		return grossNet{}, false
	}
	base := t.bySize[largest]
	extra := engine.Money(int64(size - largest))
	return grossNet{
		gross: base.gross + extra*t.additionalGross,
		net:   base.net + extra*t.additionalNet,
	}, true
}

// Version returns the catalog version string (e.g. "fy2024-federal").
func (s *Snapshot) Version() string { return s.version }

// =============================================================================
// LOOKUPS - engine.Catalog implementation
// =============================================================================

// Programs returns the jurisdiction's programs ordered by program ID.
func (s *Snapshot) Programs(jurisdiction engine.Jurisdiction) ([]engine.ProgramRules, error) {
	jd, ok := s.jurisdictions[jurisdiction]
	if !ok {
		return nil, engine.ErrUnsupportedJurisdiction
	}
	rules := make([]engine.ProgramRules, 0, len(jd.order))
	for _, id := range jd.order {
		rules = append(rules, jd.programs[id].rules)
	}
	return rules, nil
}

// Program returns the behavior flags for one program.
func (s *Snapshot) Program(jurisdiction engine.Jurisdiction, program engine.ProgramID) (engine.ProgramRules, error) {
	pd, err := s.program(jurisdiction, program)
	if err != nil {
		return engine.ProgramRules{}, err
	}
	return pd.rules, nil
}

// IncomeLimit returns the limit record covering (program, size, asOf).
func (s *Snapshot) IncomeLimit(jurisdiction engine.Jurisdiction, program engine.ProgramID, size int, asOf engine.Date) (engine.IncomeLimit, error) {
	pd, err := s.program(jurisdiction, program)
	if err != nil {
		return engine.IncomeLimit{}, err
	}

	// Latest effective-from wins among covering tables.
	var selected *limitTable
	for i := range pd.limits {
		t := &pd.limits[i]
		if !t.covers(asOf) {
			continue
		}
		if selected == nil || t.effectiveFrom.After(selected.effectiveFrom) {
			selected = t
		}
	}
	if selected == nil {
		return engine.IncomeLimit{}, &engine.CatalogMissingError{
			Jurisdiction: jurisdiction, Program: program, Record: "income_limit", Size: size, AsOf: asOf,
		}
	}
	gn, ok := selected.limitFor(size)
	if !ok {
		return engine.IncomeLimit{}, &engine.CatalogMissingError{
			Jurisdiction: jurisdiction, Program: program, Record: "income_limit", Size: size, AsOf: asOf,
		}
	}
	return engine.IncomeLimit{
		Jurisdiction:  jurisdiction,
		Program:       program,
		HouseholdSize: size,
		EffectiveFrom: selected.effectiveFrom,
		EffectiveTo:   selected.effectiveTo,
		GrossLimit:    gn.gross,
		NetLimit:      gn.net,
	}, nil
}

// DeductionSchedule returns the deduction constants covering asOf.
func (s *Snapshot) DeductionSchedule(jurisdiction engine.Jurisdiction, program engine.ProgramID, asOf engine.Date) (engine.DeductionSchedule, error) {
	pd, err := s.program(jurisdiction, program)
	if err != nil {
		return engine.DeductionSchedule{}, err
	}
	var selected *engine.DeductionSchedule
	for i := range pd.deductions {
		d := &pd.deductions[i]
		if !d.Covers(asOf) {
			continue
		}
		if selected == nil || d.EffectiveFrom.After(selected.EffectiveFrom) {
			selected = d
		}
	}
	if selected == nil {
		return engine.DeductionSchedule{}, &engine.CatalogMissingError{
			Jurisdiction: jurisdiction, Program: program, Record: "deduction_schedule", AsOf: asOf,
		}
	}
	return *selected, nil
}

// BenefitSchedule returns the benefit formula constants covering asOf.
func (s *Snapshot) BenefitSchedule(jurisdiction engine.Jurisdiction, program engine.ProgramID, asOf engine.Date) (engine.BenefitSchedule, error) {
	pd, err := s.program(jurisdiction, program)
	if err != nil {
		return engine.BenefitSchedule{}, err
	}
	var selected *engine.BenefitSchedule
	for i := range pd.benefits {
		b := &pd.benefits[i]
		if !b.Covers(asOf) {
			continue
		}
		if selected == nil || b.EffectiveFrom.After(selected.EffectiveFrom) {
			selected = b
		}
	}
	if selected == nil {
		return engine.BenefitSchedule{}, &engine.CatalogMissingError{
			Jurisdiction: jurisdiction, Program: program, Record: "benefit_schedule", AsOf: asOf,
		}
	}
	return *selected, nil
}

func (s *Snapshot) program(jurisdiction engine.Jurisdiction, program engine.ProgramID) (*programData, error) {
	jd, ok := s.jurisdictions[jurisdiction]
	if !ok {
		return nil, engine.ErrUnsupportedJurisdiction
	}
	pd, ok := jd.programs[program]
	if !ok {
		return nil, &engine.CatalogMissingError{
			Jurisdiction: jurisdiction, Program: program, Record: "program",
		}
	}
	return pd, nil
}

// =============================================================================
// BUILDER - Internal assembly from parsed records
// =============================================================================

func newSnapshot(version string) *Snapshot {
	return &Snapshot{
		version:       version,
		jurisdictions: make(map[engine.Jurisdiction]*jurisdictionData),
	}
}

func (s *Snapshot) addProgram(pd *programData) {
	j := pd.rules.Jurisdiction
	jd, ok := s.jurisdictions[j]
	if !ok {
		jd = &jurisdictionData{programs: make(map[engine.ProgramID]*programData)}
		s.jurisdictions[j] = jd
	}
	if _, exists := jd.programs[pd.rules.Program]; !exists {
		jd.order = append(jd.order, pd.rules.Program)
		sort.Slice(jd.order, func(a, b int) bool { return jd.order[a] < jd.order[b] })
	}
	jd.programs[pd.rules.Program] = pd
}
