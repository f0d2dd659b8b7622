/*
loader.go - Catalog file parsing (JSON and YAML)

PURPOSE:
  Converts catalog files into a Snapshot. This enables rule updates without
  code changes - policy staff maintain the catalog files, the loader builds
  the proper Go records. New jurisdictions are catalog entries, not new
  logic.

FILE SCHEMA (YAML shown; JSON is the same shape):

  version: fy2024-federal
  jurisdiction: US-FED
  programs:
    - id: food-assistance
      name: Food Assistance
      waive_gross_test_for_elderly_disabled: true
      categorical_categories: [cash_assistance, supplemental_security, broad_based]
      tolerance_rate: "0.05"
      income_limits:
        - effective_from: 2023-10-01
          effective_to: 2024-09-30
          limits:
            - {size: 1, gross: 158000, net: 121500}
          additional_member: {gross: 55700, net: 42900}
      deductions:
        - effective_from: 2023-10-01
          standard_brackets:
            - {min_size: 1, max_size: 3, amount: 19800}
          earned_income_rate: "0.20"
          medical_floor: 3500
          shelter_ratio: "0.50"
          shelter_cap: 67200
          uncapped_shelter_for_elderly_disabled: true
      benefits:
        - effective_from: 2023-10-01
          max_allotments: {1: 29100, 2: 53500}
          allotment_increment: 21900
          reduction_rate: "0.30"
          minimum_benefit: 2300
          minimum_benefit_max_size: 2

CONVENTIONS:
  - All money values are integer cents.
  - Rates are decimal strings ("0.20"), parsed with shopspring/decimal, so
    no float ever touches a rate.
  - Dates are "YYYY-MM-DD"; a missing effective_to means open-ended.

SEE ALSO:
  - snapshot.go: The Snapshot the loader builds
  - builtin.go: The same schema expressed directly in Go
*/
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/civista/benefits-engine/engine"
)

// =============================================================================
// FILE SCHEMA TYPES
// =============================================================================

// File is the on-disk catalog representation.
type File struct {
	Version      string        `json:"version" yaml:"version"`
	Jurisdiction string        `json:"jurisdiction" yaml:"jurisdiction"`
	Programs     []ProgramFile `json:"programs" yaml:"programs"`
}

// ProgramFile is one program's complete rule set.
type ProgramFile struct {
	ID                               string            `json:"id" yaml:"id"`
	Name                             string            `json:"name" yaml:"name"`
	WaiveGrossTestForElderlyDisabled bool              `json:"waive_gross_test_for_elderly_disabled,omitempty" yaml:"waive_gross_test_for_elderly_disabled,omitempty"`
	CategoricalCategories            []string          `json:"categorical_categories,omitempty" yaml:"categorical_categories,omitempty"`
	ToleranceRate                    string            `json:"tolerance_rate" yaml:"tolerance_rate"`
	IncomeLimits                     []IncomeLimitFile `json:"income_limits" yaml:"income_limits"`
	Deductions                       []DeductionFile   `json:"deductions" yaml:"deductions"`
	Benefits                         []BenefitFile     `json:"benefits" yaml:"benefits"`
}

// IncomeLimitFile is one effective-dated limit table.
type IncomeLimitFile struct {
	EffectiveFrom    string            `json:"effective_from" yaml:"effective_from"`
	EffectiveTo      string            `json:"effective_to,omitempty" yaml:"effective_to,omitempty"`
	Limits           []SizeLimitFile   `json:"limits" yaml:"limits"`
	AdditionalMember *AdditionalMember `json:"additional_member,omitempty" yaml:"additional_member,omitempty"`
}

type SizeLimitFile struct {
	Size  int   `json:"size" yaml:"size"`
	Gross int64 `json:"gross" yaml:"gross"`
	Net   int64 `json:"net" yaml:"net"`
}

type AdditionalMember struct {
	Gross int64 `json:"gross" yaml:"gross"`
	Net   int64 `json:"net" yaml:"net"`
}

// DeductionFile is one effective-dated deduction schedule.
type DeductionFile struct {
	EffectiveFrom                     string        `json:"effective_from" yaml:"effective_from"`
	EffectiveTo                       string        `json:"effective_to,omitempty" yaml:"effective_to,omitempty"`
	StandardBrackets                  []BracketFile `json:"standard_brackets,omitempty" yaml:"standard_brackets,omitempty"`
	EarnedIncomeRate                  string        `json:"earned_income_rate,omitempty" yaml:"earned_income_rate,omitempty"`
	DependentCareCap                  *int64        `json:"dependent_care_cap,omitempty" yaml:"dependent_care_cap,omitempty"`
	MedicalFloor                      int64         `json:"medical_floor,omitempty" yaml:"medical_floor,omitempty"`
	ShelterRatio                      string        `json:"shelter_ratio,omitempty" yaml:"shelter_ratio,omitempty"`
	ShelterCap                        int64         `json:"shelter_cap,omitempty" yaml:"shelter_cap,omitempty"`
	UncappedShelterForElderlyDisabled bool          `json:"uncapped_shelter_for_elderly_disabled,omitempty" yaml:"uncapped_shelter_for_elderly_disabled,omitempty"`
}

type BracketFile struct {
	MinSize int   `json:"min_size" yaml:"min_size"`
	MaxSize int   `json:"max_size,omitempty" yaml:"max_size,omitempty"`
	Amount  int64 `json:"amount" yaml:"amount"`
}

// BenefitFile is one effective-dated benefit schedule.
type BenefitFile struct {
	EffectiveFrom         string        `json:"effective_from" yaml:"effective_from"`
	EffectiveTo           string        `json:"effective_to,omitempty" yaml:"effective_to,omitempty"`
	MaxAllotments         map[int]int64 `json:"max_allotments" yaml:"max_allotments"`
	AllotmentIncrement    int64         `json:"allotment_increment,omitempty" yaml:"allotment_increment,omitempty"`
	ReductionRate         string        `json:"reduction_rate,omitempty" yaml:"reduction_rate,omitempty"`
	MinimumBenefit        int64         `json:"minimum_benefit,omitempty" yaml:"minimum_benefit,omitempty"`
	MinimumBenefitMaxSize int           `json:"minimum_benefit_max_size,omitempty" yaml:"minimum_benefit_max_size,omitempty"`
}

// =============================================================================
// LOADING
// =============================================================================

// LoadFile reads a catalog file, dispatching on extension (.json, .yaml, .yml).
func LoadFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ParseJSON(data)
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return nil, fmt.Errorf("unsupported catalog file extension %q (want .json, .yaml, or .yml)", filepath.Ext(path))
	}
}

// ParseJSON builds a Snapshot from JSON catalog bytes.
func ParseJSON(data []byte) (*Snapshot, error) {
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog JSON: %w", err)
	}
	return BuildSnapshot(f)
}

// ParseYAML builds a Snapshot from YAML catalog bytes.
func ParseYAML(data []byte) (*Snapshot, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog YAML: %w", err)
	}
	return BuildSnapshot(f)
}

// BuildSnapshot converts a parsed File into an immutable Snapshot.
func BuildSnapshot(f File) (*Snapshot, error) {
	if f.Jurisdiction == "" {
		return nil, fmt.Errorf("catalog file missing jurisdiction")
	}
	jurisdiction := engine.Jurisdiction(f.Jurisdiction)

	snapshot := newSnapshot(f.Version)
	for _, pf := range f.Programs {
		pd, err := buildProgram(jurisdiction, pf)
		if err != nil {
			return nil, fmt.Errorf("program %q: %w", pf.ID, err)
		}
		snapshot.addProgram(pd)
	}
	return snapshot, nil
}

func buildProgram(jurisdiction engine.Jurisdiction, pf ProgramFile) (*programData, error) {
	if pf.ID == "" {
		return nil, fmt.Errorf("missing program id")
	}
	tolerance, err := parseRate(pf.ToleranceRate, "tolerance_rate")
	if err != nil {
		return nil, err
	}

	categories := make([]engine.CategoricalEligibility, 0, len(pf.CategoricalCategories))
	for _, c := range pf.CategoricalCategories {
		cat := engine.CategoricalEligibility(c)
		if !cat.Valid() || cat == engine.CategoricalNone {
			return nil, fmt.Errorf("unknown categorical category %q", c)
		}
		categories = append(categories, cat)
	}

	pd := &programData{
		rules: engine.ProgramRules{
			Jurisdiction:                     jurisdiction,
			Program:                          engine.ProgramID(pf.ID),
			Name:                             pf.Name,
			WaiveGrossTestForElderlyDisabled: pf.WaiveGrossTestForElderlyDisabled,
			CategoricalCategories:            categories,
			ToleranceRate:                    tolerance,
		},
	}

	for _, lf := range pf.IncomeLimits {
		table, err := buildLimitTable(lf)
		if err != nil {
			return nil, err
		}
		pd.limits = append(pd.limits, table)
	}
	for _, df := range pf.Deductions {
		schedule, err := buildDeductionSchedule(jurisdiction, engine.ProgramID(pf.ID), df)
		if err != nil {
			return nil, err
		}
		pd.deductions = append(pd.deductions, schedule)
	}
	for _, bf := range pf.Benefits {
		schedule, err := buildBenefitSchedule(jurisdiction, engine.ProgramID(pf.ID), bf)
		if err != nil {
			return nil, err
		}
		pd.benefits = append(pd.benefits, schedule)
	}
	return pd, nil
}

func buildLimitTable(lf IncomeLimitFile) (limitTable, error) {
	from, to, err := parseEffectiveRange(lf.EffectiveFrom, lf.EffectiveTo)
	if err != nil {
		return limitTable{}, err
	}
	table := limitTable{
		effectiveFrom: from,
		effectiveTo:   to,
		bySize:        make(map[int]grossNet, len(lf.Limits)),
	}
	for _, sl := range lf.Limits {
		if sl.Size < 1 {
			return limitTable{}, fmt.Errorf("income limit size must be >= 1, got %d", sl.Size)
		}
		table.bySize[sl.Size] = grossNet{gross: engine.Cents(sl.Gross), net: engine.Cents(sl.Net)}
	}
	if lf.AdditionalMember != nil {
		table.additionalGross = engine.Cents(lf.AdditionalMember.Gross)
		table.additionalNet = engine.Cents(lf.AdditionalMember.Net)
	}
	return table, nil
}

func buildDeductionSchedule(jurisdiction engine.Jurisdiction, program engine.ProgramID, df DeductionFile) (engine.DeductionSchedule, error) {
	from, to, err := parseEffectiveRange(df.EffectiveFrom, df.EffectiveTo)
	if err != nil {
		return engine.DeductionSchedule{}, err
	}
	earnedRate, err := parseRate(df.EarnedIncomeRate, "earned_income_rate")
	if err != nil {
		return engine.DeductionSchedule{}, err
	}
	shelterRatio, err := parseRate(df.ShelterRatio, "shelter_ratio")
	if err != nil {
		return engine.DeductionSchedule{}, err
	}

	schedule := engine.DeductionSchedule{
		Jurisdiction:                      jurisdiction,
		Program:                           program,
		EffectiveFrom:                     from,
		EffectiveTo:                       to,
		EarnedIncomeRate:                  earnedRate,
		MedicalFloor:                      engine.Cents(df.MedicalFloor),
		ShelterRatio:                      shelterRatio,
		ShelterCap:                        engine.Cents(df.ShelterCap),
		UncappedShelterForElderlyDisabled: df.UncappedShelterForElderlyDisabled,
	}
	for _, b := range df.StandardBrackets {
		schedule.StandardBrackets = append(schedule.StandardBrackets, engine.StandardDeductionBracket{
			MinSize: b.MinSize,
			MaxSize: b.MaxSize,
			Amount:  engine.Cents(b.Amount),
		})
	}
	if df.DependentCareCap != nil {
		cap := engine.Cents(*df.DependentCareCap)
		schedule.DependentCareCap = &cap
	}
	return schedule, nil
}

func buildBenefitSchedule(jurisdiction engine.Jurisdiction, program engine.ProgramID, bf BenefitFile) (engine.BenefitSchedule, error) {
	from, to, err := parseEffectiveRange(bf.EffectiveFrom, bf.EffectiveTo)
	if err != nil {
		return engine.BenefitSchedule{}, err
	}
	reduction, err := parseRate(bf.ReductionRate, "reduction_rate")
	if err != nil {
		return engine.BenefitSchedule{}, err
	}

	allotments := make(map[int]engine.Money, len(bf.MaxAllotments))
	for size, amount := range bf.MaxAllotments {
		allotments[size] = engine.Cents(amount)
	}
	return engine.BenefitSchedule{
		Jurisdiction:          jurisdiction,
		Program:               program,
		EffectiveFrom:         from,
		EffectiveTo:           to,
		MaxAllotments:         allotments,
		AllotmentIncrement:    engine.Cents(bf.AllotmentIncrement),
		ReductionRate:         reduction,
		MinimumBenefit:        engine.Cents(bf.MinimumBenefit),
		MinimumBenefitMaxSize: bf.MinimumBenefitMaxSize,
	}, nil
}

// =============================================================================
// PARSE HELPERS
// =============================================================================

func parseEffectiveRange(fromStr, toStr string) (engine.Date, engine.Date, error) {
	if fromStr == "" {
		return engine.Date{}, engine.Date{}, fmt.Errorf("missing effective_from")
	}
	from, err := engine.ParseDate(fromStr)
	if err != nil {
		return engine.Date{}, engine.Date{}, fmt.Errorf("invalid effective_from %q: %w", fromStr, err)
	}
	var to engine.Date
	if toStr != "" {
		to, err = engine.ParseDate(toStr)
		if err != nil {
			return engine.Date{}, engine.Date{}, fmt.Errorf("invalid effective_to %q: %w", toStr, err)
		}
		if to.Before(from) {
			return engine.Date{}, engine.Date{}, fmt.Errorf("effective_to %s precedes effective_from %s", to, from)
		}
	}
	return from, to, nil
}

// parseRate parses a decimal-string rate; an empty string means zero.
func parseRate(s, field string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q: %w", field, s, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must not be negative, got %s", field, s)
	}
	return d, nil
}
