/*
builtin.go - Federal FY2024 seed catalog

PURPOSE:
  Ships the catalog for the "US-FED" reference jurisdiction, fiscal year
  2024 (October 2023 - September 2024), expressed in the same File schema
  the loaders consume. Tests and the demo server run against this seed;
  real deployments load jurisdiction catalogs from files or the database.

SOURCES:
  Food-assistance figures are the published FY2024 federal tables: gross
  limits at 130% of the poverty line, net limits at 100%, the FY2024
  maximum allotments, standard deductions by size, the $35 medical floor,
  the $672 shelter cap, the 20% earned-income deduction, the 30% benefit
  reduction rate, and the $23 minimum benefit for one- and two-person
  households. The cash, medical, and energy program tables are the
  reference jurisdiction's own schedules.
*/
package catalog

import "fmt"

// Jurisdiction2024 is the reference jurisdiction code for the builtin seed.
const Jurisdiction2024 = "US-FED"

// Program IDs in the builtin seed.
const (
	ProgramFoodAssistance    = "food-assistance"
	ProgramCashAssistance    = "cash-assistance"
	ProgramMedicalAssistance = "medical-assistance"
	ProgramEnergyAssistance  = "energy-assistance"
)

// Builtin2024 builds the FY2024 federal reference snapshot. The data is a
// compile-time constant, so a build failure is a programming error.
func Builtin2024() *Snapshot {
	snapshot, err := BuildSnapshot(Builtin2024File())
	if err != nil {
		panic(fmt.Sprintf("builtin FY2024 catalog is invalid: %v", err))
	}
	return snapshot
}

// Builtin2024File returns the FY2024 seed in File form, usable as a schema
// example or a starting point for a jurisdiction's own catalog file.
func Builtin2024File() File {
	fy2024 := "2023-10-01"
	fy2024End := "2024-09-30"

	return File{
		Version:      "fy2024-federal",
		Jurisdiction: Jurisdiction2024,
		Programs: []ProgramFile{
			{
				ID:                               ProgramFoodAssistance,
				Name:                             "Food Assistance",
				WaiveGrossTestForElderlyDisabled: true,
				CategoricalCategories:            []string{"cash_assistance", "supplemental_security", "broad_based"},
				ToleranceRate:                    "0.05",
				IncomeLimits: []IncomeLimitFile{{
					EffectiveFrom: fy2024,
					EffectiveTo:   fy2024End,
					Limits: []SizeLimitFile{
						{Size: 1, Gross: 158000, Net: 121500},
						{Size: 2, Gross: 213700, Net: 164400},
						{Size: 3, Gross: 269400, Net: 207200},
						{Size: 4, Gross: 325000, Net: 250000},
						{Size: 5, Gross: 380700, Net: 292900},
						{Size: 6, Gross: 436400, Net: 335700},
						{Size: 7, Gross: 492100, Net: 378500},
						{Size: 8, Gross: 547800, Net: 421400},
					},
					AdditionalMember: &AdditionalMember{Gross: 55700, Net: 42900},
				}},
				Deductions: []DeductionFile{{
					EffectiveFrom: fy2024,
					EffectiveTo:   fy2024End,
					StandardBrackets: []BracketFile{
						{MinSize: 1, MaxSize: 3, Amount: 19800},
						{MinSize: 4, MaxSize: 4, Amount: 20800},
						{MinSize: 5, MaxSize: 5, Amount: 24400},
						{MinSize: 6, Amount: 27900},
					},
					EarnedIncomeRate:                  "0.20",
					MedicalFloor:                      3500,
					ShelterRatio:                      "0.50",
					ShelterCap:                        67200,
					UncappedShelterForElderlyDisabled: true,
				}},
				Benefits: []BenefitFile{{
					EffectiveFrom: fy2024,
					EffectiveTo:   fy2024End,
					MaxAllotments: map[int]int64{
						1: 29100, 2: 53500, 3: 76600, 4: 97300,
						5: 115500, 6: 138600, 7: 153200, 8: 175100,
					},
					AllotmentIncrement:    21900,
					ReductionRate:         "0.30",
					MinimumBenefit:        2300,
					MinimumBenefitMaxSize: 2,
				}},
			},
			{
				ID:            ProgramCashAssistance,
				Name:          "Cash Assistance",
				ToleranceRate: "0.02", // tax-credit-adjacent: stricter reconciliation
				IncomeLimits: []IncomeLimitFile{{
					EffectiveFrom: fy2024,
					Limits: []SizeLimitFile{
						{Size: 1, Gross: 56800, Net: 30700},
						{Size: 2, Gross: 79900, Net: 43200},
						{Size: 3, Gross: 103200, Net: 55800},
						{Size: 4, Gross: 120300, Net: 65000},
						{Size: 5, Gross: 135400, Net: 73200},
						{Size: 6, Gross: 149700, Net: 80900},
					},
					AdditionalMember: &AdditionalMember{Gross: 13900, Net: 7500},
				}},
				Deductions: []DeductionFile{{
					EffectiveFrom: fy2024,
					StandardBrackets: []BracketFile{
						{MinSize: 1, Amount: 9000},
					},
					EarnedIncomeRate: "0.50", // work-incentive disregard
					ShelterRatio:     "0.50",
					ShelterCap:       40000,
				}},
				Benefits: []BenefitFile{{
					EffectiveFrom: fy2024,
					MaxAllotments: map[int]int64{
						1: 30700, 2: 43200, 3: 55800, 4: 65000, 5: 73200, 6: 80900,
					},
					AllotmentIncrement: 7500,
					ReductionRate:      "1.00", // payment standard minus countable income
				}},
			},
			{
				ID:                    ProgramMedicalAssistance,
				Name:                  "Medical Assistance",
				CategoricalCategories: []string{"cash_assistance", "supplemental_security"},
				ToleranceRate:         "0.05",
				IncomeLimits: []IncomeLimitFile{{
					EffectiveFrom: fy2024,
					Limits: []SizeLimitFile{
						{Size: 1, Gross: 173200, Net: 173200},
						{Size: 2, Gross: 235100, Net: 235100},
						{Size: 3, Gross: 296900, Net: 296900},
						{Size: 4, Gross: 358700, Net: 358700},
						{Size: 5, Gross: 420500, Net: 420500},
						{Size: 6, Gross: 482300, Net: 482300},
					},
					AdditionalMember: &AdditionalMember{Gross: 61800, Net: 61800},
				}},
				// Coverage program: no deduction chain beyond the medical
				// spend-down for elderly/disabled members, and no cash grant.
				Deductions: []DeductionFile{{
					EffectiveFrom:    fy2024,
					DependentCareCap: int64Ptr(0),
				}},
				Benefits: []BenefitFile{{
					EffectiveFrom: fy2024,
					MaxAllotments: map[int]int64{1: 0},
				}},
			},
			{
				ID:                    ProgramEnergyAssistance,
				Name:                  "Energy Assistance",
				CategoricalCategories: []string{"cash_assistance", "supplemental_security", "broad_based"},
				ToleranceRate:         "0.10",
				IncomeLimits: []IncomeLimitFile{{
					EffectiveFrom: fy2024,
					Limits: []SizeLimitFile{
						{Size: 1, Gross: 188300, Net: 188300},
						{Size: 2, Gross: 255500, Net: 255500},
						{Size: 3, Gross: 322800, Net: 322800},
						{Size: 4, Gross: 390000, Net: 390000},
						{Size: 5, Gross: 457300, Net: 457300},
						{Size: 6, Gross: 524500, Net: 524500},
					},
					AdditionalMember: &AdditionalMember{Gross: 67300, Net: 67300},
				}},
				Deductions: []DeductionFile{{
					EffectiveFrom:    fy2024,
					DependentCareCap: int64Ptr(0),
				}},
				// Flat seasonal grant by size: reduction rate zero.
				Benefits: []BenefitFile{{
					EffectiveFrom: fy2024,
					MaxAllotments: map[int]int64{
						1: 4500, 2: 5500, 3: 6500, 4: 7500, 5: 8500, 6: 9500,
					},
					AllotmentIncrement: 1000,
				}},
			},
		},
	}
}

func int64Ptr(v int64) *int64 { return &v }
