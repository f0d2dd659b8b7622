/*
crossenroll.go - Cross-enrollment analysis

PURPOSE:
  Compares a household's recorded enrollments against a fresh radar report
  and surfaces programs the household qualifies for but has not claimed.
  Programs with an active enrollment are excluded regardless of radar
  status - never re-suggest what the household already has.

REASON STRINGS:
  Each suggestion carries a human-readable reason derived from the rules
  that actually triggered eligibility: a categorical short-circuit names the
  qualifying category, an income-tested pass names the tests it cleared.
*/
package radar

import (
	"fmt"

	"github.com/civista/benefits-engine/engine"
)

// =============================================================================
// ENROLLMENT RECORDS
// =============================================================================

// EnrollmentStatus tracks whether an enrollment currently suppresses
// suggestions. Only active enrollments do.
type EnrollmentStatus string

const (
	EnrollmentActive     EnrollmentStatus = "active"
	EnrollmentTerminated EnrollmentStatus = "terminated"
)

// Enrollment is one household-program enrollment record.
type Enrollment struct {
	ID        string           `json:"id"`
	Program   engine.ProgramID `json:"program"`
	Status    EnrollmentStatus `json:"status"`
	StartedAt engine.Date      `json:"started_at"`
	EndedAt   engine.Date      `json:"ended_at,omitempty"`
}

// =============================================================================
// UNCLAIMED PROGRAM DETECTION
// =============================================================================

// UnclaimedProgram is one enrollment opportunity the household has not taken.
type UnclaimedProgram struct {
	Program engine.ProgramID `json:"program"`
	Benefit engine.Money     `json:"benefit"`
	Reason  string           `json:"reason"`
}

// FindUnclaimedPrograms returns programs where the report says eligible but
// no active enrollment exists, ordered as the report orders its results.
func FindUnclaimedPrograms(enrollments []Enrollment, report Report) []UnclaimedProgram {
	enrolled := make(map[engine.ProgramID]bool, len(enrollments))
	for _, e := range enrollments {
		if e.Status == EnrollmentActive {
			enrolled[e.Program] = true
		}
	}

	var unclaimed []UnclaimedProgram
	for _, result := range report.Results {
		if !result.Eligible || enrolled[result.Program] {
			continue
		}
		unclaimed = append(unclaimed, UnclaimedProgram{
			Program: result.Program,
			Benefit: result.Benefit,
			Reason:  eligibilityReason(result),
		})
	}
	return unclaimed
}

// eligibilityReason renders a human-readable explanation from the rules that
// decided eligibility.
func eligibilityReason(result engine.Result) string {
	if result.CategoricalTrigger != engine.CategoricalNone {
		return fmt.Sprintf("automatically eligible: household already receives %s",
			categoryLabel(result.CategoricalTrigger))
	}
	if result.HasRule(engine.RuleTestGrossWaived) {
		return fmt.Sprintf("gross income test waived (elderly/disabled member); net income %s is within the limit", result.NetIncome)
	}
	return fmt.Sprintf("gross income %s and net income %s are both within the program limits",
		result.GrossIncome, result.NetIncome)
}

func categoryLabel(c engine.CategoricalEligibility) string {
	switch c {
	case engine.CategoricalCashAssistance:
		return "cash assistance"
	case engine.CategoricalSupplementalSecurity:
		return "supplemental security income"
	case engine.CategoricalBroadBased:
		return "a broad-based qualifying benefit"
	default:
		return string(c)
	}
}
