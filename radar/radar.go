/*
Package radar runs the eligibility pipeline across every program a
jurisdiction supports and aggregates the results into a single report.

PURPOSE:
  One household, all programs: per-program eligibility and benefit results,
  proximity alerts for households close to losing eligibility on a small
  income change, and signed benefit deltas against a previous scan for
  benefits-cliff detection.

CONCURRENCY:
  Per-program calculations are pure functions over an immutable household
  and a read-only catalog snapshot, so the scan fans out with an errgroup -
  no shared mutable state, no locking. Results land in pre-sized slots and
  the report orders programs by ID, so two scans of identical input produce
  identical reports.

SEE ALSO:
  - crossenroll.go: Unclaimed-program detection from a report
  - engine/engine.go: The per-program pipeline
*/
package radar

import (
	"context"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/civista/benefits-engine/engine"
)

// DefaultAlertMarginRate flags households whose net income is within 10% of
// a program's net limit.
var DefaultAlertMarginRate = decimal.RequireFromString("0.10")

// =============================================================================
// REPORT TYPES
// =============================================================================

// Report is the per-household aggregation across all supported programs.
type Report struct {
	Jurisdiction engine.Jurisdiction `json:"jurisdiction"`
	AsOf         engine.Date         `json:"as_of"`

	// Results holds one entry per supported program, ordered by program ID.
	Results []engine.Result `json:"results"`

	// Alerts lists programs where the household is eligible but within the
	// configured margin of the net income limit.
	Alerts []Alert `json:"alerts,omitempty"`

	// Changes holds signed per-program deltas when a previous result set
	// was supplied; nil otherwise.
	Changes []Change `json:"changes,omitempty"`
}

// ResultFor returns the report entry for one program.
func (r Report) ResultFor(program engine.ProgramID) (engine.Result, bool) {
	for _, res := range r.Results {
		if res.Program == program {
			return res, true
		}
	}
	return engine.Result{}, false
}

// Alert flags a household at risk of losing eligibility: net income within
// the margin of the program's net limit.
type Alert struct {
	Program   engine.ProgramID `json:"program"`
	NetIncome engine.Money     `json:"net_income"`
	NetLimit  engine.Money     `json:"net_limit"`
	Headroom  engine.Money     `json:"headroom"` // limit - net income
}

// Change is the signed benefit delta for one program between two scans.
type Change struct {
	Program         engine.ProgramID `json:"program"`
	PreviousBenefit engine.Money     `json:"previous_benefit"`
	CurrentBenefit  engine.Money     `json:"current_benefit"`
	Delta           engine.Money     `json:"delta"`
	BecameEligible  bool             `json:"became_eligible,omitempty"`
	LostEligibility bool             `json:"lost_eligibility,omitempty"`
}

// =============================================================================
// RADAR
// =============================================================================

// Radar scans one household across every supported program.
type Radar struct {
	calculator      *engine.Calculator
	catalog         engine.Catalog
	alertMarginRate decimal.Decimal
}

// New creates a Radar over a read-only catalog snapshot with the default
// alert margin.
func New(catalog engine.Catalog) *Radar {
	return &Radar{
		calculator:      engine.NewCalculator(catalog),
		catalog:         catalog,
		alertMarginRate: DefaultAlertMarginRate,
	}
}

// WithAlertMargin overrides the proximity-alert margin rate.
func (r *Radar) WithAlertMargin(rate decimal.Decimal) *Radar {
	r.alertMarginRate = rate
	return r
}

// Scan runs the full pipeline for every program the jurisdiction supports,
// in parallel, and assembles the report. A previous result set may be
// supplied for change detection; pass nil otherwise.
func (r *Radar) Scan(ctx context.Context, h engine.Household, jurisdiction engine.Jurisdiction, asOf engine.Date, previous []engine.Result) (Report, error) {
	if err := h.Validate(); err != nil {
		return Report{}, err
	}
	programs, err := r.catalog.Programs(jurisdiction)
	if err != nil {
		return Report{}, err
	}

	// One slot per program keeps the output order stable regardless of
	// goroutine scheduling; Programs() already returns sorted IDs.
	results := make([]engine.Result, len(programs))
	g, ctx := errgroup.WithContext(ctx)
	for i, rules := range programs {
		i, program := i, rules.Program
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			result, err := r.calculator.CalculateBenefit(h, jurisdiction, program, asOf)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	report := Report{
		Jurisdiction: jurisdiction,
		AsOf:         asOf,
		Results:      results,
	}
	report.Alerts = r.alerts(h, jurisdiction, asOf, results)
	if previous != nil {
		report.Changes = changes(previous, results)
	}
	return report, nil
}

// alerts flags eligible, income-tested programs where net income sits within
// the margin of the net limit. Categorically eligible results never alert -
// their income was not compared against a limit.
func (r *Radar) alerts(h engine.Household, jurisdiction engine.Jurisdiction, asOf engine.Date, results []engine.Result) []Alert {
	var alerts []Alert
	for _, result := range results {
		if !result.Eligible || result.CategoricalTrigger != engine.CategoricalNone {
			continue
		}
		limit, err := r.catalog.IncomeLimit(jurisdiction, result.Program, h.Size, asOf)
		if err != nil {
			continue
		}
		margin := limit.NetLimit.MulRate(r.alertMarginRate)
		headroom := limit.NetLimit.Sub(result.NetIncome)
		if headroom <= margin {
			alerts = append(alerts, Alert{
				Program:   result.Program,
				NetIncome: result.NetIncome,
				NetLimit:  limit.NetLimit,
				Headroom:  headroom,
			})
		}
	}
	return alerts
}

// changes computes signed per-program benefit deltas. Programs missing from
// the previous set produce no change entry.
func changes(previous, current []engine.Result) []Change {
	prior := make(map[engine.ProgramID]engine.Result, len(previous))
	for _, p := range previous {
		prior[p.Program] = p
	}

	var out []Change
	for _, cur := range current {
		prev, ok := prior[cur.Program]
		if !ok {
			continue
		}
		out = append(out, Change{
			Program:         cur.Program,
			PreviousBenefit: prev.Benefit,
			CurrentBenefit:  cur.Benefit,
			Delta:           cur.Benefit.Sub(prev.Benefit),
			BecameEligible:  cur.Eligible && !prev.Eligible,
			LostEligibility: !cur.Eligible && prev.Eligible,
		})
	}
	return out
}
