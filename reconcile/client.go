/*
Package reconcile verifies local calculation results against an external
authoritative calculation service.

PURPOSE:
  The local engine is fast and runs offline; the external service is the
  authority of record. This package submits the same household to both,
  compares the benefit amounts under a per-program tolerance, and resolves
  conflicts. Verification is an enhancement, never a hard dependency: when
  the external service is unreachable the local result stands, marked
  unverified, and the failure is logged rather than surfaced.

THIS FILE (client.go):
  The HTTP client for the external service. The wire schema mirrors the
  engine's Household and Result types. Calls carry an explicit timeout and
  a small bounded retry count with backoff; on exhaustion the client
  returns ExternalServiceError for the reconciler to degrade on.

SEE ALSO:
  - reconciler.go: Tolerance comparison and conflict resolution
*/
package reconcile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/civista/benefits-engine/engine"
)

// =============================================================================
// EXTERNAL CALCULATOR INTERFACE
// =============================================================================

// ExternalCalculator produces an independent result for one household and
// program. The HTTP client implements it; tests substitute fakes.
type ExternalCalculator interface {
	Calculate(ctx context.Context, h engine.Household, jurisdiction engine.Jurisdiction, program engine.ProgramID, asOf engine.Date) (engine.Result, error)
}

// =============================================================================
// WIRE SCHEMA - Mirrors engine.Household / engine.Result
// =============================================================================

type calculationRequest struct {
	Jurisdiction string           `json:"jurisdiction"`
	Program      string           `json:"program"`
	AsOf         engine.Date      `json:"as_of"`
	Household    householdPayload `json:"household"`
}

type householdPayload struct {
	Size                   int    `json:"size"`
	EarnedIncome           int64  `json:"earned_income"`
	UnearnedIncome         int64  `json:"unearned_income"`
	SelfEmploymentIncome   int64  `json:"self_employment_income"`
	SelfEmploymentExpenses int64  `json:"self_employment_expenses"`
	HasElderly             bool   `json:"has_elderly"`
	HasDisabled            bool   `json:"has_disabled"`
	ShelterCost            int64  `json:"shelter_cost"`
	UtilityCost            int64  `json:"utility_cost"`
	DependentCareCost      int64  `json:"dependent_care_cost"`
	MedicalExpenses        int64  `json:"medical_expenses"`
	CategoricalEligibility string `json:"categorical_eligibility"`
}

type calculationResponse struct {
	Program     string `json:"program"`
	Eligible    bool   `json:"eligible"`
	GrossIncome int64  `json:"gross_income"`
	NetIncome   int64  `json:"net_income"`
	Benefit     int64  `json:"benefit"`
}

// =============================================================================
// HTTP CLIENT
// =============================================================================

const (
	// DefaultTimeout bounds one external call end to end.
	DefaultTimeout = 8 * time.Second

	// DefaultRetries is the number of retries after the first attempt.
	DefaultRetries = 2

	// DefaultBackoff is the initial retry backoff; it doubles per attempt.
	DefaultBackoff = 250 * time.Millisecond
)

// Client calls the external calculation service over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	retries int
	backoff time.Duration
}

// NewClient creates a client for the external service at baseURL with the
// default timeout, retry count, and backoff.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: DefaultTimeout},
		retries: DefaultRetries,
		backoff: DefaultBackoff,
	}
}

// WithTimeout overrides the per-call timeout.
func (c *Client) WithTimeout(d time.Duration) *Client {
	c.http.Timeout = d
	return c
}

// WithRetries overrides the retry count and initial backoff.
func (c *Client) WithRetries(retries int, backoff time.Duration) *Client {
	c.retries = retries
	c.backoff = backoff
	return c
}

// Calculate submits the household and returns the external result. Retries
// transport failures with doubling backoff; never retries a parsed response.
// Returns ExternalServiceError after exhausting retries or on cancellation.
func (c *Client) Calculate(ctx context.Context, h engine.Household, jurisdiction engine.Jurisdiction, program engine.ProgramID, asOf engine.Date) (engine.Result, error) {
	payload, err := json.Marshal(calculationRequest{
		Jurisdiction: string(jurisdiction),
		Program:      string(program),
		AsOf:         asOf,
		Household: householdPayload{
			Size:                   h.Size,
			EarnedIncome:           int64(h.EarnedIncome),
			UnearnedIncome:         int64(h.UnearnedIncome),
			SelfEmploymentIncome:   int64(h.SelfEmploymentIncome),
			SelfEmploymentExpenses: int64(h.SelfEmploymentExpenses),
			HasElderly:             h.HasElderly,
			HasDisabled:            h.HasDisabled,
			ShelterCost:            int64(h.ShelterCost),
			UtilityCost:            int64(h.UtilityCost),
			DependentCareCost:      int64(h.DependentCareCost),
			MedicalExpenses:        int64(h.MedicalExpenses),
			CategoricalEligibility: string(h.Categorical),
		},
	})
	if err != nil {
		return engine.Result{}, fmt.Errorf("failed to encode calculation request: %w", err)
	}

	var lastErr error
	backoff := c.backoff
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return engine.Result{}, &engine.ExternalServiceError{Endpoint: c.baseURL, Cause: ctx.Err()}
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		result, err := c.attempt(ctx, payload)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return engine.Result{}, &engine.ExternalServiceError{Endpoint: c.baseURL, Cause: lastErr}
}

func (c *Client) attempt(ctx context.Context, payload []byte) (engine.Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/calculate", bytes.NewReader(payload))
	if err != nil {
		return engine.Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return engine.Result{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return engine.Result{}, fmt.Errorf("external service returned %s", resp.Status)
	}

	var body calculationResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return engine.Result{}, fmt.Errorf("failed to decode external response: %w", err)
	}
	return engine.Result{
		Program:     engine.ProgramID(body.Program),
		Eligible:    body.Eligible,
		GrossIncome: engine.Cents(body.GrossIncome),
		NetIncome:   engine.Cents(body.NetIncome),
		Benefit:     engine.Cents(body.Benefit),
	}, nil
}
