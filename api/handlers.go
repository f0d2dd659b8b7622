/*
handlers.go - HTTP API handlers for the eligibility engine

PURPOSE:
  Exposes the calculation engine over REST. Handlers parse JSON, delegate
  to the engine/radar/reconcile packages, and map domain errors to status
  codes. No calculation logic lives here.

ENDPOINTS:
  Eligibility:
    POST /api/eligibility/check    Screen-level eligibility result
    POST /api/eligibility/benefit  Full calculation with deductions
    POST /api/eligibility/scan     All-program radar report

  Reconciliation:
    POST /api/reconcile            Verified calculation with outcome
    GET  /api/reconciliation/runs  Persisted outcome history

  Enrollments:
    POST   /api/enrollments            Record an active enrollment
    GET    /api/enrollments/{household} List a household's enrollments
    DELETE /api/enrollments/{id}       Terminate an enrollment
    POST   /api/unclaimed              Eligible-but-unenrolled programs

  Reference:
    GET /api/programs              Supported programs for a jurisdiction
    GET /api/healthz               Liveness

ERROR HANDLING:
  - 400: InvalidInputError, unsupported jurisdiction, malformed JSON/dates
  - 404: CatalogMissingError (no record covers the request)
  - 500: everything else
  External-service failures never produce an error status; the outcome
  degrades to unverified instead.

SEE ALSO:
  - dto.go: Request/response shapes
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/civista/benefits-engine/engine"
	"github.com/civista/benefits-engine/radar"
	"github.com/civista/benefits-engine/reconcile"
	"github.com/civista/benefits-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Catalog    engine.Catalog
	Calculator *engine.Calculator
	Radar      *radar.Radar
	Verifier   *reconcile.VerifyingCalculator
	Store      *sqlite.Store
	Logger     *zap.Logger
}

// NewHandler wires a handler over a catalog snapshot, an external
// calculator, and the store. Store may be nil for calculation-only
// deployments; enrollment and history endpoints then return 503.
func NewHandler(catalog engine.Catalog, external reconcile.ExternalCalculator, store *sqlite.Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Catalog:    catalog,
		Calculator: engine.NewCalculator(catalog),
		Radar:      radar.New(catalog),
		Verifier:   reconcile.NewVerifyingCalculator(catalog, external, logger),
		Store:      store,
		Logger:     logger,
	}
}

// =============================================================================
// ELIGIBILITY HANDLERS
// =============================================================================

// CheckEligibility returns the screen-level result for one program.
func (h *Handler) CheckEligibility(w http.ResponseWriter, r *http.Request) {
	h.calculate(w, r, func(req CalculationRequest, asOf engine.Date) (engine.Result, error) {
		return h.Calculator.CheckEligibility(req.Household.toHousehold(),
			engine.Jurisdiction(req.Jurisdiction), engine.ProgramID(req.Program), asOf)
	})
}

// CalculateBenefit returns the full calculation for one program.
func (h *Handler) CalculateBenefit(w http.ResponseWriter, r *http.Request) {
	h.calculate(w, r, func(req CalculationRequest, asOf engine.Date) (engine.Result, error) {
		return h.Calculator.CalculateBenefit(req.Household.toHousehold(),
			engine.Jurisdiction(req.Jurisdiction), engine.ProgramID(req.Program), asOf)
	})
}

func (h *Handler) calculate(w http.ResponseWriter, r *http.Request, run func(CalculationRequest, engine.Date) (engine.Result, error)) {
	var req CalculationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	asOf, err := parseAsOf(req.AsOf)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_of date (use YYYY-MM-DD)", err)
		return
	}

	result, err := run(req, asOf)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ResultDTO{AsOf: asOf.String(), Result: result})
}

// ScanAllPrograms returns the radar report across every supported program.
func (h *Handler) ScanAllPrograms(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	asOf, err := parseAsOf(req.AsOf)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_of date (use YYYY-MM-DD)", err)
		return
	}

	report, err := h.Radar.Scan(r.Context(), req.Household.toHousehold(),
		engine.Jurisdiction(req.Jurisdiction), asOf, req.PreviousResults)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ScanResponseDTO{Report: report})
}

// =============================================================================
// RECONCILIATION HANDLERS
// =============================================================================

// Reconcile runs a verified calculation and persists the outcome.
func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	var req ReconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	asOf, err := parseAsOf(req.AsOf)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_of date (use YYYY-MM-DD)", err)
		return
	}

	outcome, err := h.Verifier.CalculateVerified(r.Context(), req.Household.toHousehold(),
		engine.Jurisdiction(req.Jurisdiction), engine.ProgramID(req.Program), asOf)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if h.Store != nil {
		if err := h.Store.SaveReconciliationRun(r.Context(), req.HouseholdID, outcome); err != nil {
			// History is best-effort; the outcome still goes back to the caller.
			h.Logger.Warn("failed to persist reconciliation run",
				zap.String("run_id", outcome.RunID), zap.Error(err))
		}
	}
	writeJSON(w, http.StatusOK, ReconcileResponseDTO{Outcome: outcome})
}

// ListReconciliationRuns returns persisted reconciliation history.
func (h *Handler) ListReconciliationRuns(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "History persistence is not configured", nil)
		return
	}
	runs, err := h.Store.ListReconciliationRuns(r.Context(), engine.ProgramID(r.URL.Query().Get("program")))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list reconciliation runs", err)
		return
	}

	dtos := make([]ReconciliationRunDTO, len(runs))
	for i, run := range runs {
		dto := ReconciliationRunDTO{
			ID:              run.ID,
			HouseholdID:     run.HouseholdID,
			Program:         string(run.Program),
			LocalBenefit:    int64(run.LocalBenefit),
			AbsoluteDelta:   int64(run.AbsoluteDelta),
			RelativeDelta:   run.RelativeDelta,
			Tolerance:       run.Tolerance,
			WithinTolerance: run.WithinTolerance,
			Resolution:      string(run.Resolution),
			CreatedAt:       run.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
		if run.ExternalBenefit != nil {
			v := int64(*run.ExternalBenefit)
			dto.ExternalBenefit = &v
		}
		dtos[i] = dto
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": dtos})
}

// =============================================================================
// ENROLLMENT HANDLERS
// =============================================================================

// CreateEnrollment records an active enrollment.
func (h *Handler) CreateEnrollment(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "Enrollment persistence is not configured", nil)
		return
	}
	var req CreateEnrollmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.HouseholdID == "" || req.Program == "" {
		writeError(w, http.StatusBadRequest, "household_id and program are required", nil)
		return
	}
	startedAt, err := parseAsOf(req.StartedAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid started_at date (use YYYY-MM-DD)", err)
		return
	}

	id, err := h.Store.SaveEnrollment(r.Context(), req.HouseholdID, engine.ProgramID(req.Program), startedAt)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save enrollment", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// ListEnrollments returns a household's enrollment records.
func (h *Handler) ListEnrollments(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "Enrollment persistence is not configured", nil)
		return
	}
	householdID := chi.URLParam(r, "householdID")
	enrollments, err := h.Store.ListEnrollments(r.Context(), householdID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list enrollments", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"enrollments": enrollments})
}

// TerminateEnrollment marks an enrollment terminated.
func (h *Handler) TerminateEnrollment(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "Enrollment persistence is not configured", nil)
		return
	}
	id := chi.URLParam(r, "id")
	endedAt := engine.Today()
	if raw := r.URL.Query().Get("ended_at"); raw != "" {
		parsed, err := engine.ParseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid ended_at date (use YYYY-MM-DD)", err)
			return
		}
		endedAt = parsed
	}

	if err := h.Store.TerminateEnrollment(r.Context(), id, endedAt); err != nil {
		writeError(w, http.StatusNotFound, "Enrollment not found", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "terminated"})
}

// FindUnclaimedPrograms scans and overlays the household's enrollments.
func (h *Handler) FindUnclaimedPrograms(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "Enrollment persistence is not configured", nil)
		return
	}
	var req UnclaimedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	asOf, err := parseAsOf(req.AsOf)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_of date (use YYYY-MM-DD)", err)
		return
	}

	report, err := h.Radar.Scan(r.Context(), req.Household.toHousehold(),
		engine.Jurisdiction(req.Jurisdiction), asOf, nil)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	enrollments, err := h.Store.ListEnrollments(r.Context(), req.HouseholdID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list enrollments", err)
		return
	}

	writeJSON(w, http.StatusOK, ScanResponseDTO{
		Report:    report,
		Unclaimed: radar.FindUnclaimedPrograms(enrollments, report),
	})
}

// =============================================================================
// REFERENCE HANDLERS
// =============================================================================

// ListPrograms returns the programs a jurisdiction supports.
func (h *Handler) ListPrograms(w http.ResponseWriter, r *http.Request) {
	jurisdiction := engine.Jurisdiction(r.URL.Query().Get("jurisdiction"))
	programs, err := h.Catalog.Programs(jurisdiction)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	dtos := make([]ProgramDTO, len(programs))
	for i, p := range programs {
		dtos[i] = ProgramDTO{
			ID:            string(p.Program),
			Name:          p.Name,
			ToleranceRate: p.ToleranceRate.String(),
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"programs": dtos})
}

// Healthz is the liveness endpoint.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func parseAsOf(raw string) (engine.Date, error) {
	if raw == "" {
		return engine.Today(), nil
	}
	return engine.ParseDate(raw)
}

// writeDomainError maps engine errors to HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case engine.IsClientError(err):
		writeError(w, http.StatusBadRequest, "Invalid calculation input", err)
	case engine.IsNotFound(err):
		writeError(w, http.StatusNotFound, "No catalog record covers this request", err)
	default:
		writeError(w, http.StatusInternalServerError, "Calculation failed", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
