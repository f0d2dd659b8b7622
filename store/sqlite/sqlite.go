/*
Package sqlite provides the SQLite-backed persistence layer.

PURPOSE:
  The engine itself is stateless; this store persists the three things the
  surrounding application needs durably:

    catalog_records:      versioned catalog documents per jurisdiction,
                          seeded by an administrative process and read-only
                          from the engine's perspective
    enrollments:          a household's program enrollment records, feeding
                          the cross-enrollment analyzer
    reconciliation_runs:  every reconciliation outcome, both values retained,
                          for audit

CATALOG SEMANTICS:
  Catalog documents are stored whole (the same JSON schema the file loader
  reads) and rebuilt into immutable snapshots on load. Saving a new version
  for a jurisdiction supersedes the old one for new calculations; old
  versions stay queryable for historical recalculation.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging): multiple readers don't
  block, single writer at a time, better crash recovery.

USAGE:
  store, err := sqlite.New("./data/benefits.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - catalog/loader.go: The catalog document schema
  - reconcile/reconciler.go: The Outcome records persisted here
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/civista/benefits-engine/catalog"
	"github.com/civista/benefits-engine/engine"
	"github.com/civista/benefits-engine/radar"
	"github.com/civista/benefits-engine/reconcile"
)

// Store implements persistence over SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a store at the given database path. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- Versioned catalog documents, one row per (jurisdiction, version).
	CREATE TABLE IF NOT EXISTS catalog_records (
		jurisdiction TEXT NOT NULL,
		version TEXT NOT NULL,
		document_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		PRIMARY KEY (jurisdiction, version)
	);

	CREATE INDEX IF NOT EXISTS idx_catalog_jurisdiction
		ON catalog_records(jurisdiction, created_at DESC);

	-- Household enrollment records.
	CREATE TABLE IF NOT EXISTS enrollments (
		id TEXT PRIMARY KEY,
		household_id TEXT NOT NULL,
		program TEXT NOT NULL,
		status TEXT NOT NULL,
		started_at TEXT NOT NULL,
		ended_at TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_enrollments_household
		ON enrollments(household_id, status);

	-- Reconciliation outcomes, append-only, both values retained.
	CREATE TABLE IF NOT EXISTS reconciliation_runs (
		id TEXT PRIMARY KEY,
		household_id TEXT,
		program TEXT NOT NULL,
		local_benefit INTEGER NOT NULL,
		external_benefit INTEGER,
		absolute_delta INTEGER NOT NULL,
		relative_delta TEXT NOT NULL,
		tolerance TEXT NOT NULL,
		within_tolerance INTEGER NOT NULL,
		resolution TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_program
		ON reconciliation_runs(program, created_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// CATALOG RECORDS
// =============================================================================

// SaveCatalog stores a catalog document for its jurisdiction and version.
func (s *Store) SaveCatalog(ctx context.Context, doc catalog.File) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode catalog document: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO catalog_records (jurisdiction, version, document_json, created_at)
		VALUES (?, ?, ?, ?)`,
		doc.Jurisdiction, doc.Version, string(payload), time.Now().UTC().Format(time.RFC3339))
	return err
}

// LoadCatalog rebuilds the latest snapshot for a jurisdiction.
func (s *Store) LoadCatalog(ctx context.Context, jurisdiction engine.Jurisdiction) (*catalog.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var payload string
	err := s.db.QueryRowContext(ctx, `
		SELECT document_json FROM catalog_records
		WHERE jurisdiction = ?
		ORDER BY created_at DESC LIMIT 1`,
		string(jurisdiction)).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, engine.ErrUnsupportedJurisdiction
	}
	if err != nil {
		return nil, err
	}
	return catalog.ParseJSON([]byte(payload))
}

// =============================================================================
// ENROLLMENTS
// =============================================================================

// SaveEnrollment records a new active enrollment and returns its ID.
func (s *Store) SaveEnrollment(ctx context.Context, householdID string, program engine.ProgramID, startedAt engine.Date) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO enrollments (id, household_id, program, status, started_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, householdID, string(program), string(radar.EnrollmentActive),
		startedAt.String(), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", err
	}
	return id, nil
}

// TerminateEnrollment marks an enrollment terminated as of the given date.
func (s *Store) TerminateEnrollment(ctx context.Context, id string, endedAt engine.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx, `
		UPDATE enrollments SET status = ?, ended_at = ? WHERE id = ?`,
		string(radar.EnrollmentTerminated), endedAt.String(), id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("enrollment %s not found", id)
	}
	return nil
}

// ListEnrollments returns all enrollment records for a household, newest
// first.
func (s *Store) ListEnrollments(ctx context.Context, householdID string) ([]radar.Enrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, program, status, started_at, ended_at
		FROM enrollments WHERE household_id = ?
		ORDER BY created_at DESC`, householdID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var enrollments []radar.Enrollment
	for rows.Next() {
		var e radar.Enrollment
		var program, status, startedAt string
		var endedAt sql.NullString
		if err := rows.Scan(&e.ID, &program, &status, &startedAt, &endedAt); err != nil {
			return nil, err
		}
		e.Program = engine.ProgramID(program)
		e.Status = radar.EnrollmentStatus(status)
		if e.StartedAt, err = engine.ParseDate(startedAt); err != nil {
			return nil, fmt.Errorf("corrupt started_at for enrollment %s: %w", e.ID, err)
		}
		if endedAt.Valid && endedAt.String != "" {
			if e.EndedAt, err = engine.ParseDate(endedAt.String); err != nil {
				return nil, fmt.Errorf("corrupt ended_at for enrollment %s: %w", e.ID, err)
			}
		}
		enrollments = append(enrollments, e)
	}
	return enrollments, rows.Err()
}

// =============================================================================
// RECONCILIATION RUNS
// =============================================================================

// ReconciliationRun is one persisted reconciliation outcome.
type ReconciliationRun struct {
	ID              string
	HouseholdID     string
	Program         engine.ProgramID
	LocalBenefit    engine.Money
	ExternalBenefit *engine.Money
	AbsoluteDelta   engine.Money
	RelativeDelta   string
	Tolerance       string
	WithinTolerance bool
	Resolution      reconcile.Resolution
	CreatedAt       time.Time
}

// SaveReconciliationRun persists an outcome for audit.
func (s *Store) SaveReconciliationRun(ctx context.Context, householdID string, outcome reconcile.Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var externalBenefit any
	if outcome.External != nil {
		externalBenefit = int64(outcome.External.Benefit)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reconciliation_runs
			(id, household_id, program, local_benefit, external_benefit,
			 absolute_delta, relative_delta, tolerance, within_tolerance, resolution, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		outcome.RunID, householdID, string(outcome.Program),
		int64(outcome.Local.Benefit), externalBenefit,
		int64(outcome.AbsoluteDelta), outcome.RelativeDelta.String(),
		outcome.Tolerance.String(), boolToInt(outcome.WithinTolerance),
		string(outcome.Resolution), time.Now().UTC().Format(time.RFC3339))
	return err
}

// ListReconciliationRuns returns persisted runs, newest first, optionally
// filtered by program (empty means all).
func (s *Store) ListReconciliationRuns(ctx context.Context, program engine.ProgramID) ([]ReconciliationRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, household_id, program, local_benefit, external_benefit,
		       absolute_delta, relative_delta, tolerance, within_tolerance, resolution, created_at
		FROM reconciliation_runs`
	args := []any{}
	if program != "" {
		query += ` WHERE program = ?`
		args = append(args, string(program))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []ReconciliationRun
	for rows.Next() {
		var r ReconciliationRun
		var programStr, resolution, createdAt string
		var externalBenefit sql.NullInt64
		var localBenefit, absoluteDelta int64
		var withinTolerance int
		if err := rows.Scan(&r.ID, &r.HouseholdID, &programStr, &localBenefit, &externalBenefit,
			&absoluteDelta, &r.RelativeDelta, &r.Tolerance, &withinTolerance, &resolution, &createdAt); err != nil {
			return nil, err
		}
		r.Program = engine.ProgramID(programStr)
		r.LocalBenefit = engine.Cents(localBenefit)
		r.AbsoluteDelta = engine.Cents(absoluteDelta)
		if externalBenefit.Valid {
			v := engine.Cents(externalBenefit.Int64)
			r.ExternalBenefit = &v
		}
		r.WithinTolerance = withinTolerance != 0
		r.Resolution = reconcile.Resolution(resolution)
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			r.CreatedAt = t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
