/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements draft, project, pipeline history and invoice persistence using
  SQLite. In production, the same patterns apply to PostgreSQL - only minor
  SQL dialect differences.

INTERFACES IMPLEMENTED:
  submission.Store: Wizard drafts (stored as JSON documents)
  pipeline.Store:   Projects, stage events, invoices

KEY TABLES:
  drafts:       One row per wizard draft; data_json holds the full document
  projects:     Admin projects; tranches_json holds the locked schedule
  stage_events: Append-only pipeline history
  invoices:     Invoices raised against locked tranches

MONEY:
  Amounts are stored as decimal strings (TEXT), never REAL, so values read
  back exactly as written.

INDEXES:
  - idx_invoices_open_tranche: At most one non-cancelled invoice per tranche
  - idx_stage_events_project: History lookup per project
  - idx_drafts_updated: Newest-first draft listing

CONCURRENCY:
  Uses sync.RWMutex for thread-safety and a single connection, which also
  keeps ":memory:" databases from splitting across pool connections.

USAGE:
  store, err := sqlite.New("./data/studio.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - submission/store.go: Draft store interface
  - pipeline/store.go: Pipeline store interface
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/studio-onboarding/pipeline"
	"github.com/warp/studio-onboarding/submission"
	"github.com/warp/studio-onboarding/tranche"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var (
	_ submission.Store = (*Store)(nil)
	_ pipeline.Store   = (*Store)(nil)
)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

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

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Wizard drafts
	CREATE TABLE IF NOT EXISTS drafts (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		step TEXT NOT NULL,
		project_type TEXT NOT NULL DEFAULT '',
		data_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_drafts_updated
		ON drafts(updated_at DESC);
	CREATE INDEX IF NOT EXISTS idx_drafts_status
		ON drafts(status);

	-- Projects
	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		draft_id TEXT,
		title TEXT NOT NULL,
		format TEXT NOT NULL,
		total_budget TEXT NOT NULL,
		stage TEXT NOT NULL,
		locked BOOLEAN NOT NULL DEFAULT FALSE,
		locked_at TEXT,
		tranches_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_projects_stage
		ON projects(stage);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_projects_draft
		ON projects(draft_id) WHERE draft_id IS NOT NULL;

	-- Pipeline history (append-only)
	CREATE TABLE IF NOT EXISTS stage_events (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		from_stage TEXT NOT NULL,
		to_stage TEXT NOT NULL,
		note TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_stage_events_project
		ON stage_events(project_id, created_at);

	-- Invoices
	CREATE TABLE IF NOT EXISTS invoices (
		id TEXT PRIMARY KEY,
		number TEXT NOT NULL UNIQUE,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		tranche_id TEXT NOT NULL,
		tranche_name TEXT NOT NULL,
		amount TEXT NOT NULL,
		gst TEXT NOT NULL,
		total TEXT NOT NULL,
		status TEXT NOT NULL,
		issued_at TEXT NOT NULL,
		paid_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_invoices_project
		ON invoices(project_id);

	-- CRITICAL: one live invoice per tranche
	CREATE UNIQUE INDEX IF NOT EXISTS idx_invoices_open_tranche
		ON invoices(tranche_id) WHERE status != 'cancelled';
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// DRAFT STORE (submission.Store interface)
// =============================================================================

// SaveDraft inserts or replaces a draft document.
func (s *Store) SaveDraft(ctx context.Context, d submission.Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to encode draft: %w", err)
	}

	query := `
		INSERT INTO drafts (id, title, status, step, project_type, data_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			status = excluded.status,
			step = excluded.step,
			project_type = excluded.project_type,
			data_json = excluded.data_json,
			updated_at = excluded.updated_at
	`

	_, err = s.db.ExecContext(ctx, query,
		d.ID, d.Project.Title, d.Status, d.Step, d.Project.ProjectType, string(data),
		formatTime(d.CreatedAt), formatTime(d.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	return nil
}

// GetDraft retrieves a draft by ID.
func (s *Store) GetDraft(ctx context.Context, id string) (*submission.Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var data string
	err := s.db.QueryRowContext(ctx, "SELECT data_json FROM drafts WHERE id = ?", id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, submission.ErrDraftNotFound
	}
	if err != nil {
		return nil, err
	}

	var d submission.Draft
	if err := json.Unmarshal([]byte(data), &d); err != nil {
		return nil, fmt.Errorf("failed to decode draft %s: %w", id, err)
	}
	return &d, nil
}

// ListDrafts returns all drafts, most recently updated first.
func (s *Store) ListDrafts(ctx context.Context) ([]submission.Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT data_json FROM drafts ORDER BY updated_at DESC, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	drafts := []submission.Draft{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan draft: %w", err)
		}
		var d submission.Draft
		if err := json.Unmarshal([]byte(data), &d); err != nil {
			return nil, fmt.Errorf("failed to decode draft: %w", err)
		}
		drafts = append(drafts, d)
	}
	return drafts, rows.Err()
}

// DeleteDraft removes a draft.
func (s *Store) DeleteDraft(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM drafts WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return submission.ErrDraftNotFound
	}
	return nil
}

// =============================================================================
// PROJECT STORE (pipeline.Store interface)
// =============================================================================

// SaveProject inserts or updates a project.
func (s *Store) SaveProject(ctx context.Context, p pipeline.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tranchesJSON, err := json.Marshal(p.Tranches)
	if err != nil {
		return fmt.Errorf("failed to encode tranches: %w", err)
	}

	query := `
		INSERT INTO projects
		(id, draft_id, title, format, total_budget, stage, locked, locked_at, tranches_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			format = excluded.format,
			total_budget = excluded.total_budget,
			stage = excluded.stage,
			locked = excluded.locked,
			locked_at = excluded.locked_at,
			tranches_json = excluded.tranches_json,
			updated_at = excluded.updated_at
	`

	_, err = s.db.ExecContext(ctx, query,
		p.ID, nullString(p.DraftID), p.Title, p.Format, p.TotalBudget.String(), p.Stage,
		p.Locked, nullTime(p.LockedAt), string(tranchesJSON),
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: draft %s", pipeline.ErrDraftHasProject, p.DraftID)
		}
		return fmt.Errorf("failed to save project: %w", err)
	}
	return nil
}

const projectColumns = `id, draft_id, title, format, total_budget, stage, locked, locked_at, tranches_json, created_at, updated_at`

// GetProject retrieves a project by ID.
func (s *Store) GetProject(ctx context.Context, id string) (*pipeline.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, "SELECT "+projectColumns+" FROM projects WHERE id = ?", id)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pipeline.ErrProjectNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProjects returns all projects, newest first.
func (s *Store) ListProjects(ctx context.Context) ([]pipeline.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT "+projectColumns+" FROM projects ORDER BY created_at DESC, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []pipeline.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(row scanner) (pipeline.Project, error) {
	var (
		p            pipeline.Project
		draftID      sql.NullString
		budget       string
		lockedAt     sql.NullString
		tranchesJSON string
		createdAt    string
		updatedAt    string
	)

	err := row.Scan(&p.ID, &draftID, &p.Title, &p.Format, &budget, &p.Stage,
		&p.Locked, &lockedAt, &tranchesJSON, &createdAt, &updatedAt)
	if err != nil {
		return p, err
	}

	p.DraftID = draftID.String
	p.TotalBudget = parseDecimal(budget)
	p.LockedAt = parseNullTime(lockedAt)
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	p.Tranches = []tranche.Tranche{}
	if err := json.Unmarshal([]byte(tranchesJSON), &p.Tranches); err != nil {
		return p, fmt.Errorf("failed to decode tranches for project %s: %w", p.ID, err)
	}
	return p, nil
}

// =============================================================================
// STAGE EVENTS
// =============================================================================

// AppendStageEvent records a pipeline transition.
func (s *Store) AppendStageEvent(ctx context.Context, e pipeline.StageEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stage_events (id, project_id, from_stage, to_stage, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.ID, e.ProjectID, e.From, e.To, nullString(e.Note), formatTime(e.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to append stage event: %w", err)
	}
	return nil
}

// ListStageEvents returns a project's history, oldest first.
func (s *Store) ListStageEvents(ctx context.Context, projectID string) ([]pipeline.StageEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, from_stage, to_stage, note, created_at
		FROM stage_events
		WHERE project_id = ?
		ORDER BY created_at ASC, rowid ASC
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []pipeline.StageEvent{}
	for rows.Next() {
		var (
			e         pipeline.StageEvent
			note      sql.NullString
			createdAt string
		)
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.From, &e.To, &note, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan stage event: %w", err)
		}
		e.Note = note.String
		e.CreatedAt = parseTime(createdAt)
		events = append(events, e)
	}
	return events, rows.Err()
}

// =============================================================================
// INVOICES
// =============================================================================

// SaveInvoice inserts or updates an invoice.
func (s *Store) SaveInvoice(ctx context.Context, inv pipeline.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO invoices
		(id, number, project_id, tranche_id, tranche_name, amount, gst, total, status, issued_at, paid_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			paid_at = excluded.paid_at
	`

	_, err := s.db.ExecContext(ctx, query,
		inv.ID, inv.Number, inv.ProjectID, inv.TrancheID, inv.TrancheName,
		inv.Amount.String(), inv.GST.String(), inv.Total.String(), inv.Status,
		formatTime(inv.IssuedAt), nullTime(inv.PaidAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return pipeline.ErrDuplicateInvoice
		}
		return fmt.Errorf("failed to save invoice: %w", err)
	}
	return nil
}

const invoiceColumns = `id, number, project_id, tranche_id, tranche_name, amount, gst, total, status, issued_at, paid_at`

// GetInvoice retrieves an invoice by ID.
func (s *Store) GetInvoice(ctx context.Context, id string) (*pipeline.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inv, err := scanInvoice(s.db.QueryRowContext(ctx, "SELECT "+invoiceColumns+" FROM invoices WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pipeline.ErrInvoiceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// ListInvoices returns invoices in issue order, optionally for one project.
func (s *Store) ListInvoices(ctx context.Context, projectID string) ([]pipeline.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT " + invoiceColumns + " FROM invoices"
	var args []any
	if projectID != "" {
		query += " WHERE project_id = ?"
		args = append(args, projectID)
	}
	query += " ORDER BY issued_at ASC, number ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invoices := []pipeline.Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

// CountInvoices returns how many invoices were ever issued. Used for numbering.
func (s *Store) CountInvoices(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM invoices").Scan(&n)
	return n, err
}

func scanInvoice(row scanner) (pipeline.Invoice, error) {
	var (
		inv                pipeline.Invoice
		amount, gst, total string
		issuedAt           string
		paidAt             sql.NullString
	)
	err := row.Scan(&inv.ID, &inv.Number, &inv.ProjectID, &inv.TrancheID, &inv.TrancheName,
		&amount, &gst, &total, &inv.Status, &issuedAt, &paidAt)
	if err != nil {
		return inv, err
	}
	inv.Amount = parseDecimal(amount)
	inv.GST = parseDecimal(gst)
	inv.Total = parseDecimal(total)
	inv.IssuedAt = parseTime(issuedAt)
	inv.PaidAt = parseNullTime(paidAt)
	return inv, nil
}

// =============================================================================
// ADMIN
// =============================================================================

// Reset clears all data. Used by demo scenarios.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"invoices", "stage_events", "projects", "drafts"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t := parseTime(s.String)
	return &t
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
