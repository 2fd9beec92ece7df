/*
Package sqlite provides a SQLite-backed store for holidays, rosters and
computation runs.

PURPOSE:
  The allowance engine itself is pure; everything that outlives a request
  lives here:
  - the holiday table edited through the API (loaded into a
    calendar.StaticHolidayCalendar snapshot for the engine)
  - each worker's working set of duty events (roster.Store)
  - the result of every persisted computation run

INTERFACES IMPLEMENTED:
  roster.Store: SaveRoster / LoadRoster / ListWorkers

KEY TABLES:
  holidays:      date (YYYY-MM-DD) -> name
  workers:       known worker ids
  duty_events:   per-worker events, tombstones included
  compute_runs:  one row per persisted computation, full result as JSON

TIMESTAMPS:
  Instants are stored in UTC with a fixed-width layout so that string
  ordering in SQL matches time ordering. Loaded event instants are
  converted into the store location (WithLocation).

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. SaveRoster replaces a worker's events
  in one SQL transaction.

USAGE:
  store, err := sqlite.New("./shift-allowance.db", sqlite.WithLocation(loc))
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - roster/roster.go: Store interface
  - store/memory/memory.go: In-memory roster store for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/shift-allowance/allowance"
	"github.com/warp/shift-allowance/calendar"
	"github.com/warp/shift-allowance/roster"
)

const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var (
	ErrWorkerNotFound  = roster.ErrWorkerNotFound
	ErrRunNotFound     = errors.New("compute run not found")
	ErrHolidayNotFound = errors.New("holiday not found")
)

// Store implements roster.Store and holiday/run persistence using SQLite.
type Store struct {
	db  *sql.DB
	mu  sync.RWMutex
	loc *time.Location
}

// Option configures a Store.
type Option func(*Store)

// WithLocation sets the location loaded instants are converted into.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	store := &Store{db: db, loc: time.UTC}
	for _, opt := range opts {
		opt(store)
	}
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
	CREATE TABLE IF NOT EXISTS holidays (
		date TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS workers (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Tombstones (start = end) are kept; callers prune before computing
	CREATE TABLE IF NOT EXISTS duty_events (
		worker_id TEXT NOT NULL REFERENCES workers(id) ON DELETE CASCADE,
		id INTEGER NOT NULL,
		title TEXT NOT NULL,
		start_at TEXT NOT NULL,
		end_at TEXT NOT NULL,
		duty_type_id INTEGER NOT NULL,
		PRIMARY KEY (worker_id, id)
	);

	CREATE INDEX IF NOT EXISTS idx_duty_events_worker_start
		ON duty_events(worker_id, start_at);

	CREATE TABLE IF NOT EXISTS compute_runs (
		id TEXT PRIMARY KEY,
		worker_id TEXT NOT NULL,
		created_at TEXT NOT NULL,
		months INTEGER NOT NULL,
		total_hours TEXT NOT NULL,
		result_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_compute_runs_worker
		ON compute_runs(worker_id, created_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// HOLIDAYS
// =============================================================================

// SaveHoliday inserts a holiday or renames the one on the same date.
func (s *Store) SaveHoliday(ctx context.Context, h calendar.Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO holidays (date, name, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET name = excluded.name
	`
	_, err := s.db.ExecContext(ctx, query, h.Date.String(), h.Name, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save holiday: %w", err)
	}
	return nil
}

// SeedHolidays inserts holidays only when the table is empty, so edits made
// through the API survive restarts. Returns the number inserted.
func (s *Store) SeedHolidays(ctx context.Context, holidays []calendar.Holiday) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM holidays").Scan(&count); err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	inserted := 0
	for _, h := range holidays {
		res, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO holidays (date, name, created_at) VALUES (?, ?, ?)",
			h.Date.String(), h.Name, now)
		if err != nil {
			return 0, fmt.Errorf("failed to seed holiday %s: %w", h.Date, err)
		}
		n, _ := res.RowsAffected()
		inserted += int(n)
	}
	return inserted, tx.Commit()
}

// DeleteHoliday deletes the holiday on date.
func (s *Store) DeleteHoliday(ctx context.Context, date calendar.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM holidays WHERE date = ?", date.String())
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrHolidayNotFound
	}
	return nil
}

// ListHolidays returns all holidays ordered by date.
func (s *Store) ListHolidays(ctx context.Context) ([]calendar.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT date, name FROM holidays ORDER BY date ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holidays []calendar.Holiday
	for rows.Next() {
		var dateStr, name string
		if err := rows.Scan(&dateStr, &name); err != nil {
			return nil, err
		}
		d, err := calendar.ParseDate(dateStr)
		if err != nil {
			return nil, err
		}
		holidays = append(holidays, calendar.Holiday{Date: d, Name: name})
	}
	return holidays, rows.Err()
}

// LoadCalendar snapshots the holiday table for the engine.
func (s *Store) LoadCalendar(ctx context.Context) (*calendar.StaticHolidayCalendar, error) {
	holidays, err := s.ListHolidays(ctx)
	if err != nil {
		return nil, err
	}
	return calendar.NewStaticHolidayCalendar(holidays), nil
}

// =============================================================================
// ROSTERS (roster.Store interface)
// =============================================================================

// SaveRoster replaces the worker's events atomically.
func (s *Store) SaveRoster(ctx context.Context, workerID string, events []allowance.DutyEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = tx.ExecContext(ctx, `
		INSERT INTO workers (id, created_at, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at
	`, workerID, now, now)
	if err != nil {
		return fmt.Errorf("failed to save worker: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM duty_events WHERE worker_id = ?", workerID); err != nil {
		return fmt.Errorf("failed to clear roster: %w", err)
	}

	for _, ev := range events {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO duty_events (worker_id, id, title, start_at, end_at, duty_type_id)
			VALUES (?, ?, ?, ?, ?, ?)
		`, workerID, ev.ID, ev.Title,
			formatTime(ev.Start), formatTime(ev.End), ev.DutyTypeID)
		if err != nil {
			if isUniqueConstraintError(err) {
				return fmt.Errorf("%w: %d for worker %s", roster.ErrDuplicateEvent, ev.ID, workerID)
			}
			return fmt.Errorf("failed to save event %d: %w", ev.ID, err)
		}
	}

	return tx.Commit()
}

// LoadRoster returns the worker's events ordered by start.
func (s *Store) LoadRoster(ctx context.Context, workerID string) ([]allowance.DutyEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM workers WHERE id = ?", workerID).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, ErrWorkerNotFound
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, start_at, end_at, duty_type_id
		FROM duty_events
		WHERE worker_id = ?
		ORDER BY start_at ASC, id ASC
	`, workerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []allowance.DutyEvent{}
	for rows.Next() {
		var ev allowance.DutyEvent
		var startStr, endStr string
		if err := rows.Scan(&ev.ID, &ev.Title, &startStr, &endStr, &ev.DutyTypeID); err != nil {
			return nil, err
		}
		if ev.Start, err = s.parseTime(startStr); err != nil {
			return nil, err
		}
		if ev.End, err = s.parseTime(endStr); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// ListWorkers returns every worker id with a saved roster, sorted.
func (s *Store) ListWorkers(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id FROM workers ORDER BY id ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// =============================================================================
// COMPUTE RUNS
// =============================================================================

// Run is a persisted computation.
type Run struct {
	ID         string
	WorkerID   string
	CreatedAt  time.Time
	Months     int
	TotalHours decimal.Decimal
	Result     allowance.ComputeResult
}

// SaveRun persists a run, assigning an id and timestamp when missing.
// Returns the stored run.
func (s *Store) SaveRun(ctx context.Context, r Run) (Run, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	r.Months = r.Result.Months()
	r.TotalHours = r.Result.TotalHours()

	resultJSON, err := json.Marshal(r.Result)
	if err != nil {
		return Run{}, fmt.Errorf("failed to encode result: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO compute_runs (id, worker_id, created_at, months, total_hours, result_json)
		VALUES (?, ?, ?, ?, ?, ?)
	`, r.ID, r.WorkerID, formatTime(r.CreatedAt), r.Months, r.TotalHours.String(), string(resultJSON))
	if err != nil {
		return Run{}, fmt.Errorf("failed to save run: %w", err)
	}
	return r, nil
}

// GetRun returns a run by id.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, worker_id, created_at, months, total_hours, result_json
		FROM compute_runs WHERE id = ?
	`, id)
	r, err := s.scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListRuns returns a worker's runs, newest first.
func (s *Store) ListRuns(ctx context.Context, workerID string) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, worker_id, created_at, months, total_hours, result_json
		FROM compute_runs
		WHERE worker_id = ?
		ORDER BY created_at DESC
	`, workerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := s.scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanRun(row scanner) (Run, error) {
	var r Run
	var createdAt, totalHours, resultJSON string
	if err := row.Scan(&r.ID, &r.WorkerID, &createdAt, &r.Months, &totalHours, &resultJSON); err != nil {
		return Run{}, err
	}
	var err error
	if r.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return Run{}, err
	}
	if r.TotalHours, err = decimal.NewFromString(totalHours); err != nil {
		return Run{}, fmt.Errorf("invalid total_hours %q: %w", totalHours, err)
	}
	if err := json.Unmarshal([]byte(resultJSON), &r.Result); err != nil {
		return Run{}, fmt.Errorf("failed to decode result: %w", err)
	}
	return r, nil
}

// Helper functions

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func (s *Store) parseTime(v string) (time.Time, error) {
	t, err := time.Parse(timeLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", v, err)
	}
	return t.In(s.loc), nil
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

var _ roster.Store = (*Store)(nil)
