package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/tau-anchor/internal/logging"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id       TEXT PRIMARY KEY,
	config_json  TEXT NOT NULL,
	status       TEXT NOT NULL,
	steps        INTEGER NOT NULL DEFAULT 0,
	started_at   TEXT NOT NULL,
	finished_at  TEXT
);

CREATE TABLE IF NOT EXISTS step_log (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id          TEXT NOT NULL,
	step            INTEGER NOT NULL,
	anchor          TEXT NOT NULL,
	harmonic        REAL NOT NULL,
	scales_json     TEXT,
	mode            TEXT,
	attention       TEXT,
	memory_priority REAL NOT NULL,
	created_at      TEXT NOT NULL,
	UNIQUE (run_id, step),
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);
`
// #endregion schema

// timeLayout is fixed width so started_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrRunNotFound is returned when a run id has no row.
var ErrRunNotFound = errors.New("run not found")

// #region store-struct
// Store records runs and their per-step log in SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}
// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// pragmas are per connection, and ":memory:" is per connection too
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}
// #endregion constructor

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by the logging package.
func (s *Store) DB() *sql.DB {
	return s.db
}

// #region create-run
// CreateRun inserts a new running run with a fresh id.
func (s *Store) CreateRun(configJSON string) (Run, error) {
	run := Run{
		ID:         uuid.New().String(),
		ConfigJSON: configJSON,
		Status:     StatusRunning,
		StartedAt:  s.now(),
	}
	_, err := s.db.Exec(
		`INSERT INTO runs (run_id, config_json, status, steps, started_at) VALUES (?, ?, ?, 0, ?)`,
		run.ID, run.ConfigJSON, run.Status, run.StartedAt.Format(timeLayout),
	)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}
// #endregion create-run

// #region finish-run
// FinishRun records the final step count and status of a run.
func (s *Store) FinishRun(id string, steps uint64, status string) error {
	switch status {
	case StatusFinished, StatusCancelled:
	default:
		return fmt.Errorf("finish run %s: invalid status %q", id, status)
	}
	res, err := s.db.Exec(
		`UPDATE runs SET status = ?, steps = ?, finished_at = ? WHERE run_id = ?`,
		status, int64(steps), s.now().Format(timeLayout), id,
	)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("finish run %s: %w", id, ErrRunNotFound)
	}
	return nil
}
// #endregion finish-run

// #region get-run
// GetRun retrieves a run by id.
func (s *Store) GetRun(id string) (Run, error) {
	run, err := scanRun(s.db.QueryRow(
		`SELECT run_id, config_json, status, steps, started_at, finished_at FROM runs WHERE run_id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("get run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run %s: %w", id, err)
	}
	return run, nil
}
// #endregion get-run

// #region list-runs
// ListRuns returns the most recent runs first.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(
		`SELECT run_id, config_json, status, steps, started_at, finished_at
		 FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
// #endregion list-runs

// #region steps
// Steps returns the logged steps of a run in step order. limit <= 0 returns
// all of them.
func (s *Store) Steps(runID string, limit int) ([]logging.StepEntry, error) {
	if _, err := s.GetRun(runID); err != nil {
		return nil, err
	}
	return logging.ReadSteps(s.db, runID, limit)
}
// #endregion steps

// #region scan
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (Run, error) {
	var run Run
	var steps int64
	var startedStr string
	var finishedStr sql.NullString
	if err := row.Scan(&run.ID, &run.ConfigJSON, &run.Status, &steps, &startedStr, &finishedStr); err != nil {
		return Run{}, err
	}
	run.Steps = uint64(steps)
	run.StartedAt, _ = time.Parse(timeLayout, startedStr)
	if finishedStr.Valid {
		run.FinishedAt, _ = time.Parse(timeLayout, finishedStr.String)
	}
	return run, nil
}
// #endregion scan
