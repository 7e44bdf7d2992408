package logging

import (
	"database/sql"
	"math"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/tau-anchor/internal/anchor"
	"github.com/danielpatrickdp/tau-anchor/internal/crystal"
	"github.com/danielpatrickdp/tau-anchor/internal/engine"
	"github.com/danielpatrickdp/tau-anchor/internal/hints"
)

// #region helpers
func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	_, err = db.Exec(`CREATE TABLE step_log (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id          TEXT NOT NULL,
		step            INTEGER NOT NULL,
		anchor          TEXT NOT NULL,
		harmonic        REAL NOT NULL,
		scales_json     TEXT,
		mode            TEXT,
		attention       TEXT,
		memory_priority REAL NOT NULL,
		created_at      TEXT NOT NULL
	)`)
	if err != nil {
		t.Fatalf("create table: %v", err)
	}
	return db
}

// #endregion helpers

// #region from-record-tests
func TestFromRecord(t *testing.T) {
	rec := engine.Record{
		Step:      4,
		Anchor:    anchor.FlowPlus,
		Harmonic:  0.5,
		Timestamp: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Scales:    crystal.Values{crystal.Micro: 0.5},
		Hints: hints.Hints{
			Mode:           hints.Predictive,
			Attention:      crystal.Meso,
			MemoryPriority: 0.8,
		},
	}
	e, err := FromRecord("run-1", rec)
	if err != nil {
		t.Fatalf("FromRecord: %v", err)
	}
	if e.RunID != "run-1" || e.Step != 4 || e.Anchor != "FLOW_PLUS" {
		t.Errorf("unexpected entry: %+v", e)
	}
	if e.Mode != "predictive" || e.Attention != "meso" || e.MemoryPriority != 0.8 {
		t.Errorf("unexpected hints: %+v", e)
	}
	if e.ScalesJSON != `{"micro":0.5}` {
		t.Errorf("unexpected scales json: %s", e.ScalesJSON)
	}
}

func TestFromRecord_NoScales(t *testing.T) {
	e, err := FromRecord("run-1", engine.Record{})
	if err != nil {
		t.Fatalf("FromRecord: %v", err)
	}
	if e.ScalesJSON != "" {
		t.Errorf("expected empty scales json, got %q", e.ScalesJSON)
	}
}

// #endregion from-record-tests

// #region log-step-tests
func TestLogStep_Success(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	entry := StepEntry{
		RunID:          "r1",
		Step:           1,
		Anchor:         "FLOW_MINUS",
		Harmonic:       -math.Pi / 10,
		ScalesJSON:     `{"micro":-0.3}`,
		Mode:           "reflective",
		Attention:      "micro",
		MemoryPriority: 0.9,
		CreatedAt:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := LogStep(db, entry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := ReadSteps(db, "r1", 0)
	if err != nil {
		t.Fatalf("ReadSteps: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 row, got %d", len(got))
	}
	if got[0] != entry {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got[0], entry)
	}
	if math.Float64bits(got[0].Harmonic) != math.Float64bits(entry.Harmonic) {
		t.Error("harmonic lost precision in storage")
	}
}

func TestLogStep_ZeroCreatedAt(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	if err := LogStep(db, StepEntry{RunID: "r1", Anchor: "INIT"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var createdAt string
	db.QueryRow("SELECT created_at FROM step_log").Scan(&createdAt)
	if createdAt == "" {
		t.Error("expected created_at to be filled in")
	}
}

func TestLogStep_NullOptionalFields(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	if err := LogStep(db, StepEntry{RunID: "r1", Anchor: "INIT"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var scales, mode, attention sql.NullString
	db.QueryRow("SELECT scales_json, mode, attention FROM step_log").Scan(&scales, &mode, &attention)
	if scales.Valid || mode.Valid || attention.Valid {
		t.Error("expected NULL for empty optional fields")
	}
}

func TestLogStep_EmptyRunID(t *testing.T) {
	db := setupDB(t)
	defer db.Close()
	if err := LogStep(db, StepEntry{Anchor: "INIT"}); err == nil {
		t.Fatal("expected error for empty run id")
	}
}

func TestLogStep_Error(t *testing.T) {
	db := setupDB(t)
	db.Close() // close to force error

	if err := LogStep(db, StepEntry{RunID: "r1", Anchor: "INIT"}); err == nil {
		t.Fatal("expected error on closed db")
	}
}

// #endregion log-step-tests

// #region read-steps-tests
func TestReadSteps_OrderAndLimit(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	for _, step := range []uint64{2, 0, 1, 3} {
		LogStep(db, StepEntry{RunID: "r1", Step: step, Anchor: "SYNC"})
	}
	LogStep(db, StepEntry{RunID: "other", Step: 0, Anchor: "INIT"})

	all, err := ReadSteps(db, "r1", 0)
	if err != nil {
		t.Fatalf("ReadSteps: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(all))
	}
	for i, e := range all {
		if e.Step != uint64(i) {
			t.Errorf("row %d has step %d", i, e.Step)
		}
	}

	two, _ := ReadSteps(db, "r1", 2)
	if len(two) != 2 || two[1].Step != 1 {
		t.Errorf("expected first two steps, got %+v", two)
	}
}

// #endregion read-steps-tests

// #region null-if-empty-tests
func TestNullIfEmpty(t *testing.T) {
	if nullIfEmpty("") != nil {
		t.Error("expected nil for empty string")
	}
	if nullIfEmpty("hello") != "hello" {
		t.Error("expected passthrough for non-empty string")
	}
}

// #endregion null-if-empty-tests
