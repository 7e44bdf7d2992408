package logging

import (
	"database/sql"
	"fmt"
	"time"
)

// #region log-step
// LogStep writes one entry to the step_log table.
func LogStep(db *sql.DB, entry StepEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("log step %d: empty run id", entry.Step)
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO step_log (run_id, step, anchor, harmonic, scales_json, mode, attention, memory_priority, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.RunID,
		int64(entry.Step),
		entry.Anchor,
		entry.Harmonic,
		nullIfEmpty(entry.ScalesJSON),
		nullIfEmpty(entry.Mode),
		nullIfEmpty(entry.Attention),
		entry.MemoryPriority,
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log step %d: %w", entry.Step, err)
	}
	return nil
}
// #endregion log-step

// #region read-steps
// ReadSteps returns the logged steps of runID in step order. limit <= 0
// returns every row.
func ReadSteps(db *sql.DB, runID string, limit int) ([]StepEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.Query(
		`SELECT run_id, step, anchor, harmonic, scales_json, mode, attention, memory_priority, created_at
		 FROM step_log WHERE run_id = ? ORDER BY step ASC LIMIT ?`, runID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("read steps: %w", err)
	}
	defer rows.Close()

	var entries []StepEntry
	for rows.Next() {
		var e StepEntry
		var step int64
		var scalesJSON, mode, attention sql.NullString
		var createdStr string
		if err := rows.Scan(&e.RunID, &step, &e.Anchor, &e.Harmonic, &scalesJSON,
			&mode, &attention, &e.MemoryPriority, &createdStr); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		e.Step = uint64(step)
		e.ScalesJSON = scalesJSON.String
		e.Mode = mode.String
		e.Attention = attention.String
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
// #endregion read-steps

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
// #endregion helpers
