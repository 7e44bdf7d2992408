package logging

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/danielpatrickdp/tau-anchor/internal/engine"
)

// #region step-entry
// StepEntry is a single row in the step_log table.
type StepEntry struct {
	RunID          string
	Step           uint64
	Anchor         string
	Harmonic       float64
	ScalesJSON     string // per-scale oscillator values, may be empty
	Mode           string
	Attention      string
	MemoryPriority float64
	CreatedAt      time.Time
}
// #endregion step-entry

// #region from-record
// FromRecord flattens an engine record into a step_log row for runID.
func FromRecord(runID string, rec engine.Record) (StepEntry, error) {
	entry := StepEntry{
		RunID:          runID,
		Step:           rec.Step,
		Anchor:         rec.Anchor.String(),
		Harmonic:       rec.Harmonic,
		Mode:           string(rec.Hints.Mode),
		Attention:      string(rec.Hints.Attention),
		MemoryPriority: rec.Hints.MemoryPriority,
		CreatedAt:      rec.Timestamp.UTC(),
	}
	if len(rec.Scales) > 0 {
		b, err := json.Marshal(rec.Scales)
		if err != nil {
			return StepEntry{}, fmt.Errorf("marshal scales: %w", err)
		}
		entry.ScalesJSON = string(b)
	}
	return entry, nil
}
// #endregion from-record
