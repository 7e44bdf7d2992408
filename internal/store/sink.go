package store

import (
	"context"

	"github.com/danielpatrickdp/tau-anchor/internal/engine"
	"github.com/danielpatrickdp/tau-anchor/internal/logging"
)

// RunSink writes every record of one run to step_log. It satisfies
// telemetry.Sink so the dispatcher can drive it off the step loop.
type RunSink struct {
	store *Store
	runID string
}

// NewRunSink binds a sink to an existing run.
func (s *Store) NewRunSink(runID string) *RunSink {
	return &RunSink{store: s, runID: runID}
}

// Send logs one step.
func (r *RunSink) Send(_ context.Context, rec engine.Record) error {
	entry, err := logging.FromRecord(r.runID, rec)
	if err != nil {
		return err
	}
	return logging.LogStep(r.store.db, entry)
}

// Close is a no-op; the Store owns the database handle.
func (r *RunSink) Close() error { return nil }
