package host

import (
	"context"
	"fmt"

	"github.com/danielpatrickdp/tau-anchor/internal/anchor"
	"github.com/danielpatrickdp/tau-anchor/internal/engine"
)

// #region interfaces

// Stepper produces one record per call. *engine.Engine satisfies it.
type Stepper interface {
	Step() (engine.Record, error)
}

// Observer receives every record in step order on the loop goroutine.
// Observers that do I/O must hand the record off instead of blocking.
type Observer interface {
	Observe(rec engine.Record)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(rec engine.Record)

func (f ObserverFunc) Observe(rec engine.Record) { f(rec) }

// #endregion interfaces

// #region summary

// Summary aggregates a finished run.
type Summary struct {
	Steps     uint64
	Anchors   map[anchor.State]uint64
	Last      engine.Record
	Cancelled bool
}

// #endregion summary

// #region loop

// Loop drives a Stepper until Stop fires or ctx is cancelled. The stepper
// itself has no notion of running forever; the loop is the only place that
// repeats.
type Loop struct {
	Stepper   Stepper
	Stop      StopPredicate
	Observers []Observer
}

// Run steps until the stop predicate returns true, the context is done, or a
// step fails. Cancellation is checked between steps only; no step is ever
// interrupted half way.
func (l *Loop) Run(ctx context.Context) (Summary, error) {
	sum := Summary{Anchors: make(map[anchor.State]uint64, len(anchor.States))}
	stop := l.Stop
	if stop == nil {
		stop = AfterSteps(DefaultFiniteSteps)
	}

	for {
		select {
		case <-ctx.Done():
			sum.Cancelled = true
			return sum, nil
		default:
		}

		rec, err := l.Stepper.Step()
		if err != nil {
			return sum, fmt.Errorf("run step %d: %w", sum.Steps, err)
		}
		sum.Steps++
		sum.Anchors[rec.Anchor]++
		sum.Last = rec

		for _, o := range l.Observers {
			o.Observe(rec)
		}

		if stop(sum.Steps) {
			return sum, nil
		}
	}
}

// #endregion loop
