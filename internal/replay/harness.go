package replay

import (
	"fmt"
	"math"
	"time"

	"github.com/danielpatrickdp/tau-anchor/internal/anchor"
	"github.com/danielpatrickdp/tau-anchor/internal/engine"
	"github.com/danielpatrickdp/tau-anchor/internal/logging"
)

// #region types
// Result is the reproducible part of one step.
type Result struct {
	Step     uint64
	Anchor   anchor.State
	Harmonic float64
}

// Mismatch describes one step where two runs disagree.
type Mismatch struct {
	Step     uint64
	Field    string // "anchor" | "harmonic" | "missing"
	Expected string
	Actual   string
}

func (m Mismatch) String() string {
	return fmt.Sprintf("step %d: %s expected %s, got %s", m.Step, m.Field, m.Expected, m.Actual)
}

// Summary aggregates a comparison.
type Summary struct {
	Compared   int
	Mismatches []Mismatch
	Anchors    map[anchor.State]int // counts over the replayed run
}

// OK reports whether the runs agreed everywhere.
func (s Summary) OK() bool { return len(s.Mismatches) == 0 }

// #endregion types

// #region replay
// Replay builds a fresh engine from cfg and records steps results. The wall
// clock is pinned so nothing time dependent leaks into the run.
func Replay(cfg engine.Config, steps int) ([]Result, error) {
	if steps < 0 {
		return nil, fmt.Errorf("replay: steps must be >= 0, got %d", steps)
	}
	eng, err := engine.New(cfg, engine.WithClock(func() time.Time { return time.Time{} }))
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	results := make([]Result, 0, steps)
	for i := 0; i < steps; i++ {
		rec, err := eng.Step()
		if err != nil {
			return results, fmt.Errorf("replay: %w", err)
		}
		results = append(results, Result{Step: rec.Step, Anchor: rec.Anchor, Harmonic: rec.Harmonic})
	}
	return results, nil
}
// #endregion replay

// #region compare
// Compare matches expected against actual by step number. A tolerance of
// zero demands bit-identical harmonics. Expected steps absent from actual
// are reported as missing; extra actual steps are ignored.
func Compare(expected, actual []Result, tolerance float64) Summary {
	byStep := make(map[uint64]Result, len(actual))
	sum := Summary{Anchors: make(map[anchor.State]int, len(anchor.States))}
	for _, r := range actual {
		byStep[r.Step] = r
		sum.Anchors[r.Anchor]++
	}

	for _, exp := range expected {
		act, ok := byStep[exp.Step]
		if !ok {
			sum.Mismatches = append(sum.Mismatches, Mismatch{
				Step: exp.Step, Field: "missing", Expected: exp.Anchor.String(), Actual: "-",
			})
			continue
		}
		sum.Compared++
		if act.Anchor != exp.Anchor {
			sum.Mismatches = append(sum.Mismatches, Mismatch{
				Step: exp.Step, Field: "anchor", Expected: exp.Anchor.String(), Actual: act.Anchor.String(),
			})
		}
		if !harmonicEqual(exp.Harmonic, act.Harmonic, tolerance) {
			sum.Mismatches = append(sum.Mismatches, Mismatch{
				Step:     exp.Step,
				Field:    "harmonic",
				Expected: fmt.Sprintf("%.17g", exp.Harmonic),
				Actual:   fmt.Sprintf("%.17g", act.Harmonic),
			})
		}
	}
	return sum
}

func harmonicEqual(a, b, tolerance float64) bool {
	if tolerance <= 0 {
		return math.Float64bits(a) == math.Float64bits(b)
	}
	return math.Abs(a-b) <= tolerance
}
// #endregion compare

// #region from-log
// FromEntries converts logged steps back into results.
func FromEntries(entries []logging.StepEntry) ([]Result, error) {
	out := make([]Result, 0, len(entries))
	for _, e := range entries {
		a, err := anchor.ParseState(e.Anchor)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", e.Step, err)
		}
		out = append(out, Result{Step: e.Step, Anchor: a, Harmonic: e.Harmonic})
	}
	return out, nil
}
// #endregion from-log
