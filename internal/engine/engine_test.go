package engine

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielpatrickdp/tau-anchor/internal/anchor"
	"github.com/danielpatrickdp/tau-anchor/internal/crystal"
	"github.com/danielpatrickdp/tau-anchor/internal/faults"
	"github.com/danielpatrickdp/tau-anchor/internal/harmonic"
	"github.com/danielpatrickdp/tau-anchor/internal/hints"
)

// #region helpers

func mustEngine(t *testing.T, cfg Config, opts ...Option) *Engine {
	t.Helper()
	e, err := New(cfg, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func mustStep(t *testing.T, e *Engine) Record {
	t.Helper()
	rec, err := e.Step()
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	return rec
}

// #endregion helpers

// #region step-tests

func TestStep_FirstIsInitThenNever(t *testing.T) {
	e := mustEngine(t, DefaultConfig())
	first := mustStep(t, e)
	if first.Step != 0 || first.Anchor != anchor.Init {
		t.Fatalf("expected step 0 INIT, got step %d %s", first.Step, first.Anchor)
	}
	if first.Hints.Mode != hints.Exploratory {
		t.Errorf("expected exploratory mode at step 0, got %s", first.Hints.Mode)
	}
	for i := 1; i < 2000; i++ {
		rec := mustStep(t, e)
		if rec.Step != uint64(i) {
			t.Fatalf("expected step %d, got %d", i, rec.Step)
		}
		if rec.Anchor == anchor.Init {
			t.Fatalf("step %d: INIT after the first step", i)
		}
		if p := rec.Hints.MemoryPriority; p < 0 || p > 1 {
			t.Fatalf("step %d: priority %v out of range", i, p)
		}
	}
	if e.Steps() != 2000 {
		t.Errorf("expected 2000 steps taken, got %d", e.Steps())
	}
}

func TestStep_MicroOnlyScenario(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Weights = harmonic.Weights{crystal.Micro: 1, crystal.Meso: 0, crystal.Macro: 0, crystal.Ultra: 0}
	cfg.Oscillators[crystal.Micro] = crystal.OscillatorConfig{
		Frequency: 0.01,
		Phase:     math.Pi / 6, // sin(π/6) = 0.5
		Amplitude: 1.0,
	}
	e := mustEngine(t, cfg)

	r0 := mustStep(t, e)
	if math.Abs(r0.Harmonic-0.5) > 1e-12 {
		t.Errorf("step 0: expected harmonic 0.5, got %v", r0.Harmonic)
	}
	if r0.Anchor != anchor.Init {
		t.Errorf("step 0: expected INIT, got %s", r0.Anchor)
	}
	r1 := mustStep(t, e)
	if r1.Harmonic < 0.3 {
		t.Fatalf("step 1: expected harmonic >= 0.3, got %v", r1.Harmonic)
	}
	if r1.Anchor != anchor.FlowPlus {
		t.Errorf("step 1: expected FLOW_PLUS, got %s", r1.Anchor)
	}
	if r1.Hints.Mode != hints.Predictive {
		t.Errorf("step 1: expected predictive, got %s", r1.Hints.Mode)
	}
}

func TestStep_ZeroWeightsAlwaysSync(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Weights = harmonic.Weights{crystal.Micro: 0, crystal.Meso: 0, crystal.Macro: 0, crystal.Ultra: 0}
	e := mustEngine(t, cfg)
	for i := 0; i < 500; i++ {
		rec := mustStep(t, e)
		if rec.Harmonic != 0 {
			t.Fatalf("step %d: expected harmonic exactly 0, got %v", i, rec.Harmonic)
		}
		want := anchor.Sync
		if i == 0 {
			want = anchor.Init
		}
		if rec.Anchor != want {
			t.Fatalf("step %d: expected %s, got %s", i, want, rec.Anchor)
		}
		if i > 0 && rec.Hints.Attention != crystal.Macro {
			t.Fatalf("step %d: flat field should give macro attention, got %s", i, rec.Hints.Attention)
		}
	}
}

func TestStep_Deterministic(t *testing.T) {
	a := mustEngine(t, DefaultConfig())
	b := mustEngine(t, DefaultConfig())
	for i := 0; i < 5000; i++ {
		ra, rb := mustStep(t, a), mustStep(t, b)
		if ra.Anchor != rb.Anchor || math.Float64bits(ra.Harmonic) != math.Float64bits(rb.Harmonic) {
			t.Fatalf("step %d diverged: (%s,%v) vs (%s,%v)", i, ra.Anchor, ra.Harmonic, rb.Anchor, rb.Harmonic)
		}
		if ra.Hints != rb.Hints {
			t.Fatalf("step %d hints diverged: %+v vs %+v", i, ra.Hints, rb.Hints)
		}
	}
}

func TestStep_HistoryBounded(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HistoryCap = 50
	e := mustEngine(t, cfg)
	for i := 0; i < 180; i++ {
		mustStep(t, e)
	}
	h := e.History()
	if h.Len() != 50 {
		t.Fatalf("expected 50 entries, got %d", h.Len())
	}
	snap := h.Snapshot()
	if snap[0].Step != 130 || snap[49].Step != 179 {
		t.Errorf("expected steps 130..179, got %d..%d", snap[0].Step, snap[49].Step)
	}
}

func TestStep_UsesClock(t *testing.T) {
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	e := mustEngine(t, DefaultConfig(), WithClock(func() time.Time { return fixed }))
	rec := mustStep(t, e)
	if !rec.Timestamp.Equal(fixed) {
		t.Errorf("expected fixed timestamp, got %v", rec.Timestamp)
	}
}

func TestNew_WeightsCopied(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Weights = harmonic.Weights{crystal.Micro: 0, crystal.Meso: 0, crystal.Macro: 0, crystal.Ultra: 0}
	e := mustEngine(t, cfg)
	cfg.Weights[crystal.Micro] = 100
	mustStep(t, e)
	rec := mustStep(t, e)
	if rec.Harmonic != 0 {
		t.Errorf("caller mutation of weights leaked into run: harmonic %v", rec.Harmonic)
	}
}

// #endregion step-tests

// #region config-tests

func TestNew_InvalidConfig(t *testing.T) {
	mutate := []struct {
		name string
		fn   func(*Config)
	}{
		{"no-oscillators", func(c *Config) { c.Oscillators = nil }},
		{"missing-weight", func(c *Config) { delete(c.Weights, crystal.Meso) }},
		{"bad-history-cap", func(c *Config) { c.HistoryCap = 0 }},
		{"bad-threshold", func(c *Config) { c.Classifier.ThetaPlus = -1 }},
		{"bad-window", func(c *Config) { c.Hints.Window = 0 }},
		{"bad-amplitude", func(c *Config) {
			oc := c.Oscillators[crystal.Ultra]
			oc.Amplitude = 0
			c.Oscillators[crystal.Ultra] = oc
		}},
	}
	for _, m := range mutate {
		t.Run(m.name, func(t *testing.T) {
			cfg := DefaultConfig()
			m.fn(&cfg)
			if _, err := New(cfg); !errors.Is(err, faults.ErrConfiguration) {
				t.Errorf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestParseConfig_OverDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte(`{
		"weights": {"micro": 1, "meso": 0},
		"classifier": {"theta_plus": 0.5},
		"hints": {"base_priority": {"SYNC": 0.1}},
		"history_cap": 64
	}`))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.Weights[crystal.Micro] != 1 || cfg.Weights[crystal.Macro] != 0.3 {
		t.Errorf("unexpected weights: %v", cfg.Weights)
	}
	if cfg.Classifier.ThetaPlus != 0.5 || cfg.Classifier.ThetaMinus != 0.3 {
		t.Errorf("unexpected classifier: %+v", cfg.Classifier)
	}
	if cfg.Hints.BasePriority[anchor.Sync] != 0.1 || cfg.Hints.BasePriority[anchor.FlowPlus] != 0.8 {
		t.Errorf("unexpected base priority: %v", cfg.Hints.BasePriority)
	}
	if cfg.HistoryCap != 64 || cfg.Hints.Window != 20 {
		t.Errorf("unexpected cap/window: %d/%d", cfg.HistoryCap, cfg.Hints.Window)
	}
}

func TestParseConfig_Invalid(t *testing.T) {
	if _, err := ParseConfig([]byte(`{"weights": {"giga": 1}}`)); !errors.Is(err, faults.ErrConfiguration) {
		t.Errorf("expected configuration error for unknown scale, got %v", err)
	}
	if _, err := ParseConfig([]byte(`{not json}`)); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tau.json")
	if err := os.WriteFile(path, []byte(`{"history_cap": 10}`), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.HistoryCap != 10 {
		t.Errorf("expected history_cap 10, got %d", cfg.HistoryCap)
	}
	if _, err := LoadConfig(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

// #endregion config-tests
