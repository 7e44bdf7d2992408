package engine

import (
	"fmt"
	"time"

	"github.com/danielpatrickdp/tau-anchor/internal/anchor"
	"github.com/danielpatrickdp/tau-anchor/internal/crystal"
	"github.com/danielpatrickdp/tau-anchor/internal/harmonic"
	"github.com/danielpatrickdp/tau-anchor/internal/hints"
	"github.com/danielpatrickdp/tau-anchor/internal/history"
)

// #region record

// Record is the per-step output handed to hosts, renderers and telemetry.
type Record struct {
	Step      uint64         `json:"step"`
	Anchor    anchor.State   `json:"anchor"`
	Harmonic  float64        `json:"harmonic"`
	Timestamp time.Time      `json:"timestamp"`
	Scales    crystal.Values `json:"scales"`
	Hints     hints.Hints    `json:"hints"`
}

// #endregion record

// #region engine

// Engine is one run: it owns the ensemble, the weights and the history
// buffer for the run's whole lifetime. One Step call advances exactly one
// step; the engine never blocks, spawns goroutines or touches I/O.
type Engine struct {
	config     Config
	ensemble   *crystal.Ensemble
	weights    harmonic.Weights
	classifier *anchor.Classifier
	deriver    *hints.Deriver
	history    *history.Buffer
	clock      func() time.Time
	step       uint64
}

// Option customises an Engine.
type Option func(*Engine)

// WithClock replaces the wall clock used for Record.Timestamp.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) { e.clock = clock }
}

// New validates cfg and builds a fresh run positioned at step 0.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	ens, err := crystal.NewEnsemble(cfg.Oscillators)
	if err != nil {
		return nil, fmt.Errorf("build ensemble: %w", err)
	}
	cls, err := anchor.NewClassifier(cfg.Classifier)
	if err != nil {
		return nil, fmt.Errorf("build classifier: %w", err)
	}
	der, err := hints.NewDeriver(cfg.Hints)
	if err != nil {
		return nil, fmt.Errorf("build deriver: %w", err)
	}
	buf, err := history.New(cfg.HistoryCap)
	if err != nil {
		return nil, fmt.Errorf("build history: %w", err)
	}
	e := &Engine{
		config:     cfg,
		ensemble:   ens,
		weights:    cfg.Weights.Clone(),
		classifier: cls,
		deriver:    der,
		history:    buf,
		clock:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Step runs the pipeline once: ensemble → combiner → classifier → history →
// deriver. The classifier sees the history as it was before this step, so
// the first step of a run is always INIT and no later step can be.
func (e *Engine) Step() (Record, error) {
	step := e.step
	scales := e.ensemble.Advance(step)
	h, err := harmonic.Combine(scales, e.weights)
	if err != nil {
		return Record{}, fmt.Errorf("step %d: %w", step, err)
	}
	a := e.classifier.Classify(h, e.history)
	e.history.Append(step, h, a)
	hs := e.deriver.Derive(a, e.history)
	e.step++

	return Record{
		Step:      step,
		Anchor:    a,
		Harmonic:  h,
		Timestamp: e.clock(),
		Scales:    scales,
		Hints:     hs,
	}, nil
}

// Steps is the number of steps taken so far (the index of the next step).
func (e *Engine) Steps() uint64 { return e.step }

// History exposes the live buffer to the owning goroutine. Other goroutines
// must work from History().Snapshot() taken on the owner's side.
func (e *Engine) History() *history.Buffer { return e.history }

// Config returns the configuration the run was built from.
func (e *Engine) Config() Config { return e.config }

// #endregion engine
