package hints

import (
	"math"

	"github.com/danielpatrickdp/tau-anchor/internal/anchor"
	"github.com/danielpatrickdp/tau-anchor/internal/crystal"
	"github.com/danielpatrickdp/tau-anchor/internal/faults"
)

// #region types

// ProcessingMode is the behavioural hint derived from the anchor.
type ProcessingMode string

const (
	Predictive  ProcessingMode = "predictive"
	Reflective  ProcessingMode = "reflective"
	Present     ProcessingMode = "present"
	Exploratory ProcessingMode = "exploratory"
)

// Hints is recomputed every step and never stored by the core.
type Hints struct {
	Mode           ProcessingMode `json:"processing_mode"`
	Attention      crystal.Scale  `json:"attention_scale"` // micro, meso or macro
	MemoryPriority float64        `json:"memory_priority"`
}

// History is the part of the history buffer the deriver reads.
type History interface {
	Len() int
	Variance(k int) (float64, error)
}

// #endregion types

// #region config

// Config holds the variance bands and the memory-priority policy.
type Config struct {
	Window       int     `json:"window"`        // samples fed to the variance
	LowVariance  float64 `json:"low_variance"`  // variance < Low → macro
	HighVariance float64 `json:"high_variance"` // Low <= variance < High → meso, else micro

	MinPriority  float64                  `json:"min_priority"`
	MaxPriority  float64                  `json:"max_priority"`
	BasePriority map[anchor.State]float64 `json:"base_priority"`
	VarianceGain float64                  `json:"variance_gain"` // priority scale-up from tanh(variance)
}

// DefaultConfig returns the standard bands (low < 0.01 <= medium < 0.1 <= high)
// and anchor priorities.
func DefaultConfig() Config {
	return Config{
		Window:       20,
		LowVariance:  0.01,
		HighVariance: 0.1,
		MinPriority:  0,
		MaxPriority:  1,
		BasePriority: map[anchor.State]float64{
			anchor.FlowPlus:  0.8,
			anchor.FlowMinus: 0.9,
			anchor.Sync:      0.6,
			anchor.Init:      0.4,
		},
		VarianceGain: 0.25,
	}
}

// Validate checks bands, bounds and the FLOW-above-SYNC/INIT ordering of the
// base priorities.
func (c Config) Validate() error {
	if c.Window < 1 {
		return faults.Configf("hints.window", "must be >= 1, got %d", c.Window)
	}
	if !finite(c.LowVariance) || !finite(c.HighVariance) || c.LowVariance < 0 || c.HighVariance < c.LowVariance {
		return faults.Configf("hints.variance_bands", "need 0 <= low <= high, got low=%v high=%v", c.LowVariance, c.HighVariance)
	}
	if !finite(c.MinPriority) || !finite(c.MaxPriority) || c.MaxPriority < c.MinPriority {
		return faults.Configf("hints.priority_bounds", "need finite min <= max, got min=%v max=%v", c.MinPriority, c.MaxPriority)
	}
	if !finite(c.VarianceGain) || c.VarianceGain < 0 {
		return faults.Configf("hints.variance_gain", "must be finite and >= 0, got %v", c.VarianceGain)
	}
	for _, s := range anchor.States {
		v, ok := c.BasePriority[s]
		if !ok {
			return faults.Configf("hints.base_priority", "missing anchor %s", s)
		}
		if !finite(v) {
			return faults.Configf("hints.base_priority."+s.String(), "must be finite, got %v", v)
		}
	}
	lowFlow := math.Min(c.BasePriority[anchor.FlowPlus], c.BasePriority[anchor.FlowMinus])
	highRest := math.Max(c.BasePriority[anchor.Sync], c.BasePriority[anchor.Init])
	if lowFlow <= highRest {
		return faults.Configf("hints.base_priority", "FLOW priorities must exceed SYNC and INIT")
	}
	return nil
}

// #endregion config

// #region deriver

// Deriver turns the current anchor and recent history into Hints.
type Deriver struct {
	config Config
}

// NewDeriver validates config and returns a deriver.
func NewDeriver(config Config) (*Deriver, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	base := make(map[anchor.State]float64, len(config.BasePriority))
	for k, v := range config.BasePriority {
		base[k] = v
	}
	config.BasePriority = base
	return &Deriver{config: config}, nil
}

// Derive is a pure function of (a, h). An empty history yields the INIT
// defaults: exploratory, macro, base INIT priority.
func (d *Deriver) Derive(a anchor.State, h History) Hints {
	var variance float64
	if h != nil && h.Len() > 0 {
		// Window is validated >= 1, so Variance cannot reject it.
		variance, _ = h.Variance(d.config.Window)
	} else {
		a = anchor.Init
	}
	return Hints{
		Mode:           ModeFor(a),
		Attention:      d.attention(variance),
		MemoryPriority: d.memoryPriority(a, variance),
	}
}

// ModeFor maps an anchor to its processing mode.
func ModeFor(a anchor.State) ProcessingMode {
	switch a {
	case anchor.FlowPlus:
		return Predictive
	case anchor.FlowMinus:
		return Reflective
	case anchor.Sync:
		return Present
	default:
		return Exploratory
	}
}

// attention buckets the variance: calm fields favour the broad scale,
// turbulent ones the detailed scale. NaN lands in micro.
func (d *Deriver) attention(variance float64) crystal.Scale {
	switch {
	case variance < d.config.LowVariance:
		return crystal.Macro
	case variance < d.config.HighVariance:
		return crystal.Meso
	default:
		return crystal.Micro
	}
}

// memoryPriority = clamp(base * (1 + gain*tanh(variance))). tanh keeps the
// variance term in [0, 1) so unbounded harmonic growth cannot leak through.
func (d *Deriver) memoryPriority(a anchor.State, variance float64) float64 {
	base := d.config.BasePriority[a]
	boost := math.Tanh(variance)
	if math.IsNaN(boost) || boost < 0 {
		boost = 0
	}
	return clamp(base*(1+d.config.VarianceGain*boost), d.config.MinPriority, d.config.MaxPriority)
}

// Config returns the policy in use.
func (d *Deriver) Config() Config { return d.config }

// #endregion deriver

// #region helpers

// clamp restricts v to [lo, hi]; NaN maps to lo.
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// #endregion helpers
