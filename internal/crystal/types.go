package crystal

import "math"

// #region scale

// Scale names one of the four fixed oscillator bands.
type Scale string

const (
	Micro Scale = "micro"
	Meso  Scale = "meso"
	Macro Scale = "macro"
	Ultra Scale = "ultra"
)

// NumScales is the size of the closed scale set.
const NumScales = 4

// Scales is the fixed evaluation order. Every per-scale loop iterates this array.
var Scales = [NumScales]Scale{Micro, Meso, Macro, Ultra}

// Index returns the position of s in Scales, or -1 for an unknown label.
func (s Scale) Index() int {
	for i, sc := range Scales {
		if sc == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is one of the four fixed scales.
func (s Scale) Valid() bool { return s.Index() >= 0 }

// #endregion scale

// #region values

// Values holds one oscillator output per scale for a single step.
type Values map[Scale]float64

// #endregion values

// #region config

// NoiseFunc is the injection point for phase noise. It is called once per
// Advance after the value is computed and its result is added to the phase
// together with the drift. Nothing in this package supplies one.
type NoiseFunc func(scale Scale, step uint64) float64

// OscillatorConfig holds the construction-time parameters of one oscillator.
type OscillatorConfig struct {
	Frequency float64   `json:"frequency"` // radians per step, > 0
	Phase     float64   `json:"phase"`     // initial phase
	Drift     float64   `json:"drift"`     // added to phase after every step
	Amplitude float64   `json:"amplitude"` // > 0
	Noise     NoiseFunc `json:"-"`
}

// EnsembleConfig maps each of the four scales to its oscillator parameters.
type EnsembleConfig map[Scale]OscillatorConfig

// DefaultEnsembleConfig returns the four standard crystals. Cycle rates are
// 10, 1, 0.1 and 0.01 cycles per 100 steps.
func DefaultEnsembleConfig() EnsembleConfig {
	return EnsembleConfig{
		Micro: {Frequency: cycleRate(10), Drift: 1e-3, Amplitude: 0.995},
		Meso:  {Frequency: cycleRate(1), Drift: 5e-4, Amplitude: 0.99},
		Macro: {Frequency: cycleRate(0.1), Drift: 2.5e-4, Amplitude: 0.985},
		Ultra: {Frequency: cycleRate(0.01), Drift: 1e-4, Amplitude: 0.98},
	}
}

// cycleRate converts cycles-per-100-steps into radians per step.
func cycleRate(cycles float64) float64 {
	return 2 * math.Pi * cycles / 100.0
}

// #endregion config
