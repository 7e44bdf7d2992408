package crystal

import (
	"math"

	"github.com/danielpatrickdp/tau-anchor/internal/faults"
)

// #region oscillator

// Oscillator is a single phase-driven sine generator (one tau crystal).
// Frequency and amplitude are fixed at construction; only the phase moves.
type Oscillator struct {
	scale     Scale
	frequency float64
	amplitude float64
	drift     float64
	phase     float64
	noise     NoiseFunc
}

// NewOscillator validates cfg and builds an oscillator for scale.
func NewOscillator(scale Scale, cfg OscillatorConfig) (*Oscillator, error) {
	field := "oscillators." + string(scale)
	if !scale.Valid() {
		return nil, faults.Configf("oscillators", "unknown scale %q", scale)
	}
	if !finite(cfg.Frequency) || cfg.Frequency <= 0 {
		return nil, faults.Configf(field+".frequency", "must be finite and > 0, got %v", cfg.Frequency)
	}
	if !finite(cfg.Amplitude) || cfg.Amplitude <= 0 {
		return nil, faults.Configf(field+".amplitude", "must be finite and > 0, got %v", cfg.Amplitude)
	}
	if !finite(cfg.Phase) {
		return nil, faults.Configf(field+".phase", "must be finite, got %v", cfg.Phase)
	}
	if !finite(cfg.Drift) {
		return nil, faults.Configf(field+".drift", "must be finite, got %v", cfg.Drift)
	}
	return &Oscillator{
		scale:     scale,
		frequency: cfg.Frequency,
		amplitude: cfg.Amplitude,
		drift:     cfg.Drift,
		phase:     cfg.Phase,
		noise:     cfg.Noise,
	}, nil
}

// Advance returns amplitude*sin(frequency*step + phase) and then moves the
// phase by the drift (plus the injected noise term, if any).
func (o *Oscillator) Advance(step uint64) float64 {
	// The conversion forces rounding of the product, so no fused multiply-add.
	v := o.amplitude * math.Sin(float64(o.frequency*float64(step))+o.phase)
	o.phase += o.drift
	if o.noise != nil {
		o.phase += o.noise(o.scale, step)
	}
	return v
}

// #endregion oscillator

// #region accessors

func (o *Oscillator) Scale() Scale { return o.scale }
func (o *Oscillator) Frequency() float64 { return o.frequency }
func (o *Oscillator) Amplitude() float64 { return o.amplitude }
func (o *Oscillator) Drift() float64 { return o.drift }
func (o *Oscillator) Phase() float64 { return o.phase }

// #endregion accessors

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
