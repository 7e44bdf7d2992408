package crystal

import (
	"github.com/danielpatrickdp/tau-anchor/internal/faults"
)

// #region ensemble

// Ensemble owns exactly one Oscillator per scale. Membership is fixed at
// construction.
type Ensemble struct {
	oscillators [NumScales]*Oscillator
}

// NewEnsemble builds the four oscillators. cfg must name every scale and
// nothing else.
func NewEnsemble(cfg EnsembleConfig) (*Ensemble, error) {
	for s := range cfg {
		if !s.Valid() {
			return nil, faults.Configf("oscillators", "unknown scale %q", s)
		}
	}
	e := &Ensemble{}
	for i, s := range Scales {
		oc, ok := cfg[s]
		if !ok {
			return nil, faults.Configf("oscillators", "missing scale %q", s)
		}
		osc, err := NewOscillator(s, oc)
		if err != nil {
			return nil, err
		}
		e.oscillators[i] = osc
	}
	return e, nil
}

// Advance steps every oscillator in Scales order and returns one value per scale.
func (e *Ensemble) Advance(step uint64) Values {
	out := make(Values, NumScales)
	for i, s := range Scales {
		out[s] = e.oscillators[i].Advance(step)
	}
	return out
}

// Oscillator returns the oscillator for s, or nil for an unknown scale.
func (e *Ensemble) Oscillator(s Scale) *Oscillator {
	i := s.Index()
	if i < 0 {
		return nil
	}
	return e.oscillators[i]
}

// #endregion ensemble
