package harmonic

import (
	"math"

	"github.com/danielpatrickdp/tau-anchor/internal/crystal"
	"github.com/danielpatrickdp/tau-anchor/internal/faults"
)

// #region weights

// Weights holds one combination weight per scale. Weights need not sum to 1
// and are fixed for the life of a run.
type Weights map[crystal.Scale]float64

// DefaultWeights returns the standard per-scale mix.
func DefaultWeights() Weights {
	return Weights{
		crystal.Micro: 0.1,
		crystal.Meso:  0.4,
		crystal.Macro: 0.3,
		crystal.Ultra: 0.2,
	}
}

// Validate checks that w names exactly the four scales with finite weights.
func Validate(w Weights) error {
	if err := sameKeys("weights", w); err != nil {
		return err
	}
	for _, s := range crystal.Scales {
		if v := w[s]; math.IsNaN(v) || math.IsInf(v, 0) {
			return faults.Configf("weights."+string(s), "must be finite, got %v", v)
		}
	}
	return nil
}

// Clone returns an independent copy so a run cannot be mutated through the
// caller's map.
func (w Weights) Clone() Weights {
	out := make(Weights, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

// #endregion weights

// #region combine

// Combine returns the harmonic field: the weighted sum of values over the
// four scales, accumulated in crystal.Scales order so the result is
// bit-reproducible. Both maps must carry exactly the four scales.
func Combine(values crystal.Values, weights Weights) (float64, error) {
	if err := sameKeys("values", values); err != nil {
		return 0, err
	}
	if err := sameKeys("weights", weights); err != nil {
		return 0, err
	}
	var sum float64
	for _, s := range crystal.Scales {
		// The conversion forces rounding of the product, so no fused multiply-add.
		sum += float64(weights[s] * values[s])
	}
	return sum, nil
}

// #endregion combine

// #region helpers

func sameKeys[M ~map[crystal.Scale]float64](field string, m M) error {
	for _, s := range crystal.Scales {
		if _, ok := m[s]; !ok {
			return faults.Configf(field, "missing scale %q", s)
		}
	}
	if len(m) != crystal.NumScales {
		for k := range m {
			if !k.Valid() {
				return faults.Configf(field, "unknown scale %q", k)
			}
		}
	}
	return nil
}

// #endregion helpers
