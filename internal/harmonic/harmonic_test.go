package harmonic

import (
	"errors"
	"math"
	"testing"

	"github.com/danielpatrickdp/tau-anchor/internal/crystal"
	"github.com/danielpatrickdp/tau-anchor/internal/faults"
)

func values(micro, meso, macro, ultra float64) crystal.Values {
	return crystal.Values{crystal.Micro: micro, crystal.Meso: meso, crystal.Macro: macro, crystal.Ultra: ultra}
}

// #region combine-tests

func TestCombine_WeightedSum(t *testing.T) {
	got, err := Combine(values(1, 1, 1, 1), DefaultWeights())
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if diff := math.Abs(got - 1.0); diff > 1e-12 {
		t.Errorf("expected ~1.0 for unit values and default weights, got %v", got)
	}
}

func TestCombine_SingleScale(t *testing.T) {
	w := Weights{crystal.Micro: 1, crystal.Meso: 0, crystal.Macro: 0, crystal.Ultra: 0}
	got, err := Combine(values(0.5, 9, -9, 3), w)
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if got != 0.5 {
		t.Errorf("expected 0.5, got %v", got)
	}
}

func TestCombine_ZeroWeights(t *testing.T) {
	w := Weights{crystal.Micro: 0, crystal.Meso: 0, crystal.Macro: 0, crystal.Ultra: 0}
	got, err := Combine(values(-0.9, 0.4, 1, -1), w)
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if got != 0 {
		t.Errorf("expected exactly 0, got %v", got)
	}
}

func TestCombine_MissingScale(t *testing.T) {
	tests := []struct {
		name string
		v    crystal.Values
		w    Weights
	}{
		{"values-missing", crystal.Values{crystal.Micro: 1, crystal.Meso: 1, crystal.Macro: 1}, DefaultWeights()},
		{"weights-missing", values(1, 1, 1, 1), Weights{crystal.Micro: 1}},
		{"weights-extra", values(1, 1, 1, 1), Weights{crystal.Micro: 1, crystal.Meso: 1, crystal.Macro: 1, crystal.Ultra: 1, "giga": 1}},
		{"values-nil", nil, DefaultWeights()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Combine(tt.v, tt.w)
			if !errors.Is(err, faults.ErrConfiguration) {
				t.Errorf("expected configuration error, got %v", err)
			}
		})
	}
}

// #endregion combine-tests

// #region validate-tests

func TestValidate(t *testing.T) {
	if err := Validate(DefaultWeights()); err != nil {
		t.Errorf("default weights should validate: %v", err)
	}
	bad := DefaultWeights()
	bad[crystal.Meso] = math.NaN()
	if err := Validate(bad); !errors.Is(err, faults.ErrConfiguration) {
		t.Errorf("expected configuration error for NaN weight, got %v", err)
	}
	missing := DefaultWeights()
	delete(missing, crystal.Ultra)
	if err := Validate(missing); !errors.Is(err, faults.ErrConfiguration) {
		t.Errorf("expected configuration error for missing weight, got %v", err)
	}
}

func TestClone_Independent(t *testing.T) {
	w := DefaultWeights()
	c := w.Clone()
	w[crystal.Micro] = 42
	if c[crystal.Micro] != 0.1 {
		t.Errorf("clone changed with original: %v", c[crystal.Micro])
	}
}

// #endregion validate-tests
