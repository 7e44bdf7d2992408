package anchor

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/danielpatrickdp/tau-anchor/internal/faults"
)

type fakeHistory int

func (f fakeHistory) Len() int { return int(f) }

// #region classify-tests

func TestClassify_EmptyHistoryIsInit(t *testing.T) {
	c, _ := NewClassifier(DefaultConfig())
	for _, v := range []float64{-5, -0.3, 0, 0.3, 5} {
		if got := c.Classify(v, fakeHistory(0)); got != Init {
			t.Errorf("v=%v: expected INIT on empty history, got %s", v, got)
		}
	}
	if got := c.Classify(1, nil); got != Init {
		t.Errorf("expected INIT for nil history, got %s", got)
	}
}

func TestClassify_Thresholds(t *testing.T) {
	c, _ := NewClassifier(DefaultConfig())
	tests := []struct {
		name string
		v    float64
		want State
	}{
		{"far-positive", 2.0, FlowPlus},
		{"exact-plus", 0.3, FlowPlus},
		{"just-below-plus", math.Nextafter(0.3, 0), Sync},
		{"zero", 0, Sync},
		{"negative-zero", math.Copysign(0, -1), Sync},
		{"just-above-minus", math.Nextafter(-0.3, 0), Sync},
		{"exact-minus", -0.3, FlowMinus},
		{"far-negative", -2.0, FlowMinus},
		{"huge", math.MaxFloat64, FlowPlus},
		{"neg-inf", math.Inf(-1), FlowMinus},
		{"nan", math.NaN(), Sync},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Classify(tt.v, fakeHistory(3)); got != tt.want {
				t.Errorf("Classify(%v) = %s, want %s", tt.v, got, tt.want)
			}
		})
	}
}

func TestClassify_AsymmetricThresholds(t *testing.T) {
	c, err := NewClassifier(Config{ThetaPlus: 0.5, ThetaMinus: 0.1})
	if err != nil {
		t.Fatalf("NewClassifier: %v", err)
	}
	if got := c.Classify(0.4, fakeHistory(1)); got != Sync {
		t.Errorf("0.4 below theta_plus 0.5: expected SYNC, got %s", got)
	}
	if got := c.Classify(-0.1, fakeHistory(1)); got != FlowMinus {
		t.Errorf("-0.1 at theta_minus: expected FLOW_MINUS, got %s", got)
	}
}

func TestClassify_ExhaustiveAndExclusive(t *testing.T) {
	cfg := DefaultConfig()
	c, _ := NewClassifier(cfg)
	for i := -2000; i <= 2000; i++ {
		v := float64(i) / 1000
		got := c.Classify(v, fakeHistory(1))
		var want State
		switch {
		case v >= cfg.ThetaPlus:
			want = FlowPlus
		case v <= -cfg.ThetaMinus:
			want = FlowMinus
		default:
			want = Sync
		}
		if got != want {
			t.Fatalf("v=%v: got %s, want %s", v, got, want)
		}
		if got == Init {
			t.Fatalf("v=%v: INIT on non-empty history", v)
		}
	}
}

func TestNewClassifier_Invalid(t *testing.T) {
	for _, cfg := range []Config{
		{ThetaPlus: -0.1, ThetaMinus: 0.3},
		{ThetaPlus: 0.3, ThetaMinus: math.NaN()},
		{ThetaPlus: math.Inf(1), ThetaMinus: 0.3},
	} {
		if _, err := NewClassifier(cfg); !errors.Is(err, faults.ErrConfiguration) {
			t.Errorf("%+v: expected configuration error, got %v", cfg, err)
		}
	}
}

// #endregion classify-tests

// #region state-tests

func TestState_StringAndParse(t *testing.T) {
	for _, s := range States {
		got, err := ParseState(s.String())
		if err != nil {
			t.Fatalf("ParseState(%q): %v", s.String(), err)
		}
		if got != s {
			t.Errorf("round trip %s → %s", s, got)
		}
	}
	if _, err := ParseState("FLOW+"); !errors.Is(err, faults.ErrInvalidArgument) {
		t.Errorf("expected invalid argument for unknown name, got %v", err)
	}
	if State(9).String() != "State(9)" {
		t.Errorf("unexpected string for unknown state: %s", State(9))
	}
}

func TestState_Symbol(t *testing.T) {
	want := map[State]byte{Init: '0', FlowPlus: '+', FlowMinus: '-', Sync: '0'}
	for s, sym := range want {
		if s.Symbol() != sym {
			t.Errorf("%s: expected %q, got %q", s, sym, s.Symbol())
		}
	}
}

func TestState_JSON(t *testing.T) {
	b, err := json.Marshal(struct {
		A State `json:"anchor"`
	}{FlowMinus})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"anchor":"FLOW_MINUS"}` {
		t.Errorf("unexpected JSON: %s", b)
	}
	var out struct {
		A State `json:"anchor"`
	}
	if err := json.Unmarshal([]byte(`{"anchor":"SYNC"}`), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.A != Sync {
		t.Errorf("expected SYNC, got %s", out.A)
	}
}

// #endregion state-tests
