package anchor

import (
	"fmt"
	"math"

	"github.com/danielpatrickdp/tau-anchor/internal/faults"
)

// #region state

// State is the symbolic classification of the harmonic field.
type State int

const (
	Init State = iota
	FlowPlus
	FlowMinus
	Sync
)

var stateNames = [...]string{
	Init:      "INIT",
	FlowPlus:  "FLOW_PLUS",
	FlowMinus: "FLOW_MINUS",
	Sync:      "SYNC",
}

// States lists every anchor in declaration order.
var States = [...]State{Init, FlowPlus, FlowMinus, Sync}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Symbol is the one-character form used in rolling anchor patterns.
func (s State) Symbol() byte {
	switch s {
	case FlowPlus:
		return '+'
	case FlowMinus:
		return '-'
	default:
		return '0'
	}
}

// ParseState is the inverse of String.
func ParseState(name string) (State, error) {
	for i, n := range stateNames {
		if n == name {
			return State(i), nil
		}
	}
	return Init, &faults.InvalidArgumentError{Arg: "anchor", Value: name, Reason: "unknown anchor state"}
}

func (s State) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(stateNames) {
		return nil, fmt.Errorf("marshal anchor: unknown state %d", int(s))
	}
	return []byte(stateNames[s]), nil
}

func (s *State) UnmarshalText(b []byte) error {
	v, err := ParseState(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// #endregion state

// #region config

// Config holds the two independent threshold magnitudes.
type Config struct {
	ThetaPlus  float64 `json:"theta_plus"`  // v >= ThetaPlus → FLOW_PLUS
	ThetaMinus float64 `json:"theta_minus"` // v <= -ThetaMinus → FLOW_MINUS
}

// DefaultConfig returns symmetric 0.3 thresholds.
func DefaultConfig() Config {
	return Config{ThetaPlus: 0.3, ThetaMinus: 0.3}
}

// Validate rejects negative or non-finite thresholds.
func (c Config) Validate() error {
	if math.IsNaN(c.ThetaPlus) || math.IsInf(c.ThetaPlus, 0) || c.ThetaPlus < 0 {
		return faults.Configf("classifier.theta_plus", "must be finite and >= 0, got %v", c.ThetaPlus)
	}
	if math.IsNaN(c.ThetaMinus) || math.IsInf(c.ThetaMinus, 0) || c.ThetaMinus < 0 {
		return faults.Configf("classifier.theta_minus", "must be finite and >= 0, got %v", c.ThetaMinus)
	}
	return nil
}

// #endregion config

// #region classifier

// History is the part of the history buffer the classifier reads.
type History interface {
	Len() int
}

// Classifier maps a harmonic value to an anchor. It keeps no state between calls.
type Classifier struct {
	config Config
}

// NewClassifier validates config and returns a classifier.
func NewClassifier(config Config) (*Classifier, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Classifier{config: config}, nil
}

// Classify returns INIT for an empty history; otherwise FLOW_PLUS, FLOW_MINUS
// or SYNC by threshold. Both thresholds are inclusive on the FLOW side.
func (c *Classifier) Classify(v float64, h History) State {
	if h == nil || h.Len() == 0 {
		return Init
	}
	switch {
	case v >= c.config.ThetaPlus:
		return FlowPlus
	case v <= -c.config.ThetaMinus:
		return FlowMinus
	default:
		return Sync
	}
}

// Config returns the thresholds in use.
func (c *Classifier) Config() Config { return c.config }

// #endregion classifier
