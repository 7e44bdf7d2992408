package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/tau-anchor/internal/anchor"
	"github.com/danielpatrickdp/tau-anchor/internal/engine"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture. Config is
// decoded over engine.DefaultConfig, so a fixture only lists what it changes.
type Fixture struct {
	Description string            `json:"description"`
	Config      json.RawMessage   `json:"config"`
	Steps       int               `json:"steps"`
	Tolerance   float64           `json:"tolerance"`
	Expected    []FixtureExpected `json:"expected"`
}

// FixtureExpected is one expected step.
type FixtureExpected struct {
	Step     uint64       `json:"step"`
	Anchor   anchor.State `json:"anchor"`
	Harmonic float64      `json:"harmonic"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if f.Steps <= 0 {
		f.Steps = len(f.Expected)
	}
	return &f, nil
}

// EngineConfig decodes the fixture's config section.
func (f *Fixture) EngineConfig() (engine.Config, error) {
	if len(f.Config) == 0 {
		return engine.DefaultConfig(), nil
	}
	cfg, err := engine.ParseConfig(f.Config)
	if err != nil {
		return engine.Config{}, fmt.Errorf("fixture config: %w", err)
	}
	return cfg, nil
}

// ExpectedResults converts the expected steps to results.
func (f *Fixture) ExpectedResults() []Result {
	out := make([]Result, len(f.Expected))
	for i, e := range f.Expected {
		out[i] = Result{Step: e.Step, Anchor: e.Anchor, Harmonic: e.Harmonic}
	}
	return out
}

// Run replays the fixture and compares it against its expectations.
func (f *Fixture) Run() (Summary, error) {
	cfg, err := f.EngineConfig()
	if err != nil {
		return Summary{}, err
	}
	actual, err := Replay(cfg, f.Steps)
	if err != nil {
		return Summary{}, err
	}
	return Compare(f.ExpectedResults(), actual, f.Tolerance), nil
}

// #endregion fixture-loader
