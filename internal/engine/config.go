package engine

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/tau-anchor/internal/anchor"
	"github.com/danielpatrickdp/tau-anchor/internal/crystal"
	"github.com/danielpatrickdp/tau-anchor/internal/faults"
	"github.com/danielpatrickdp/tau-anchor/internal/harmonic"
	"github.com/danielpatrickdp/tau-anchor/internal/hints"
	"github.com/danielpatrickdp/tau-anchor/internal/history"
)

// #region config

// Config bundles every construction-time value of a run. Nothing in it
// changes once the engine is built.
type Config struct {
	Oscillators crystal.EnsembleConfig `json:"oscillators"`
	Weights     harmonic.Weights       `json:"weights"`
	Classifier  anchor.Config          `json:"classifier"`
	Hints       hints.Config           `json:"hints"`
	HistoryCap  int                    `json:"history_cap"`
}

// DefaultConfig returns the standard four-crystal ensemble and policies.
func DefaultConfig() Config {
	return Config{
		Oscillators: crystal.DefaultEnsembleConfig(),
		Weights:     harmonic.DefaultWeights(),
		Classifier:  anchor.DefaultConfig(),
		Hints:       hints.DefaultConfig(),
		HistoryCap:  history.DefaultCapacity,
	}
}

// Validate checks the whole bundle without building anything.
func (c Config) Validate() error {
	if len(c.Oscillators) == 0 {
		return faults.Configf("oscillators", "required")
	}
	if _, err := crystal.NewEnsemble(c.Oscillators); err != nil {
		return err
	}
	if err := harmonic.Validate(c.Weights); err != nil {
		return err
	}
	if err := c.Classifier.Validate(); err != nil {
		return err
	}
	if err := c.Hints.Validate(); err != nil {
		return err
	}
	if c.HistoryCap <= 0 {
		return faults.Configf("history_cap", "must be > 0, got %d", c.HistoryCap)
	}
	return nil
}

// #endregion config

// #region config-loader

// LoadConfig reads a JSON config file. Fields absent from the file keep
// their DefaultConfig values; per-scale entries replace the default for that
// scale as a whole.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes JSON over DefaultConfig and validates the result.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// #endregion config-loader
