// Package config holds the versioned constants shared between the scoring
// engine and any client rendering its output: feature keys and weights, band
// thresholds, the escalation ladder labels, and the falsifiable-test set.
// Divergence between this set and a client's copy silently changes scoring
// semantics, so everything routes through one Config value.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// #region constants

// ConstantsVersion identifies the constant set schema. Bump whenever a key,
// weight, threshold, or label changes.
const ConstantsVersion = "1"

// AllTestsComplete is the sentinel returned as the recommended next test when
// every falsifiable test already has a pass/fail result.
const AllTestsComplete = "all_complete"

// Stage9 is the terminal ladder stage. It is never produced by automatic
// classification; only an explicit confirmation can set it.
const Stage9 = 9

// #endregion constants

// #region feature-weight

// FeatureWeight pairs a behavioral feature key with its fixed weight.
// Weights increase with severity category so later-stage behaviors dominate
// the weighted sum.
type FeatureWeight struct {
	Key    string  `yaml:"key"`
	Weight float64 `yaml:"weight"`
}

// #endregion feature-weight

// #region band-thresholds

// BandThresholds holds the severity-index cut points between bands.
// low < Medium, medium [Medium, High), high [High, Critical), critical >= Critical.
type BandThresholds struct {
	Medium   float64 `yaml:"medium"`
	High     float64 `yaml:"high"`
	Critical float64 `yaml:"critical"`
}

// #endregion band-thresholds

// #region config

// Config is the full constant set, injected into each component at
// construction. Tests substitute alternate sets without global state.
type Config struct {
	Version string `yaml:"version"`

	// Features is the ordered eight-element feature model. Order matters:
	// the stage tie-break uses a feature's position in this list.
	Features []FeatureWeight `yaml:"features"`

	// Aux lists the allowed protected-variable keys. Informational only,
	// never part of the severity computation.
	Aux []string `yaml:"aux"`

	Bands BandThresholds `yaml:"bands"`

	// Ladder is the nine canonical escalation stage labels, ordered.
	Ladder []string `yaml:"ladder"`

	// Tests is the fixed falsifiable-test order used for recommendations.
	Tests []string `yaml:"tests"`

	// MinCompletedTests is the minimum number of pass/fail test results
	// required before finalization.
	MinCompletedTests int `yaml:"min_completed_tests"`

	// TrendNoiseFloor is the delta-severity magnitude below which a trend
	// counts as stable.
	TrendNoiseFloor float64 `yaml:"trend_noise_floor"`
}

// #endregion config

// #region default

// Default returns the canonical constant set.
func Default() Config {
	return Config{
		Version: ConstantsVersion,
		Features: []FeatureWeight{
			{Key: "topic_avoidance", Weight: 0.6},
			{Key: "deflection", Weight: 0.7},
			{Key: "flat_denial", Weight: 1.0},
			{Key: "invalidation", Weight: 1.1},
			{Key: "normalization", Weight: 1.2},
			{Key: "substitution", Weight: 1.2},
			{Key: "zealous_insistence", Weight: 1.4},
			{Key: "erasure", Weight: 1.5},
		},
		Aux: []string{
			"identity_reference",
			"power_differential",
			"group_language",
		},
		Bands: BandThresholds{
			Medium:   25,
			High:     50,
			Critical: 75,
		},
		Ladder: []string{
			"ignoring",
			"deflection",
			"dismissal",
			"invalidation",
			"normalization",
			"substitution",
			"zealotry",
			"elimination",
			"death",
		},
		Tests: []string{
			"context-tolerance",
			"symmetry",
			"clarification",
		},
		MinCompletedTests: 1,
		TrendNoiseFloor:   5,
	}
}

// #endregion default

// #region load

// Load reads a YAML override file on top of the defaults. Missing fields keep
// their default values; the merged result is validated before return.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// #endregion load

// #region validate

// Validate checks the structural invariants of a constant set.
func (c Config) Validate() error {
	if len(c.Features) != 8 {
		return fmt.Errorf("expected 8 features, got %d", len(c.Features))
	}
	seen := make(map[string]bool, len(c.Features))
	for _, f := range c.Features {
		if f.Key == "" {
			return fmt.Errorf("feature with empty key")
		}
		if seen[f.Key] {
			return fmt.Errorf("duplicate feature key %q", f.Key)
		}
		seen[f.Key] = true
		if f.Weight <= 0 {
			return fmt.Errorf("feature %q has non-positive weight %v", f.Key, f.Weight)
		}
	}
	if len(c.Ladder) != 9 {
		return fmt.Errorf("expected 9 ladder stages, got %d", len(c.Ladder))
	}
	if len(c.Tests) == 0 {
		return fmt.Errorf("no falsifiable tests configured")
	}
	if !(c.Bands.Medium < c.Bands.High && c.Bands.High < c.Bands.Critical) {
		return fmt.Errorf("band thresholds must be strictly ascending: %v", c.Bands)
	}
	if c.MinCompletedTests < 1 {
		return fmt.Errorf("min_completed_tests must be at least 1, got %d", c.MinCompletedTests)
	}
	return nil
}

// #endregion validate

// #region helpers

// WeightSum returns the maximum possible weighted sum, the fixed severity
// normalization denominator.
func (c Config) WeightSum() float64 {
	var sum float64
	for _, f := range c.Features {
		sum += f.Weight
	}
	return sum
}

// FeatureIndex returns the position of a key in the ordered feature model,
// or -1 if the key is unknown.
func (c Config) FeatureIndex(key string) int {
	for i, f := range c.Features {
		if f.Key == key {
			return i
		}
	}
	return -1
}

// IsAuxKey reports whether key is an allowed protected-variable dimension.
func (c Config) IsAuxKey(key string) bool {
	for _, k := range c.Aux {
		if k == key {
			return true
		}
	}
	return false
}

// IsTest reports whether id is one of the configured falsifiable tests.
func (c Config) IsTest(id string) bool {
	for _, t := range c.Tests {
		if t == id {
			return true
		}
	}
	return false
}

// StageLabel returns the ladder label for a 1-based stage number.
func (c Config) StageLabel(stage int) string {
	if stage < 1 || stage > len(c.Ladder) {
		return ""
	}
	return c.Ladder[stage-1]
}

// #endregion helpers
