// Package feature defines the eight-element weighted behavioral feature model
// and validates raw caller input against it. Weights are fixed at
// construction from the constants module; callers supply only scores.
package feature

import (
	"github.com/commonground/dismissal-detection/go-engine/internal/config"
)

// #region model

// Model validates raw feature input against the configured feature set.
type Model struct {
	cfg config.Config
}

// NewModel creates a feature model bound to one constant set.
func NewModel(cfg config.Config) *Model {
	return &Model{cfg: cfg}
}

// Config returns the constant set the model was built with.
func (m *Model) Config() config.Config {
	return m.cfg
}

// #endregion model

// #region validate

// Validate checks a raw key-to-score mapping and returns the ordered vector.
// The input must contain exactly the configured keys, each scored in [0, 1].
// No side effects; the input map is never mutated.
func (m *Model) Validate(raw map[string]float64) (Vector, error) {
	if len(raw) != len(m.cfg.Features) {
		return nil, &ValidationError{Reason: "wrong_count"}
	}
	for key := range raw {
		if m.cfg.FeatureIndex(key) < 0 {
			return nil, &ValidationError{Key: key, Reason: "unknown_key"}
		}
	}

	vec := make(Vector, 0, len(m.cfg.Features))
	for _, fw := range m.cfg.Features {
		score, ok := raw[fw.Key]
		if !ok {
			return nil, &ValidationError{Key: fw.Key, Reason: "missing_key"}
		}
		if score < 0.0 || score > 1.0 {
			return nil, &OutOfRangeError{Key: fw.Key, Value: score}
		}
		vec = append(vec, ScoredFeature{Key: fw.Key, Weight: fw.Weight, Score: score})
	}
	return vec, nil
}

// #endregion validate

// #region validate-aux

// ValidateAux checks an auxiliary protected-variable mapping. Keys are
// optional but must come from the configured set; values must be in [0, 1].
// Returns a copy, never the caller's map.
func (m *Model) ValidateAux(raw map[string]float64) (map[string]float64, error) {
	out := make(map[string]float64, len(raw))
	for key, val := range raw {
		if !m.cfg.IsAuxKey(key) {
			return nil, &ValidationError{Key: key, Reason: "unknown_aux_key"}
		}
		if val < 0.0 || val > 1.0 {
			return nil, &OutOfRangeError{Key: key, Value: val}
		}
		out[key] = val
	}
	return out, nil
}

// #endregion validate-aux
