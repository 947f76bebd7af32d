package feature

import "fmt"

// #region scored-feature

// ScoredFeature is one element of a validated vector: a feature key, its
// fixed weight, and the submitted score in [0, 1].
type ScoredFeature struct {
	Key    string  `json:"key"`
	Weight float64 `json:"weight"`
	Score  float64 `json:"score"`
}

// #endregion scored-feature

// #region vector

// Vector is a validated, ordered eight-element feature vector. Order follows
// the configured feature model. Construct only through Model.Validate.
type Vector []ScoredFeature

// Map returns the vector as a key-to-score mapping, the wire/storage form.
func (v Vector) Map() map[string]float64 {
	m := make(map[string]float64, len(v))
	for _, f := range v {
		m[f.Key] = f.Score
	}
	return m
}

// WeightedSum returns the sum of score*weight over all features.
func (v Vector) WeightedSum() float64 {
	var sum float64
	for _, f := range v {
		sum += f.Score * f.Weight
	}
	return sum
}

// TopContribution returns the ordered position and key of the feature with
// the highest weighted contribution. Ties resolve to the later (higher
// weight class) position so the result is deterministic.
func (v Vector) TopContribution() (pos int, key string) {
	if len(v) == 0 {
		return 0, ""
	}
	best := -1.0
	for i, f := range v {
		if c := f.Score * f.Weight; c >= best {
			best = c
			pos = i
		}
	}
	return pos, v[pos].Key
}

// #endregion vector

// #region validation-error

// ValidationError reports malformed caller input: a bad feature vector,
// auxiliary signal set, or test update.
type ValidationError struct {
	Key    string // offending key, empty for count mismatches
	Reason string // e.g. "missing_key", "unknown_key", "wrong_count", "unknown_aux_key"
}

func (e *ValidationError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("validation failed: %s (%s)", e.Reason, e.Key)
}

// OutOfRangeError reports a feature or auxiliary value outside [0, 1].
// Values are rejected, never clamped.
type OutOfRangeError struct {
	Key   string
	Value float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("feature %q value %v outside [0.0, 1.0]", e.Key, e.Value)
}

// #endregion validation-error
