package scoring

import "github.com/commonground/dismissal-detection/go-engine/internal/ladder"

// #region result

// Result is the derived score attached to an observation at creation. It is
// never persisted on its own.
type Result struct {
	// SeverityIndex is the normalized 0-100 weighted score.
	SeverityIndex float64 `json:"severity_index"`

	// Confidence in [0, 1], from the dispersion of the feature vector.
	// Values near the extremes read as an unambiguous signal; values
	// clustered at the midpoint read as ambiguous.
	Confidence float64 `json:"confidence"`

	Band ladder.Band `json:"band"`

	// Protected holds the auxiliary protected-variable breakdown.
	// Informational only: excluded from the severity computation.
	Protected map[string]float64 `json:"protected_variable_breakdown,omitempty"`

	// StageEstimate is the inferred 1-8 ladder position. Stage 9 appears
	// here only after an explicit confirmation, never from scoring.
	StageEstimate int `json:"escalation_stage_estimate"`

	// NextTest is the first falsifiable test without a pass/fail result,
	// or the all-complete sentinel.
	NextTest string `json:"recommended_next_test"`
}

// #endregion result
