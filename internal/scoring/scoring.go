// Package scoring computes the severity index, confidence, and escalation
// estimate for a validated feature vector. Pure arithmetic: no I/O, no
// shared state, identical input always produces identical output.
package scoring

import (
	"math"

	"github.com/commonground/dismissal-detection/go-engine/internal/config"
	"github.com/commonground/dismissal-detection/go-engine/internal/feature"
	"github.com/commonground/dismissal-detection/go-engine/internal/ladder"
)

// #region engine

// Engine scores feature vectors against one constant set.
type Engine struct {
	cfg        config.Config
	classifier *ladder.Classifier
}

// NewEngine creates a scoring engine and its classifier from one constant set.
func NewEngine(cfg config.Config) *Engine {
	return &Engine{
		cfg:        cfg,
		classifier: ladder.NewClassifier(cfg),
	}
}

// Classifier exposes the engine's ladder classifier for callers that need
// band or label lookups without re-scoring.
func (e *Engine) Classifier() *ladder.Classifier {
	return e.classifier
}

// #endregion engine

// #region score

// Score computes the full result for a validated vector and an optional
// validated auxiliary signal set. The auxiliary values pass through into the
// protected-variable breakdown untouched; they never feed the severity
// index, the band, or the stage estimate.
func (e *Engine) Score(vec feature.Vector, aux map[string]float64) Result {
	index := e.severityIndex(vec)
	band, stage := e.classifier.Classify(index, vec)

	var protected map[string]float64
	if len(aux) > 0 {
		protected = make(map[string]float64, len(aux))
		for k, v := range aux {
			protected[k] = v
		}
	}

	return Result{
		SeverityIndex: index,
		Confidence:    confidence(vec),
		Band:          band,
		Protected:     protected,
		StageEstimate: stage,
		NextTest:      e.RecommendNext(nil),
	}
}

// severityIndex normalizes the weighted sum by the fixed maximum possible
// weighted sum, bounding the index to [0, 100] for any valid vector.
func (e *Engine) severityIndex(vec feature.Vector) float64 {
	maxSum := e.cfg.WeightSum()
	if maxSum == 0 {
		return 0
	}
	return 100 * vec.WeightedSum() / maxSum
}

// confidence is 1 minus the mean distance of each value from its nearest
// extreme. All-extreme vectors score 1.0; an all-midpoint vector scores 0.5.
func confidence(vec feature.Vector) float64 {
	if len(vec) == 0 {
		return 0
	}
	var total float64
	for _, f := range vec {
		total += math.Min(f.Score, 1.0-f.Score)
	}
	c := 1.0 - total/float64(len(vec))
	return math.Max(0.0, math.Min(1.0, c))
}

// #endregion score

// #region recommend-next

// RecommendNext returns the first configured falsifiable test not present in
// completed, or the all-complete sentinel. The fixed test order is part of
// the shared constant set.
func (e *Engine) RecommendNext(completed map[string]bool) string {
	for _, id := range e.cfg.Tests {
		if !completed[id] {
			return id
		}
	}
	return config.AllTestsComplete
}

// #endregion recommend-next
