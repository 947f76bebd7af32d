// Package ladder maps a severity index onto the coarse band and the fixed
// nine-stage escalation ladder. Automatic classification caps at stage 8:
// the terminal stage is structurally unreachable from here, whatever the
// index, and can only be recorded through an explicit confirmation elsewhere.
package ladder

import (
	"github.com/commonground/dismissal-detection/go-engine/internal/config"
	"github.com/commonground/dismissal-detection/go-engine/internal/feature"
)

// #region classifier

// MaxInferredStage is the highest stage automatic classification can return.
const MaxInferredStage = 8

// stageWidth is the severity-index span of each inferable stage (100 / 8).
const stageWidth = 12.5

// Classifier maps severity indices to bands and stage estimates.
type Classifier struct {
	cfg config.Config
}

// NewClassifier creates a classifier bound to one constant set.
func NewClassifier(cfg config.Config) *Classifier {
	return &Classifier{cfg: cfg}
}

// #endregion classifier

// #region band-for

// BandFor returns the band for a severity index using the fixed thresholds.
func (c *Classifier) BandFor(index float64) Band {
	switch {
	case index >= c.cfg.Bands.Critical:
		return BandCritical
	case index >= c.cfg.Bands.High:
		return BandHigh
	case index >= c.cfg.Bands.Medium:
		return BandMedium
	default:
		return BandLow
	}
}

// #endregion band-for

// #region classify

// Classify returns the band and the 1-8 stage estimate for a severity index.
// Stages cover equal sub-ranges of the index. An index sitting exactly on an
// interior boundary is ambiguous between the two adjacent stages; the
// feature with the single highest weighted contribution breaks the tie. If
// that feature belongs to a stage category above the boundary the higher
// stage wins, otherwise the lower. Deterministic for identical input.
func (c *Classifier) Classify(index float64, vec feature.Vector) (Band, int) {
	band := c.BandFor(index)

	stage := int(index/stageWidth) + 1
	if stage > MaxInferredStage {
		stage = MaxInferredStage
	}

	if onBoundary(index) && stage > 1 && stage <= MaxInferredStage {
		// index == (stage-1)*stageWidth: candidates are stage-1 and stage.
		pos, _ := vec.TopContribution()
		if pos+1 < stage {
			stage--
		}
	}

	return band, stage
}

// onBoundary reports whether index sits exactly on an interior stage boundary.
func onBoundary(index float64) bool {
	if index <= 0 || index >= 100 {
		return false
	}
	q := index / stageWidth
	return q == float64(int(q))
}

// #endregion classify

// #region stage-label

// StageLabel returns the canonical ladder label for a stage number.
func (c *Classifier) StageLabel(stage int) string {
	return c.cfg.StageLabel(stage)
}

// #endregion stage-label
