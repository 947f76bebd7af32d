// Package trend computes longitudinal severity statistics over one tracked
// subject's ordered observation history. It never reorders its input:
// silently re-sorting evidentiary data would hide caller bugs, so unsorted
// input is an error.
package trend

import (
	"errors"
	"math"
	"time"

	"github.com/commonground/dismissal-detection/go-engine/internal/config"
	"github.com/commonground/dismissal-detection/go-engine/internal/ladder"
	"github.com/commonground/dismissal-detection/go-engine/internal/lifecycle"
)

// ErrUnsorted reports observation history not sorted by creation time
// ascending. Sorting is the caller's responsibility.
var ErrUnsorted = errors.New("observations not sorted by creation time ascending")

// #region types

// Direction is the coarse longitudinal classification of severity change.
type Direction string

const (
	DirectionEscalating   Direction = "escalating"
	DirectionDeEscalating Direction = "de-escalating"
	DirectionStable       Direction = "stable"
	DirectionInsufficient Direction = "insufficient-data"
)

// Point is one time-series entry, carrying the original timestamp, index,
// and band for external rendering.
type Point struct {
	Timestamp     time.Time   `json:"timestamp"`
	SeverityIndex float64     `json:"severity_index"`
	Band          ladder.Band `json:"band"`
	Note          string      `json:"note,omitempty"`
}

// Report is the derived longitudinal summary. Read-only, never persisted.
type Report struct {
	SubjectRef       string    `json:"subject_ref"`
	Points           []Point   `json:"points"`
	ObservationCount int       `json:"observation_count"`
	DeltaSeverity    *float64  `json:"delta_severity"`      // last - first, nil below 2 points
	DeltaPerDay      *float64  `json:"delta_severity_per_day"`
	Direction        Direction `json:"trend_direction"`
}

// #endregion types

// #region analyzer

// Analyzer computes trend reports against one constant set.
type Analyzer struct {
	cfg config.Config
}

// NewAnalyzer creates a trend analyzer bound to one constant set.
func NewAnalyzer(cfg config.Config) *Analyzer {
	return &Analyzer{cfg: cfg}
}

// Analyze builds the trend report for a subject's observation history. The
// input must already be sorted by creation time ascending.
func (a *Analyzer) Analyze(subjectRef string, obs []lifecycle.Observation) (Report, error) {
	points := make([]Point, 0, len(obs))
	for i, o := range obs {
		if i > 0 && o.CreatedAt.Before(obs[i-1].CreatedAt) {
			return Report{}, ErrUnsorted
		}
		points = append(points, Point{
			Timestamp:     o.CreatedAt,
			SeverityIndex: o.Score.SeverityIndex,
			Band:          o.Score.Band,
			Note:          o.Context.Title,
		})
	}

	report := Report{
		SubjectRef:       subjectRef,
		Points:           points,
		ObservationCount: len(obs),
		Direction:        DirectionInsufficient,
	}
	if len(obs) < 2 {
		return report, nil
	}

	first, last := obs[0], obs[len(obs)-1]
	delta := last.Score.SeverityIndex - first.Score.SeverityIndex
	days := last.CreatedAt.Sub(first.CreatedAt).Hours() / 24
	perDay := delta / math.Max(1, days)

	report.DeltaSeverity = &delta
	report.DeltaPerDay = &perDay
	switch {
	case delta > a.cfg.TrendNoiseFloor:
		report.Direction = DirectionEscalating
	case delta < -a.cfg.TrendNoiseFloor:
		report.Direction = DirectionDeEscalating
	default:
		report.Direction = DirectionStable
	}
	return report, nil
}

// #endregion analyzer
