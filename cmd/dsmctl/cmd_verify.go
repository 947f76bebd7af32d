package main

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/commonground/dismissal-detection/go-engine/internal/config"
	"github.com/commonground/dismissal-detection/go-engine/internal/scoring"
)

// #region verify

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Re-score every stored observation and report divergence",
	Long: `Recompute the severity index, confidence, band, and stage estimate
for every stored observation from its stored feature vector, and compare
against the persisted score. Scoring is a pure function of its input, so any
divergence means the constant set changed since the observation was scored,
or the row was modified outside the engine.

Explicitly confirmed stage-9 records are compared on everything except the
stage.`,
	RunE: runVerify,
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if constantsPath != "" {
		var err error
		cfg, err = config.Load(constantsPath)
		if err != nil {
			return err
		}
	}

	_, st, cleanup, err := openEngine()
	if err != nil {
		return err
	}
	defer cleanup()

	records, err := st.ListAll()
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}

	scorer := scoring.NewEngine(cfg)
	divergent := 0
	for _, rec := range records {
		obs := rec.Observation
		fresh := scorer.Score(obs.Vector, obs.Score.Protected)

		var problems []string
		if math.Abs(fresh.SeverityIndex-obs.Score.SeverityIndex) > 1e-9 {
			problems = append(problems, fmt.Sprintf("severity %.4f != %.4f", obs.Score.SeverityIndex, fresh.SeverityIndex))
		}
		if math.Abs(fresh.Confidence-obs.Score.Confidence) > 1e-9 {
			problems = append(problems, fmt.Sprintf("confidence %.4f != %.4f", obs.Score.Confidence, fresh.Confidence))
		}
		if fresh.Band != obs.Score.Band {
			problems = append(problems, fmt.Sprintf("band %s != %s", obs.Score.Band, fresh.Band))
		}
		if !obs.Stage9Confirmed && fresh.StageEstimate != obs.Score.StageEstimate {
			problems = append(problems, fmt.Sprintf("stage %d != %d", obs.Score.StageEstimate, fresh.StageEstimate))
		}

		if len(problems) > 0 {
			divergent++
			fmt.Printf("DIVERGENT %s (%s):\n", obs.ID, obs.SubjectRef)
			for _, p := range problems {
				fmt.Printf("  %s\n", p)
			}
		}
	}

	fmt.Printf("verified %d observation(s), %d divergent\n", len(records), divergent)
	if divergent > 0 {
		return fmt.Errorf("%d observation(s) diverge from deterministic re-scoring", divergent)
	}
	return nil
}

// #endregion verify
