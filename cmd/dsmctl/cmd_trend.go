package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// #region trend

var trendCmd = &cobra.Command{
	Use:   "trend <subject-ref>",
	Short: "Show the longitudinal trend for a tracked subject",
	Long: `Compute delta severity, per-day rate, and trend direction over a
subject's stored observation history, ordered by creation time.`,
	Args: cobra.ExactArgs(1),
	RunE: runTrend,
}

func runTrend(cmd *cobra.Command, args []string) error {
	eng, _, cleanup, err := openEngine()
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := eng.Trend(args[0])
	if err != nil {
		return fmt.Errorf("trend: %w", err)
	}
	if jsonOut {
		return printJSON(report)
	}

	fmt.Printf("subject %s: %d observation(s), trend %s\n",
		report.SubjectRef, report.ObservationCount, report.Direction)
	if report.DeltaSeverity != nil {
		fmt.Printf("  delta severity: %+.2f (%+.2f per day)\n",
			*report.DeltaSeverity, *report.DeltaPerDay)
	}
	for _, p := range report.Points {
		note := ""
		if p.Note != "" {
			note = "  " + p.Note
		}
		fmt.Printf("  %s  %6.2f  %-8s%s\n",
			p.Timestamp.Format("2006-01-02 15:04"), p.SeverityIndex, p.Band, note)
	}
	return nil
}

// #endregion trend
