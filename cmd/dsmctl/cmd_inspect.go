package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/commonground/dismissal-detection/go-engine/internal/audit"
)

// #region inspect

var inspectLast int

var inspectCmd = &cobra.Command{
	Use:   "inspect [observation-id]",
	Short: "List recent observations or show one with its audit trail",
	Long: `Without arguments, list the most recent observations. With an
observation ID, show the full record and its audit trail, including every
rejected transition and the guardrail condition that refused it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().IntVar(&inspectLast, "last", 20, "show N most recent observations")
}

func runInspect(cmd *cobra.Command, args []string) error {
	eng, st, cleanup, err := openEngine()
	if err != nil {
		return err
	}
	defer cleanup()

	if len(args) == 1 {
		rec, err := eng.Get(args[0])
		if err != nil {
			return fmt.Errorf("inspect: %w", err)
		}
		if err := printRecord(rec); err != nil {
			return err
		}

		trail, err := audit.ForObservation(st.DB(), args[0])
		if err != nil {
			return fmt.Errorf("audit trail: %w", err)
		}
		if jsonOut {
			return printJSON(trail)
		}
		fmt.Println("audit trail:")
		for _, e := range trail {
			line := fmt.Sprintf("  %s  %-14s %s", e.CreatedAt.Format("2006-01-02 15:04:05"), e.Operation, e.Decision)
			if e.Condition != "" {
				line += "  [" + e.Condition + "]"
			}
			fmt.Println(line)
		}
		return nil
	}

	records, err := st.ListRecent(inspectLast)
	if err != nil {
		return fmt.Errorf("inspect: %w", err)
	}
	if jsonOut {
		return printJSON(records)
	}
	if len(records) == 0 {
		fmt.Println("no observations found")
		return nil
	}
	for _, rec := range records {
		obs := rec.Observation
		fmt.Printf("%s  %-12s %6.2f  %-8s stage %d  %s\n",
			obs.CreatedAt.Format("2006-01-02 15:04"), obs.Status,
			obs.Score.SeverityIndex, obs.Score.Band, obs.Score.StageEstimate, obs.ID)
	}
	return nil
}

// #endregion inspect
