package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// #region confirm-stage9

var confirmFlag bool

var confirmStage9Cmd = &cobra.Command{
	Use:   "confirm-stage9 <observation-id>",
	Short: "Explicitly confirm the terminal escalation stage",
	Long: `Record stage 9 on an observation. This is the only path to the
terminal ladder stage: automatic classification caps at stage 8 whatever the
severity index.

Requires --confirm. The confirmation is recorded as a permanent audit flag
and works before or after finalization; it does not lock the observation.`,
	Args: cobra.ExactArgs(1),
	RunE: runConfirmStage9,
}

func init() {
	confirmStage9Cmd.Flags().BoolVar(&confirmFlag, "confirm", false, "explicit terminal-stage confirmation")
}

func runConfirmStage9(cmd *cobra.Command, args []string) error {
	eng, _, cleanup, err := openEngine()
	if err != nil {
		return err
	}
	defer cleanup()

	rec, err := eng.ConfirmStage9(args[0], confirmFlag)
	if err != nil {
		return fmt.Errorf("confirm stage 9: %w", err)
	}
	return printRecord(rec)
}

// #endregion confirm-stage9
