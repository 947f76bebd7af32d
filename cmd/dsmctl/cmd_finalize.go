package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// #region finalize

var finalizeAck bool

var finalizeCmd = &cobra.Command{
	Use:   "finalize <observation-id>",
	Short: "Finalize a preliminary observation",
	Long: `Move a preliminary observation to its finalized, immutable state.

Preconditions, each reported by name when unmet:
  ack_required           the --ack flag must be given
  min_one_test_required  at least one falsifiable test must be pass or fail

Finalization never touches the escalation stage; the terminal stage can only
be recorded through 'dsmctl confirm-stage9'.`,
	Args: cobra.ExactArgs(1),
	RunE: runFinalize,
}

func init() {
	finalizeCmd.Flags().BoolVar(&finalizeAck, "ack", false, "acknowledge the guardrail notice")
}

func runFinalize(cmd *cobra.Command, args []string) error {
	eng, _, cleanup, err := openEngine()
	if err != nil {
		return err
	}
	defer cleanup()

	rec, err := eng.Finalize(args[0], finalizeAck)
	if err != nil {
		return fmt.Errorf("finalize: %w", err)
	}
	return printRecord(rec)
}

// #endregion finalize
