package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/commonground/dismissal-detection/go-engine/internal/lifecycle"
)

// #region tests

var (
	testsID     string
	testsResult string
	testsNotes  string
	testsAck    bool
)

var testsCmd = &cobra.Command{
	Use:   "tests <observation-id>",
	Short: "Record a falsifiable-test result on an observation",
	Long: `Record the outcome of one falsifiable test (context-tolerance,
symmetry, or clarification) on an observation.

Requires --ack: the guardrail acknowledgement is mandatory for every state
transition past draft. Finalized observations are immutable.`,
	Args: cobra.ExactArgs(1),
	RunE: runTests,
}

func init() {
	testsCmd.Flags().StringVar(&testsID, "test", "", "falsifiable test identifier")
	testsCmd.Flags().StringVar(&testsResult, "result", "", "result: pass, fail, or unknown")
	testsCmd.Flags().StringVar(&testsNotes, "notes", "", "operator notes for this test")
	testsCmd.Flags().BoolVar(&testsAck, "ack", false, "acknowledge the guardrail notice")
	_ = testsCmd.MarkFlagRequired("test")
	_ = testsCmd.MarkFlagRequired("result")
}

func runTests(cmd *cobra.Command, args []string) error {
	eng, _, cleanup, err := openEngine()
	if err != nil {
		return err
	}
	defer cleanup()

	updates := map[string]lifecycle.TestEntry{
		testsID: {Result: lifecycle.TestResult(testsResult), Notes: testsNotes},
	}
	rec, err := eng.UpdateTests(args[0], updates, testsAck)
	if err != nil {
		return fmt.Errorf("record tests: %w", err)
	}
	return printRecord(rec)
}

// #endregion tests
