package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/commonground/dismissal-detection/go-engine/internal/lifecycle"
)

// #region observe

var (
	observeSubject string
	observeTitle   string
	observeNotes   string
	observeVector  string
	observeAux     string
)

var observeCmd = &cobra.Command{
	Use:   "observe",
	Short: "Score a feature vector and create a new observation",
	Long: `Score an observed response along the eight weighted behavioral
features and store the result as a new observation.

The vector is a JSON object mapping every feature key to a score in
[0.0, 1.0]; out-of-range values are rejected, not clamped. Supplying a
context title creates the observation as preliminary; without one it stays
a draft.`,
	Example: `  dsmctl observe --subject user-1138 \
    --title "report dismissed without reading" \
    --vector '{"topic_avoidance":0.2,"deflection":0.4,"flat_denial":0.8,"invalidation":0.7,"normalization":0.1,"substitution":0.3,"zealous_insistence":0.2,"erasure":0.0}'`,
	RunE: runObserve,
}

func init() {
	observeCmd.Flags().StringVar(&observeSubject, "subject", "", "opaque subject reference for trend grouping")
	observeCmd.Flags().StringVar(&observeTitle, "title", "", "free-form context title")
	observeCmd.Flags().StringVar(&observeNotes, "notes", "", "free-form context notes")
	observeCmd.Flags().StringVar(&observeVector, "vector", "", "JSON feature vector (all eight keys)")
	observeCmd.Flags().StringVar(&observeAux, "aux", "", "JSON protected-variable signals (informational only)")
	_ = observeCmd.MarkFlagRequired("subject")
	_ = observeCmd.MarkFlagRequired("vector")
}

func runObserve(cmd *cobra.Command, args []string) error {
	vector, err := parseScoreMap(observeVector)
	if err != nil {
		return err
	}
	aux, err := parseScoreMap(observeAux)
	if err != nil {
		return err
	}

	eng, _, cleanup, err := openEngine()
	if err != nil {
		return err
	}
	defer cleanup()

	rec, err := eng.Observe(lifecycle.Context{Title: observeTitle, Notes: observeNotes}, observeSubject, vector, aux)
	if err != nil {
		return fmt.Errorf("observe: %w", err)
	}
	return printRecord(rec)
}

// #endregion observe
