// dsmctl is the operator tooling for the dismissal-detection scoring engine:
// submit observations, record falsifiable tests, finalize, confirm the
// terminal stage, and inspect trends and the audit trail.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/commonground/dismissal-detection/go-engine/internal/config"
	"github.com/commonground/dismissal-detection/go-engine/internal/engine"
	"github.com/commonground/dismissal-detection/go-engine/internal/feature"
	"github.com/commonground/dismissal-detection/go-engine/internal/store"
)

// #region root

var (
	dbPath        string
	constantsPath string
	verbose       bool
	jsonOut       bool
)

var rootCmd = &cobra.Command{
	Use:   "dsmctl",
	Short: "Dismissal-detection observation engine tooling",
	Long: `dsmctl manages pattern observations: scoring, falsifiable tests,
guarded finalization, and longitudinal trends.

Every state transition runs through named guardrails; refused transitions
are reported with the unmet condition and recorded in the audit log.`,
	SilenceUsage: true,
}

func main() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", envOr("DISMISSAL_DB", "dismissal.db"), "path to the observation database")
	rootCmd.PersistentFlags().StringVar(&constantsPath, "constants", "", "optional YAML constants override file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "output as JSON instead of text")

	rootCmd.AddCommand(observeCmd)
	rootCmd.AddCommand(testsCmd)
	rootCmd.AddCommand(finalizeCmd)
	rootCmd.AddCommand(confirmStage9Cmd)
	rootCmd.AddCommand(trendCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(verifyCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// #endregion root

// #region setup

// openEngine loads the constant set, opens the store, and builds the engine.
// The returned cleanup closes the store and flushes the logger.
func openEngine() (*engine.Engine, *store.Store, func(), error) {
	cfg := config.Default()
	if constantsPath != "" {
		var err error
		cfg, err = config.Load(constantsPath)
		if err != nil {
			return nil, nil, nil, err
		}
	}

	logger, err := newLogger()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}

	st, err := store.NewStore(dbPath, feature.NewModel(cfg))
	if err != nil {
		return nil, nil, nil, err
	}

	eng := engine.New(cfg, st, engine.WithLogger(logger))
	cleanup := func() {
		st.Close()
		_ = logger.Sync()
	}
	return eng, st, cleanup, nil
}

func newLogger() (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}
	return zcfg.Build()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion setup
