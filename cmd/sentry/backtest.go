package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/threshold-labs/sentry/internal/backtest"
	"github.com/threshold-labs/sentry/internal/core"
	"github.com/threshold-labs/sentry/internal/logger"
	"github.com/threshold-labs/sentry/internal/store"
)

var (
	backtestHorizon   int
	backtestScenarios []string
	backtestSeed      int64
	backtestStress    bool
	backtestValidate  bool
	backtestThesis    string
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Backtest a thesis against simulated market scenarios",
	Long: `Simulates the requested scenarios over the time horizon, scores each
one against the thesis's current signal states, and prints the full
report as JSON.`,
	RunE: runBacktest,
}

func init() {
	backtestCmd.Flags().IntVar(&backtestHorizon, "horizon", 12, "time horizon in months")
	backtestCmd.Flags().StringSliceVar(&backtestScenarios, "scenarios",
		[]string{"bull_market", "bear_market", "sideways"}, "scenario names to simulate")
	backtestCmd.Flags().Int64Var(&backtestSeed, "seed", 0, "base seed for reproducible paths")
	backtestCmd.Flags().BoolVar(&backtestStress, "stress", false, "include historical stress scenarios")
	backtestCmd.Flags().BoolVar(&backtestValidate, "validate", false, "include signal validation summary")
	backtestCmd.Flags().StringVar(&backtestThesis, "thesis", "", "score against this thesis's stored signals")

	rootCmd.AddCommand(backtestCmd)
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log := logger.Must(cfg.Logging.Development, debug)
	defer log.Sync()

	catalog, err := cfg.ScenarioCatalog()
	if err != nil {
		return err
	}
	btCfg, err := cfg.BacktestConfig()
	if err != nil {
		return err
	}
	engine, err := backtest.New(catalog, btCfg, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var signals []core.Signal
	if backtestThesis != "" {
		st, err := buildStore(cfg)
		if err != nil {
			return fmt.Errorf("creating store: %w", err)
		}
		signals, err = st.List(ctx, store.ListFilter{ThesisID: backtestThesis})
		if err != nil {
			return fmt.Errorf("loading thesis signals: %w", err)
		}
	}

	report, err := engine.Run(ctx, backtest.Request{
		Signals:                 signals,
		TimeHorizonMonths:       backtestHorizon,
		ScenarioNames:           backtestScenarios,
		IncludeStressTests:      backtestStress,
		IncludeSignalValidation: backtestValidate,
		Seed:                    backtestSeed,
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
