package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/threshold-labs/sentry/internal/classify"
	"github.com/threshold-labs/sentry/internal/core"
	"github.com/threshold-labs/sentry/internal/store"
)

var (
	signalsThesis string

	addThesis        string
	addName          string
	addDescription   string
	addType          string
	addLevel         string
	addThreshold     float64
	addThresholdType string
)

var signalsCmd = &cobra.Command{
	Use:   "signals",
	Short: "Inspect and manage monitored signals",
}

var signalsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a signal in the configured store",
	Long: `Creates a monitored signal. When no level is given the classification
level is inferred from the signal name.`,
	RunE: runSignalsAdd,
}

var signalsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List signals in the configured store",
	RunE:  runSignalsList,
}

var signalsPauseCmd = &cobra.Command{
	Use:   "pause [signal-id]",
	Short: "Pause a signal so monitoring skips it",
	Args:  cobra.ExactArgs(1),
	RunE:  runSignalsPause,
}

var signalsResumeCmd = &cobra.Command{
	Use:   "resume [signal-id]",
	Short: "Resume a paused signal",
	Args:  cobra.ExactArgs(1),
	RunE:  runSignalsResume,
}

var signalsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show a monitoring status summary",
	RunE:  runSignalsStatus,
}

func init() {
	signalsListCmd.Flags().StringVar(&signalsThesis, "thesis", "", "filter by thesis ID")

	signalsAddCmd.Flags().StringVar(&addThesis, "thesis", "", "thesis ID (required)")
	signalsAddCmd.Flags().StringVar(&addName, "name", "", "signal name (required)")
	signalsAddCmd.Flags().StringVar(&addDescription, "description", "", "signal description")
	signalsAddCmd.Flags().StringVar(&addType, "type", "", "signal type (required)")
	signalsAddCmd.Flags().StringVar(&addLevel, "level", "", "classification level (inferred from name when empty)")
	signalsAddCmd.Flags().Float64Var(&addThreshold, "threshold", 0, "threshold value")
	signalsAddCmd.Flags().StringVar(&addThresholdType, "threshold-type", "change_percent", "above, below or change_percent")
	signalsAddCmd.MarkFlagRequired("thesis")
	signalsAddCmd.MarkFlagRequired("name")
	signalsAddCmd.MarkFlagRequired("type")

	signalsStatusCmd.Flags().StringVar(&signalsThesis, "thesis", "", "filter by thesis ID")

	signalsCmd.AddCommand(signalsAddCmd)
	signalsCmd.AddCommand(signalsListCmd)
	signalsCmd.AddCommand(signalsPauseCmd)
	signalsCmd.AddCommand(signalsResumeCmd)
	signalsCmd.AddCommand(signalsStatusCmd)
	rootCmd.AddCommand(signalsCmd)
}

func runSignalsAdd(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}

	level := classify.InferLevel(addName)
	inferred := true
	if addLevel != "" {
		level, err = core.ParseLevel(addLevel)
		if err != nil {
			return err
		}
		inferred = false
	}

	sig, err := st.Create(context.Background(), core.Signal{
		ThesisID:       addThesis,
		Name:           addName,
		Description:    addDescription,
		Level:          level,
		SignalType:     addType,
		ThresholdValue: addThreshold,
		ThresholdType:  core.ThresholdType(addThresholdType),
	})
	if err != nil {
		return err
	}

	fmt.Printf("created %s\n", sig.ID)
	if inferred {
		fmt.Printf("  level: %s (inferred), chain: %s\n",
			sig.Level, classify.InferChainPosition(sig.Name))
	} else {
		fmt.Printf("  level: %s\n", sig.Level)
	}
	return nil
}

func openStore() (store.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	st, err := buildStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating store: %w", err)
	}
	return st, nil
}

func runSignalsList(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}

	signals, err := st.List(context.Background(), store.ListFilter{ThesisID: signalsThesis})
	if err != nil {
		return err
	}
	if len(signals) == 0 {
		fmt.Println("no signals")
		return nil
	}

	fmt.Printf("%-36s %-24s %-10s %-14s %10s %10s\n",
		"ID", "NAME", "STATUS", "THRESHOLD", "VALUE", "CURRENT")
	for _, sig := range signals {
		current := "-"
		if sig.CurrentValue != nil {
			current = fmt.Sprintf("%.2f", *sig.CurrentValue)
		}
		fmt.Printf("%-36s %-24s %-10s %-14s %10.2f %10s\n",
			sig.ID, sig.Name, sig.Status, sig.ThresholdType, sig.ThresholdValue, current)
	}
	return nil
}

func runSignalsPause(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	if err := st.Pause(context.Background(), args[0]); err != nil {
		return err
	}
	fmt.Printf("paused %s\n", args[0])
	return nil
}

func runSignalsResume(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	if err := st.Resume(context.Background(), args[0]); err != nil {
		return err
	}
	fmt.Printf("resumed %s\n", args[0])
	return nil
}

func runSignalsStatus(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}

	summary, err := st.Summary(context.Background(), signalsThesis)
	if err != nil {
		return err
	}

	fmt.Printf("signals: %d\n", summary.Total)
	for _, status := range []core.Status{core.StatusActive, core.StatusTriggered, core.StatusInactive} {
		fmt.Printf("  %-10s %d\n", status, summary.ByStatus[status])
	}
	if summary.LastChecked != nil {
		fmt.Printf("last checked: %s\n", summary.LastChecked.Format("2006-01-02 15:04:05 MST"))
	}
	return nil
}
