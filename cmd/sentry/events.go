package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/threshold-labs/sentry/internal/archive"
)

var eventsDay string

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List archived notification events",
	Long: `Reads the day-partitioned event archive. Without --day every archived
day is listed; with --day the events of that day are printed.`,
	RunE: runEvents,
}

func init() {
	eventsCmd.Flags().StringVar(&eventsDay, "day", "", "day to read, YYYY-MM-DD")
	rootCmd.AddCommand(eventsCmd)
}

func runEvents(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Archive.Enabled {
		return fmt.Errorf("event archive is not enabled in the configuration")
	}

	storage, err := buildArchiveStorage(cfg)
	if err != nil {
		return err
	}
	a := archive.NewArchiver(storage)
	ctx := context.Background()

	if eventsDay == "" {
		days, err := a.Days(ctx)
		if err != nil {
			return err
		}
		if len(days) == 0 {
			fmt.Println("no archived events")
			return nil
		}
		for _, day := range days {
			fmt.Println(day)
		}
		return nil
	}

	day, err := time.Parse("2006-01-02", eventsDay)
	if err != nil {
		return fmt.Errorf("invalid day format (expected YYYY-MM-DD): %w", err)
	}

	events, err := a.ReadDay(ctx, day)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Println("no events for", eventsDay)
		return nil
	}

	for _, ev := range events {
		fmt.Printf("%s  %-8s %-24s %s -> %s  %s\n",
			ev.CreatedAt.Format(time.RFC3339), ev.Urgency, ev.SignalName,
			ev.FromStatus, ev.ToStatus, ev.Message)
	}
	return nil
}
