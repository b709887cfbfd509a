package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/threshold-labs/sentry/internal/logger"
	"github.com/threshold-labs/sentry/internal/metrics"
	"github.com/threshold-labs/sentry/internal/monitor"
	"github.com/threshold-labs/sentry/internal/store/eventlog"
)

var monitorOnce bool

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Run the signal monitoring engine",
	Long: `Continuously evaluates every monitored signal against its threshold
on the configured schedule, emitting a notification for each status
transition.`,
	RunE: runMonitor,
}

func init() {
	monitorCmd.Flags().BoolVar(&monitorOnce, "once", false, "run a single cycle and exit")
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log := logger.Must(cfg.Logging.Development, debug)
	defer log.Sync()
	if cfgFile == "" {
		log.Warn("no config file specified, using defaults")
	}

	st, err := buildStore(cfg)
	if err != nil {
		return fmt.Errorf("creating store: %w", err)
	}
	sinks, err := buildSinks(cfg, log)
	if err != nil {
		return fmt.Errorf("creating sinks: %w", err)
	}

	engine := monitor.New(monitor.Config{
		Interval:      cfg.Monitor.Interval,
		Cron:          cfg.Monitor.Cron,
		MaxConcurrent: cfg.Monitor.MaxConcurrent,
		FetchTimeout:  cfg.Monitor.FetchTimeout,
	}, st, buildProvider(cfg), sinks, log)
	engine.WithEventLog(eventlog.NewMemory())

	if cfg.Metrics.Enabled {
		reg := metrics.NewRegistry()
		engine.WithMetrics(reg)

		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, reg.Handler())
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server error", zap.Error(err))
			}
		}()
		defer srv.Close()

		log.Info("metrics exposed",
			zap.String("addr", cfg.Metrics.Addr),
			zap.String("path", cfg.Metrics.Path),
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if monitorOnce {
		report, err := engine.RunNow(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("evaluated %d signals, %d transitions, %d errors\n",
			report.Evaluated, report.Transitions, len(report.Errors))
		return nil
	}

	log.Info("starting monitoring engine",
		zap.Duration("interval", cfg.Monitor.Interval),
		zap.String("cron", cfg.Monitor.Cron),
	)
	if err := engine.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	log.Info("monitoring engine stopped")
	return nil
}
