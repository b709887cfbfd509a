package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Start runs monitoring cycles until the context is cancelled. With a
// cron expression configured, cycles fire on the cron schedule;
// otherwise an immediate first cycle is followed by one per interval.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return fmt.Errorf("monitor already running")
	}
	e.running = true

	ctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}()

	if e.cfg.Cron != "" {
		return e.runCron(ctx)
	}
	return e.runTicker(ctx)
}

// Stop cancels a running Start loop.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		e.cancel()
	}
}

// Running reports whether the schedule loop is active.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

func (e *Engine) runTicker(ctx context.Context) error {
	e.logger.Info("monitor starting",
		zap.Duration("interval", e.cfg.Interval),
		zap.Int("max_concurrent", e.cfg.MaxConcurrent),
	)

	// Initial cycle before the first tick.
	e.cycleAndLog(ctx)

	ticker := time.NewTicker(e.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("monitor shutting down")
			return ctx.Err()
		case <-ticker.C:
			e.cycleAndLog(ctx)
		}
	}
}

func (e *Engine) runCron(ctx context.Context) error {
	e.logger.Info("monitor starting", zap.String("cron", e.cfg.Cron))

	c := cron.New()
	if _, err := c.AddFunc(e.cfg.Cron, func() { e.cycleAndLog(ctx) }); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", e.cfg.Cron, err)
	}
	c.Start()

	<-ctx.Done()
	e.logger.Info("monitor shutting down")

	// Wait for an in-flight cycle to finish.
	<-c.Stop().Done()
	return ctx.Err()
}

func (e *Engine) cycleAndLog(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := e.RunCycle(ctx); err != nil {
		e.logger.Error("cycle failed", zap.Error(err))
	}
}
