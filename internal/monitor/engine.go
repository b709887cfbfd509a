// Package monitor drives the signal evaluation cycle: fetch each
// monitored signal's current value, run the threshold evaluator, apply
// the status transition, and emit exactly one notification event per
// observed transition.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/threshold-labs/sentry/internal/core"
	"github.com/threshold-labs/sentry/internal/metrics"
	"github.com/threshold-labs/sentry/internal/provider"
	"github.com/threshold-labs/sentry/internal/sink"
	"github.com/threshold-labs/sentry/internal/store"
	"github.com/threshold-labs/sentry/internal/store/eventlog"
	"github.com/threshold-labs/sentry/internal/threshold"
)

// Config holds monitoring engine settings.
type Config struct {
	// Interval between cycles. Ignored when Cron is set.
	Interval time.Duration
	// Cron is an optional cron expression scheduling cycles instead of
	// the fixed interval.
	Cron string
	// MaxConcurrent bounds how many signals are evaluated in parallel.
	MaxConcurrent int
	// FetchTimeout bounds each value-provider read.
	FetchTimeout time.Duration
}

func (c *Config) withDefaults() {
	if c.Interval <= 0 {
		c.Interval = 5 * time.Minute
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 8
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 10 * time.Second
	}
}

// SignalError is a soft per-signal failure reported in the cycle report.
type SignalError struct {
	SignalID   string
	SignalName string
	Err        error
}

// CycleReport summarizes one monitoring cycle. Per-signal failures live
// here, next to the successes; they never abort the cycle.
type CycleReport struct {
	StartedAt   time.Time
	Duration    time.Duration
	Evaluated   int
	Skipped     int
	Transitions int
	Events      []core.NotificationEvent
	Errors      []SignalError
}

// pausedMidCycle marks a signal that went inactive between listing and
// evaluation; the observation is discarded.
var pausedMidCycle = errors.New("signal paused mid-cycle")

// Engine evaluates every monitored signal once per cycle. Signal
// evaluations are independent; the store's per-signal atomic
// read-modify-write is the only synchronization they need.
type Engine struct {
	cfg      Config
	store    store.Store
	provider provider.ValueProvider
	sinks    *sink.Registry
	events   eventlog.Log
	metrics  *metrics.Registry
	logger   *zap.Logger

	now   func() time.Time
	newID func() string

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
}

// New creates a monitoring engine.
func New(cfg Config, st store.Store, vp provider.ValueProvider, sinks *sink.Registry, logger *zap.Logger) *Engine {
	cfg.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:      cfg,
		store:    st,
		provider: vp,
		sinks:    sinks,
		logger:   logger.Named("monitor"),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// WithEventLog attaches an event log that records every emitted event.
func (e *Engine) WithEventLog(l eventlog.Log) *Engine {
	e.events = l
	return e
}

// WithMetrics attaches Prometheus instrumentation.
func (e *Engine) WithMetrics(m *metrics.Registry) *Engine {
	e.metrics = m
	return e
}

type outcome struct {
	evaluated bool
	skipped   bool
	event     *core.NotificationEvent
	err       *SignalError
}

// RunCycle evaluates every monitored signal once. It returns an error
// only when the store listing itself fails; everything per-signal is
// reported softly in the CycleReport.
func (e *Engine) RunCycle(ctx context.Context) (CycleReport, error) {
	start := e.now()

	signals, err := e.store.ListMonitored(ctx)
	if err != nil {
		return CycleReport{}, fmt.Errorf("listing monitored signals: %w", err)
	}

	report := CycleReport{StartedAt: start}
	results := make(chan outcome, len(signals))
	sem := make(chan struct{}, e.cfg.MaxConcurrent)
	var wg sync.WaitGroup

	for _, sig := range signals {
		if sig.Status == core.StatusInactive {
			report.Skipped++
			e.recordEvaluation("skipped")
			continue
		}

		wg.Add(1)
		go func(sig core.Signal) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			defer func() {
				if r := recover(); r != nil {
					e.logger.Error("evaluation panicked",
						zap.String("signal_id", sig.ID), zap.Any("panic", r))
					results <- outcome{err: &SignalError{
						SignalID:   sig.ID,
						SignalName: sig.Name,
						Err:        fmt.Errorf("evaluation panicked: %v", r),
					}}
				}
			}()
			results <- e.evaluateOne(ctx, sig)
		}(sig)
	}

	wg.Wait()
	close(results)

	for out := range results {
		if out.skipped {
			report.Skipped++
			continue
		}
		if out.evaluated {
			report.Evaluated++
		}
		if out.event != nil {
			report.Transitions++
			report.Events = append(report.Events, *out.event)
		}
		if out.err != nil {
			report.Errors = append(report.Errors, *out.err)
		}
	}

	report.Duration = e.now().Sub(start)
	if e.metrics != nil {
		e.metrics.RecordCycle(report.Evaluated, report.Duration.Seconds())
	}
	e.logger.Debug("cycle complete",
		zap.Int("evaluated", report.Evaluated),
		zap.Int("skipped", report.Skipped),
		zap.Int("transitions", report.Transitions),
		zap.Int("errors", len(report.Errors)),
		zap.Duration("duration", report.Duration),
	)
	return report, nil
}

// RunNow triggers a single cycle on demand, outside the schedule.
func (e *Engine) RunNow(ctx context.Context) (CycleReport, error) {
	return e.RunCycle(ctx)
}

// evaluateOne runs the per-signal algorithm: fetch, evaluate, transition.
func (e *Engine) evaluateOne(ctx context.Context, sig core.Signal) outcome {
	fetchCtx, cancel := context.WithTimeout(ctx, e.cfg.FetchTimeout)
	value, fetchErr := e.provider.Fetch(fetchCtx, sig)
	cancel()

	if fetchErr != nil {
		// Failed read: record the attempt, touch nothing else.
		if _, err := e.store.ApplyObservation(ctx, sig.ID, func(s *core.Signal) error {
			now := e.now()
			s.LastCheckedAt = &now
			return nil
		}); err != nil {
			e.logger.Warn("recording failed read",
				zap.String("signal_id", sig.ID), zap.Error(err))
		}

		if !errors.Is(fetchErr, core.ErrTransientFetch) {
			fetchErr = core.WrapError(core.ErrTransientFetch, fetchErr)
		}
		if e.metrics != nil {
			e.metrics.RecordFetchFailure()
		}
		e.recordEvaluation("fetch_failed")
		return outcome{
			evaluated: true,
			err:       &SignalError{SignalID: sig.ID, SignalName: sig.Name, Err: fetchErr},
		}
	}

	var event *core.NotificationEvent
	var evalErr error

	_, err := e.store.ApplyObservation(ctx, sig.ID, func(s *core.Signal) error {
		if s.Status == core.StatusInactive {
			return pausedMidCycle
		}

		// Evaluate against the previous observation before recording the
		// new one; change_percent depends on that ordering.
		triggered, err := threshold.EvaluateSignal(*s, value)

		now := e.now()
		v := value
		s.LastCheckedAt = &now
		s.CurrentValue = &v

		if err != nil {
			// Malformed threshold configuration: the read still counts,
			// the status does not move.
			evalErr = err
			event = nil
			return nil
		}
		evalErr = nil

		switch {
		case triggered && s.Status != core.StatusTriggered:
			from := s.Status
			s.Status = core.StatusTriggered
			ev := e.buildEvent(*s, from, core.StatusTriggered, value)
			event = &ev
		case !triggered && s.Status == core.StatusTriggered:
			s.Status = core.StatusActive
			ev := e.buildEvent(*s, core.StatusTriggered, core.StatusActive, value)
			event = &ev
		default:
			event = nil
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, pausedMidCycle) {
			e.recordEvaluation("skipped")
			return outcome{skipped: true}
		}
		e.recordEvaluation("error")
		return outcome{
			evaluated: true,
			err:       &SignalError{SignalID: sig.ID, SignalName: sig.Name, Err: err},
		}
	}

	out := outcome{evaluated: true}
	if evalErr != nil {
		e.recordEvaluation("error")
		out.err = &SignalError{SignalID: sig.ID, SignalName: sig.Name, Err: evalErr}
		return out
	}

	if event != nil {
		e.recordEvaluation(string(event.ToStatus))
		if e.metrics != nil {
			e.metrics.RecordTransition(string(event.ToStatus))
		}
		e.dispatch(ctx, *event)
		out.event = event
	} else {
		e.recordEvaluation("unchanged")
	}
	return out
}

// dispatch records the event and fans it out to the sinks. The engine
// already guaranteed at-most-one emission per transition; sink failures
// are logged and counted, never retried here.
func (e *Engine) dispatch(ctx context.Context, event core.NotificationEvent) {
	if e.events != nil {
		if err := e.events.Append(ctx, event); err != nil {
			e.logger.Warn("appending to event log",
				zap.String("event_id", event.ID), zap.Error(err))
		}
	}
	if e.sinks == nil {
		return
	}

	errs := e.sinks.EmitAll(ctx, event)
	for _, name := range e.sinks.Names() {
		if err, failed := errs[name]; failed {
			if e.metrics != nil {
				e.metrics.RecordNotification(name, "error")
			}
			e.logger.Warn("sink delivery failed",
				zap.String("sink", name),
				zap.String("event_id", event.ID),
				zap.Error(err))
			continue
		}
		if e.metrics != nil {
			e.metrics.RecordNotification(name, "ok")
		}
	}
}

func (e *Engine) buildEvent(sig core.Signal, from, to core.Status, value float64) core.NotificationEvent {
	return core.NotificationEvent{
		ID:             e.newID(),
		SignalID:       sig.ID,
		ThesisID:       sig.ThesisID,
		SignalName:     sig.Name,
		FromStatus:     from,
		ToStatus:       to,
		Message:        renderMessage(sig, to, value),
		Urgency:        core.UrgencyFor(sig.SignalType),
		CurrentValue:   value,
		ThresholdValue: sig.ThresholdValue,
		CreatedAt:      e.now(),
	}
}

func renderMessage(sig core.Signal, to core.Status, value float64) string {
	if to == core.StatusActive {
		return fmt.Sprintf("%s recovered: value %.4f back within %s threshold %.4f",
			sig.Name, value, sig.ThresholdType, sig.ThresholdValue)
	}
	switch sig.ThresholdType {
	case core.ThresholdAbove:
		return fmt.Sprintf("%s triggered: value %.4f above threshold %.4f",
			sig.Name, value, sig.ThresholdValue)
	case core.ThresholdBelow:
		return fmt.Sprintf("%s triggered: value %.4f below threshold %.4f",
			sig.Name, value, sig.ThresholdValue)
	}
	return fmt.Sprintf("%s triggered: value %.4f moved beyond the %.2f%% change threshold",
		sig.Name, value, sig.ThresholdValue)
}

func (e *Engine) recordEvaluation(result string) {
	if e.metrics != nil {
		e.metrics.RecordEvaluation(result)
	}
}
