// Package metrics exposes Prometheus instrumentation for the monitoring
// and backtest engines.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// Monitoring metrics
	cyclesTotal        prometheus.Counter
	cycleDuration      prometheus.Histogram
	evaluationsTotal   *prometheus.CounterVec
	transitionsTotal   *prometheus.CounterVec
	fetchFailures      prometheus.Counter
	notificationsTotal *prometheus.CounterVec
	signalsMonitored   prometheus.Gauge

	// Backtest metrics
	backtestsTotal   *prometheus.CounterVec
	backtestDuration prometheus.Histogram
	scenarioScore    prometheus.Histogram
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		cyclesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sentry_monitor_cycles_total",
				Help: "Total number of monitoring cycles completed",
			},
		),
		cycleDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sentry_monitor_cycle_duration_seconds",
				Help:    "Monitoring cycle duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		evaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentry_signal_evaluations_total",
				Help: "Total number of signal evaluations by result",
			},
			[]string{"result"},
		),
		transitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentry_signal_transitions_total",
				Help: "Total number of signal status transitions by target status",
			},
			[]string{"to"},
		),
		fetchFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sentry_fetch_failures_total",
				Help: "Total number of transient value-provider failures",
			},
		),
		notificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentry_notifications_sent_total",
				Help: "Total number of notification deliveries by sink and status",
			},
			[]string{"sink", "status"},
		),
		signalsMonitored: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "sentry_signals_monitored",
				Help: "Number of signals evaluated in the last cycle",
			},
		),

		backtestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentry_backtests_total",
				Help: "Total number of backtest requests by status",
			},
			[]string{"status"},
		),
		backtestDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sentry_backtest_duration_seconds",
				Help:    "Backtest request duration in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
		),
		scenarioScore: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sentry_scenario_score",
				Help:    "Distribution of per-scenario backtest scores",
				Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
			},
		),
	}

	reg.MustRegister(r.cyclesTotal)
	reg.MustRegister(r.cycleDuration)
	reg.MustRegister(r.evaluationsTotal)
	reg.MustRegister(r.transitionsTotal)
	reg.MustRegister(r.fetchFailures)
	reg.MustRegister(r.notificationsTotal)
	reg.MustRegister(r.signalsMonitored)
	reg.MustRegister(r.backtestsTotal)
	reg.MustRegister(r.backtestDuration)
	reg.MustRegister(r.scenarioScore)

	return r
}

// RecordCycle records a completed monitoring cycle.
func (r *Registry) RecordCycle(evaluated int, duration float64) {
	r.cyclesTotal.Inc()
	r.cycleDuration.Observe(duration)
	r.signalsMonitored.Set(float64(evaluated))
}

// RecordEvaluation records one signal evaluation outcome. Transitions
// report the new status (triggered, active); the rest are unchanged,
// skipped, fetch_failed, and error.
func (r *Registry) RecordEvaluation(result string) {
	r.evaluationsTotal.WithLabelValues(result).Inc()
}

// RecordTransition records a status transition.
func (r *Registry) RecordTransition(to string) {
	r.transitionsTotal.WithLabelValues(to).Inc()
}

// RecordFetchFailure records a transient provider failure.
func (r *Registry) RecordFetchFailure() {
	r.fetchFailures.Inc()
}

// RecordNotification records a delivery attempt to one sink.
func (r *Registry) RecordNotification(sink, status string) {
	r.notificationsTotal.WithLabelValues(sink, status).Inc()
}

// RecordBacktest records a backtest completion.
func (r *Registry) RecordBacktest(status string, duration float64) {
	r.backtestsTotal.WithLabelValues(status).Inc()
	r.backtestDuration.Observe(duration)
}

// ObserveScenarioScore records one per-scenario score.
func (r *Registry) ObserveScenarioScore(score float64) {
	r.scenarioScore.Observe(score)
}

// Handler returns an HTTP handler serving the registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.Registry, promhttp.HandlerOpts{})
}
