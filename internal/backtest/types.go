// Package backtest scores how an investment thesis would have performed
// under simulated market scenarios, aggregating return paths and current
// signal states into a report with risk metrics and rule-based
// recommendations.
package backtest

import (
	"time"

	"github.com/threshold-labs/sentry/internal/core"
	"github.com/threshold-labs/sentry/internal/scenario"
)

// Request describes one backtest run. Scenario names are evaluated in
// declaration order; the order is part of the contract because ties and
// aggregate iteration resolve by it.
type Request struct {
	Signals                 []core.Signal
	TimeHorizonMonths       int
	ScenarioNames           []string
	IncludeStressTests      bool
	IncludeSignalValidation bool
	Seed                    int64
}

// RiskLevel buckets a scenario's riskiness for the report.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// ScenarioResult is one scenario's simulated path and score.
type ScenarioResult struct {
	Name      string              `json:"name"`
	IsStress  bool                `json:"is_stress"`
	Path      scenario.ReturnPath `json:"path"`
	Score     float64             `json:"score"` // 0-100 composite
	RiskLevel RiskLevel           `json:"risk_level"`
}

// PerformanceSummary aggregates the explicitly requested scenarios.
type PerformanceSummary struct {
	AverageScore  float64 `json:"average_score"`
	BestScenario  string  `json:"best_scenario"`
	WorstScenario string  `json:"worst_scenario"`
	Consistency   float64 `json:"consistency"` // 0-1, higher is more uniform
}

// RiskMetrics is computed over the pooled terminal returns of every
// simulated path, stress paths included.
type RiskMetrics struct {
	ExpectedReturn float64 `json:"expected_return"`
	Volatility     float64 `json:"volatility"`
	VaR95          float64 `json:"var_95"` // empirical 5th percentile of terminal returns
	MaxLoss        float64 `json:"max_loss"`
	DownsideRisk   float64 `json:"downside_risk"` // semi-deviation below the mean

	// RiskAdjustedReturn is ExpectedReturn / Volatility. When Volatility
	// is zero the ratio is undefined: the value is 0 and
	// RiskAdjustedDefined is false.
	RiskAdjustedReturn  float64 `json:"risk_adjusted_return"`
	RiskAdjustedDefined bool    `json:"risk_adjusted_defined"`
}

// StressTestResults is present only when stress scenarios ran.
type StressTestResults struct {
	OverallStressScore float64          `json:"overall_stress_score"`
	StressResistance   RiskLevel        `json:"stress_resistance"`
	Results            []ScenarioResult `json:"results"`
}

// SignalValidation summarizes how much observational backing the
// thesis's signals currently have.
type SignalValidation struct {
	LevelCounts     map[core.Level]int `json:"level_counts"`
	CheckedFraction float64            `json:"checked_fraction"` // signals with at least one observation
	TriggeredCount  int                `json:"triggered_count"`
	ValidationScore float64            `json:"validation_score"` // 0-1, level-weighted checked fraction
}

// Report is the ephemeral result of one backtest request. Nothing here
// is persisted by the engine.
type Report struct {
	TimeHorizonMonths  int                `json:"time_horizon_months"`
	Seed               int64              `json:"seed"`
	GeneratedAt        time.Time          `json:"generated_at"`
	ScenarioResults    []ScenarioResult   `json:"scenario_results"`
	PerformanceSummary PerformanceSummary `json:"performance_summary"`
	RiskMetrics        RiskMetrics        `json:"risk_metrics"`
	StressTestResults  *StressTestResults `json:"stress_test_results,omitempty"`
	SignalValidation   *SignalValidation  `json:"signal_validation,omitempty"`
	Recommendations    []string           `json:"recommendations"`
}
