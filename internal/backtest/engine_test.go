package backtest

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/threshold-labs/sentry/internal/core"
	"github.com/threshold-labs/sentry/internal/scenario"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(scenario.DefaultCatalog(), DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return e
}

// dominantCatalog has drifts so far apart that the score ordering is
// independent of the seed.
func dominantCatalog(t *testing.T) *scenario.Catalog {
	t.Helper()
	c, err := scenario.NewCatalog([]scenario.Definition{
		{Name: "surge", Drift: 2.4, Volatility: scenario.BandLow},
		{Name: "collapse", Drift: -2.4, Volatility: scenario.BandLow},
		{Name: "flat", Drift: 0.02, Volatility: scenario.BandLow},
	})
	if err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}
	return c
}

func fptr(v float64) *float64 { return &v }

func TestRun_Deterministic(t *testing.T) {
	e := newEngine(t)
	req := Request{
		TimeHorizonMonths:  24,
		ScenarioNames:      []string{"bull_market", "bear_market", "sideways"},
		IncludeStressTests: true,
		Seed:               42,
	}

	first, err := e.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	second, err := e.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("second Run failed: %v", err)
	}

	if len(first.ScenarioResults) != len(second.ScenarioResults) {
		t.Fatalf("result counts differ: %d vs %d",
			len(first.ScenarioResults), len(second.ScenarioResults))
	}
	for i := range first.ScenarioResults {
		a, b := first.ScenarioResults[i], second.ScenarioResults[i]
		if a.Name != b.Name || a.Score != b.Score ||
			a.Path.TerminalReturn != b.Path.TerminalReturn {
			t.Errorf("scenario %d not reproducible: %+v vs %+v", i, a, b)
		}
	}
	if !reflect.DeepEqual(first.Recommendations, second.Recommendations) {
		t.Errorf("recommendations differ: %v vs %v",
			first.Recommendations, second.Recommendations)
	}
}

func TestRun_ScenarioOrderMatchesRequest(t *testing.T) {
	e := newEngine(t)
	req := Request{
		TimeHorizonMonths:  12,
		ScenarioNames:      []string{"sideways", "bull_market"},
		IncludeStressTests: true,
		Seed:               7,
	}
	report, err := e.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := []string{
		"sideways", "bull_market",
		"market_crash_2008", "covid_pandemic_2020", "dot_com_bubble_2000",
		"inflation_spike_1970s", "black_monday_1987",
	}
	if len(report.ScenarioResults) != len(want) {
		t.Fatalf("expected %d results, got %d", len(want), len(report.ScenarioResults))
	}
	for i, name := range want {
		if report.ScenarioResults[i].Name != name {
			t.Errorf("result %d: got %s, want %s", i, report.ScenarioResults[i].Name, name)
		}
	}
}

func TestRun_StressDoesNotDuplicateRequested(t *testing.T) {
	e := newEngine(t)
	req := Request{
		TimeHorizonMonths:  6,
		ScenarioNames:      []string{"market_crash_2008", "bull_market"},
		IncludeStressTests: true,
		Seed:               1,
	}
	report, err := e.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	counts := make(map[string]int)
	for _, r := range report.ScenarioResults {
		counts[r.Name]++
	}
	if counts["market_crash_2008"] != 1 {
		t.Errorf("market_crash_2008 ran %d times, want 1", counts["market_crash_2008"])
	}
	// 2 requested + 4 remaining stress scenarios.
	if len(report.ScenarioResults) != 6 {
		t.Errorf("expected 6 results, got %d", len(report.ScenarioResults))
	}

	// A stress scenario requested by name counts as requested: its score
	// enters the performance summary alongside the ordinary scenario.
	wantAvg := (report.ScenarioResults[0].Score + report.ScenarioResults[1].Score) / 2
	if math.Abs(report.PerformanceSummary.AverageScore-wantAvg) > 1e-9 {
		t.Errorf("summary average = %v, want mean of requested scores %v",
			report.PerformanceSummary.AverageScore, wantAvg)
	}
}

func TestRun_RequestValidation(t *testing.T) {
	e := newEngine(t)
	tests := []struct {
		name string
		req  Request
		want *core.Error
	}{
		{
			"zero horizon",
			Request{TimeHorizonMonths: 0, ScenarioNames: []string{"bull_market"}},
			core.ErrConfiguration,
		},
		{
			"negative horizon",
			Request{TimeHorizonMonths: -12, ScenarioNames: []string{"bull_market"}},
			core.ErrConfiguration,
		},
		{
			"no scenarios",
			Request{TimeHorizonMonths: 12},
			core.ErrConfiguration,
		},
		{
			"duplicate scenario",
			Request{TimeHorizonMonths: 12, ScenarioNames: []string{"sideways", "sideways"}},
			core.ErrConfiguration,
		},
		{
			"unknown scenario",
			Request{TimeHorizonMonths: 12, ScenarioNames: []string{"lost_decade"}},
			core.ErrUnknownScenario,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Run(context.Background(), tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
			// Every rejection belongs to the configuration class, the
			// unknown-scenario case included.
			if !errors.Is(err, core.ErrConfiguration) {
				t.Errorf("rejection should match ErrConfiguration, got %v", err)
			}
		})
	}
}

func TestRun_OneMonthHorizon(t *testing.T) {
	e := newEngine(t)
	report, err := e.Run(context.Background(), Request{
		TimeHorizonMonths: 1,
		ScenarioNames:     []string{"sideways"},
		Seed:              3,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := len(report.ScenarioResults[0].Path.MonthlyReturns); got != 1 {
		t.Errorf("expected 1 monthly return, got %d", got)
	}
}

func TestRun_BestAndWorstScenario(t *testing.T) {
	e, err := New(dominantCatalog(t), DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	report, err := e.Run(context.Background(), Request{
		TimeHorizonMonths: 12,
		ScenarioNames:     []string{"collapse", "flat", "surge"},
		Seed:              99,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	s := report.PerformanceSummary
	if s.BestScenario != "surge" {
		t.Errorf("best = %s, want surge", s.BestScenario)
	}
	if s.WorstScenario != "collapse" {
		t.Errorf("worst = %s, want collapse", s.WorstScenario)
	}
	if s.AverageScore <= 0 || s.AverageScore >= 100 {
		t.Errorf("average score %v out of range", s.AverageScore)
	}
	if s.Consistency < 0 || s.Consistency > 1 {
		t.Errorf("consistency %v out of range", s.Consistency)
	}
}

func TestRun_RiskMetricsConsistency(t *testing.T) {
	e := newEngine(t)
	report, err := e.Run(context.Background(), Request{
		TimeHorizonMonths:  36,
		ScenarioNames:      []string{"bull_market", "bear_market", "sideways"},
		IncludeStressTests: true,
		Seed:               11,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	m := report.RiskMetrics
	if m.MaxLoss > m.ExpectedReturn {
		t.Errorf("max loss %v exceeds expected return %v", m.MaxLoss, m.ExpectedReturn)
	}
	if m.VaR95 < m.MaxLoss {
		t.Errorf("VaR95 %v below max loss %v", m.VaR95, m.MaxLoss)
	}
	if m.Volatility < 0 || m.DownsideRisk < 0 {
		t.Errorf("dispersion metrics must be non-negative: %+v", m)
	}
	if !m.RiskAdjustedDefined {
		t.Fatal("risk-adjusted return should be defined for a mixed run")
	}
	if got := m.RiskAdjustedReturn * m.Volatility; math.Abs(got-m.ExpectedReturn) > 1e-9 {
		t.Errorf("risk-adjusted return inconsistent: %v * %v != %v",
			m.RiskAdjustedReturn, m.Volatility, m.ExpectedReturn)
	}
}

func TestRun_SingleScenarioUndefinedRiskRatio(t *testing.T) {
	e := newEngine(t)
	report, err := e.Run(context.Background(), Request{
		TimeHorizonMonths: 12,
		ScenarioNames:     []string{"sideways"},
		Seed:              5,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// One pooled return means zero volatility and an undefined ratio.
	if report.RiskMetrics.RiskAdjustedDefined {
		t.Error("ratio must be undefined when volatility is zero")
	}
	if report.RiskMetrics.RiskAdjustedReturn != 0 {
		t.Errorf("undefined ratio must report 0, got %v", report.RiskMetrics.RiskAdjustedReturn)
	}

	found := false
	for _, rec := range report.Recommendations {
		if rec == "Implement proper risk management" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected risk-management recommendation, got %v", report.Recommendations)
	}
}

func TestRun_StressResultsPresence(t *testing.T) {
	e := newEngine(t)

	with, err := e.Run(context.Background(), Request{
		TimeHorizonMonths:  12,
		ScenarioNames:      []string{"bull_market"},
		IncludeStressTests: true,
		Seed:               8,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if with.StressTestResults == nil {
		t.Fatal("expected stress results")
	}
	if got := len(with.StressTestResults.Results); got != 5 {
		t.Errorf("expected 5 stress results, got %d", got)
	}
	for _, r := range with.StressTestResults.Results {
		if !r.IsStress {
			t.Errorf("non-stress result %s in stress section", r.Name)
		}
	}

	// The performance summary covers only the explicitly requested
	// scenario even when stress scenarios ran.
	if with.PerformanceSummary.BestScenario != "bull_market" {
		t.Errorf("summary leaked stress scenarios: best = %s",
			with.PerformanceSummary.BestScenario)
	}

	without, err := e.Run(context.Background(), Request{
		TimeHorizonMonths: 12,
		ScenarioNames:     []string{"bull_market"},
		Seed:              8,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if without.StressTestResults != nil {
		t.Error("stress results must be absent when no stress scenario ran")
	}
}

func TestRun_Cancellation(t *testing.T) {
	e := newEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := e.Run(ctx, Request{
		TimeHorizonMonths: 12,
		ScenarioNames:     []string{"bull_market"},
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if report != nil {
		t.Error("cancelled run must not return a partial report")
	}
}

func TestSignalComponent_Alignment(t *testing.T) {
	e := newEngine(t)
	bullish := scenario.Definition{Name: "up", Drift: 0.15, Volatility: scenario.BandLow}
	bearish := scenario.Definition{Name: "down", Drift: -0.20, Volatility: scenario.BandLow}
	neutral := scenario.Definition{Name: "flat", Drift: 0.02, Volatility: scenario.BandLow}

	sig := func(ttype core.ThresholdType, status core.Status) core.Signal {
		return core.Signal{ThresholdType: ttype, Status: status}
	}

	tests := []struct {
		name    string
		def     scenario.Definition
		signals []core.Signal
		want    float64
	}{
		{"no signals is neutral prior", bullish, nil, 50},
		{"inactive signals excluded", bullish,
			[]core.Signal{sig(core.ThresholdAbove, core.StatusInactive)}, 50},
		{"bullish aligned with triggered above", bullish,
			[]core.Signal{sig(core.ThresholdAbove, core.StatusTriggered)}, 100},
		{"bullish not aligned with quiet above", bullish,
			[]core.Signal{sig(core.ThresholdAbove, core.StatusActive)}, 0},
		{"bearish aligned with triggered below", bearish,
			[]core.Signal{sig(core.ThresholdBelow, core.StatusTriggered)}, 100},
		{"bearish aligned with quiet above", bearish,
			[]core.Signal{sig(core.ThresholdAbove, core.StatusActive)}, 100},
		{"neutral aligned with quiet signals", neutral,
			[]core.Signal{sig(core.ThresholdAbove, core.StatusActive)}, 100},
		{"neutral not aligned with triggered", neutral,
			[]core.Signal{sig(core.ThresholdAbove, core.StatusTriggered)}, 0},
		{"half aligned", bullish, []core.Signal{
			sig(core.ThresholdAbove, core.StatusTriggered),
			sig(core.ThresholdBelow, core.StatusTriggered),
		}, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.signalComponent(tt.def, tt.signals); got != tt.want {
				t.Errorf("signalComponent = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRun_SignalValidation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LevelWeights = map[core.Level]float64{
		core.LevelRawActivity: 2,
		core.LevelSentiment:   1,
	}
	e, err := New(scenario.DefaultCatalog(), cfg, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	signals := []core.Signal{
		{Level: core.LevelRawActivity, Status: core.StatusTriggered, CurrentValue: fptr(10)},
		{Level: core.LevelSentiment, Status: core.StatusActive},
	}
	report, err := e.Run(context.Background(), Request{
		Signals:                 signals,
		TimeHorizonMonths:       12,
		ScenarioNames:           []string{"sideways"},
		IncludeSignalValidation: true,
		Seed:                    2,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	v := report.SignalValidation
	if v == nil {
		t.Fatal("expected signal validation section")
	}
	if v.TriggeredCount != 1 {
		t.Errorf("triggered count = %d, want 1", v.TriggeredCount)
	}
	if v.LevelCounts[core.LevelRawActivity] != 1 || v.LevelCounts[core.LevelSentiment] != 1 {
		t.Errorf("unexpected level counts: %v", v.LevelCounts)
	}
	if !almostEqual(v.CheckedFraction, 0.5) {
		t.Errorf("checked fraction = %v, want 0.5", v.CheckedFraction)
	}
	// Only the weight-2 signal has an observation: 2 / (2+1).
	if !almostEqual(v.ValidationScore, 2.0/3.0) {
		t.Errorf("validation score = %v, want 2/3", v.ValidationScore)
	}
}

func TestRun_OmitsValidationUnlessRequested(t *testing.T) {
	e := newEngine(t)
	report, err := e.Run(context.Background(), Request{
		Signals:           []core.Signal{{Status: core.StatusActive}},
		TimeHorizonMonths: 12,
		ScenarioNames:     []string{"sideways"},
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.SignalValidation != nil {
		t.Error("validation section must be opt-in")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"weights off", func(c *Config) { c.Scoring.ReturnWeight = 0.5 }, false},
		{"negative weight", func(c *Config) {
			c.Scoring.ReturnWeight = -0.2
			c.Scoring.SignalWeight = 1.2
		}, false},
		{"inverted band", func(c *Config) {
			c.Scoring.BandFloor = 0.5
			c.Scoring.BandCeil = -0.5
		}, false},
		{"inverted cutoffs", func(c *Config) {
			c.Cutoffs = StressCutoffs{High: 40, Medium: 70}
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, core.ErrConfiguration) {
				t.Errorf("expected configuration error, got %v", err)
			}
		})
	}
}
