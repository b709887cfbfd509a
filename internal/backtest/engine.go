package backtest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/threshold-labs/sentry/internal/core"
	"github.com/threshold-labs/sentry/internal/metrics"
	"github.com/threshold-labs/sentry/internal/scenario"
)

// Scoring configures the per-scenario composite score.
type Scoring struct {
	// ReturnWeight and SignalWeight blend the two components and must
	// sum to 1.
	ReturnWeight float64 `mapstructure:"return_weight"`
	SignalWeight float64 `mapstructure:"signal_weight"`

	// BandFloor and BandCeil bound the reference band a terminal return
	// is normalized against.
	BandFloor float64 `mapstructure:"band_floor"`
	BandCeil  float64 `mapstructure:"band_ceil"`

	// AlignEps separates bullish/bearish scenarios from neutral ones by
	// annual drift magnitude.
	AlignEps float64 `mapstructure:"align_eps"`
}

// StressCutoffs maps the overall stress score to a resistance bucket.
type StressCutoffs struct {
	High   float64 `mapstructure:"high"`   // resistance high above this
	Medium float64 `mapstructure:"medium"` // resistance medium above this
}

// Config holds the risk engine's tunables. Everything here is
// configuration, not logic: weights, bands, cutoffs and the rule table.
type Config struct {
	Scoring      Scoring
	Cutoffs      StressCutoffs
	Rules        []Rule
	LevelWeights map[core.Level]float64
}

// DefaultConfig returns the compiled-in tuning.
func DefaultConfig() Config {
	return Config{
		Scoring: Scoring{
			ReturnWeight: 0.7,
			SignalWeight: 0.3,
			BandFloor:    -0.5,
			BandCeil:     0.5,
			AlignEps:     0.05,
		},
		Cutoffs: StressCutoffs{High: 70, Medium: 40},
		Rules:   DefaultRules(),
	}
}

// Validate checks the config before any engine uses it.
func (c Config) Validate() error {
	s := c.Scoring
	if s.ReturnWeight < 0 || s.SignalWeight < 0 {
		return core.WrapError(core.ErrConfiguration,
			fmt.Errorf("score weights must be non-negative"))
	}
	if sum := s.ReturnWeight + s.SignalWeight; sum < 0.999 || sum > 1.001 {
		return core.WrapError(core.ErrConfiguration,
			fmt.Errorf("score weights must sum to 1, got %f", sum))
	}
	if s.BandFloor >= s.BandCeil {
		return core.WrapError(core.ErrConfiguration,
			fmt.Errorf("reference band floor %f must be below ceiling %f", s.BandFloor, s.BandCeil))
	}
	if c.Cutoffs.Medium > c.Cutoffs.High {
		return core.WrapError(core.ErrConfiguration,
			fmt.Errorf("stress cutoffs out of order: medium %f > high %f", c.Cutoffs.Medium, c.Cutoffs.High))
	}
	return nil
}

// Engine runs backtest requests. It is stateless between requests; all
// state lives in the request and the report.
type Engine struct {
	catalog *scenario.Catalog
	cfg     Config
	logger  *zap.Logger
	metrics *metrics.Registry
	now     func() time.Time
}

// New creates a backtest engine over a scenario catalog.
func New(catalog *scenario.Catalog, cfg Config, logger *zap.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(cfg.Rules) == 0 {
		cfg.Rules = DefaultRules()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		catalog: catalog,
		cfg:     cfg,
		logger:  logger.Named("backtest"),
		now:     time.Now,
	}, nil
}

// WithMetrics attaches Prometheus instrumentation.
func (e *Engine) WithMetrics(m *metrics.Registry) *Engine {
	e.metrics = m
	return e
}

type run struct {
	def      scenario.Definition
	explicit bool // named in the request, as opposed to appended stress
}

// Run executes one backtest request. Configuration problems reject the
// whole request before any simulation; cancellation mid-flight discards
// everything computed so far.
func (e *Engine) Run(ctx context.Context, req Request) (*Report, error) {
	start := e.now()

	runs, err := e.plan(req)
	if err != nil {
		e.recordBacktest("rejected", start)
		return nil, err
	}

	results := make([]ScenarioResult, 0, len(runs))
	for _, r := range runs {
		if err := ctx.Err(); err != nil {
			e.recordBacktest("cancelled", start)
			return nil, err
		}

		path, err := scenario.Simulate(r.def, req.TimeHorizonMonths,
			scenario.DeriveSeed(req.Seed, r.def.Name))
		if err != nil {
			e.recordBacktest("error", start)
			return nil, err
		}

		score := e.score(r.def, path, req.Signals)
		if e.metrics != nil {
			e.metrics.ObserveScenarioScore(score)
		}
		results = append(results, ScenarioResult{
			Name:      r.def.Name,
			IsStress:  r.def.IsStress,
			Path:      path,
			Score:     score,
			RiskLevel: riskLevelFor(r.def.Volatility),
		})
	}

	report := &Report{
		TimeHorizonMonths: req.TimeHorizonMonths,
		Seed:              req.Seed,
		GeneratedAt:       e.now(),
		ScenarioResults:   results,
	}

	explicit := results[:len(req.ScenarioNames)]
	report.PerformanceSummary = summarize(explicit)
	report.RiskMetrics = riskMetrics(results)
	report.StressTestResults = e.stressResults(results)
	if req.IncludeSignalValidation {
		v := e.validateSignals(req.Signals)
		report.SignalValidation = &v
	}
	report.Recommendations = e.recommend(report)

	e.recordBacktest("ok", start)
	e.logger.Debug("backtest complete",
		zap.Int("scenarios", len(results)),
		zap.Float64("average_score", report.PerformanceSummary.AverageScore),
	)
	return report, nil
}

// plan validates the request and resolves the ordered scenario list:
// the requested names first, then the catalog's stress scenarios when
// asked for (skipping ones already requested by name).
func (e *Engine) plan(req Request) ([]run, error) {
	if req.TimeHorizonMonths < 1 {
		return nil, core.WrapError(core.ErrConfiguration,
			fmt.Errorf("time horizon must be positive, got %d months", req.TimeHorizonMonths))
	}
	if len(req.ScenarioNames) == 0 {
		return nil, core.WrapError(core.ErrConfiguration,
			fmt.Errorf("at least one scenario is required"))
	}

	seen := make(map[string]bool, len(req.ScenarioNames))
	runs := make([]run, 0, len(req.ScenarioNames))
	for _, name := range req.ScenarioNames {
		if seen[name] {
			return nil, core.WrapError(core.ErrConfiguration,
				fmt.Errorf("scenario %s requested twice", name))
		}
		seen[name] = true

		def, err := e.catalog.Lookup(name)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run{def: def, explicit: true})
	}

	if req.IncludeStressTests {
		for _, def := range e.catalog.Stress() {
			if seen[def.Name] {
				continue
			}
			runs = append(runs, run{def: def})
		}
	}
	return runs, nil
}

// score blends the path's terminal return, normalized against the
// reference band, with the fraction of the thesis's signals aligned
// with the scenario's direction.
func (e *Engine) score(def scenario.Definition, path scenario.ReturnPath, signals []core.Signal) float64 {
	s := e.cfg.Scoring

	returnComponent := clamp(
		(path.TerminalReturn-s.BandFloor)/(s.BandCeil-s.BandFloor), 0, 1) * 100
	signalComponent := e.signalComponent(def, signals)

	return s.ReturnWeight*returnComponent + s.SignalWeight*signalComponent
}

// signalComponent measures how much of the monitored signal set lines
// up with the scenario's direction. A bullish scenario is supported by
// triggered momentum-style signals; a bearish one by triggered
// downside signals plus upside signals that stayed quiet.
func (e *Engine) signalComponent(def scenario.Definition, signals []core.Signal) float64 {
	var total, aligned int
	for _, sig := range signals {
		if sig.Status == core.StatusInactive {
			continue
		}
		total++

		switch {
		case def.Drift > e.cfg.Scoring.AlignEps: // bullish
			if sig.Status == core.StatusTriggered &&
				(sig.ThresholdType == core.ThresholdAbove || sig.ThresholdType == core.ThresholdChangePercent) {
				aligned++
			}
		case def.Drift < -e.cfg.Scoring.AlignEps: // bearish
			if sig.Status == core.StatusTriggered && sig.ThresholdType == core.ThresholdBelow {
				aligned++
			} else if sig.Status == core.StatusActive && sig.ThresholdType == core.ThresholdAbove {
				aligned++
			}
		default: // neutral
			if sig.Status == core.StatusActive {
				aligned++
			}
		}
	}
	if total == 0 {
		return 50 // neutral prior with nothing to validate against
	}
	return float64(aligned) / float64(total) * 100
}

func riskLevelFor(band scenario.VolatilityBand) RiskLevel {
	switch band {
	case scenario.BandLow:
		return RiskLow
	case scenario.BandHigh:
		return RiskHigh
	}
	return RiskMedium
}

// summarize aggregates the explicitly requested scenarios. Ties on
// best/worst resolve to the earliest declared scenario.
func summarize(results []ScenarioResult) PerformanceSummary {
	scores := make([]float64, len(results))
	best, worst := 0, 0
	for i, r := range results {
		scores[i] = r.Score
		if r.Score > results[best].Score {
			best = i
		}
		if r.Score < results[worst].Score {
			worst = i
		}
	}
	return PerformanceSummary{
		AverageScore:  mean(scores),
		BestScenario:  results[best].Name,
		WorstScenario: results[worst].Name,
		Consistency:   clamp(1-stdev(scores)/100, 0, 1),
	}
}

// riskMetrics pools terminal returns across every simulated path.
func riskMetrics(results []ScenarioResult) RiskMetrics {
	terminals := make([]float64, len(results))
	for i, r := range results {
		terminals[i] = r.Path.TerminalReturn
	}

	m := RiskMetrics{
		ExpectedReturn: mean(terminals),
		Volatility:     stdev(terminals),
		VaR95:          percentile5(terminals),
		MaxLoss:        minOf(terminals),
		DownsideRisk:   semiDeviation(terminals),
	}
	if m.Volatility != 0 {
		m.RiskAdjustedReturn = m.ExpectedReturn / m.Volatility
		m.RiskAdjustedDefined = true
	}
	return m
}

func (e *Engine) stressResults(results []ScenarioResult) *StressTestResults {
	var stress []ScenarioResult
	var scores []float64
	for _, r := range results {
		if r.IsStress {
			stress = append(stress, r)
			scores = append(scores, r.Score)
		}
	}
	if len(stress) == 0 {
		return nil
	}

	overall := mean(scores)
	resistance := RiskLow
	switch {
	case overall > e.cfg.Cutoffs.High:
		resistance = RiskHigh
	case overall > e.cfg.Cutoffs.Medium:
		resistance = RiskMedium
	}

	return &StressTestResults{
		OverallStressScore: overall,
		StressResistance:   resistance,
		Results:            stress,
	}
}

func (e *Engine) validateSignals(signals []core.Signal) SignalValidation {
	v := SignalValidation{LevelCounts: make(map[core.Level]int)}

	var totalWeight, checkedWeight float64
	var checked int
	for _, sig := range signals {
		v.LevelCounts[sig.Level]++
		if sig.Status == core.StatusTriggered {
			v.TriggeredCount++
		}

		w := 1.0
		if lw, ok := e.cfg.LevelWeights[sig.Level]; ok {
			w = lw
		}
		totalWeight += w
		if sig.CurrentValue != nil {
			checked++
			checkedWeight += w
		}
	}

	if len(signals) > 0 {
		v.CheckedFraction = float64(checked) / float64(len(signals))
	}
	if totalWeight > 0 {
		v.ValidationScore = checkedWeight / totalWeight
	}
	return v
}

func (e *Engine) recommend(report *Report) []string {
	in := ruleInput{
		averageScore: report.PerformanceSummary.AverageScore,
		consistency:  report.PerformanceSummary.Consistency,
		volatility:   report.RiskMetrics.Volatility,
		maxLoss:      report.RiskMetrics.MaxLoss,
		var95:        report.RiskMetrics.VaR95,
	}
	if report.StressTestResults != nil {
		in.stressScore = &report.StressTestResults.OverallStressScore
	}
	return evaluateRules(e.cfg.Rules, in)
}

func (e *Engine) recordBacktest(status string, start time.Time) {
	if e.metrics != nil {
		e.metrics.RecordBacktest(status, e.now().Sub(start).Seconds())
	}
}
