package scenario

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/threshold-labs/sentry/internal/core"
)

// ReturnPath is a month-indexed simulated return series for one scenario.
type ReturnPath struct {
	Scenario string `json:"scenario"`
	Months   int    `json:"months"`
	Seed     int64  `json:"seed"`

	// MonthlyReturns holds each month's simple return; Cumulative holds
	// the multiplicatively compounded return through each month.
	MonthlyReturns []float64 `json:"monthly_returns"`
	Cumulative     []float64 `json:"cumulative"`

	// TerminalReturn is the cumulative return at the horizon.
	TerminalReturn float64 `json:"terminal_return"`

	// Path statistics for the report layer.
	MeanAbsMonthly float64 `json:"mean_abs_monthly"` // average magnitude of monthly moves
	WorstMonth     float64 `json:"worst_month"`      // most negative single monthly return
	MaxDrawdown    float64 `json:"max_drawdown"`     // largest peak-to-trough decline, as a positive fraction
}

// Simulate generates the return path for a scenario over the horizon.
//
// Monthly returns are drawn from a normal distribution with mean
// drift/12 and the scenario's monthly sigma, using a source seeded with
// seed. Identical (def, horizonMonths, seed) inputs always produce an
// identical path.
func Simulate(def Definition, horizonMonths int, seed int64) (ReturnPath, error) {
	if horizonMonths <= 0 {
		return ReturnPath{}, core.WrapError(core.ErrConfiguration,
			fmt.Errorf("time horizon must be positive, got %d months", horizonMonths))
	}
	if !def.Volatility.IsValid() {
		return ReturnPath{}, core.WrapError(core.ErrConfiguration,
			fmt.Errorf("scenario %s: unknown volatility band %q", def.Name, def.Volatility))
	}

	rng := rand.New(rand.NewSource(seed))
	monthlyDrift := def.Drift / 12
	sigma := def.MonthlySigma()

	path := ReturnPath{
		Scenario:       def.Name,
		Months:         horizonMonths,
		Seed:           seed,
		MonthlyReturns: make([]float64, horizonMonths),
		Cumulative:     make([]float64, horizonMonths),
	}

	cumulative := 1.0
	peak := 1.0
	sumAbs := 0.0
	worst := math.Inf(1)

	for i := 0; i < horizonMonths; i++ {
		r := monthlyDrift + rng.NormFloat64()*sigma
		path.MonthlyReturns[i] = r

		cumulative *= 1 + r
		path.Cumulative[i] = cumulative - 1

		sumAbs += math.Abs(r)
		if r < worst {
			worst = r
		}
		// Peak-to-trough tracking over the compounded path.
		if cumulative > peak {
			peak = cumulative
		}
		if dd := (peak - cumulative) / peak; dd > path.MaxDrawdown {
			path.MaxDrawdown = dd
		}
	}

	path.TerminalReturn = path.Cumulative[horizonMonths-1]
	path.MeanAbsMonthly = sumAbs / float64(horizonMonths)
	path.WorstMonth = worst
	return path, nil
}
