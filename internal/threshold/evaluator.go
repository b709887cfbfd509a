// Package threshold implements the pure comparison at the heart of signal
// monitoring: given an observed value and a signal's threshold
// configuration, decide whether the signal's condition holds.
package threshold

import (
	"fmt"
	"math"

	"github.com/threshold-labs/sentry/internal/core"
)

// Evaluate reports whether an observed value satisfies a threshold.
//
// above and below compare strictly: equality never triggers. change_percent
// compares the absolute percent change from the previous observation
// against the threshold (expressed in percent points, so 5 means 5%) and
// triggers at or beyond it. With no previous observation change_percent
// never triggers; a previous value of zero is undefined and fails with
// an evaluation error rather than dividing.
func Evaluate(current float64, previous *float64, thresholdValue float64, tt core.ThresholdType) (bool, error) {
	switch tt {
	case core.ThresholdAbove:
		return current > thresholdValue, nil
	case core.ThresholdBelow:
		return current < thresholdValue, nil
	case core.ThresholdChangePercent:
		if previous == nil {
			// First observation: nothing to compare against.
			return false, nil
		}
		if *previous == 0 {
			return false, core.WrapError(core.ErrEvaluation,
				fmt.Errorf("change_percent undefined for zero previous value"))
		}
		change := math.Abs(current-*previous) / math.Abs(*previous) * 100
		return change >= thresholdValue, nil
	}
	return false, core.WrapError(core.ErrEvaluation,
		fmt.Errorf("unknown threshold type %q", tt))
}

// EvaluateSignal applies Evaluate to a signal, using the signal's last
// observed value as the previous observation.
func EvaluateSignal(sig core.Signal, observed float64) (bool, error) {
	return Evaluate(observed, sig.CurrentValue, sig.ThresholdValue, sig.ThresholdType)
}
