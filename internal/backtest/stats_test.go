package backtest

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestMean(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"empty", nil, 0},
		{"single", []float64{7}, 7},
		{"mixed", []float64{-1, 0, 1, 4}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mean(tt.values); !almostEqual(got, tt.want) {
				t.Errorf("mean(%v) = %v, want %v", tt.values, got, tt.want)
			}
		})
	}
}

func TestStdev(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"empty", nil, 0},
		{"single value is zero", []float64{5}, 0},
		{"identical values", []float64{3, 3, 3, 3}, 0},
		{"two values", []float64{2, 4}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stdev(tt.values); !almostEqual(got, tt.want) {
				t.Errorf("stdev(%v) = %v, want %v", tt.values, got, tt.want)
			}
		})
	}
}

func TestSemiDeviation(t *testing.T) {
	// Mean is 0; only -2 lies below it, so the semi-deviation is 2.
	got := semiDeviation([]float64{-2, 0, 2})
	if !almostEqual(got, 2) {
		t.Errorf("semiDeviation = %v, want 2", got)
	}

	if got := semiDeviation([]float64{1, 1, 1}); got != 0 {
		t.Errorf("no values below mean should yield 0, got %v", got)
	}
}

func TestPercentile5(t *testing.T) {
	// 20 values: index floor(0.05*20) = 1, the second smallest.
	values := make([]float64, 20)
	for i := range values {
		values[i] = float64(20 - i) // descending, unsorted input
	}
	if got := percentile5(values); !almostEqual(got, 2) {
		t.Errorf("percentile5 = %v, want 2", got)
	}

	// Small samples fall back to the minimum.
	if got := percentile5([]float64{3, 1, 2}); !almostEqual(got, 1) {
		t.Errorf("percentile5 of small sample = %v, want 1", got)
	}
}

func TestMinOf(t *testing.T) {
	if got := minOf([]float64{0.3, -0.45, 0.1}); !almostEqual(got, -0.45) {
		t.Errorf("minOf = %v, want -0.45", got)
	}
	if got := minOf(nil); got != 0 {
		t.Errorf("minOf(nil) = %v, want 0", got)
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		v, lo, hi, want float64
	}{
		{0.5, 0, 1, 0.5},
		{-2, 0, 1, 0},
		{3, 0, 1, 1},
	}
	for _, tt := range tests {
		if got := clamp(tt.v, tt.lo, tt.hi); got != tt.want {
			t.Errorf("clamp(%v, %v, %v) = %v, want %v", tt.v, tt.lo, tt.hi, got, tt.want)
		}
	}
}
