// Package store defines signal persistence. The monitoring engine relies
// on a single guarantee from any implementation: ApplyObservation is an
// atomic read-modify-write per signal, so parallel evaluations of
// different signals need no further synchronization.
package store

import (
	"context"
	"time"

	"github.com/creasty/defaults"
	"github.com/google/uuid"

	"github.com/threshold-labs/sentry/internal/core"
)

// Store defines the interface for signal persistence.
type Store interface {
	// Create validates and persists a new signal, assigning an ID when
	// the caller supplies none.
	Create(ctx context.Context, sig core.Signal) (core.Signal, error)

	// Load retrieves a signal by its ID.
	Load(ctx context.Context, id string) (core.Signal, error)

	// List retrieves signals matching the filter.
	List(ctx context.Context, filter ListFilter) ([]core.Signal, error)

	// ListMonitored returns every signal the monitoring engine should
	// evaluate this cycle (status active or triggered).
	ListMonitored(ctx context.Context) ([]core.Signal, error)

	// UpdateThreshold replaces a signal's threshold configuration. This
	// is the only user-initiated mutation of a monitored signal.
	UpdateThreshold(ctx context.Context, id string, value float64, tt core.ThresholdType) error

	// Pause moves a signal to inactive so evaluation skips it.
	Pause(ctx context.Context, id string) error

	// Resume returns a paused signal to active.
	Resume(ctx context.Context, id string) error

	// ApplyObservation runs apply under the signal's atomic
	// read-modify-write and persists the result. If apply returns an
	// error the signal is left unchanged.
	ApplyObservation(ctx context.Context, id string, apply func(*core.Signal) error) (core.Signal, error)

	// Summary aggregates monitoring status for dashboard-style callers.
	// An empty thesisID aggregates over all signals.
	Summary(ctx context.Context, thesisID string) (Summary, error)
}

// ListFilter defines criteria for listing signals.
type ListFilter struct {
	ThesisID   string
	Status     core.Status
	SignalType string
	Limit      int
	Offset     int
}

// Summary aggregates signal monitoring state.
type Summary struct {
	Total       int
	ByStatus    map[core.Status]int
	LastChecked *time.Time
}

// prepareNew fills server-assigned fields on a new signal and validates
// the result. Callers keep explicit values; only zero fields are defaulted.
func prepareNew(sig *core.Signal, now time.Time) error {
	if sig.ID == "" {
		sig.ID = uuid.NewString()
	}
	if err := defaults.Set(sig); err != nil {
		return core.WrapError(core.ErrInvalidSignal, err)
	}
	if sig.CreatedAt.IsZero() {
		sig.CreatedAt = now
	}
	return sig.Validate()
}
