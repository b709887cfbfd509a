// Package provider defines the value-provider boundary: the external
// collaborator the monitoring engine reads current signal values from.
package provider

import (
	"context"

	"github.com/threshold-labs/sentry/internal/core"
)

// ValueProvider fetches the current value for a signal. Implementations
// may fail transiently; callers bound each fetch with a timeout and treat
// a timeout like any other failed read.
type ValueProvider interface {
	// Name returns the unique identifier for this provider.
	Name() string

	// Fetch returns the current value for the signal.
	Fetch(ctx context.Context, sig core.Signal) (float64, error)
}

// Func adapts a plain function to the ValueProvider interface.
type Func struct {
	ProviderName string
	FetchFunc    func(ctx context.Context, sig core.Signal) (float64, error)
}

func (f Func) Name() string {
	if f.ProviderName == "" {
		return "func"
	}
	return f.ProviderName
}

func (f Func) Fetch(ctx context.Context, sig core.Signal) (float64, error) {
	return f.FetchFunc(ctx, sig)
}
