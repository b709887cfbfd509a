package provider

import (
	"context"
	"fmt"
	"sync"

	"github.com/threshold-labs/sentry/internal/core"
)

// Static serves values from an in-memory map keyed by signal ID. It backs
// tests and the CLI harness; missing entries read as transient failures,
// which is exactly how a flaky feed presents to the engine.
type Static struct {
	mu     sync.RWMutex
	values map[string]float64
}

// NewStatic creates a Static provider seeded with the given values.
func NewStatic(values map[string]float64) *Static {
	copied := make(map[string]float64, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return &Static{values: copied}
}

func (s *Static) Name() string { return "static" }

func (s *Static) Fetch(ctx context.Context, sig core.Signal) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, core.WrapError(core.ErrTransientFetch, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[sig.ID]
	if !ok {
		return 0, core.WrapError(core.ErrTransientFetch,
			fmt.Errorf("no value for signal %s", sig.ID))
	}
	return v, nil
}

// Set updates the value served for a signal ID.
func (s *Static) Set(id string, value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[id] = value
}

// Remove deletes a signal's value so subsequent reads fail transiently.
func (s *Static) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, id)
}
