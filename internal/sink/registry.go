package sink

import (
	"context"
	"fmt"
	"sync"

	"github.com/threshold-labs/sentry/internal/core"
)

// Registry manages sink instances and fans events out to all of them.
type Registry struct {
	mu    sync.RWMutex
	order []string
	sinks map[string]Sink
}

// NewRegistry creates a new sink registry.
func NewRegistry() *Registry {
	return &Registry{
		sinks: make(map[string]Sink),
	}
}

// Register adds a sink to the registry.
func (r *Registry) Register(s Sink) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := s.Name()
	if _, exists := r.sinks[name]; exists {
		return fmt.Errorf("sink %s already registered", name)
	}

	r.sinks[name] = s
	r.order = append(r.order, name)
	return nil
}

// Get retrieves a sink by name.
func (r *Registry) Get(name string) (Sink, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, exists := r.sinks[name]
	if !exists {
		return nil, fmt.Errorf("sink %s not found", name)
	}
	return s, nil
}

// Names returns registered sink names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// EmitAll delivers the event to every registered sink. A failing sink
// never blocks the others; failures come back keyed by sink name.
func (r *Registry) EmitAll(ctx context.Context, event core.NotificationEvent) map[string]error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	errs := make(map[string]error)
	for _, name := range r.order {
		if err := r.sinks[name].Emit(ctx, event); err != nil {
			errs[name] = core.WrapError(core.ErrSinkFailed, err)
		}
	}
	return errs
}
