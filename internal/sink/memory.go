package sink

import (
	"context"
	"sync"

	"github.com/threshold-labs/sentry/internal/core"
)

// Memory records emitted events in memory. It backs tests and the CLI's
// dry-run mode.
type Memory struct {
	mu     sync.Mutex
	events []core.NotificationEvent

	// FailWith, when set, makes every Emit fail. Lets tests exercise
	// per-sink error isolation.
	FailWith error
}

// NewMemory creates an empty in-memory sink.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Name() string { return "memory" }

func (m *Memory) Emit(ctx context.Context, event core.NotificationEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWith != nil {
		return m.FailWith
	}
	m.events = append(m.events, event)
	return nil
}

// Events returns a copy of everything emitted so far.
func (m *Memory) Events() []core.NotificationEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]core.NotificationEvent, len(m.events))
	copy(out, m.events)
	return out
}

// Reset clears recorded events.
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
}
