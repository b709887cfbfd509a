package eventlog

import (
	"context"
	"fmt"
	"sync"

	"github.com/threshold-labs/sentry/internal/core"
)

// Memory is an in-memory event log.
type Memory struct {
	mu     sync.RWMutex
	events []core.NotificationEvent
	byID   map[string]int
}

// NewMemory creates an empty in-memory event log.
func NewMemory() *Memory {
	return &Memory{byID: make(map[string]int)}
}

func (m *Memory) Append(ctx context.Context, event core.NotificationEvent) error {
	if event.ID == "" {
		return fmt.Errorf("eventlog: event without ID")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byID[event.ID]; exists {
		return fmt.Errorf("eventlog: event %s already recorded", event.ID)
	}
	m.byID[event.ID] = len(m.events)
	m.events = append(m.events, event)
	return nil
}

func (m *Memory) List(ctx context.Context, filter Filter) ([]core.NotificationEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []core.NotificationEvent
	for _, e := range m.events {
		if filter.SignalID != "" && e.SignalID != filter.SignalID {
			continue
		}
		if filter.ThesisID != "" && e.ThesisID != filter.ThesisID {
			continue
		}
		if filter.Unacknowledged && e.Acknowledged {
			continue
		}
		result = append(result, e)
		if filter.Limit > 0 && len(result) == filter.Limit {
			break
		}
	}
	return result, nil
}

func (m *Memory) Acknowledge(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i, ok := m.byID[id]
	if !ok {
		return fmt.Errorf("eventlog: event %s not found", id)
	}
	m.events[i].Acknowledged = true
	return nil
}

func (m *Memory) UnacknowledgedCount(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, e := range m.events {
		if !e.Acknowledged {
			count++
		}
	}
	return count, nil
}
