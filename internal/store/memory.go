package store

import (
	"context"
	"sync"
	"time"

	"github.com/threshold-labs/sentry/internal/core"
)

// Memory is an in-memory signal store. Records are copied on the way in
// and out so callers never share memory with the store.
type Memory struct {
	mu      sync.RWMutex
	signals map[string]core.Signal
	order   []string // creation order, for stable listings
	now     func() time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		signals: make(map[string]core.Signal),
		now:     time.Now,
	}
}

func (m *Memory) Create(ctx context.Context, sig core.Signal) (core.Signal, error) {
	if err := prepareNew(&sig, m.now()); err != nil {
		return core.Signal{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.signals[sig.ID]; exists {
		return core.Signal{}, core.WrapError(core.ErrStoreConflict, nil)
	}
	m.signals[sig.ID] = sig
	m.order = append(m.order, sig.ID)
	return sig, nil
}

func (m *Memory) Load(ctx context.Context, id string) (core.Signal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sig, ok := m.signals[id]
	if !ok {
		return core.Signal{}, core.ErrSignalNotFound
	}
	return sig, nil
}

func (m *Memory) List(ctx context.Context, filter ListFilter) ([]core.Signal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []core.Signal
	for _, id := range m.order {
		sig := m.signals[id]
		if m.matches(sig, filter) {
			result = append(result, sig)
		}
	}

	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return []core.Signal{}, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (m *Memory) ListMonitored(ctx context.Context) ([]core.Signal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []core.Signal
	for _, id := range m.order {
		sig := m.signals[id]
		if sig.Status != core.StatusInactive {
			result = append(result, sig)
		}
	}
	return result, nil
}

func (m *Memory) UpdateThreshold(ctx context.Context, id string, value float64, tt core.ThresholdType) error {
	if !tt.IsValid() {
		return core.ErrInvalidSignal
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sig, ok := m.signals[id]
	if !ok {
		return core.ErrSignalNotFound
	}
	sig.ThresholdValue = value
	sig.ThresholdType = tt
	m.signals[id] = sig
	return nil
}

func (m *Memory) Pause(ctx context.Context, id string) error {
	return m.setStatus(id, core.StatusInactive)
}

func (m *Memory) Resume(ctx context.Context, id string) error {
	return m.setStatus(id, core.StatusActive)
}

func (m *Memory) setStatus(id string, status core.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sig, ok := m.signals[id]
	if !ok {
		return core.ErrSignalNotFound
	}
	sig.Status = status
	m.signals[id] = sig
	return nil
}

func (m *Memory) ApplyObservation(ctx context.Context, id string, apply func(*core.Signal) error) (core.Signal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sig, ok := m.signals[id]
	if !ok {
		return core.Signal{}, core.ErrSignalNotFound
	}

	updated := sig
	if err := apply(&updated); err != nil {
		return core.Signal{}, err
	}
	m.signals[id] = updated
	return updated, nil
}

func (m *Memory) Summary(ctx context.Context, thesisID string) (Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	summary := Summary{ByStatus: make(map[core.Status]int)}
	for _, sig := range m.signals {
		if thesisID != "" && sig.ThesisID != thesisID {
			continue
		}
		summary.Total++
		summary.ByStatus[sig.Status]++
		if sig.LastCheckedAt != nil {
			if summary.LastChecked == nil || sig.LastCheckedAt.After(*summary.LastChecked) {
				t := *sig.LastCheckedAt
				summary.LastChecked = &t
			}
		}
	}
	return summary, nil
}

func (m *Memory) matches(sig core.Signal, filter ListFilter) bool {
	if filter.ThesisID != "" && sig.ThesisID != filter.ThesisID {
		return false
	}
	if filter.Status != "" && sig.Status != filter.Status {
		return false
	}
	if filter.SignalType != "" && sig.SignalType != filter.SignalType {
		return false
	}
	return true
}
