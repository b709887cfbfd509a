package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/threshold-labs/sentry/internal/core"
)

func newTestSignal(thesisID, name string) core.Signal {
	return core.Signal{
		ThesisID:       thesisID,
		Name:           name,
		Level:          core.LevelDerivedMetric,
		SignalType:     core.SignalTypeCompany,
		ThresholdValue: 5,
		ThresholdType:  core.ThresholdChangePercent,
		Status:         core.StatusActive,
	}
}

func TestMemory_CreateAssignsIDAndDefaults(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	sig := newTestSignal("thesis-1", "Operating Margin")
	sig.Status = ""
	sig.ThresholdType = ""

	created, err := s.Create(ctx, sig)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == "" {
		t.Error("expected a generated ID")
	}
	if created.Status != core.StatusActive {
		t.Errorf("expected default status active, got %s", created.Status)
	}
	if created.ThresholdType != core.ThresholdChangePercent {
		t.Errorf("expected default threshold type change_percent, got %s", created.ThresholdType)
	}
	if created.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
}

func TestMemory_CreateRejectsInvalid(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	sig := newTestSignal("thesis-1", "Bad Signal")
	sig.SignalType = "astrology"

	_, err := s.Create(ctx, sig)
	if !errors.Is(err, core.ErrInvalidSignal) {
		t.Errorf("expected INVALID_SIGNAL, got %v", err)
	}
}

func TestMemory_LoadAndList(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	a, _ := s.Create(ctx, newTestSignal("thesis-1", "Margin"))
	s.Create(ctx, newTestSignal("thesis-2", "Volume"))

	got, err := s.Load(ctx, a.ID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.Name != "Margin" {
		t.Errorf("wrong signal: %s", got.Name)
	}

	if _, err := s.Load(ctx, "missing"); !errors.Is(err, core.ErrSignalNotFound) {
		t.Errorf("expected SIGNAL_NOT_FOUND, got %v", err)
	}

	byThesis, _ := s.List(ctx, ListFilter{ThesisID: "thesis-1"})
	if len(byThesis) != 1 {
		t.Errorf("expected 1 signal for thesis-1, got %d", len(byThesis))
	}
}

func TestMemory_ListMonitoredSkipsInactive(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	active, _ := s.Create(ctx, newTestSignal("thesis-1", "Active"))
	paused, _ := s.Create(ctx, newTestSignal("thesis-1", "Paused"))
	s.Pause(ctx, paused.ID)

	monitored, err := s.ListMonitored(ctx)
	if err != nil {
		t.Fatalf("ListMonitored failed: %v", err)
	}
	if len(monitored) != 1 || monitored[0].ID != active.ID {
		t.Errorf("expected only the active signal, got %d", len(monitored))
	}
}

func TestMemory_PauseResume(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	sig, _ := s.Create(ctx, newTestSignal("thesis-1", "Margin"))

	if err := s.Pause(ctx, sig.ID); err != nil {
		t.Fatalf("Pause failed: %v", err)
	}
	got, _ := s.Load(ctx, sig.ID)
	if got.Status != core.StatusInactive {
		t.Errorf("expected inactive, got %s", got.Status)
	}

	if err := s.Resume(ctx, sig.ID); err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	got, _ = s.Load(ctx, sig.ID)
	if got.Status != core.StatusActive {
		t.Errorf("expected active, got %s", got.Status)
	}
}

func TestMemory_UpdateThreshold(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	sig, _ := s.Create(ctx, newTestSignal("thesis-1", "Margin"))

	if err := s.UpdateThreshold(ctx, sig.ID, 42, core.ThresholdAbove); err != nil {
		t.Fatalf("UpdateThreshold failed: %v", err)
	}
	got, _ := s.Load(ctx, sig.ID)
	if got.ThresholdValue != 42 || got.ThresholdType != core.ThresholdAbove {
		t.Errorf("threshold not updated: %+v", got)
	}

	if err := s.UpdateThreshold(ctx, sig.ID, 1, "crosses"); !errors.Is(err, core.ErrInvalidSignal) {
		t.Errorf("expected INVALID_SIGNAL for bad type, got %v", err)
	}
}

func TestMemory_ApplyObservation(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	sig, _ := s.Create(ctx, newTestSignal("thesis-1", "Margin"))

	now := time.Now()
	updated, err := s.ApplyObservation(ctx, sig.ID, func(sig *core.Signal) error {
		v := 106.0
		sig.CurrentValue = &v
		sig.LastCheckedAt = &now
		sig.Status = core.StatusTriggered
		return nil
	})
	if err != nil {
		t.Fatalf("ApplyObservation failed: %v", err)
	}
	if updated.CurrentValue == nil || *updated.CurrentValue != 106 {
		t.Error("current value not applied")
	}
	if updated.Status != core.StatusTriggered {
		t.Error("status not applied")
	}

	persisted, _ := s.Load(ctx, sig.ID)
	if persisted.Status != core.StatusTriggered {
		t.Error("mutation not persisted")
	}
}

func TestMemory_ApplyObservationErrorLeavesUnchanged(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	sig, _ := s.Create(ctx, newTestSignal("thesis-1", "Margin"))

	_, err := s.ApplyObservation(ctx, sig.ID, func(sig *core.Signal) error {
		sig.Status = core.StatusTriggered
		return errors.New("evaluation blew up")
	})
	if err == nil {
		t.Fatal("expected apply error to propagate")
	}

	persisted, _ := s.Load(ctx, sig.ID)
	if persisted.Status != core.StatusActive {
		t.Error("failed apply must not mutate the record")
	}
}

func TestMemory_ApplyObservationConcurrent(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	sig, _ := s.Create(ctx, newTestSignal("thesis-1", "Counter"))

	const workers = 32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.ApplyObservation(ctx, sig.ID, func(sig *core.Signal) error {
				next := 1.0
				if sig.CurrentValue != nil {
					next = *sig.CurrentValue + 1
				}
				sig.CurrentValue = &next
				return nil
			})
		}()
	}
	wg.Wait()

	got, _ := s.Load(ctx, sig.ID)
	if got.CurrentValue == nil || *got.CurrentValue != workers {
		t.Errorf("read-modify-write must be atomic per signal: got %v", got.CurrentValue)
	}
}

func TestMemory_Summary(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	a, _ := s.Create(ctx, newTestSignal("thesis-1", "A"))
	b, _ := s.Create(ctx, newTestSignal("thesis-1", "B"))
	s.Create(ctx, newTestSignal("thesis-2", "C"))

	checked := time.Now()
	s.ApplyObservation(ctx, a.ID, func(sig *core.Signal) error {
		sig.Status = core.StatusTriggered
		sig.LastCheckedAt = &checked
		return nil
	})
	s.Pause(ctx, b.ID)

	summary, err := s.Summary(ctx, "thesis-1")
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if summary.Total != 2 {
		t.Errorf("expected 2 signals, got %d", summary.Total)
	}
	if summary.ByStatus[core.StatusTriggered] != 1 || summary.ByStatus[core.StatusInactive] != 1 {
		t.Errorf("unexpected status counts: %+v", summary.ByStatus)
	}
	if summary.LastChecked == nil || !summary.LastChecked.Equal(checked) {
		t.Error("expected most recent check time")
	}

	all, _ := s.Summary(ctx, "")
	if all.Total != 3 {
		t.Errorf("expected 3 signals overall, got %d", all.Total)
	}
}
