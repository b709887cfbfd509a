package eventlog

import (
	"context"
	"testing"
	"time"

	"github.com/threshold-labs/sentry/internal/core"
)

func newEvent(id, signalID, thesisID string) core.NotificationEvent {
	return core.NotificationEvent{
		ID:         id,
		SignalID:   signalID,
		ThesisID:   thesisID,
		SignalName: "Margin",
		FromStatus: core.StatusActive,
		ToStatus:   core.StatusTriggered,
		Message:    "Margin crossed its threshold",
		Urgency:    core.UrgencyMedium,
		CreatedAt:  time.Now(),
	}
}

func TestMemory_AppendAndList(t *testing.T) {
	l := NewMemory()
	ctx := context.Background()

	l.Append(ctx, newEvent("e1", "sig-1", "thesis-1"))
	l.Append(ctx, newEvent("e2", "sig-2", "thesis-1"))
	l.Append(ctx, newEvent("e3", "sig-1", "thesis-2"))

	all, err := l.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 3 || all[0].ID != "e1" {
		t.Errorf("expected 3 events in append order, got %d", len(all))
	}

	bySignal, _ := l.List(ctx, Filter{SignalID: "sig-1"})
	if len(bySignal) != 2 {
		t.Errorf("expected 2 events for sig-1, got %d", len(bySignal))
	}

	byThesis, _ := l.List(ctx, Filter{ThesisID: "thesis-2"})
	if len(byThesis) != 1 || byThesis[0].ID != "e3" {
		t.Errorf("thesis filter wrong: %v", byThesis)
	}

	limited, _ := l.List(ctx, Filter{Limit: 2})
	if len(limited) != 2 {
		t.Errorf("limit ignored: got %d", len(limited))
	}
}

func TestMemory_AppendRejectsDuplicatesAndBlankIDs(t *testing.T) {
	l := NewMemory()
	ctx := context.Background()

	if err := l.Append(ctx, newEvent("", "sig-1", "thesis-1")); err == nil {
		t.Error("expected error for blank ID")
	}

	l.Append(ctx, newEvent("e1", "sig-1", "thesis-1"))
	if err := l.Append(ctx, newEvent("e1", "sig-1", "thesis-1")); err == nil {
		t.Error("expected error for duplicate ID")
	}
}

func TestMemory_Acknowledge(t *testing.T) {
	l := NewMemory()
	ctx := context.Background()

	l.Append(ctx, newEvent("e1", "sig-1", "thesis-1"))
	l.Append(ctx, newEvent("e2", "sig-1", "thesis-1"))

	if n, _ := l.UnacknowledgedCount(ctx); n != 2 {
		t.Errorf("expected 2 unacknowledged, got %d", n)
	}

	if err := l.Acknowledge(ctx, "e1"); err != nil {
		t.Fatalf("Acknowledge failed: %v", err)
	}
	if err := l.Acknowledge(ctx, "missing"); err == nil {
		t.Error("expected error for unknown event")
	}

	if n, _ := l.UnacknowledgedCount(ctx); n != 1 {
		t.Errorf("expected 1 unacknowledged after ack, got %d", n)
	}

	pending, _ := l.List(ctx, Filter{Unacknowledged: true})
	if len(pending) != 1 || pending[0].ID != "e2" {
		t.Errorf("unacknowledged filter wrong: %v", pending)
	}
}
