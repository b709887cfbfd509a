package archive

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threshold-labs/sentry/internal/core"
)

func archivedEvent(id string, at time.Time) core.NotificationEvent {
	return core.NotificationEvent{
		ID:             id,
		SignalID:       "sig-1",
		ThesisID:       "thesis-1",
		SignalName:     "Port Traffic",
		FromStatus:     core.StatusActive,
		ToStatus:       core.StatusTriggered,
		Message:        "Port Traffic crossed above threshold",
		Urgency:        core.UrgencyHigh,
		CurrentValue:   120,
		ThresholdValue: 100,
		CreatedAt:      at,
	}
}

func TestArchiver_EmitPartitionsByDay(t *testing.T) {
	fs, err := NewLocalFS(t.TempDir())
	require.NoError(t, err)
	a := NewArchiver(fs)
	ctx := context.Background()

	day1 := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 8, 2, 9, 0, 0, 0, time.UTC)

	require.NoError(t, a.Emit(ctx, archivedEvent("e1", day1)))
	require.NoError(t, a.Emit(ctx, archivedEvent("e2", day1.Add(4*time.Hour))))
	require.NoError(t, a.Emit(ctx, archivedEvent("e3", day2)))

	days, err := a.Days(ctx)
	require.NoError(t, err)
	assert.Len(t, days, 2)

	events, err := a.ReadDay(ctx, day1)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "e1", events[0].ID)
	assert.Equal(t, "e2", events[1].ID)

	events, err = a.ReadDay(ctx, day2)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "e3", events[0].ID)
}

func TestArchiver_RoundTripsEventFields(t *testing.T) {
	fs, err := NewLocalFS(t.TempDir())
	require.NoError(t, err)
	a := NewArchiver(fs)
	ctx := context.Background()

	at := time.Date(2026, 8, 1, 9, 30, 0, 0, time.UTC)
	want := archivedEvent("e1", at)
	require.NoError(t, a.Emit(ctx, want))

	events, err := a.ReadDay(ctx, at)
	require.NoError(t, err)
	require.Len(t, events, 1)

	got := events[0]
	assert.Equal(t, want.SignalName, got.SignalName)
	assert.Equal(t, want.ToStatus, got.ToStatus)
	assert.Equal(t, want.Urgency, got.Urgency)
	assert.Equal(t, want.CurrentValue, got.CurrentValue)
}
