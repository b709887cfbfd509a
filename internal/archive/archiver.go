package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/threshold-labs/sentry/internal/core"
)

const dayLayout = "2006-01-02"

// Archiver writes notification events to cold storage, one JSONL file
// per UTC day. It satisfies the sink interface so the monitoring engine
// archives events the same way it delivers them.
type Archiver struct {
	storage Storage
	prefix  string
}

// NewArchiver creates an archiver on top of a storage backend.
func NewArchiver(storage Storage) *Archiver {
	return &Archiver{storage: storage, prefix: "events"}
}

func (a *Archiver) Name() string { return "archive" }

// Emit appends the event as one JSON line to the day's file.
func (a *Archiver) Emit(ctx context.Context, event core.NotificationEvent) error {
	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("archive: marshal event: %w", err)
	}
	line = append(line, '\n')
	return a.storage.Append(ctx, a.dayPath(event.CreatedAt), line)
}

// ReadDay loads every archived event for one UTC day.
func (a *Archiver) ReadDay(ctx context.Context, day time.Time) ([]core.NotificationEvent, error) {
	data, err := a.storage.Read(ctx, a.dayPath(day))
	if err != nil {
		return nil, err
	}

	var events []core.NotificationEvent
	for _, line := range bytes.Split(data, []byte{'\n'}) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var e core.NotificationEvent
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, fmt.Errorf("archive: corrupt line in %s: %w", a.dayPath(day), err)
		}
		events = append(events, e)
	}
	return events, nil
}

// Days lists the day files currently archived.
func (a *Archiver) Days(ctx context.Context) ([]string, error) {
	return a.storage.List(ctx, a.prefix)
}

func (a *Archiver) dayPath(t time.Time) string {
	return fmt.Sprintf("%s/%s.jsonl", a.prefix, t.UTC().Format(dayLayout))
}
