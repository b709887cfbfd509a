// Package eventlog keeps the record of emitted notification events and
// the acknowledge workflow acting on them. The monitoring engine only
// appends; acknowledgement comes from an external actor.
package eventlog

import (
	"context"

	"github.com/threshold-labs/sentry/internal/core"
)

// Filter narrows event listings.
type Filter struct {
	SignalID       string
	ThesisID       string
	Unacknowledged bool
	Limit          int
}

// Log stores notification events in append order.
type Log interface {
	// Append records an emitted event.
	Append(ctx context.Context, event core.NotificationEvent) error

	// List returns events matching the filter, oldest first.
	List(ctx context.Context, filter Filter) ([]core.NotificationEvent, error)

	// Acknowledge marks one event as handled.
	Acknowledge(ctx context.Context, id string) error

	// UnacknowledgedCount returns how many events still need attention.
	UnacknowledgedCount(ctx context.Context) (int, error)
}
