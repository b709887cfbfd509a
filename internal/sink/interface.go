// Package sink defines where notification events go once the monitoring
// engine emits them. The engine guarantees at most one emission per
// status transition; sinks may deliver at-least-once downstream.
package sink

import (
	"context"

	"github.com/threshold-labs/sentry/internal/core"
)

// Sink delivers a notification event to one destination.
type Sink interface {
	// Name returns the unique identifier for this sink.
	Name() string

	// Emit delivers a single notification event.
	Emit(ctx context.Context, event core.NotificationEvent) error
}
