package sink

import (
	"context"

	"go.uber.org/zap"

	"github.com/threshold-labs/sentry/internal/core"
)

// Log writes events to the structured log. Always safe to register; it
// is the default sink when no delivery channel is configured.
type Log struct {
	logger *zap.Logger
}

// NewLog creates a logging sink.
func NewLog(logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{logger: logger.Named("sink.log")}
}

func (l *Log) Name() string { return "log" }

func (l *Log) Emit(ctx context.Context, event core.NotificationEvent) error {
	l.logger.Info("signal transition",
		zap.String("signal_id", event.SignalID),
		zap.String("signal", event.SignalName),
		zap.String("thesis_id", event.ThesisID),
		zap.String("from", string(event.FromStatus)),
		zap.String("to", string(event.ToStatus)),
		zap.String("urgency", string(event.Urgency)),
		zap.Float64("value", event.CurrentValue),
		zap.Float64("threshold", event.ThresholdValue),
		zap.String("message", event.Message),
	)
	return nil
}
