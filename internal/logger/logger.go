// Package logger builds the process-wide zap logger.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates the root logger. Development mode switches to the console
// encoder with colored levels; debug lowers the level floor to Debug in
// either mode.
func New(development, debug bool) (*zap.Logger, error) {
	var cfg zap.Config

	if development {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
	}
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	return cfg.Build()
}

// Must creates a logger or panics
func Must(development, debug bool) *zap.Logger {
	log, err := New(development, debug)
	if err != nil {
		panic(err)
	}
	return log
}
