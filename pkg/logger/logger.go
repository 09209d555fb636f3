package logger

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"atlas/pkg/errors"
)

// Logger is a sugared zap logger that mirrors error-level entries to an
// optional external tracker.
type Logger struct {
	*zap.SugaredLogger
	tracker errors.Tracker
}

var global *Logger

// Init builds the process-wide logger. Production gets JSON output,
// everything else gets the colored console encoder.
func Init(level, env string) error {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if env == "production" {
		cfg = zap.NewProductionConfig()
	}

	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	base, err := cfg.Build(
		zap.AddCallerSkip(1),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	if err != nil {
		return err
	}

	global = &Logger{SugaredLogger: base.Sugar()}
	return nil
}

// Get returns the global logger, falling back to a development logger
// when Init has not run (tests mostly).
func Get() *Logger {
	if global == nil {
		base, _ := zap.NewDevelopment()
		global = &Logger{SugaredLogger: base.Sugar()}
	}
	return global
}

// SetErrorTracker attaches a tracker that receives every error-level entry
func SetErrorTracker(tracker errors.Tracker) {
	if global != nil {
		global.tracker = tracker
	}
}

// Sync flushes buffered entries
func Sync() error {
	if global == nil {
		return nil
	}
	return global.SugaredLogger.Sync()
}

// With returns a child logger carrying extra key-value context
func (l *Logger) With(args ...interface{}) *Logger {
	return &Logger{
		SugaredLogger: l.SugaredLogger.With(args...),
		tracker:       l.tracker,
	}
}

// Error logs at error level and forwards to the tracker
func (l *Logger) Error(args ...interface{}) {
	l.SugaredLogger.Error(args...)
	l.capture(errors.Wrapf(errors.ErrInternal, "%v", args))
}

// Errorf logs a formatted error and forwards to the tracker
func (l *Logger) Errorf(template string, args ...interface{}) {
	l.SugaredLogger.Errorf(template, args...)
	l.capture(fmt.Errorf(template, args...))
}

func (l *Logger) capture(err error) {
	if l.tracker == nil {
		return
	}
	l.tracker.CaptureError(context.Background(), err, map[string]string{
		"component": "logger",
	})
}
