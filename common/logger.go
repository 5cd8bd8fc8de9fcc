package common

import (
	"log/slog"
	"sync/atomic"
)

// loggerPtr stores the active logger. Accessed atomically so that SetLogger can be called
// before or during engine start-up without racing the render loop.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(slog.Default())
}

// SetLogger configures the logger used by the engine and all of its sub-packages.
// By default the engine logs through slog.Default(), so diagnostics reach the console.
// Pass nil to restore the default logger.
//
// Log levels used by the engine:
//   - slog.LevelDebug: per-resource diagnostics (capture target allocations, glyph claims)
//   - slog.LevelInfo: lifecycle events (window created, font loaded, shader linked)
//   - slog.LevelWarn: degraded operation (missing auxiliary font, low frame rate)
//   - slog.LevelError: fatal start-up failures and very low frame rate
//
// Parameters:
//   - l: the logger to install, or nil for slog.Default()
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.Default()
	}
	loggerPtr.Store(l)
}

// Logger returns the current engine logger.
//
// Returns:
//   - *slog.Logger: the active logger, never nil
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
