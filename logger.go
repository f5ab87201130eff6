package vrsinject

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/mbucchia/vrsinject/backend"
	"github.com/mbucchia/vrsinject/vrs"
)

// nopHandler is a slog.Handler that silently discards all log records.
// The Enabled method returns false so the caller skips message formatting
// entirely, making disabled logging effectively zero-cost.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	l := newNopLogger()
	loggerPtr.Store(l)
}

// SetLogger configures the logger for vrsinject and all its sub-packages.
// By default no log output is produced; injection runs inside someone else's
// process, so logging is strictly opt-in.
//
// SetLogger is safe for concurrent use. Pass nil to restore the default
// silent behavior.
//
// Log levels used:
//   - [slog.LevelDebug]: per-frame diagnostics (map creation, evictions)
//   - [slog.LevelInfo]: lifecycle events (device adopted, passthrough mode)
//   - [slog.LevelWarn]: non-fatal issues (map generation failure, gaze loss)
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
	vrs.SetLogger(l)
	backend.SetLogger(l)
}

// Logger returns the current logger.
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// slogger returns the current package logger.
func slogger() *slog.Logger { return loggerPtr.Load() }
