package texcache

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely,
// making disabled logging effectively zero-cost.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from decode workers.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	l := newNopLogger()
	loggerPtr.Store(l)
}

// SetLogger configures the logger for texcache and its sub-packages.
// By default texcache produces no log output. Pass nil to restore the
// default silent behavior.
//
// Log levels used by texcache:
//   - [slog.LevelDebug]: scheduler internals (queue drains, tier choices)
//   - [slog.LevelInfo]: lifecycle events (backend selected, cache cleared)
//   - [slog.LevelWarn]: non-fatal issues (decode failures, soft budget overflow)
//
// SetLogger is safe for concurrent use.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger used by texcache. Sub-packages call
// this to share the same logger configuration without import cycles.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
