package imgtensor

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/wgpu"

	"github.com/gogpu/imgtensor/internal/gpu"
)

// nopHandler is a slog.Handler that drops every record. Enabled reports
// false, so call sites never build the attributes of a disabled record and
// an unconfigured imgtensor pays nothing for its log statements.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger returns the silent default logger.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr holds the logger shared by both backends. It is swapped
// atomically, so a SetLogger call may race with Tensorize calls already
// logging on other goroutines.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for imgtensor, the GPU engines in
// internal/gpu and the wgpu stack underneath them. By default imgtensor
// produces no log output.
//
// SetLogger is safe for concurrent use. Engines built before the call log
// to the new logger from their next operation on. Pass nil to restore the
// silent default.
//
// Log levels used by imgtensor:
//   - [slog.LevelDebug]: per-call diagnostics (source and target geometry,
//     readback row padding, staging buffer sizes)
//   - [slog.LevelInfo]: lifecycle events (GPU adapter selected, shared
//     device adopted from a DeviceProvider)
//   - [slog.LevelWarn]: non-fatal issues (GPU backend unavailable or
//     software-only, and the CPU backend used instead)
//
// wgpu logs its own adapter enumeration and validation messages through
// the same logger.
//
// Example:
//
//	// Report adapter selection and CPU fallback:
//	imgtensor.SetLogger(slog.Default())
//
//	// Full per-call diagnostics:
//	imgtensor.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	// internal/gpu cannot import this package, so it keeps its own copy.
	gpu.SetLogger(l)
	wgpu.SetLogger(l)
}

// Logger returns the logger used by imgtensor. The CPU backend and the
// backend registry log through it directly; internal/gpu receives the same
// logger through SetLogger.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
