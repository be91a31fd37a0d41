// Package report defines the single user-facing error sink. The core
// funnels every surfaced failure through a Reporter; whether that becomes
// a modal, a toast, or a console line is the host's choice.
package report

import "log/slog"

// Reporter receives human-readable error messages for the user.
type Reporter interface {
	ReportError(msg string)
}

// Func adapts a plain function to Reporter.
type Func func(msg string)

// ReportError implements Reporter.
func (f Func) ReportError(msg string) { f(msg) }

// Log is a Reporter that writes to a slog logger, used as the fallback
// sink when no UI is attached.
type Log struct {
	Logger *slog.Logger
}

// ReportError implements Reporter.
func (l Log) ReportError(msg string) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Error("user-facing error", slog.String("message", msg))
}
