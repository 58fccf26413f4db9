// Package cli implements the stacknotice command-line interface.
//
// The CLI is built using cobra and logs through charmbracelet/log.
//
// # Commands
//
// The main commands are:
//   - generate: Build the notice file for a repository (the GitHub Action entry point)
//   - coordinates: Print the ClearlyDefined coordinates without requesting a notice
//   - serve: Run the HTTP service
//   - cache: Manage the notice cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging and
// --log-format to switch between text, logfmt and JSON output. Loggers are
// passed through context.Context so observability hooks can reach them.
// Inside GitHub Actions, warnings are emitted as workflow annotations
// instead of log lines.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stacknotice/pkg/errors"
)

// newLogger creates a text logger writing to w at level.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// logFormats maps --log-format values to formatters.
var logFormats = map[string]log.Formatter{
	"text":   log.TextFormatter,
	"logfmt": log.LogfmtFormatter,
	"json":   log.JSONFormatter,
}

// setLogFormat switches l to the named formatter. Structured formats get
// full RFC 3339 timestamps so log shippers can parse them.
func setLogFormat(l *log.Logger, name string) error {
	f, ok := logFormats[name]
	if !ok {
		return errors.New(errors.ErrCodeInvalidInput, "unknown log format %q (want text, logfmt or json)", name)
	}
	l.SetFormatter(f)
	if f != log.TextFormatter {
		l.SetTimeFormat(time.RFC3339)
	}
	return nil
}

// progress logs how long an operation took.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time, rounded to the millisecond, plus
// any extra key-value pairs.
func (p *progress) done(msg string, keyvals ...any) {
	keyvals = append(keyvals, "elapsed", time.Since(p.start).Round(time.Millisecond))
	p.logger.Info(msg, keyvals...)
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx, falling back to fallback
// and then to log.Default().
func loggerFromContext(ctx context.Context, fallback *log.Logger) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	if fallback != nil {
		return fallback
	}
	return log.Default()
}
