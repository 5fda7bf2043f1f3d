// Package logging provides a tiny abstraction over slog so downstream code
// can depend on a minimal interface (Logger) while allowing users to plug any
// structured logger. It also offers a RunLogger with contextual helpers
// (component, run, sample) and domain specific helpers for model and tool
// calls.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger defines the minimal logging interface used across the engine.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter wraps *slog.Logger to implement the Logger interface.
type SlogAdapter struct {
	*slog.Logger
}

// NewSlogAdapter creates a Logger from *slog.Logger.
func NewSlogAdapter(logger *slog.Logger) Logger {
	return &SlogAdapter{Logger: logger}
}

// NewDefaultLogger creates a Logger using slog.Default().
func NewDefaultLogger() Logger {
	return NewSlogAdapter(slog.Default())
}

// NoOpLogger discards all log messages. Useful for tests or when logging is
// disabled.
type NoOpLogger struct{}

// Debug discards the message.
func (NoOpLogger) Debug(string, ...any) {}

// Info discards the message.
func (NoOpLogger) Info(string, ...any) {}

// Warn discards the message.
func (NoOpLogger) Warn(string, ...any) {}

// Error discards the message.
func (NoOpLogger) Error(string, ...any) {}

// Config configures construction of a RunLogger.
type Config struct {
	Level     slog.Level
	Format    string // json or text
	Output    io.Writer
	AddSource bool
}

// DefaultConfig returns a baseline JSON info-level configuration.
func DefaultConfig() *Config {
	return &Config{Level: slog.LevelInfo, Format: "json", Output: os.Stderr}
}

// RunLogger wraps slog.Logger adding contextual cloning helpers and domain
// convenience methods. Cheap to copy via the With* methods.
type RunLogger struct {
	logger *slog.Logger
	attrs  []slog.Attr
}

// NewRunLogger builds a RunLogger from a config (or defaults if nil).
func NewRunLogger(cfg *Config) *RunLogger {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: cfg.Level, AddSource: cfg.AddSource}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}
	return &RunLogger{logger: slog.New(handler)}
}

func (l *RunLogger) with(attrs ...slog.Attr) *RunLogger {
	nl := &RunLogger{logger: l.logger}
	nl.attrs = append(nl.attrs, l.attrs...)
	nl.attrs = append(nl.attrs, attrs...)
	return nl
}

// WithComponent tags entries with the logical component (scheduler, model,
// tool, solver).
func (l *RunLogger) WithComponent(c string) *RunLogger {
	return l.with(slog.String("component", c))
}

// WithRun tags entries with the run identifier.
func (l *RunLogger) WithRun(runID string) *RunLogger {
	return l.with(slog.String("run_id", runID))
}

// WithSample tags entries with sample and epoch identifiers.
func (l *RunLogger) WithSample(sampleID string, epoch int) *RunLogger {
	return l.with(slog.String("sample_id", sampleID), slog.Int("epoch", epoch))
}

func (l *RunLogger) log(level slog.Level, msg string, args ...any) {
	if !l.logger.Enabled(context.Background(), level) {
		return
	}
	attrs := make([]slog.Attr, 0, len(l.attrs)+len(args)/2)
	attrs = append(attrs, l.attrs...)
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		attrs = append(attrs, slog.Any(key, args[i+1]))
	}
	l.logger.LogAttrs(context.Background(), level, msg, attrs...)
}

// Debug logs at debug level.
func (l *RunLogger) Debug(msg string, args ...any) { l.log(slog.LevelDebug, msg, args...) }

// Info logs at info level.
func (l *RunLogger) Info(msg string, args ...any) { l.log(slog.LevelInfo, msg, args...) }

// Warn logs at warn level.
func (l *RunLogger) Warn(msg string, args ...any) { l.log(slog.LevelWarn, msg, args...) }

// Error logs at error level.
func (l *RunLogger) Error(msg string, args ...any) { l.log(slog.LevelError, msg, args...) }

// LogModelCall records model call latency, token usage and outcome.
func (l *RunLogger) LogModelCall(model string, tokens int, dur time.Duration, cached bool, err error) {
	args := []any{"model", model, "token_count", tokens, "duration_ms", dur.Milliseconds(), "cached", cached}
	if err != nil {
		l.log(slog.LevelError, "model call failed", append(args, "error", err.Error())...)
		return
	}
	l.log(slog.LevelInfo, "model call completed", args...)
}

// LogToolCall records execution details for one tool invocation.
func (l *RunLogger) LogToolCall(tool string, dur time.Duration, failed bool, detail string) {
	args := []any{"tool_name", tool, "duration_ms", dur.Milliseconds(), "failed", failed}
	if detail != "" {
		args = append(args, "detail", detail)
	}
	level := slog.LevelInfo
	if failed {
		level = slog.LevelWarn
	}
	l.log(level, "tool execution completed", args...)
}

// LogSample records the outcome of one evaluated sample.
func (l *RunLogger) LogSample(sampleID string, epoch int, dur time.Duration, err error) {
	args := []any{"sample_id", sampleID, "epoch", epoch, "duration_ms", dur.Milliseconds()}
	if err != nil {
		l.log(slog.LevelWarn, "sample failed", append(args, "error", err.Error())...)
		return
	}
	l.log(slog.LevelInfo, "sample completed", args...)
}
