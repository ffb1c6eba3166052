// Package logger provides the small leveled logger used across the chatbot.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
)

// Logger is the logging interface used by the library.
type Logger interface {
	Info(msg string, obj any)
	Warn(msg string, obj any)
	Debug(msg string, obj any)
	Error(msg string, obj any)
}

// NopLogger discards all log messages.
type NopLogger struct{}

func (NopLogger) Info(string, any)  {}
func (NopLogger) Warn(string, any)  {}
func (NopLogger) Debug(string, any) {}
func (NopLogger) Error(string, any) {}

// Options controls a writer logger.
type Options struct {
	// Verbose enables DEBUG entries.
	Verbose bool
	// Color renders level tags with ANSI colors.
	Color bool
	// Now overrides the timestamp source.
	Now func() time.Time
}

type writerLogger struct {
	w       io.Writer
	verbose bool
	now     func() time.Time
	tags    map[string]*color.Color
}

// NewWriterLogger builds a logger that writes one line per entry to w.
func NewWriterLogger(w io.Writer, opts Options) Logger {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	tags := map[string]*color.Color{
		"INFO":  color.New(color.FgGreen),
		"WARN":  color.New(color.FgYellow),
		"DEBUG": color.New(color.FgHiBlack),
		"ERROR": color.New(color.FgRed, color.Bold),
	}
	for _, c := range tags {
		if opts.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return writerLogger{w: w, verbose: opts.Verbose, now: now, tags: tags}
}

func (l writerLogger) write(level, msg string, obj any) {
	if l.w == nil {
		return
	}

	ts := l.now().Format(time.RFC3339)
	tag := l.tags[level].Sprintf("%-5s", level)
	if obj == nil {
		_, _ = fmt.Fprintf(l.w, "%s %s %s\n", ts, tag, msg)
		return
	}

	b, err := json.Marshal(obj)
	if err != nil {
		_, _ = fmt.Fprintf(l.w, "%s %s %s obj=%q\n", ts, tag, msg, fmt.Sprintf("%+v", obj))
		return
	}
	_, _ = fmt.Fprintf(l.w, "%s %s %s obj=%s\n", ts, tag, msg, string(b))
}

func (l writerLogger) Info(msg string, obj any) { l.write("INFO", msg, obj) }
func (l writerLogger) Warn(msg string, obj any) { l.write("WARN", msg, obj) }
func (l writerLogger) Debug(msg string, obj any) {
	if !l.verbose {
		return
	}
	l.write("DEBUG", msg, obj)
}
func (l writerLogger) Error(msg string, obj any) { l.write("ERROR", msg, obj) }

// OrNop returns l, or a NopLogger when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return NopLogger{}
	}
	return l
}

// Debugf is a format-style helper for debug entries without a payload.
func Debugf(logger Logger, format string, args ...any) {
	if logger == nil {
		return
	}
	logger.Debug(fmt.Sprintf(format, args...), nil)
}

// Warn writes a warning log when logger is non-nil.
func Warn(logger Logger, msg string, obj any) {
	if logger == nil {
		return
	}
	logger.Warn(msg, obj)
}
