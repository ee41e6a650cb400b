// Package util provides low-level helpers shared by all other packages.
package util

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// LogLevel controls output verbosity.
type LogLevel int

const (
	LogQuiet   LogLevel = 0
	LogNormal  LogLevel = 1
	LogVerbose LogLevel = 2
	LogDebug   LogLevel = 3
)

// Logger writes levelled messages to stderr with optional timestamps,
// level tags and a fixed prefix.  A nil *Logger discards everything.
type Logger struct {
	level      LogLevel
	prefix     string
	timestamps bool // if true, prepend a wall-clock time

	out *sink
}

// sink is shared between a logger and the loggers derived from it so
// that lines from different engines never interleave mid-line.
type sink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewLogger returns a Logger that prints messages at or below the given
// verbosity (0 = quiet, 1 = normal, 2 = verbose, 3 = debug).
func NewLogger(verbosity int) *Logger {
	return &Logger{
		level:      LogLevel(verbosity),
		timestamps: verbosity >= int(LogDebug),
		out:        &sink{w: os.Stderr},
	}
}

// NopLogger returns a quiet logger that only reports errors to
// io.Discard.  Handy in tests.
func NopLogger() *Logger {
	l := NewLogger(0)
	l.SetOutput(io.Discard)
	return l
}

// With returns a logger that shares l's output and level but prefixes
// every message with prefix.
func (l *Logger) With(prefix string) *Logger {
	if l == nil {
		return nil
	}
	c := *l
	if c.prefix != "" {
		prefix = c.prefix + " " + prefix
	}
	c.prefix = prefix
	return &c
}

// SetTimestamps enables or disables timestamp prefixes.
func (l *Logger) SetTimestamps(on bool) { l.timestamps = on }

// SetOutput overrides the output writer (default: os.Stderr).
func (l *Logger) SetOutput(w io.Writer) {
	l.out.mu.Lock()
	l.out.w = w
	l.out.mu.Unlock()
}

// Level returns the current log level.
func (l *Logger) Level() LogLevel {
	if l == nil {
		return LogQuiet
	}
	return l.level
}

// Info prints when verbosity ≥ 1.  Prefixed with [INF].
func (l *Logger) Info(format string, args ...any) { l.logf(LogNormal, "INF", format, args...) }

// Warn prints when verbosity ≥ 1.  Prefixed with [WRN].
func (l *Logger) Warn(format string, args ...any) { l.logf(LogNormal, "WRN", format, args...) }

// Verbose prints when verbosity ≥ 2.  Prefixed with [VRB].
func (l *Logger) Verbose(format string, args ...any) { l.logf(LogVerbose, "VRB", format, args...) }

// Debug prints when verbosity ≥ 3.  Prefixed with [DBG].
func (l *Logger) Debug(format string, args ...any) { l.logf(LogDebug, "DBG", format, args...) }

// Error always prints regardless of verbosity.  Prefixed with [ERR].
func (l *Logger) Error(format string, args ...any) { l.logf(LogQuiet, "ERR", format, args...) }

func (l *Logger) logf(min LogLevel, tag, format string, args ...any) {
	if l == nil || l.level < min {
		return
	}

	msg := fmt.Sprintf(format, args...)
	if l.prefix != "" {
		msg = l.prefix + " " + msg
	}

	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	if l.timestamps {
		fmt.Fprintf(l.out.w, "%s [%s] %s\n", time.Now().Format("15:04:05.000"), tag, msg)
	} else {
		fmt.Fprintf(l.out.w, "[%s] %s\n", tag, msg)
	}
}
