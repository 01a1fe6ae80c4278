// SPDX-License-Identifier: MPL-2.0

package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
)

// TraceFileName is the name of the trace file inside the output directory.
const TraceFileName = "trace.log"

type (
	// Options configures a Logger.
	Options struct {
		// Out receives console output. Defaults to os.Stderr.
		Out io.Writer
		// TraceFile is the path of the trace file. Empty disables tracing.
		TraceFile string
		// Level is the console level. The zero value is info.
		Level log.Level
		// Prefix is the base prefix restored by Reset.
		Prefix string
	}

	// Logger writes session output to the console and the trace file.
	Logger struct {
		mu      sync.Mutex
		console *log.Logger
		trace   *log.Logger
		file    io.Closer
		prefix  string
		closed  bool
	}
)

// New creates a Logger, creating the trace file's directory if needed.
func New(opts Options) (*Logger, error) {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	l := &Logger{
		console: log.NewWithOptions(out, log.Options{
			Level:  opts.Level,
			Prefix: opts.Prefix,
		}),
		trace:  log.NewWithOptions(io.Discard, log.Options{Level: log.DebugLevel}),
		prefix: opts.Prefix,
	}

	if opts.TraceFile != "" {
		if err := os.MkdirAll(filepath.Dir(opts.TraceFile), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create trace directory: %w", err)
		}
		f, err := os.OpenFile(opts.TraceFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open trace file: %w", err)
		}
		l.file = f
		l.trace = log.NewWithOptions(f, log.Options{
			Level:           log.DebugLevel,
			Prefix:          opts.Prefix,
			ReportTimestamp: true,
			Formatter:       log.LogfmtFormatter,
		})
	}

	return l, nil
}

// Discard returns a Logger that drops everything.
func Discard() *Logger {
	l, _ := New(Options{Out: io.Discard})
	return l
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, keyvals ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.console.Debug(msg, keyvals...)
	l.trace.Debug(msg, keyvals...)
}

// Info logs at info level.
func (l *Logger) Info(msg string, keyvals ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.console.Info(msg, keyvals...)
	l.trace.Info(msg, keyvals...)
}

// Warn logs at warn level.
func (l *Logger) Warn(msg string, keyvals ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.console.Warn(msg, keyvals...)
	l.trace.Warn(msg, keyvals...)
}

// Error logs at error level.
func (l *Logger) Error(msg string, keyvals ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.console.Error(msg, keyvals...)
	l.trace.Error(msg, keyvals...)
}

// Trace writes err and every error it wraps to the trace file only.
func (l *Logger) Trace(err error) {
	if err == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	depth := 0
	for e := err; e != nil; e = errors.Unwrap(e) {
		l.trace.Debug("trace", "depth", depth, "error", e.Error(), "type", fmt.Sprintf("%T", e))
		depth++
	}
}

// WithStep switches the prefix to the step name until Reset is called.
func (l *Logger) WithStep(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	prefix := name
	if l.prefix != "" {
		prefix = l.prefix + "/" + name
	}
	l.console.SetPrefix(prefix)
	l.trace.SetPrefix(prefix)
}

// Reset restores the base prefix.
func (l *Logger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.console.SetPrefix(l.prefix)
	l.trace.SetPrefix(l.prefix)
}

// SetLevel changes the console level.
func (l *Logger) SetLevel(level log.Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.console.SetLevel(level)
}

// Close closes the trace file. Later calls return nil.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	l.trace = log.NewWithOptions(io.Discard, log.Options{Level: log.DebugLevel})
	if l.file == nil {
		return nil
	}
	if err := l.file.Close(); err != nil {
		return fmt.Errorf("failed to close trace file: %w", err)
	}
	return nil
}

// Closed reports whether Close has been called.
func (l *Logger) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}
