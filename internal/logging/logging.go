// Package logging provides the leveled logger shared by the renderer's
// components. A Logger is built once at process start and handed to every
// component that needs it; nothing in this package is global.
package logging

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
)

type Level int

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelCritical
)

var levelNames = [...]string{
	LevelTrace:    "trace",
	LevelDebug:    "debug",
	LevelInfo:     "info",
	LevelWarn:     "warning",
	LevelError:    "error",
	LevelCritical: "critical",
}

func (l Level) String() string {
	if l < LevelTrace || l > LevelCritical {
		return fmt.Sprintf("level(%d)", int(l))
	}
	return levelNames[l]
}

// ParseLevel accepts the names produced by Level.String, plus "warn".
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warn" {
		return LevelWarn, nil
	}
	for i, name := range levelNames {
		if name == s {
			return Level(i), nil
		}
	}
	return LevelTrace, errors.Newf("unknown log level %q", s)
}

// Logger writes "[level] message" lines to a buffered writer. Messages below
// the configured level are dropped.
type Logger struct {
	mu     sync.Mutex
	buf    *bufio.Writer
	out    *log.Logger
	level  Level
	closed bool
}

func New(w io.Writer, level Level) *Logger {
	buf := bufio.NewWriter(w)
	return &Logger{
		buf:   buf,
		out:   log.New(buf, "", 0),
		level: level,
	}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return New(io.Discard, LevelCritical+1)
}

func (l *Logger) Level() Level {
	return l.level
}

func (l *Logger) Enabled(level Level) bool {
	return level >= l.level
}

func (l *Logger) logf(level Level, format string, args ...any) {
	if !l.Enabled(level) {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}

	l.out.Printf("[%s] %s", level, fmt.Sprintf(format, args...))
	if level >= LevelError {
		// errors must reach the terminal even if the process dies right after
		_ = l.buf.Flush()
	}
}

func (l *Logger) Tracef(format string, args ...any) { l.logf(LevelTrace, format, args...) }

func (l *Logger) Debugf(format string, args ...any) { l.logf(LevelDebug, format, args...) }

func (l *Logger) Infof(format string, args ...any) { l.logf(LevelInfo, format, args...) }

func (l *Logger) Warnf(format string, args ...any) { l.logf(LevelWarn, format, args...) }

func (l *Logger) Errorf(format string, args ...any) { l.logf(LevelError, format, args...) }

func (l *Logger) Criticalf(format string, args ...any) { l.logf(LevelCritical, format, args...) }

// Flush writes out anything still buffered.
func (l *Logger) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buf.Flush()
}

// Close flushes the logger. Later calls to the logging methods are no-ops.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	return l.buf.Flush()
}
