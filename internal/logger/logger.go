// Package logger provides a simple logging interface for g2console components.
// It allows packages to log debug, info, warn, and error messages without
// being coupled to a specific logging implementation.
//
// The terminal belongs to the dashboard while it runs, so production loggers
// write to the console log file rather than stderr.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	charmlog "github.com/charmbracelet/log"
)

// DebugEnv enables debug output when set to any non-empty value.
const DebugEnv = "G2_DEBUG"

// Logger defines the interface for logging operations.
// All methods accept a format string and arguments, similar to fmt.Printf.
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// charmLogger adapts a charmbracelet/log logger to Logger.
type charmLogger struct {
	l *charmlog.Logger
}

// New creates a logger writing timestamped lines to w. The prefix is shown
// on every line (e.g., "gps" or "feed"). Debug messages are only written
// when G2_DEBUG is set.
func New(w io.Writer, prefix string) Logger {
	l := charmlog.NewWithOptions(w, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      "2006-01-02 15:04:05",
		Prefix:          prefix,
		Level:           charmlog.InfoLevel,
	})
	if os.Getenv(DebugEnv) != "" {
		l.SetLevel(charmlog.DebugLevel)
	}
	return &charmLogger{l: l}
}

// NewEnvLogger creates a logger on stderr that respects G2_DEBUG.
func NewEnvLogger(prefix string) Logger {
	return New(os.Stderr, prefix)
}

func (c *charmLogger) Debug(format string, args ...interface{}) { c.l.Debugf(format, args...) }
func (c *charmLogger) Info(format string, args ...interface{})  { c.l.Infof(format, args...) }
func (c *charmLogger) Warn(format string, args ...interface{})  { c.l.Warnf(format, args...) }
func (c *charmLogger) Error(format string, args ...interface{}) { c.l.Errorf(format, args...) }

// OpenFile opens (creating dir and file as needed) a log file for appending.
func OpenFile(dir, name string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(filepath.Join(dir, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
}

// noopLogger implements Logger but discards all messages.
type noopLogger struct{}

// Noop returns a logger that discards all messages.
func Noop() Logger {
	return &noopLogger{}
}

func (l *noopLogger) Debug(format string, args ...interface{}) {}
func (l *noopLogger) Info(format string, args ...interface{})  {}
func (l *noopLogger) Warn(format string, args ...interface{})  {}
func (l *noopLogger) Error(format string, args ...interface{}) {}

// LogMessage represents a captured log message.
type LogMessage struct {
	Level   string
	Message string
}

// BufferLogger captures log messages for testing. Safe for use from the
// worker goroutines under test.
type BufferLogger struct {
	mu       sync.Mutex
	messages []LogMessage
}

// NewBufferLogger creates a logger that captures messages for inspection.
func NewBufferLogger() *BufferLogger {
	return &BufferLogger{}
}

func (l *BufferLogger) add(level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, LogMessage{Level: level, Message: fmt.Sprintf(format, args...)})
}

func (l *BufferLogger) Debug(format string, args ...interface{}) { l.add("debug", format, args...) }
func (l *BufferLogger) Info(format string, args ...interface{})  { l.add("info", format, args...) }
func (l *BufferLogger) Warn(format string, args ...interface{})  { l.add("warn", format, args...) }
func (l *BufferLogger) Error(format string, args ...interface{}) { l.add("error", format, args...) }

// Messages returns a copy of the captured messages.
func (l *BufferLogger) Messages() []LogMessage {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]LogMessage(nil), l.messages...)
}

// HasLevel returns true if any message was logged at the given level.
func (l *BufferLogger) HasLevel(level string) bool {
	for _, m := range l.Messages() {
		if m.Level == level {
			return true
		}
	}
	return false
}

// Contains returns true if any message contains substr.
func (l *BufferLogger) Contains(substr string) bool {
	for _, m := range l.Messages() {
		if strings.Contains(m.Message, substr) {
			return true
		}
	}
	return false
}

// Clear removes all captured messages.
func (l *BufferLogger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = l.messages[:0]
}

var (
	defaultMu     sync.RWMutex
	defaultLogger = NewEnvLogger("")
)

// Default returns the package-level default logger.
func Default() Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefault sets the default logger for the package.
func SetDefault(l Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}
