package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultLogger is the default logger implementation. It formats messages
// the way the rest of the tree expects (timestamp, prefix, colored level,
// message) and hands the finished line to a zerolog.Logger for output.
type DefaultLogger struct {
	mu     sync.RWMutex
	level  LogLevel
	zl     zerolog.Logger
	prefix string
}

// NewDefaultLogger creates a new default logger writing to stdout.
func NewDefaultLogger(prefix string) *DefaultLogger {
	return &DefaultLogger{
		level:  LogLevelInfo,
		zl:     zerolog.New(os.Stdout),
		prefix: prefix,
	}
}

// SetLevel sets the logging level
func (l *DefaultLogger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// GetLevel returns the current logging level
func (l *DefaultLogger) GetLevel() LogLevel {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level
}

// SetOutput redirects the underlying zerolog writer.
func (l *DefaultLogger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.zl = l.zl.Output(w)
}

// log formats and emits a message at the given level through zerolog.
func (l *DefaultLogger) log(level LogLevel, format string, args ...any) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.level < level {
		return
	}

	timestamp := time.Now().Format("15:04:05.000")
	message := fmt.Sprintf(format, args...)
	levelStr := level.String()
	colorCode := GetLevelColor(level)

	var line string
	if l.prefix != "" {
		line = fmt.Sprintf("%s [%s] %s%s%s: %s", timestamp, l.prefix, colorCode, levelStr, ColorReset, message)
	} else {
		line = fmt.Sprintf("%s %s%s%s: %s", timestamp, colorCode, levelStr, ColorReset, message)
	}

	l.zl.Log().Msg(line)
}

// Debug logs a debug message
func (l *DefaultLogger) Debug(format string, args ...any) {
	l.log(LogLevelDebug, format, args...)
}

// Info logs an info message
func (l *DefaultLogger) Info(format string, args ...any) {
	l.log(LogLevelInfo, format, args...)
}

// Warn logs a warning message
func (l *DefaultLogger) Warn(format string, args ...any) {
	l.log(LogLevelWarn, format, args...)
}

// Error logs an error message
func (l *DefaultLogger) Error(format string, args ...any) {
	l.log(LogLevelError, format, args...)
}
