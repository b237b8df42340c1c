package runtime

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
	LogLevelOff
)

// String returns the string representation of a log level
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	case LogLevelOff:
		return "OFF"
	default:
		return "UNKNOWN"
	}
}

// slogLevel maps onto the slog levels.  Off sits above every level slog
// will ever emit.
func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelInfo:
		return slog.LevelInfo
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	}
	return slog.LevelError + 100
}

// ParseLogLevel parses a string into a LogLevel
func ParseLogLevel(s string) (LogLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LogLevelDebug, nil
	case "INFO":
		return LogLevelInfo, nil
	case "WARN", "WARNING":
		return LogLevelWarn, nil
	case "ERROR":
		return LogLevelError, nil
	case "OFF", "NONE":
		return LogLevelOff, nil
	default:
		return LogLevelInfo, fmt.Errorf("unknown log level: %s", s)
	}
}

// Logger interface for structured logging
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
	SetLevel(level LogLevel)
	GetLevel() LogLevel
}

// DefaultLogger implements the Logger interface on top of a slog handler.
// The level is held in a slog.LevelVar so it can change while handlers
// built from it are in use.
type DefaultLogger struct {
	mu     sync.RWMutex
	level  LogLevel
	lvar   *slog.LevelVar
	logger *slog.Logger
}

// NewLogger creates a logger writing text records to output
func NewLogger(output io.Writer, level LogLevel) *DefaultLogger {
	lvar := &slog.LevelVar{}
	handler := slog.NewTextHandler(output, &slog.HandlerOptions{Level: lvar})
	return NewLoggerWithHandler(handler, lvar, level)
}

// NewLoggerWithHandler wraps an existing handler.  lvar must be the level
// variable the handler was built with (or nil if the handler filters on its
// own).
func NewLoggerWithHandler(handler slog.Handler, lvar *slog.LevelVar, level LogLevel) *DefaultLogger {
	if lvar == nil {
		lvar = &slog.LevelVar{}
	}
	out := &DefaultLogger{lvar: lvar, logger: slog.New(handler)}
	out.SetLevel(level)
	return out
}

// SetLevel sets the minimum log level
func (l *DefaultLogger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
	l.lvar.Set(level.slogLevel())
}

// GetLevel returns the current log level
func (l *DefaultLogger) GetLevel() LogLevel {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level
}

// Slog exposes the underlying structured logger.
func (l *DefaultLogger) Slog() *slog.Logger {
	return l.logger
}

func (l *DefaultLogger) log(level LogLevel, format string, args ...any) {
	if level < l.GetLevel() {
		return
	}
	l.logger.Log(context.Background(), level.slogLevel(), fmt.Sprintf(format, args...))
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

// Global logger instance
var (
	globalMu     sync.RWMutex
	globalLogger = NewLogger(os.Stderr, LogLevelInfo)
)

func logger() *DefaultLogger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// SetLogger replaces the global logger, returning the previous one.
func SetLogger(l *DefaultLogger) (prev *DefaultLogger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	prev, globalLogger = globalLogger, l
	return
}

// Package-level convenience functions

// SetLogLevel sets the global log level
func SetLogLevel(level LogLevel) {
	logger().SetLevel(level)
}

// GetLogLevel returns the current global log level
func GetLogLevel() LogLevel {
	return logger().GetLevel()
}

// Debug logs a debug message using the global logger
func Debug(format string, args ...any) {
	logger().Debug(format, args...)
}

// Info logs an info message using the global logger
func Info(format string, args ...any) {
	logger().Info(format, args...)
}

// Warn logs a warning message using the global logger
func Warn(format string, args ...any) {
	logger().Warn(format, args...)
}

// Error logs an error message using the global logger
func Error(format string, args ...any) {
	logger().Error(format, args...)
}

// CaptureLog redirects the global logger into a buffer at the given level
// until the returned cleanup is called.
func CaptureLog(t testing.TB, level LogLevel) (*bytes.Buffer, func()) {
	t.Helper()
	buf := &bytes.Buffer{}
	prev := SetLogger(NewLogger(buf, level))
	return buf, func() { SetLogger(prev) }
}

// QuietTest turns logging off for the duration of a test.
func QuietTest(t testing.TB) func() {
	t.Helper()
	prev := GetLogLevel()
	SetLogLevel(LogLevelOff)
	return func() { SetLogLevel(prev) }
}

// Initialize logger from environment
func init() {
	if levelStr := os.Getenv("ROS_LOG_LEVEL"); levelStr != "" {
		if level, err := ParseLogLevel(levelStr); err == nil {
			SetLogLevel(level)
		}
	}

	// In test mode, default to ERROR level only
	if strings.HasSuffix(os.Args[0], ".test") {
		SetLogLevel(LogLevelError)
	}
}
