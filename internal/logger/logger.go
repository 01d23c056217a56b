// Package logger provides the structured logging surface used above the
// codec: the channel/transport layer logs connection and frame-error
// events, but crc, callsign, link, and matrix never call into it.
package logger

import (
	"os"

	charmlog "github.com/charmbracelet/log"
)

// Level represents a logging level.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of Level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) charm() charmlog.Level {
	switch l {
	case LevelDebug:
		return charmlog.DebugLevel
	case LevelWarn:
		return charmlog.WarnLevel
	case LevelError:
		return charmlog.ErrorLevel
	default:
		return charmlog.InfoLevel
	}
}

// Logger is the interface for logging.
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
	SetLevel(level Level)
}

// DefaultLogger is a structured logger backed by charmbracelet/log.
type DefaultLogger struct {
	level Level
	inner *charmlog.Logger
}

// NewDefaultLogger creates a logger writing to stderr at the given
// level with an "ax25link" prefix. Caller and timestamp reporting are
// left off.
func NewDefaultLogger(level Level) *DefaultLogger {
	inner := charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		Prefix: "ax25link",
		Level:  level.charm(),
	})
	return &DefaultLogger{level: level, inner: inner}
}

func (l *DefaultLogger) Debug(format string, args ...interface{}) {
	l.inner.Debugf(format, args...)
}

func (l *DefaultLogger) Info(format string, args ...interface{}) {
	l.inner.Infof(format, args...)
}

func (l *DefaultLogger) Warn(format string, args ...interface{}) {
	l.inner.Warnf(format, args...)
}

func (l *DefaultLogger) Error(format string, args ...interface{}) {
	l.inner.Errorf(format, args...)
}

// SetLevel sets the logging level.
func (l *DefaultLogger) SetLevel(level Level) {
	l.level = level
	l.inner.SetLevel(level.charm())
}

// NoOpLogger is a logger that discards everything. channel.New falls
// back to it when given a nil logger, as the channel tests do.
type NoOpLogger struct{}

// NewNoOpLogger creates a logger that discards everything.
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

func (l *NoOpLogger) Debug(format string, args ...interface{}) {}
func (l *NoOpLogger) Info(format string, args ...interface{})  {}
func (l *NoOpLogger) Warn(format string, args ...interface{})  {}
func (l *NoOpLogger) Error(format string, args ...interface{}) {}
func (l *NoOpLogger) SetLevel(level Level)                     {}

var defaultLogger Logger = NewDefaultLogger(LevelInfo)

// SetDefault sets the package-level default logger.
func SetDefault(logger Logger) {
	defaultLogger = logger
}

// GetDefault returns the package-level default logger.
func GetDefault() Logger {
	return defaultLogger
}

func Debug(format string, args ...interface{}) { defaultLogger.Debug(format, args...) }
func Info(format string, args ...interface{})  { defaultLogger.Info(format, args...) }
func Warn(format string, args ...interface{})  { defaultLogger.Warn(format, args...) }
func Error(format string, args ...interface{}) { defaultLogger.Error(format, args...) }
