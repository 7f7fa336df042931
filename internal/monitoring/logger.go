package monitoring

import (
	"io"
	"os"
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger provides structured logging on top of zap
type Logger struct {
	base *zap.Logger
}

// NewLogger creates a Logger writing to stderr. format is "json" or "text".
func NewLogger(level string, format string) *Logger {
	return NewLoggerTo(os.Stderr, level, format)
}

// NewLoggerTo creates a Logger writing to w
func NewLoggerTo(w io.Writer, level string, format string) *Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.MessageKey = "message"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	if format == "json" {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	core := zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(w)), parseLevel(level))
	return &Logger{base: zap.New(core)}
}

// parseLevel falls back to info for unknown names
func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// WithField adds a field to the logger context
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{base: l.base.With(zap.Any(key, value))}
}

// WithFields adds multiple fields to the logger context
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	zf := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		zf = append(zf, zap.Any(k, fields[k]))
	}
	return &Logger{base: l.base.With(zf...)}
}

// WithError adds an error to the logger context
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return &Logger{base: l.base.With(zap.Error(err))}
}

// Enabled reports whether messages at level would be written
func (l *Logger) Enabled(level string) bool {
	return l.base.Core().Enabled(parseLevel(level))
}

// Sync flushes buffered entries
func (l *Logger) Sync() error {
	return l.base.Sync()
}

func (l *Logger) Debug(msg string) { l.base.Debug(msg) }

func (l *Logger) Info(msg string) { l.base.Info(msg) }

func (l *Logger) Warn(msg string) { l.base.Warn(msg) }

func (l *Logger) Error(msg string) { l.base.Error(msg) }

// Global logger instance
var globalLogger = NewLogger("info", "text")

// SetGlobalLogger sets the global logger instance
func SetGlobalLogger(logger *Logger) {
	globalLogger = logger
}

// GetLogger returns the global logger instance
func GetLogger() *Logger {
	return globalLogger
}

// Convenience functions for global logger
func WithField(key string, value interface{}) *Logger {
	return globalLogger.WithField(key, value)
}

func WithFields(fields map[string]interface{}) *Logger {
	return globalLogger.WithFields(fields)
}

func WithError(err error) *Logger {
	return globalLogger.WithError(err)
}
