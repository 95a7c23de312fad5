// Package logging wraps a process-wide zap sugared logger.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var globalLogger = zap.NewNop().Sugar()

// Options controls where and how much the logger writes.
type Options struct {
	// File, when set, receives JSON logs instead of stderr. The TUI and the
	// daemon log to a file so the terminal stays clean.
	File    string
	Verbose bool
}

// Init initializes the global logger.
func Init(opts Options) error {
	level := zapcore.WarnLevel
	if opts.Verbose {
		level = zapcore.DebugLevel
	}

	var config zap.Config
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o750); err != nil {
			return fmt.Errorf("creating log dir: %w", err)
		}
		config = zap.NewProductionConfig()
		config.Encoding = "json"
		config.OutputPaths = []string{opts.File}
		config.ErrorOutputPaths = []string{opts.File}
		if !opts.Verbose {
			level = zapcore.InfoLevel
		}
	} else {
		config = zap.NewDevelopmentConfig()
		config.Encoding = "console"
		config.DisableStacktrace = true
		config.DisableCaller = true
	}
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.Level = zap.NewAtomicLevelAt(level)

	logger, err := config.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	globalLogger = logger.Sugar()
	return nil
}

// Close flushes any buffered logs.
func Close() error {
	return globalLogger.Sync()
}

// Info logs an info message with optional key/value fields.
func Info(message string, fields ...interface{}) {
	globalLogger.Infow(message, fields...)
}

// Debug logs a debug message with optional key/value fields.
func Debug(message string, fields ...interface{}) {
	globalLogger.Debugw(message, fields...)
}

// Warn logs a warning message with optional key/value fields.
func Warn(message string, fields ...interface{}) {
	globalLogger.Warnw(message, fields...)
}

// Error logs an error message with optional key/value fields.
func Error(message string, fields ...interface{}) {
	globalLogger.Errorw(message, fields...)
}

// With returns a child logger carrying the given fields.
func With(fields ...interface{}) *zap.SugaredLogger {
	return globalLogger.With(fields...)
}
