package logging

import (
	"log/slog"
	"os"
)

// LoggingService wraps the configured application logger.
type LoggingService struct {
	Logger *slog.Logger
}

var DefaultLoggingService *LoggingService

// InitLogger initializes the global logger. An empty logDir logs to the
// console only, which the tests rely on.
func InitLogger(logDir string) {
	InitLoggerWithOptions(logDir, 4, slog.LevelInfo)
}

// InitLoggerWithOptions initializes the global logger with explicit
// retention and level settings.
func InitLoggerWithOptions(logDir string, retentionWeeks int, level slog.Level) {
	DefaultLoggingService = &LoggingService{
		Logger: SetupLogger(logDir, retentionWeeks, level),
	}
	slog.SetDefault(DefaultLoggingService.Logger)
}

func logger(level slog.Level) *slog.Logger {
	if DefaultLoggingService != nil && DefaultLoggingService.Logger != nil {
		return DefaultLoggingService.Logger
	}
	// Fallback before initialization
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// Package-level helpers for direct access

func Debug(msg string, args ...any) {
	logger(slog.LevelDebug).Debug(msg, args...)
}

func Info(msg string, args ...any) {
	logger(slog.LevelInfo).Info(msg, args...)
}

func Warn(msg string, args ...any) {
	logger(slog.LevelWarn).Warn(msg, args...)
}

func Error(msg string, args ...any) {
	logger(slog.LevelError).Error(msg, args...)
}
