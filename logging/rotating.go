// Package logging configures structured logging for the mediscan API: slog
// with a text handler on the console plus a JSON handler on a weekly
// rotating file, and package-level helpers usable before initialization.
package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// RotatingWriter appends to one log file per ISO week and removes files
// older than the retention period on rotation.
type RotatingWriter struct {
	logDir      string
	retention   time.Duration
	mu          sync.Mutex
	currentFile *os.File
	currentWeek string
}

// NewRotatingWriter creates a rotating writer keeping retentionWeeks weeks
// of logs under logDir.
func NewRotatingWriter(logDir string, retentionWeeks int) *RotatingWriter {
	if retentionWeeks <= 0 {
		retentionWeeks = 4
	}
	return &RotatingWriter{
		logDir:    logDir,
		retention: time.Duration(retentionWeeks) * 7 * 24 * time.Hour,
	}
}

// weekKey returns the ISO week key, e.g. 2026-W35.
func weekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// Write appends to the current week's file, rotating and cleaning up when
// the week changes.
func (rw *RotatingWriter) Write(p []byte) (int, error) {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	week := weekKey(time.Now())
	if rw.currentFile == nil || rw.currentWeek != week {
		if err := rw.rotate(week); err != nil {
			return 0, err
		}
		rw.cleanup()
	}

	return rw.currentFile.Write(p)
}

// rotate opens the file for targetWeek, closing the previous one. Caller
// must hold the lock.
func (rw *RotatingWriter) rotate(targetWeek string) error {
	if rw.currentFile != nil {
		if err := rw.currentFile.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to close log file: %v\n", err)
		}
		rw.currentFile = nil
	}

	path := filepath.Join(rw.logDir, fmt.Sprintf("app-%s.log", targetWeek))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	rw.currentFile = file
	rw.currentWeek = targetWeek
	return nil
}

// cleanup removes app-*.log files older than the retention period. Errors
// are ignored: losing an old log file is never worth failing a write.
func (rw *RotatingWriter) cleanup() {
	entries, err := os.ReadDir(rw.logDir)
	if err != nil {
		return
	}

	cutoff := time.Now().Add(-rw.retention)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "app-") || !strings.HasSuffix(name, ".log") {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		_ = os.Remove(filepath.Join(rw.logDir, name))
	}
}

// Close closes the current log file.
func (rw *RotatingWriter) Close() error {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.currentFile != nil {
		err := rw.currentFile.Close()
		rw.currentFile = nil
		return err
	}
	return nil
}

// multiHandler fans one slog record out to several handlers.
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}

// ParseLevel maps a config log level string to a slog.Level. Unknown values
// fall back to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetupLogger builds a logger writing text to stdout and JSON to a weekly
// rotating file under logDir. An empty logDir, or a directory that cannot be
// created, degrades to console-only logging.
func SetupLogger(logDir string, retentionWeeks int, level slog.Level) *slog.Logger {
	consoleHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})

	if logDir == "" {
		return slog.New(consoleHandler)
	}

	if err := os.MkdirAll(logDir, 0o755); err != nil {
		logger := slog.New(consoleHandler)
		logger.Error("Failed to create logs directory, logging to console only", "error", err)
		return logger
	}

	fileHandler := slog.NewJSONHandler(NewRotatingWriter(logDir, retentionWeeks), &slog.HandlerOptions{Level: level})

	return slog.New(&multiHandler{handlers: []slog.Handler{consoleHandler, fileHandler}})
}
