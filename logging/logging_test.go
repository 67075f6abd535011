package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestWeekKey(t *testing.T) {
	tests := []struct {
		name string
		time time.Time
		want string
	}{
		{"mid year", time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC), "2026-W35"},
		{"iso week belongs to previous year", time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), "2026-W53"},
		{"single digit week is padded", time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), "2026-W03"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := weekKey(tt.time); got != tt.want {
				t.Errorf("weekKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRotatingWriterCreatesWeeklyFile(t *testing.T) {
	dir := t.TempDir()
	rw := NewRotatingWriter(dir, 4)
	defer rw.Close()

	msg := []byte("first line\n")
	n, err := rw.Write(msg)
	if err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if n != len(msg) {
		t.Errorf("wrote %d bytes, want %d", n, len(msg))
	}

	want := filepath.Join(dir, "app-"+weekKey(time.Now())+".log")
	content, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("expected log file %s: %v", want, err)
	}
	if string(content) != "first line\n" {
		t.Errorf("file content = %q", content)
	}
}

func TestRotatingWriterAppends(t *testing.T) {
	dir := t.TempDir()
	rw := NewRotatingWriter(dir, 4)
	defer rw.Close()

	rw.Write([]byte("one\n"))
	rw.Write([]byte("two\n"))

	path := filepath.Join(dir, "app-"+weekKey(time.Now())+".log")
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if string(content) != "one\ntwo\n" {
		t.Errorf("file content = %q, want both lines", content)
	}
}

func TestRotatingWriterCleanupRemovesExpiredFiles(t *testing.T) {
	dir := t.TempDir()

	stale := filepath.Join(dir, "app-2020-W01.log")
	if err := os.WriteFile(stale, []byte("old\n"), 0o644); err != nil {
		t.Fatalf("seed stale file: %v", err)
	}
	old := time.Now().Add(-8 * 7 * 24 * time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatalf("age stale file: %v", err)
	}

	unrelated := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(unrelated, []byte("keep\n"), 0o644); err != nil {
		t.Fatalf("seed unrelated file: %v", err)
	}
	if err := os.Chtimes(unrelated, old, old); err != nil {
		t.Fatalf("age unrelated file: %v", err)
	}

	rw := NewRotatingWriter(dir, 4)
	defer rw.Close()
	if _, err := rw.Write([]byte("trigger rotation\n")); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("expired log file should be removed on rotation")
	}
	if _, err := os.Stat(unrelated); err != nil {
		t.Error("cleanup must only touch app-*.log files")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestMultiHandlerFansOut(t *testing.T) {
	var first, second bytes.Buffer
	h := &multiHandler{handlers: []slog.Handler{
		slog.NewJSONHandler(&first, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewJSONHandler(&second, &slog.HandlerOptions{Level: slog.LevelError}),
	}}

	logger := slog.New(h)
	logger.Info("info message")
	logger.Error("error message")

	if got := strings.Count(first.String(), "\n"); got != 2 {
		t.Errorf("info-level handler saw %d records, want 2", got)
	}
	if got := strings.Count(second.String(), "\n"); got != 1 {
		t.Errorf("error-level handler saw %d records, want 1", got)
	}

	var record map[string]any
	if err := json.Unmarshal(second.Bytes(), &record); err != nil {
		t.Fatalf("second handler output is not JSON: %v", err)
	}
	if record["msg"] != "error message" {
		t.Errorf("msg = %v, want the error record", record["msg"])
	}
}

func TestMultiHandlerEnabled(t *testing.T) {
	h := &multiHandler{handlers: []slog.Handler{
		slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}),
		slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}),
	}}

	ctx := context.Background()
	if !h.Enabled(ctx, slog.LevelWarn) {
		t.Error("warn should be enabled when any handler accepts it")
	}
	if h.Enabled(ctx, slog.LevelDebug) {
		t.Error("debug should be disabled when no handler accepts it")
	}
}

func TestSetupLoggerConsoleOnlyWithEmptyDir(t *testing.T) {
	logger := SetupLogger("", 4, slog.LevelInfo)
	if logger == nil {
		t.Fatal("SetupLogger returned nil")
	}
	logger.Info("console only logger works")
}

func TestSetupLoggerWritesJSONFile(t *testing.T) {
	dir := t.TempDir()

	logger := SetupLogger(dir, 4, slog.LevelInfo)
	logger.Info("hello", "component", "test")

	path := filepath.Join(dir, "app-"+weekKey(time.Now())+".log")
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected JSON log file: %v", err)
	}

	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(content), &record); err != nil {
		t.Fatalf("file record is not JSON: %v", err)
	}
	if record["msg"] != "hello" || record["component"] != "test" {
		t.Errorf("record = %v", record)
	}
}

func TestPackageHelpersBeforeInit(t *testing.T) {
	// The package-level helpers must be safe before InitLogger runs.
	Debug("debug before init")
	Info("info before init")
	Warn("warn before init")
	Error("error before init")
}
