package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/meltforce/wodlink/internal/config"
)

// TestParseLevel verifies level names, including the fallback.
func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"loud":    slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

// TestConsoleJSON verifies JSON output, level filtering and redaction.
func TestConsoleJSON(t *testing.T) {
	var buf bytes.Buffer
	log, closer, err := New(config.LogConfig{Level: "warn", Format: "json"}, &buf)
	if err != nil {
		t.Fatal(err)
	}
	defer closer.Close()

	log.Info("dropped")
	log.Warn("kept", "api_key", "hunter2", "kind", "blueprint")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatal(err)
	}
	if entry["msg"] != "kept" || entry["kind"] != "blueprint" {
		t.Errorf("entry = %v", entry)
	}
	if entry["api_key"] != "[REDACTED]" {
		t.Errorf("api_key = %v, want redacted", entry["api_key"])
	}
}

// TestFileOutput verifies logs go to the rotating file when configured.
func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "wodlink.log")
	var console bytes.Buffer
	log, closer, err := New(config.LogConfig{File: path, MaxSizeMB: 1}, &console)
	if err != nil {
		t.Fatal(err)
	}
	log.Info("written to file")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}
	if console.Len() != 0 {
		t.Errorf("console got %q, want nothing", console.String())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "written to file") {
		t.Errorf("file = %q", data)
	}
}
