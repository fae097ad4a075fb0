package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWriterRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, "warn")
	l.Info("hidden")
	l.Warn("shown", "run_id", "abc")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line should be filtered: %s", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "run_id=abc") {
		t.Fatalf("warn line missing: %s", out)
	}
}

func TestNewCreatesLogFile(t *testing.T) {
	dir := t.TempDir()
	l, err := New(dir, "debug")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.With("component", "test").Debug("hello")
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, ".planner", "logs", "planner.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "component=test") {
		t.Fatalf("log file = %s", data)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{"DEBUG": slog.LevelDebug, "info": slog.LevelInfo, "warn": slog.LevelWarn, "error": slog.LevelError, "": slog.LevelInfo}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	l.Info("ignored")
	l.Slog().Info("ignored")
	if err := l.Close(); err != nil {
		t.Fatalf("Close on nil: %v", err)
	}
}

func TestSlogSharesHandler(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, "info")
	std := slog.NewLogLogger(l.Slog().Handler(), slog.LevelError)
	std.Print("http: TLS handshake error")
	if !strings.Contains(buf.String(), "level=ERROR") || !strings.Contains(buf.String(), "TLS handshake error") {
		t.Fatalf("expected bridged record, got %q", buf.String())
	}
}
