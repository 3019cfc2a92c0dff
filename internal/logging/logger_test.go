package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevelAliases(t *testing.T) {
	cases := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"verbose", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"nonsense", slog.LevelInfo},
	}
	for _, tc := range cases {
		if got := parseLevel(tc.input); got != tc.expected {
			t.Fatalf("parseLevel(%q) = %v, want %v", tc.input, got, tc.expected)
		}
	}
}

func TestConsoleHandlerPromotesComponent(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, levelVar))

	logger.With(String(FieldComponent, "orchestrator")).Info("request added",
		String("content_id", "tmdb-603"))

	line := buf.String()
	if !strings.Contains(line, "INFO orchestrator: request added") {
		t.Fatalf("unexpected line: %q", line)
	}
	if !strings.Contains(line, "content_id=tmdb-603") {
		t.Fatalf("expected attr in line: %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component should not render as key=value: %q", line)
	}
}

func TestConsoleHandlerQuotesValuesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, levelVar))

	logger.Info("msg", String("title", "The Matrix"))
	if !strings.Contains(buf.String(), `title="The Matrix"`) {
		t.Fatalf("expected quoted value, got %q", buf.String())
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NewNop()
	logger.Error("should not panic", Error(nil))
}
