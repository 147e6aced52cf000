package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{" warning ", slog.LevelWarn},
		{"error", slog.LevelError},
		{"loud", slog.LevelInfo},
	}
	for _, tc := range tests {
		if got := ParseLevel(tc.input); got != tc.expected {
			t.Errorf("ParseLevel(%q) = %v, want %v", tc.input, got, tc.expected)
		}
	}
}

func TestValidLevel(t *testing.T) {
	for _, l := range Levels {
		if !ValidLevel(l) {
			t.Errorf("ValidLevel(%q) = false, want true", l)
		}
	}
	for _, l := range []string{"", "trace", "fatal"} {
		if ValidLevel(l) {
			t.Errorf("ValidLevel(%q) = true, want false", l)
		}
	}
}

func TestNewLogger_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("warn", &buf)

	logger.Info("hidden")
	logger.Warn("shown", "series", "1.2.3")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record should be filtered: %s", out)
	}
	if !strings.Contains(out, "msg=shown") || !strings.Contains(out, "series=1.2.3") {
		t.Errorf("warn record missing: %s", out)
	}
}

func TestNewLogger_DebugAddsSource(t *testing.T) {
	var buf bytes.Buffer
	NewLogger("debug", &buf).Debug("details")
	if !strings.Contains(buf.String(), "source=") {
		t.Errorf("debug logger should add source: %s", buf.String())
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	WithComponent(NewLogger("info", &buf), "scan").Info("walking")
	if !strings.Contains(buf.String(), "component=scan") {
		t.Errorf("component attribute missing: %s", buf.String())
	}
}

func TestDiscard(t *testing.T) {
	if Discard().Enabled(context.Background(), slog.LevelError) {
		t.Error("Discard logger should not be enabled")
	}
}
