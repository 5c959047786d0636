package clog

// clog_test.go — Tests for the colored handler and level parsing.

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// ParseLevel
// ---------------------------------------------------------------------------

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		// Case-insensitive.
		{"INFO", slog.LevelInfo},
		{"Debug", slog.LevelDebug},
	}
	for _, tc := range tests {
		got, err := ParseLevel(tc.input)
		if err != nil {
			t.Errorf("ParseLevel(%q): %v", tc.input, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestParseLevel_Invalid(t *testing.T) {
	for _, input := range []string{"", "verbose", "trace"} {
		if _, err := ParseLevel(input); err == nil {
			t.Errorf("ParseLevel(%q): expected error", input)
		}
	}
}

// ---------------------------------------------------------------------------
// Handler
// ---------------------------------------------------------------------------

func TestHandler_WritesMessageAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewHandler(&buf, slog.LevelInfo))

	log.Info("generated example config", "path", "host_vars/web1/.web1.yml.example")

	out := buf.String()
	if !strings.Contains(out, "INFO") {
		t.Errorf("missing level: %q", out)
	}
	if !strings.Contains(out, "generated example config") {
		t.Errorf("missing message: %q", out)
	}
	if !strings.Contains(out, "path=host_vars/web1/.web1.yml.example") {
		t.Errorf("missing attr: %q", out)
	}
	if !strings.HasSuffix(out, "\n") {
		t.Errorf("record not newline-terminated: %q", out)
	}
}

func TestHandler_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewHandler(&buf, slog.LevelWarn))

	log.Debug("hidden")
	log.Info("also hidden")
	log.Warn("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("low-severity records leaked: %q", out)
	}
	if !strings.Contains(out, "visible") {
		t.Errorf("warn record missing: %q", out)
	}
}

func TestHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewHandler(&buf, slog.LevelInfo)).With("host", "web1")

	log.Info("accumulated roles")

	if !strings.Contains(buf.String(), "host=web1") {
		t.Errorf("pre-bound attr missing: %q", buf.String())
	}
}
