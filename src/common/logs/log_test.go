package logs

import (
	"bytes"
	"strings"
	"testing"
)

func TestNew_WriterOverride(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Writer: &buf, Level: "debug", Prefix: "kforge"})

	l.Debug("Probing toolchain", "binary", "clang")

	out := buf.String()
	if !strings.Contains(out, "Probing toolchain") || !strings.Contains(out, "binary=clang") {
		t.Errorf("unexpected log output %q", out)
	}
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Writer: &buf, Level: "warn"})

	l.Info("hidden")
	l.Warn("shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Error("info message should be filtered at warn level")
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Error("warn message should be written at warn level")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"debug", "debug"},
		{"info", "info"},
		{"warn", "warn"},
		{"error", "error"},
		{"bogus", "info"},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in).String(); got != tt.want {
			t.Errorf("parseLevel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDefaultConfig_Stderr(t *testing.T) {
	l := NewDefault()
	if l.Output() != OutputStderr {
		t.Errorf("Output() = %q, want %q", l.Output(), OutputStderr)
	}
}
