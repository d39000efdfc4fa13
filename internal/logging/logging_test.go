package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"WARN", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"bogus", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestComponent_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", JSON: true, Out: &buf})
	defer Init(Config{})

	log := Component("devserver")
	log.Info().Str("addr", "localhost:3000").Msg("listening")

	out := buf.String()
	if !strings.Contains(out, `"component":"devserver"`) {
		t.Errorf("output missing component field: %s", out)
	}
	if !strings.Contains(out, `"addr":"localhost:3000"`) {
		t.Errorf("output missing addr field: %s", out)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "warn", JSON: true, Out: &buf})
	defer Init(Config{})

	log := Logger()
	log.Info().Msg("dropped")
	log.Warn().Msg("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Error("info line should be filtered at warn level")
	}
	if !strings.Contains(out, "kept") {
		t.Error("warn line should pass at warn level")
	}
}
