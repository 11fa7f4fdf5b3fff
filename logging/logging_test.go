package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
		ok   bool
	}{
		{"debug", zerolog.DebugLevel, true},
		{"info", zerolog.InfoLevel, true},
		{"notice", zerolog.InfoLevel, true},
		{"warning", zerolog.WarnLevel, true},
		{"warn", zerolog.WarnLevel, true},
		{"error", zerolog.ErrorLevel, true},
		{" Debug ", zerolog.DebugLevel, true},
		{"chatty", zerolog.NoLevel, false},
		{"", zerolog.NoLevel, false},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.ok != (err == nil) {
			t.Errorf("ParseLevel(%q) error = %v, want ok=%v", tt.in, err, tt.ok)
			continue
		}
		if tt.ok && got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSetupLevelsPerSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "badank.log")

	// Screen at error so the test stays quiet; file at debug.
	log, closeLog, err := Setup(zerolog.ErrorLevel, zerolog.DebugLevel, path)
	if err != nil {
		t.Fatal(err)
	}

	log.Debug().Msg("into the file only")
	log.Info().Msg("also into the file only")
	closeLog()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(string(data), "into the file only") {
		t.Errorf("debug line missing from file: %q", string(data))
	}
	if !strings.Contains(string(data), "also into the file only") {
		t.Errorf("info line missing from file: %q", string(data))
	}
}

func TestSetupFileAboveScreen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "badank.log")

	log, closeLog, err := Setup(zerolog.ErrorLevel, zerolog.WarnLevel, path)
	if err != nil {
		t.Fatal(err)
	}

	log.Info().Msg("below both sinks")
	log.Warn().Msg("file only")
	closeLog()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if strings.Contains(string(data), "below both sinks") {
		t.Errorf("info line leaked into the file: %q", string(data))
	}
	if !strings.Contains(string(data), "file only") {
		t.Errorf("warning line missing from file: %q", string(data))
	}
}

func TestSetupWithoutFile(t *testing.T) {
	log, closeLog, err := Setup(zerolog.ErrorLevel, zerolog.DebugLevel, "")
	if err != nil {
		t.Fatal(err)
	}
	defer closeLog()

	// Must not panic without a file sink.
	log.Error().Msg("screen only")
}
