package logger

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestNewLevelSelection(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"ERROR", zerolog.ErrorLevel},
		{"verbose", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		l := New(Config{Level: tt.level, Format: "json"})
		if l.GetLevel() != tt.want {
			t.Errorf("New(level=%q) = %v, want %v", tt.level, l.GetLevel(), tt.want)
		}
	}
}

func TestNewConsoleFormat(t *testing.T) {
	l := New(Config{Level: "debug", Format: "console"})
	if l.GetLevel() != zerolog.DebugLevel {
		t.Fatalf("expected debug level, got %v", l.GetLevel())
	}
}
