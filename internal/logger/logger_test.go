package logger

import (
	"errors"
	"testing"

	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		wantErr bool
	}{
		{"default", "", false},
		{"debug", "debug", false},
		{"warn", "warn", false},
		{"upper case", "ERROR", false},
		{"unknown", "chatty", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.level, false)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New(%q) error = %v, wantErr %v", tt.level, err, tt.wantErr)
			}
			if err == nil && l == nil {
				t.Fatal("New() returned nil logger")
			}
		})
	}
}

func TestNamedAndWith(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := NewWithCore(core).Named("probe").With(String("tile", "svc-1"))

	log.Debug("hidden")
	log.Warn("probe failed", Int("status", 502), Error(errors.New("boom")))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.LoggerName != "probe" || e.Message != "probe failed" {
		t.Errorf("entry = %s/%s", e.LoggerName, e.Message)
	}
	fields := e.ContextMap()
	if fields["tile"] != "svc-1" || fields["status"] != int64(502) || fields["error"] != "boom" {
		t.Errorf("fields = %v", fields)
	}
}
