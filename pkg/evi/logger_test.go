package evi

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
		ok   bool
	}{
		{"TRACE", TraceLevel, true},
		{"DEBUG", DebugLevel, true},
		{"INFO", InfoLevel, true},
		{"WARNING", WarnLevel, true},
		{"WARN", WarnLevel, true},
		{"ERROR", ErrorLevel, true},
		{"OFF", Disabled, true},
		{"debug", InfoLevel, false},
		{"", InfoLevel, false},
	}
	for _, tt := range tests {
		got, ok := ParseLogLevel(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseLogLevel(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LogConfig{Level: InfoLevel, Output: &buf}).
		WithComponent("session").
		WithField("session_id", "s-1")

	logger.Debug("hidden")
	logger.LogConnectionEvent("open", Connected, map[string]interface{}{"config_id": "cfg"})

	var entry map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("expected a single JSON line, got %q: %v", buf.String(), err)
	}

	want := map[string]interface{}{
		"level":      "info",
		"component":  "session",
		"session_id": "s-1",
		"event_type": "connection",
		"event":      "open",
		"state":      "connected",
		"config_id":  "cfg",
		"message":    "Connection event",
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("%s = %v, want %v", k, entry[k], v)
		}
	}
}

func TestLoggerLogError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LogConfig{Level: ErrorLevel, Output: &buf})

	logger.LogError(NewPlaybackError("device lost").AddDetail("index", 2))

	var entry map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatal(err)
	}
	if entry["error_code"] != ErrCodePlayback || entry["message"] != "device lost" || entry["index"] != float64(2) {
		t.Errorf("entry = %v", entry)
	}
}

func TestNopLogger(t *testing.T) {
	l := NopLogger().WithComponent("x").WithFields(map[string]interface{}{"a": 1})
	l.Error("nothing")
	l.LogAudioEvent("played", nil)
}
