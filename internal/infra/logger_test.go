package infra

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNewLoggerProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "production")

	logger.Debug().Msg("hidden")
	logger.Info().Str("session", "abc").Msg("visible")

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("expected a single JSON line, got %q: %v", buf.String(), err)
	}
	if entry["message"] != "visible" || entry["session"] != "abc" {
		t.Fatalf("unexpected entry: %#v", entry)
	}
	if entry["service"] != "render-studio" {
		t.Fatalf("service field missing: %#v", entry)
	}
}

func TestDiscardLogger(t *testing.T) {
	logger := DiscardLogger()
	logger.Error().Msg("dropped")
}
