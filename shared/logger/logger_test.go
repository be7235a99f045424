package logger

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNewWithWriterTagsServiceAndFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "provisioning-service", Config{Level: "warn"})

	log.Info().Msg("dropped")
	log.Warn().Str("email", "a@b.co").Msg("kept")

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("expected exactly one json line, got %q: %v", buf.String(), err)
	}
	if entry["service"] != "provisioning-service" {
		t.Fatalf("service = %v", entry["service"])
	}
	if entry["message"] != "kept" {
		t.Fatalf("message = %v", entry["message"])
	}
}

func TestNewWithWriterFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "svc", Config{Level: "loud"})

	log.Debug().Msg("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug should be filtered at info level, got %q", buf.String())
	}
}
