package observability

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewLogger_JSONOutsideDev(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "prod", "roomfinder-api")

	l.Debug().Msg("hidden")
	l.Info().Int64("hotel_id", 7).Msg("visible")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("want 1 line, got %d: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("not json: %v", err)
	}
	if rec["service"] != "roomfinder-api" || rec["message"] != "visible" || rec["hotel_id"] != float64(7) {
		t.Fatalf("unexpected record: %v", rec)
	}
}

func TestNewLogger_ConsoleInDev(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "dev", "roomfinder-api")
	l.Debug().Msg("shown in dev")

	out := buf.String()
	if !strings.Contains(out, "shown in dev") {
		t.Fatalf("debug line missing: %q", out)
	}
	if strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Fatalf("expected console output, got json: %q", out)
	}
}
