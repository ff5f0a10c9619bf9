package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: LevelInfo, Format: FormatText, Output: &buf})

	log.Info("routes loaded", "count", 3)

	out := buf.String()
	if !strings.Contains(out, "routes loaded") {
		t.Errorf("output missing message: %q", out)
	}
	if !strings.Contains(out, "count=3") {
		t.Errorf("output missing attribute: %q", out)
	}
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: LevelInfo, Format: FormatJSON, Output: &buf})

	log.Warn("queue overflow", "dropped", 12)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["msg"] != "queue overflow" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["dropped"] != float64(12) {
		t.Errorf("dropped = %v", entry["dropped"])
	}
}

func TestNew_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: LevelWarn, Format: FormatText, Output: &buf})

	log.Debug("hidden")
	log.Info("also hidden")
	log.Error("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("level filter leaked: %q", out)
	}
	if !strings.Contains(out, "visible") {
		t.Errorf("error entry missing: %q", out)
	}
}

func TestNop(t *testing.T) {
	// Must not panic and must not write anywhere observable.
	log := Nop()
	log.Info("discarded")
	log.Error("discarded too")
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"warning": LevelWarn,
		"error":   LevelError,
		"":        LevelInfo,
		"bogus":   LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if ParseFormat("json") != FormatJSON {
		t.Error("json not recognized")
	}
	if ParseFormat("text") != FormatText {
		t.Error("text not recognized")
	}
	if ParseFormat("other") != FormatText {
		t.Error("unknown format should default to text")
	}
}
