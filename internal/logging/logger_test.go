package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "info", Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("catalog loaded", Args(Int("entry_count", 12))...)

	out := buf.String()
	if !strings.Contains(out, "INFO") {
		t.Errorf("missing level label: %q", out)
	}
	if !strings.Contains(out, "catalog loaded") {
		t.Errorf("missing message: %q", out)
	}
	if !strings.Contains(out, "entry_count=12") {
		t.Errorf("missing attr: %q", out)
	}
}

func TestConsoleComponentPrefix(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	NewComponentLogger(logger, "catalog").Info("snapshot saved")

	out := buf.String()
	if !strings.Contains(out, "catalog: snapshot saved") {
		t.Errorf("component should prefix message: %q", out)
	}
	if strings.Contains(out, "component=") {
		t.Errorf("component should not render as kv pair: %q", out)
	}
}

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "debug", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Debug("hydrated", Args(String("key", "Ocean"))...)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if record["level"] != "debug" {
		t.Errorf("level mismatch: %v", record["level"])
	}
	if record["msg"] != "hydrated" {
		t.Errorf("msg mismatch: %v", record["msg"])
	}
	if record["key"] != "Ocean" {
		t.Errorf("attr mismatch: %v", record["key"])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Error("unknown format should error")
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "warn", Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("should not appear")
	logger.Warn("should appear")

	out := buf.String()
	if strings.Contains(out, "should not appear") {
		t.Errorf("info leaked through warn level: %q", out)
	}
	if !strings.Contains(out, "should appear") {
		t.Errorf("warn missing: %q", out)
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NewNop()
	// Must not panic and must report disabled at every level.
	logger.Info("discarded")
	if logger.Enabled(nil, 0) {
		t.Error("nop logger should be disabled")
	}
}
