package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, slog.LevelInfo, "json").Info("region moved", "region", "blue")
	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil || rec["region"] != "blue" {
		t.Fatalf("json record %q: %v", buf.String(), err)
	}

	buf.Reset()
	NewLogger(&buf, slog.LevelInfo, "text").Info("region moved", "region", "blue")
	if !strings.Contains(buf.String(), "region=blue") {
		t.Fatalf("text record %q", buf.String())
	}

	buf.Reset()
	NewLogger(&buf, slog.LevelInfo, "json").Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug written at info level: %q", buf.String())
	}
}
