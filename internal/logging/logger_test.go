package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestConsoleHandlerPromotesComponent(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, lvl, false))

	NewComponentLogger(logger, "trackcache").Info("loaded entries", Int("entry_count", 3), TrackID("abc123"))

	line := strings.TrimSpace(buf.String())
	if !strings.Contains(line, " INFO trackcache: loaded entries") {
		t.Fatalf("unexpected line: %q", line)
	}
	if !strings.Contains(line, "entry_count=3") || !strings.Contains(line, "track_id=abc123") {
		t.Fatalf("missing attrs: %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component should be promoted into the prefix: %q", line)
	}
}

func TestConsoleHandlerQuotesValuesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, lvl, false))

	logger.Info("stored track", String("title", "Blue in Green"))

	if !strings.Contains(buf.String(), `title="Blue in Green"`) {
		t.Fatalf("expected quoted title, got %q", buf.String())
	}
}

func TestConsoleHandlerHonorsLevel(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	lvl.Set(slog.LevelWarn)
	logger := slog.New(newConsoleHandler(&buf, lvl, false))

	logger.Info("should be suppressed")
	logger.Warn("should appear")

	out := buf.String()
	if strings.Contains(out, "suppressed") {
		t.Fatalf("info line leaked through warn level: %q", out)
	}
	if !strings.Contains(out, "should appear") {
		t.Fatalf("warn line missing: %q", out)
	}
}

func TestJSONHandlerShape(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newJSONHandler(&buf, lvl, false))

	logger.Info("extended store", Int("appended", 2))

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if payload["level"] != "info" {
		t.Fatalf("expected lowercase level, got %v", payload["level"])
	}
	if payload["msg"] != "extended store" {
		t.Fatalf("unexpected msg: %v", payload["msg"])
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", payload)
	}
}

func TestParseLevelDefaultsToInfo(t *testing.T) {
	if got := parseLevel("verbose"); got != slog.LevelInfo {
		t.Fatalf("parseLevel(verbose) = %v", got)
	}
	if got := parseLevel("DEBUG"); got != slog.LevelDebug {
		t.Fatalf("parseLevel(DEBUG) = %v", got)
	}
}
