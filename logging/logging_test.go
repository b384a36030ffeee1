package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestPrettyJSONHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewPrettyJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logger.With("game", "g1").WithGroup("search").Debug("search done", "iterations", 42, "fallback", false)

	out := buf.String()
	t.Logf("output:\n%s", out)

	var payload map[string]any
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("output is not one JSON object: %v", err)
	}
	if payload["msg"] != "search done" || payload["level"] != "DEBUG" {
		t.Errorf("unexpected header fields: %v", payload)
	}
	search, ok := payload["search"].(map[string]any)
	if !ok {
		t.Fatalf("missing search group: %v", payload)
	}
	if search["iterations"] != float64(42) {
		t.Errorf("iterations = %v", search["iterations"])
	}
	// Attrs added before WithGroup are grouped as well in this handler.
	if search["game"] != "g1" {
		t.Errorf("game attr = %v", search["game"])
	}
	if !strings.Contains(out, "\n  \"") {
		t.Errorf("expected indented output")
	}
}

func TestPrettyJSONHandlerBoardBlock(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewPrettyJSONHandler(&buf, nil))

	board := "r..\n.b.\n...\n"
	logger.Info("turn", "turn", 3, "board", board)

	out := buf.String()
	t.Logf("output:\n%s", out)
	if !strings.HasSuffix(out, "board:\nr..\n.b.\n...\n") {
		t.Errorf("board block not printed verbatim:\n%s", out)
	}
	if strings.Contains(out, `"board"`) {
		t.Errorf("board should not be inside the JSON object")
	}
}

func TestPrettyJSONHandlerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewPrettyJSONHandler(&buf, nil))
	logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug record written at info level: %q", buf.String())
	}
}

func TestNew(t *testing.T) {
	for _, format := range []string{FormatPretty, FormatJSON, FormatText, ""} {
		var buf bytes.Buffer
		logger, err := New(&buf, format, slog.LevelInfo)
		if err != nil {
			t.Fatalf("format %q: %v", format, err)
		}
		logger.Info("hello", "k", "v")
		if !strings.Contains(buf.String(), "hello") {
			t.Errorf("format %q: message missing from %q", format, buf.String())
		}
	}
	if _, err := New(&bytes.Buffer{}, "xml", slog.LevelInfo); err == nil {
		t.Errorf("expected error for unknown format")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Errorf("expected error for unknown level")
	}
}
