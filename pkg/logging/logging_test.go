package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" INFO ":  slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewHandler(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(NewHandler(&buf, "JSON", slog.LevelInfo))
		logger.Debug("hidden")
		logger.Info("Bill created", "bill_id", "b-1")

		var entry map[string]any
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("expected one JSON line, got %q: %v", buf.String(), err)
		}
		if entry["msg"] != "Bill created" || entry["bill_id"] != "b-1" {
			t.Errorf("unexpected entry: %v", entry)
		}
	})

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(NewHandler(&buf, FormatText, slog.LevelWarn))
		logger.Info("hidden")
		logger.Warn("Mixed currencies", "bill_id", "b-1")

		out := buf.String()
		if strings.Contains(out, "hidden") {
			t.Errorf("info line should be filtered: %q", out)
		}
		if !strings.Contains(out, "Mixed currencies") || !strings.Contains(out, "bill_id=b-1") {
			t.Errorf("unexpected output: %q", out)
		}
		if strings.Contains(out, "\x1b[") {
			t.Errorf("non-terminal output should not be colored: %q", out)
		}
	})
}
