package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/fd1az/sam-client/internal/logger"
)

func TestLogger_WritesStructuredRecord(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&buf, logger.LevelInfo, "sam-client", func(context.Context) string { return "abc123" })

	log.Info(context.Background(), "state refreshed", "bonds", 3)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("invalid json %q: %v", buf.String(), err)
	}
	if rec["msg"] != "state refreshed" {
		t.Errorf("unexpected msg: %v", rec["msg"])
	}
	if rec["service"] != "sam-client" {
		t.Errorf("unexpected service: %v", rec["service"])
	}
	if rec["trace_id"] != "abc123" {
		t.Errorf("unexpected trace_id: %v", rec["trace_id"])
	}
	if file, _ := rec["file"].(string); !strings.HasPrefix(file, "logger_test.go:") {
		t.Errorf("expected caller file, got %v", rec["file"])
	}
}

func TestLogger_FiltersBelowMinLevel(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&buf, logger.ParseLevel("warn"), "sam-client", nil)

	log.Debug(context.Background(), "hidden")
	log.Info(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected nothing written, got %q", buf.String())
	}

	log.Warn(context.Background(), "shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("expected warn record, got %q", buf.String())
	}
}
