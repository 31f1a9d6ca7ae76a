package log_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mwantia/webproducer/log"
)

// TestLogger_LevelFilter verifies entries below the configured level are dropped.
func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWriterLogger("test", log.Warn, &buf)

	logger.Debug("debug %d", 1)
	logger.Info("info %d", 2)
	logger.Warn("warn %d", 3)
	logger.Error("error %d", 4)

	out := buf.String()
	if strings.Contains(out, "debug 1") || strings.Contains(out, "info 2") {
		t.Errorf("Expected debug and info entries to be filtered, got %q", out)
	}
	if !strings.Contains(out, "WARN  [test] warn 3") || !strings.Contains(out, "ERROR [test] error 4") {
		t.Errorf("Expected warn and error entries, got %q", out)
	}
}

// TestLogger_Named verifies child loggers share the writer and extend the name.
func TestLogger_Named(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWriterLogger("webproducer", log.Debug, &buf).Named("merge")

	logger.Info("drained")
	if !strings.Contains(buf.String(), "[webproducer/merge] drained") {
		t.Errorf("Expected named entry, got %q", buf.String())
	}
}

// TestLogger_JSON verifies JSON line output.
func TestLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWriterLogger("svc", log.Info, &buf)
	logger.JSON = true

	logger.Info("hello %s", "world")

	var entry map[string]string
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if entry["message"] != "hello world" || entry["level"] != "INFO" || entry["service"] != "svc" {
		t.Errorf("Unexpected entry %v", entry)
	}
}

// TestParse verifies level parsing and the error for unknown names.
func TestParse(t *testing.T) {
	tests := map[string]log.LogLevel{
		"debug":   log.Debug,
		"INFO":    log.Info,
		"":        log.Info,
		"warning": log.Warn,
		"Error":   log.Error,
	}

	for input, expected := range tests {
		level, err := log.Parse(input)
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", input, err)
		}
		if level != expected {
			t.Errorf("Expected %s for %q, got %s", expected, input, level)
		}
	}

	if _, err := log.Parse("verbose"); err == nil {
		t.Errorf("Expected error for unknown level")
	}
}
