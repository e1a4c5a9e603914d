package logger

import (
	"bytes"
	"log"
	"strings"
	"testing"
)

func TestStandardLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStandardLogger(log.New(&buf, "", 0), Debug, "[test]")

	t.Run("Info", func(t *testing.T) {
		buf.Reset()
		logger.Info("info message", "key1", "value1", "key2", 123)
		output := buf.String()
		if !strings.Contains(output, "[test] [INFO] info message") {
			t.Errorf("Expected log message not found in: %s", output)
		}
		if !strings.Contains(output, "key1=value1") || !strings.Contains(output, "key2=123") {
			t.Errorf("Expected structured fields not found in: %s", output)
		}
	})

	t.Run("Debug", func(t *testing.T) {
		buf.Reset()
		logger.Debug("debug message")
		if !strings.Contains(buf.String(), "[DEBUG] debug message") {
			t.Errorf("Expected log message not found in: %s", buf.String())
		}
	})

	t.Run("odd key-value args", func(t *testing.T) {
		buf.Reset()
		logger.Warn("warn message", "dangling")
		if !strings.Contains(buf.String(), "dangling=(no value)") {
			t.Errorf("Expected dangling key placeholder in: %s", buf.String())
		}
	})
}

func TestStandardLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	warnLogger := NewStandardLogger(log.New(&buf, "", 0), Warn, "[test]")

	// This should not be logged
	warnLogger.Info("info message")
	if buf.Len() > 0 {
		t.Errorf("Info should not be logged at Warn level, but got: %s", buf.String())
	}

	// This should be logged
	warnLogger.Warn("warn message")
	if !strings.Contains(buf.String(), "[WARN] warn message") {
		t.Errorf("Warn should be logged at Warn level, but got: %s", buf.String())
	}
}

func TestLogMode(t *testing.T) {
	var buf bytes.Buffer
	base := NewStandardLogger(log.New(&buf, "", 0), Silent, "[test]")

	debug := base.LogMode(Debug)
	debug.Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("LogMode(Debug) should log debug messages, got: %s", buf.String())
	}

	buf.Reset()
	base.Error("hidden")
	if buf.Len() > 0 {
		t.Errorf("original logger level must be unchanged, got: %s", buf.String())
	}
}

func TestDiscard(t *testing.T) {
	// Must not panic and must stay silent regardless of level.
	Discard.Info("ignored")
	Discard.LogMode(Debug).Debug("ignored")
}
