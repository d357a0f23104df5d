package stencil

import (
	"bytes"
	"strings"
	"testing"
)

func TestLogger(t *testing.T) {
	tests := []struct {
		name           string
		level          LogLevel
		expectedOutput []string
		notExpected    []string
	}{
		{
			name:           "debug level shows all messages",
			level:          LogDebug,
			expectedOutput: []string{"debug message", "info message", "warn message", "error message"},
		},
		{
			name:           "info level hides debug messages",
			level:          LogInfo,
			expectedOutput: []string{"info message", "warn message", "error message"},
			notExpected:    []string{"debug message"},
		},
		{
			name:           "warn level shows only warnings and errors",
			level:          LogWarn,
			expectedOutput: []string{"warn message", "error message"},
			notExpected:    []string{"debug message", "info message"},
		},
		{
			name:        "off level shows nothing",
			level:       LogOff,
			notExpected: []string{"debug message", "info message", "warn message", "error message"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(&buf, tt.level)
			logger.Debug("debug %s", "message")
			logger.Info("info %s", "message")
			logger.Warn("warn %s", "message")
			logger.Error("error %s", "message")

			output := buf.String()
			for _, expected := range tt.expectedOutput {
				if !strings.Contains(output, expected) {
					t.Errorf("Expected output to contain %q, but it didn't.\nOutput: %s", expected, output)
				}
			}
			for _, notExpected := range tt.notExpected {
				if strings.Contains(output, notExpected) {
					t.Errorf("Expected output not to contain %q, but it did.\nOutput: %s", notExpected, output)
				}
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug":   LogDebug,
		"info":    LogInfo,
		"warn":    LogWarn,
		"error":   LogError,
		"off":     LogOff,
		" WARN ":  LogWarn,
		"verbose": LogInfo,
	}
	for input, want := range tests {
		if got := ParseLogLevel(input); got != want {
			t.Errorf("ParseLogLevel(%q) = %s, want %s", input, got, want)
		}
	}
}

func TestGlobalLogger(t *testing.T) {
	original := GetLogger()
	t.Cleanup(func() { SetLogger(original) })

	var buf bytes.Buffer
	SetLogger(NewLogger(&buf, LogDebug))

	Debug("test debug")
	Info("test info")
	Warn("test warn")
	Error("test error")
	WithField("component", "global").Info("with field")

	output := buf.String()
	for _, expected := range []string{"test debug", "test info", "test warn", "test error", "component=global"} {
		if !strings.Contains(output, expected) {
			t.Errorf("Expected output to contain %q, but it didn't.\nOutput: %s", expected, output)
		}
	}
}

func TestDebugMode(t *testing.T) {
	logger := NewLogger(nil, LogDebug)

	if !logger.IsDebugMode() {
		t.Error("Expected IsDebugMode() to return true for LogDebug level")
	}

	logger.SetLevel(LogInfo)
	if logger.IsDebugMode() {
		t.Error("Expected IsDebugMode() to return false for LogInfo level")
	}
}

func TestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LogDebug)

	logger.
		WithField("request_id", "12345").
		WithField("company", "acme").
		WithFields(Fields{
			"state": "saving",
			"file":  "letter.docx",
		}).
		Info("Processing template")

	output := buf.String()
	for _, field := range []string{"request_id=12345", "company=acme", "state=saving", "file=letter.docx"} {
		if !strings.Contains(output, field) {
			t.Errorf("Expected output to contain field %q, but it didn't.\nOutput: %s", field, output)
		}
	}

	// chained fields keep their order, WithFields adds in key order
	if strings.Index(output, "request_id=") > strings.Index(output, "company=") {
		t.Errorf("Expected request_id before company.\nOutput: %s", output)
	}
	if strings.Index(output, "file=") > strings.Index(output, "state=") {
		t.Errorf("Expected file before state.\nOutput: %s", output)
	}
}

func TestDerivedLoggerSharesLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LogInfo)
	derived := logger.WithField("request_id", "abc")

	derived.Debug("hidden")
	logger.SetLevel(LogDebug)
	derived.Debug("visible")

	output := buf.String()
	if strings.Contains(output, "hidden") {
		t.Errorf("Expected debug message to be dropped at info level.\nOutput: %s", output)
	}
	if !strings.Contains(output, "visible") || !strings.Contains(output, "request_id=abc") {
		t.Errorf("Expected derived logger to follow the parent level.\nOutput: %s", output)
	}
	if !derived.IsDebugMode() {
		t.Error("Expected derived logger to report debug mode")
	}
}
