package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/cvln/iouring/internal/uapi"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name   string
		config *Config
		want   string
	}{
		{
			name:   "default config",
			config: nil,
			want:   "text",
		},
		{
			name: "json format",
			config: &Config{
				Level:  LevelInfo,
				Format: "json",
				Output: &bytes.Buffer{},
			},
			want: "json",
		},
		{
			name: "text format",
			config: &Config{
				Level:  LevelDebug,
				Format: "text",
				Output: &bytes.Buffer{},
			},
			want: "text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewLogger(tt.config)
			if logger == nil {
				t.Error("NewLogger() returned nil")
			}
		})
	}
}

func TestLoggerWithContext(t *testing.T) {
	var buf bytes.Buffer
	config := &Config{
		Level:   LevelDebug,
		Format:  "text",
		Output:  &buf,
		Sync:    true,
		NoColor: true,
	}

	logger := NewLogger(config)

	ringLogger := logger.WithRing(7)
	ringLogger.Info("test message")

	output := buf.String()
	if !strings.Contains(output, "ring_fd=7") {
		t.Errorf("Expected ring_fd=7 in output, got: %s", output)
	}

	buf.Reset()
	sqeLogger := ringLogger.WithSQE(&uapi.SQE{Opcode: 1, UserData: 0xdeadbeef})
	sqeLogger.Info("op message")

	output = buf.String()
	if !strings.Contains(output, "ring_fd=7") {
		t.Errorf("Expected ring_fd=7 in op logger output, got: %s", output)
	}
	if !strings.Contains(output, "opcode=1") {
		t.Errorf("Expected opcode=1 in output, got: %s", output)
	}
	if !strings.Contains(output, "user_data=3735928559") {
		t.Errorf("Expected user_data=3735928559 in output, got: %s", output)
	}
}

func TestLoggerWithCQE(t *testing.T) {
	var buf bytes.Buffer
	config := &Config{
		Level:   LevelDebug,
		Format:  "text",
		Output:  &buf,
		Sync:    true,
		NoColor: true,
	}

	logger := NewLogger(config)
	cqeLogger := logger.WithCQE(&uapi.CQE{UserData: 0xdeadbeef, Res: -110})
	cqeLogger.Debug("completion observed")

	output := buf.String()
	if !strings.Contains(output, "user_data=3735928559") {
		t.Errorf("Expected user_data=3735928559 in output, got: %s", output)
	}
	if !strings.Contains(output, "res=-110") {
		t.Errorf("Expected res=-110 in output, got: %s", output)
	}
}

func TestLoggerWithError(t *testing.T) {
	var buf bytes.Buffer
	config := &Config{
		Level:   LevelDebug,
		Format:  "text",
		Output:  &buf,
		Sync:    true,
		NoColor: true,
	}

	logger := NewLogger(config)
	testErr := errors.New("test error")
	errorLogger := logger.WithError(testErr)
	errorLogger.Error("operation failed")

	output := buf.String()
	if !strings.Contains(output, "test error") {
		t.Errorf("Expected 'test error' in output, got: %s", output)
	}
}

func TestGlobalLoggerFunctions(t *testing.T) {
	var buf bytes.Buffer
	config := &Config{
		Level:   LevelDebug,
		Format:  "text",
		Output:  &buf,
		Sync:    true,
		NoColor: true,
	}

	SetDefault(NewLogger(config))

	Debug("debug message", "key", "value")
	output := buf.String()
	if !strings.Contains(output, "debug message") {
		t.Errorf("Expected debug message, got: %s", output)
	}
	if !strings.Contains(output, "key=value") {
		t.Errorf("Expected key=value, got: %s", output)
	}

	buf.Reset()
	Info("info message")
	output = buf.String()
	if !strings.Contains(output, "info message") {
		t.Errorf("Expected info message, got: %s", output)
	}

	buf.Reset()
	Warn("warning message")
	output = buf.String()
	if !strings.Contains(output, "warning message") {
		t.Errorf("Expected warning message, got: %s", output)
	}

	buf.Reset()
	Error("error message")
	output = buf.String()
	if !strings.Contains(output, "error message") {
		t.Errorf("Expected error message, got: %s", output)
	}
}
