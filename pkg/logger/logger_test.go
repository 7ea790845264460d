package logger

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewFromConfig(t *testing.T) {
	tests := []struct {
		name     string
		config   LoggerConfig
		expected zerolog.Level
	}{
		{
			name:     "Default log level when no level specified",
			config:   LoggerConfig{LogLevel: zerolog.NoLevel},
			expected: zerolog.WarnLevel,
		},
		{
			name:     "Debug log level",
			config:   LoggerConfig{LogLevel: zerolog.DebugLevel},
			expected: zerolog.DebugLevel,
		},
		{
			name:     "Error log level",
			config:   LoggerConfig{LogLevel: zerolog.ErrorLevel},
			expected: zerolog.ErrorLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewFromConfig(tt.config)
			assert.Equal(t, tt.expected, l.zl.GetLevel())
		})
	}
}

func TestLoggerWithLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New().WithOutput(&buf).WithLevel(zerolog.ErrorLevel)

	l.Info("info message")
	l.Error(errors.New("test error"), "error message")

	output := buf.String()
	assert.NotContains(t, output, "info message")
	assert.Contains(t, output, "error message")
	assert.Contains(t, output, "test error")
}

func TestLoggerFormatted(t *testing.T) {
	var buf bytes.Buffer
	l := New().WithOutput(&buf).WithLevel(zerolog.DebugLevel)

	l.Debugf("checking %s", "credential")
	l.Warnf("balance %d below %d", 10, 20)

	output := buf.String()
	assert.Contains(t, output, "checking credential")
	assert.Contains(t, output, `"level":"debug"`)
	assert.Contains(t, output, "balance 10 below 20")
	assert.Contains(t, output, `"level":"warn"`)
}

func TestLoggerWithField(t *testing.T) {
	var buf bytes.Buffer
	l := New().WithOutput(&buf).WithLevel(zerolog.InfoLevel)

	l.WithField("command", "attest").Info("started")

	assert.Contains(t, buf.String(), `"command":"attest"`)
}

func TestConfigJsonConvertToDomain(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, LoggerConfigJson{LogLevel: "debug"}.ConvertToDomain().LogLevel)
	assert.Equal(t, zerolog.NoLevel, LoggerConfigJson{}.ConvertToDomain().LogLevel)
	assert.Equal(t, zerolog.NoLevel, LoggerConfigJson{LogLevel: "loud"}.ConvertToDomain().LogLevel)
	assert.True(t, LoggerConfigJson{Console: true}.ConvertToDomain().Console)
}

func TestDefaultBeforeInitIsNop(t *testing.T) {
	assert.NotNil(t, Default())
}
