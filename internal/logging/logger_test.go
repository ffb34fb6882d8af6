package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Run("writes to the configured console", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(Config{Level: "info", NoColor: true, Out: &buf})
		require.NotNil(t, logger)

		logger.Info().Str("source", "my-pkg").Msg("building")
		logger.Debug().Msg("hidden")

		assert.Contains(t, buf.String(), "building")
		assert.Contains(t, buf.String(), "source=my-pkg")
		assert.NotContains(t, buf.String(), "hidden")
	})

	t.Run("creates logger with file writer", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "logs", "pydeb.log")

		var buf bytes.Buffer
		logger := NewLogger(Config{Level: "debug", LogFile: logFile, NoColor: true, Out: &buf})
		logger.Info().Msg("test")

		content, err := os.ReadFile(logFile)
		require.NoError(t, err)
		assert.Contains(t, string(content), "test")
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"trace", zerolog.TraceLevel},
		{"", zerolog.InfoLevel},
		{"invalid", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewTestLogger(&buf)

	Component(logger, "depmap").Warn().Msg("no candidate")
	assert.Contains(t, buf.String(), `"component":"depmap"`)
	assert.Contains(t, buf.String(), `"level":"warn"`)

	assert.NotNil(t, Component(nil, "x"))
}

func TestNewTestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewTestLogger(&buf)

	logger.Debug().Str("test", "value").Msg("test message")

	assert.Contains(t, buf.String(), "test message")
	assert.Contains(t, buf.String(), `"test":"value"`)
}
