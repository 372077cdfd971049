package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewDefaultsToInfoLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: FormatJSON, Output: &buf})

	logger.Debug().Msg("should not appear")
	logger.Info().Msg("should appear")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "should appear", entry["message"])
}

func TestNewRespectsDebugLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelDebug, Format: FormatJSON, Output: &buf})
	logger.Debug().Msg("now visible")
	require.Contains(t, buf.String(), "now visible")
}

func TestNewRespectsErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelError, Format: FormatJSON, Output: &buf})
	logger.Warn().Msg("should be suppressed")
	logger.Error().Msg("should pass through")

	require.NotContains(t, buf.String(), "should be suppressed")
	require.Contains(t, buf.String(), "should pass through")
}

func TestNewTextFormatDoesNotPanic(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: FormatText, Output: &buf})
	logger.Info().Msg("console writer output")
	require.Contains(t, buf.String(), "console writer output")
}
