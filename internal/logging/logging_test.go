package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(WithOutput(&buf), WithLevel("warn"))
	require.NoError(t, err)

	log.Info("dropped")
	log.Warn("kept", zap.String("condition", "c1"))
	require.NoError(t, log.Sync())

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "c1", entry["condition"])
	assert.Equal(t, "warn", entry["level"])
}

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(WithOutput(&buf), WithFormat("console"), WithLevel("debug"))
	require.NoError(t, err)

	log.Debug("hello")
	assert.Contains(t, buf.String(), "DEBUG")
	assert.Contains(t, buf.String(), "hello")
}

func TestNewErrors(t *testing.T) {
	_, err := New(WithFormat("xml"))
	require.ErrorIs(t, err, ErrUnknownFormat)

	_, err = New(WithLevel("loud"))
	require.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"":        zapcore.InfoLevel,
		"INFO":    zapcore.InfoLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
	}
	for name, want := range tests {
		got, err := ParseLevel(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
}
