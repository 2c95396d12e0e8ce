package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestLevel(t *testing.T) {
	assert.Equal(t, zapcore.WarnLevel, Level(0))
	assert.Equal(t, zapcore.InfoLevel, Level(1))
	assert.Equal(t, zapcore.DebugLevel, Level(2))
	assert.Equal(t, zapcore.DebugLevel, Level(5))
}

func TestNewWithWriter(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, 1, true)

	log.Debug("hidden")
	log.Info("parsed file", zap.String("file", "a.factcheck.yaml"), zap.Int("cases", 3))
	require.NoError(t, log.Sync())

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "parsed file")
	assert.Contains(t, out, `"file": "a.factcheck.yaml"`)
	assert.NotContains(t, out, "\x1b[")
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, level)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewAtLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewAtLevel(&buf, zapcore.ErrorLevel, true)

	log.Warn("quiet")
	log.Error("loud")
	require.NoError(t, log.Sync())

	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "ERROR\tloud")
}
