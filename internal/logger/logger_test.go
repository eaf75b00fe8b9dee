package logger

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewDefaults(t *testing.T) {
	l, err := New(nil)
	require.NoError(t, err)
	require.NotNil(t, l)

	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestNewWithFileAndFields(t *testing.T) {
	file := filepath.Join(t.TempDir(), "logs", "wanwatch.log")

	l, err := New(&Config{File: file, Level: "debug"},
		zap.String("monitor_id", "edge-1"),
		zap.String("hostname", "router"))
	require.NoError(t, err)

	l.Debug("hello", zap.String("address", "1.2.3.4"))
	_ = l.Sync()

	f, err := os.Open(file)
	require.NoError(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	require.True(t, scanner.Scan())

	var record map[string]any
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &record))
	assert.Equal(t, "DEBUG", record["level"])
	assert.Equal(t, "hello", record["msg"])
	assert.Equal(t, "edge-1", record["monitor_id"])
	assert.Equal(t, "router", record["hostname"])
	assert.Equal(t, "1.2.3.4", record["address"])
	assert.Contains(t, record, "time")
}

func TestNewInvalidLevel(t *testing.T) {
	_, err := New(&Config{Level: "verbose"})
	assert.Error(t, err)
}

func TestGetZapLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, getZapLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, getZapLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, getZapLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, getZapLevel("bogus"))
}
