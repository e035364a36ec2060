package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONLogger_Record(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewJSONLogger(LoggerConfig{
		Output: &buf,
		Gate:   DefaultGate(),
		Fields: map[string]any{"run": "r1"},
	})
	require.NoError(t, err)

	logger.Info("started", IntField("modules", 3))

	var entry LogEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "INFO", entry.Channel)
	assert.Equal(t, "GENERAL", entry.Level)
	assert.Equal(t, "started", entry.Message)
	assert.Equal(t, "r1", entry.Fields["run"])
	assert.Equal(t, float64(3), entry.Fields["modules"])
}

func TestJSONLogger_GateFilters(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewJSONLogger(LoggerConfig{
		Output: &buf,
		Gate:   Gate{Channels: ChannelInfo, Levels: LevelModule},
	})
	require.NoError(t, err)

	logger.Info("general")
	logger.Debug("debug")
	logger.Record(ChannelInfo, LevelModule, "module")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"message":"module"`)
}

func TestJSONLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "run.log")
	logger, err := NewJSONLogger(LoggerConfig{
		OutputPath: path,
		Gate:       DefaultGate(),
	})
	require.NoError(t, err)

	child := logger.WithFields(StringField("module", "m"))
	child.Warn("careful")
	require.NoError(t, child.Close())
	require.NoError(t, logger.Close())
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"module":"m"`)

	logger.Warn("after close")
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "after close")
}

func TestJSONLogger_MarshalError(t *testing.T) {
	orig := jsonMarshal
	defer func() { jsonMarshal = orig }()
	jsonMarshal = func(any) ([]byte, error) {
		return nil, errors.New("boom")
	}

	var buf bytes.Buffer
	logger, err := NewJSONLogger(LoggerConfig{
		Output: &buf, Gate: DefaultGate(),
	})
	require.NoError(t, err)

	logger.Info("lost")
	assert.Empty(t, buf.String())
}

func TestNewJSONLogger_BadPath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	_, err := NewJSONLogger(LoggerConfig{
		OutputPath: filepath.Join(blocker, "sub", "x.log"),
	})
	assert.Error(t, err)
}
