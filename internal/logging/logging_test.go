package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithOutput(t *testing.T) {
	var buf bytes.Buffer

	logger, closer, err := New(Config{Output: &buf, Level: slog.LevelInfo})
	require.NoError(t, err)

	defer closer.Close()

	WithComponent(logger, "pause").Info("session paused",
		slog.String("session_id", "s1"),
	)
	logger.Debug("dropped")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))

	assert.Equal(t, "session paused", record["msg"])
	assert.Equal(t, "pause", record["component"])
	assert.Equal(t, "s1", record["session_id"])
	assert.NotContains(t, buf.String(), "dropped")
}

func TestNewRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log", "steadfast.log")

	logger, closer, err := New(Config{Path: path, MaxSizeMB: 1})
	require.NoError(t, err)

	logger.Warn("disk almost full")
	require.NoError(t, closer.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "disk almost full")
}
