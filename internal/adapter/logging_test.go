package adapter

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", parseLogLevel("debug").String())
	assert.Equal(t, "WARN", parseLogLevel("warning").String())
	assert.Equal(t, "ERROR", parseLogLevel("Error").String())
	assert.Equal(t, "INFO", parseLogLevel("nonsense").String())
}

func TestSetupLoggerWritesTextToStderr(t *testing.T) {
	t.Chdir(t.TempDir())
	var stderr bytes.Buffer

	logger, closer, err := setupLogger(LoggingConfig{File: "-", Level: "debug"}, &stderr)
	require.NoError(t, err)
	logger.Debug("listing folders", "parent", "root")
	require.NoError(t, closer.Close())

	assert.Contains(t, stderr.String(), "level=DEBUG")
	assert.Contains(t, stderr.String(), `msg="listing folders" parent=root`)
	assert.NoFileExists(t, "-")
}

func TestSetupLoggerWritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "shuttle.log")

	logger, closer, err := setupLogger(LoggingConfig{File: path, Level: "warn"}, nil)
	require.NoError(t, err)
	logger.Info("dropped")
	logger.Warn("kept", "file", "a.txt")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "a.txt", entry["file"])
}
