package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, LevelFromString(tt.input))
		})
	}
}

func TestSetup_StderrOnly(t *testing.T) {
	// Given: a buffer standing in for stderr
	var buf bytes.Buffer
	logger, cleanup, err := Setup(Config{Level: "info", Stderr: &buf})
	require.NoError(t, err)
	defer cleanup()

	// When: logging below and at the level
	logger.Debug("hidden")
	logger.Info("search_executed", slog.String("index", "people"))

	// Then: one JSON record is written
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "search_executed", rec["msg"])
	assert.Equal(t, "people", rec["index"])
}

func TestSetup_FileAndStderr(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "cuse.log")

	logger, cleanup, err := Setup(Config{Level: "debug", FilePath: path, Stderr: &buf})
	require.NoError(t, err)

	logger.Debug("entity_registered")
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "entity_registered")
	assert.Contains(t, buf.String(), "entity_registered")
}

func TestSetup_NoOutputs(t *testing.T) {
	logger, cleanup, err := Setup(Config{Level: "info"})
	require.NoError(t, err)
	defer cleanup()

	assert.NotPanics(t, func() { logger.Info("dropped") })
}

func TestDebugConfig(t *testing.T) {
	cfg := DebugConfig()
	assert.Equal(t, "debug", cfg.Level)
	assert.Equal(t, DefaultLogPath(), cfg.FilePath)
	assert.True(t, strings.HasSuffix(cfg.FilePath, filepath.Join(".cuse", "logs", "cuse.log")))
}

func TestRotatingWriter_Rotates(t *testing.T) {
	// Given: a writer that rotates every 10 bytes, keeping 2 files
	path := filepath.Join(t.TempDir(), "cuse.log")
	w, err := newRotatingWriter(path, 10, 2)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	// When: writing four 8-byte records
	for _, rec := range []string{"record1\n", "record2\n", "record3\n", "record4\n"} {
		_, err := w.Write([]byte(rec))
		require.NoError(t, err)
	}

	// Then: the newest record is current and only two rotations are kept
	current, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "record4\n", string(current))

	one, err := os.ReadFile(path + ".1")
	require.NoError(t, err)
	assert.Equal(t, "record3\n", string(one))

	two, err := os.ReadFile(path + ".2")
	require.NoError(t, err)
	assert.Equal(t, "record2\n", string(two))

	_, err = os.Stat(path + ".3")
	assert.True(t, os.IsNotExist(err))
}

func TestRotatingWriter_AppendsToExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cuse.log")
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0o644))

	w, err := NewRotatingWriter(path, 1, 2)
	require.NoError(t, err)
	_, err = w.Write([]byte("new\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old\nnew\n", string(data))
}

func TestRotatingWriter_WriteAfterClose(t *testing.T) {
	w, err := NewRotatingWriter(filepath.Join(t.TempDir(), "cuse.log"), 1, 1)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	_, err = w.Write([]byte("x"))
	assert.ErrorIs(t, err, os.ErrClosed)
}

func TestFindLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "explicit.log")
	_, err := FindLogFile(path)
	require.Error(t, err)

	require.NoError(t, os.WriteFile(path, nil, 0o644))
	found, err := FindLogFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, found)
}
