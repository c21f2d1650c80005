package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_DisabledDiscards(t *testing.T) {
	require.NoError(t, Init(Options{Enabled: false}))
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		assert.False(t, L.Enabled(t.Context(), level), "level %s", level)
	}
}

func TestInit_Writer(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Init(Options{Enabled: true, Writer: &out, Level: slog.LevelDebug}))
	t.Cleanup(func() { _ = Init(Options{}) })

	Debug("RegOpenKeyEx failed", "code", 2)
	assert.Contains(t, out.String(), "RegOpenKeyEx failed")
	assert.Contains(t, out.String(), "code=2")
}

func TestInit_LogDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Init(Options{Enabled: true, LogDir: dir}))
	t.Cleanup(func() { _ = Init(Options{}) })

	Info("hello")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Name(), logPrefix)
}

func TestCleanOldLogs(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	old := filepath.Join(dir, logPrefix+"2024-01-01"+logSuffix)
	recent := filepath.Join(dir, logPrefix+"2024-02-25"+logSuffix)
	other := filepath.Join(dir, "notes.txt")
	for _, p := range []string{old, recent, other} {
		require.NoError(t, os.WriteFile(p, nil, 0644))
	}

	cleanOldLogs(dir, now)

	assert.NoFileExists(t, old)
	assert.FileExists(t, recent)
	assert.FileExists(t, other)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}
