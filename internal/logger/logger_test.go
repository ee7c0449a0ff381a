package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reset(t *testing.T) {
	t.Cleanup(func() {
		_ = Close()
		SetInteractive(false)
		Log = zerolog.Nop()
	})
}

func TestInit_Levels(t *testing.T) {
	reset(t)

	var buf bytes.Buffer
	Init(&buf, false)
	assert.Equal(t, zerolog.InfoLevel, Log.GetLevel())

	Debug().Msg("hidden")
	Info().Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	Init(&buf, true)
	assert.Equal(t, zerolog.DebugLevel, Log.GetLevel())
}

func TestInteractiveSuppressesConsole(t *testing.T) {
	reset(t)

	var buf bytes.Buffer
	Init(&buf, false)
	SetInteractive(true)

	Info().Msg("info while drawing")
	Warn().Msg("warn while drawing")
	Error().Msg("error while drawing")
	progressLog := Progress()
	progressLog.Info().Msg("progress while drawing")
	assert.Empty(t, buf.String())

	SetInteractive(false)
	Warn().Msg("after drawing")
	assert.Contains(t, buf.String(), "after drawing")
}

func TestInteractiveKeepsDebugOutput(t *testing.T) {
	reset(t)

	var buf bytes.Buffer
	Init(&buf, true)
	SetInteractive(true)

	Info().Msg("visible in debug")
	assert.Contains(t, buf.String(), "visible in debug")
}

func TestInitWithFile(t *testing.T) {
	reset(t)

	dir := t.TempDir()
	var buf bytes.Buffer
	require.NoError(t, InitWithFile(&buf, false, dir, FileConfig{Enabled: true, MaxSizeMB: 1}))
	assert.Equal(t, filepath.Join(dir, FileName), FilePath())

	SetInteractive(true)
	Info().Msg("file only")
	require.NoError(t, Close())

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "file only")
	assert.NotContains(t, buf.String(), "file only")
	assert.Empty(t, FilePath())
}

func TestInitWithFile_Disabled(t *testing.T) {
	reset(t)

	dir := t.TempDir()
	var buf bytes.Buffer
	require.NoError(t, InitWithFile(&buf, false, dir, FileConfig{Enabled: false}))
	assert.Empty(t, FilePath())

	_, err := os.Stat(filepath.Join(dir, FileName))
	assert.True(t, os.IsNotExist(err))
}
