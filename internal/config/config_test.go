package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolateDirs(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	t.Setenv("HOME", base)
	for _, env := range []string{"XDG_CONFIG_HOME", "XDG_DATA_HOME", "XDG_CACHE_HOME", "XDG_STATE_HOME"} {
		t.Setenv(env, filepath.Join(base, env))
	}
	return base
}

func newRoot() *cobra.Command {
	root := &cobra.Command{Use: "my-unicorn"}
	root.PersistentFlags().String("install-dir", "", "")
	root.PersistentFlags().Int("jobs", 3, "")
	root.PersistentFlags().Bool("verbose", false, "")
	root.PersistentFlags().Bool("debug", false, "")
	root.PersistentFlags().Bool("no-progress", false, "")
	return root
}

func TestLoad_Defaults(t *testing.T) {
	home := isolateDirs(t)
	v := viper.New()
	require.NoError(t, initViper(v, nil))

	s, err := LoadFrom(v)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "Applications"), s.InstallDir)
	assert.Equal(t, 3, s.Jobs)
	assert.False(t, s.NoProgress)
	assert.Equal(t, Progress{
		SpinnerFPS:      10,
		BarWidth:        30,
		MinNameWidth:    20,
		MaxNameWidth:    40,
		MaxSpeedHistory: 10,
	}, s.Progress)
	assert.True(t, s.Logging.FileEnabled)
	assert.Equal(t, 10, s.Logging.MaxSizeMB)
}

func TestLoad_ConfigFile(t *testing.T) {
	base := isolateDirs(t)
	cfgDir := filepath.Join(base, "XDG_CONFIG_HOME", "my-unicorn")
	require.NoError(t, os.MkdirAll(cfgDir, 0o755))
	yaml := "jobs: 6\nprogress:\n  bar_width: 20\n  render_interval: 250ms\nlogging:\n  file_enabled: false\n"
	require.NoError(t, os.WriteFile(filepath.Join(cfgDir, "config.yaml"), []byte(yaml), 0o644))

	v := viper.New()
	require.NoError(t, initViper(v, nil))
	s, err := LoadFrom(v)
	require.NoError(t, err)

	assert.Equal(t, 6, s.Jobs)
	assert.Equal(t, 20, s.Progress.BarWidth)
	assert.Equal(t, 250*time.Millisecond, s.Progress.RenderInterval)
	assert.Equal(t, 40, s.Progress.MaxNameWidth)
	assert.False(t, s.Logging.FileEnabled)
}

func TestLoad_MalformedConfigFile(t *testing.T) {
	base := isolateDirs(t)
	cfgDir := filepath.Join(base, "XDG_CONFIG_HOME", "my-unicorn")
	require.NoError(t, os.MkdirAll(cfgDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfgDir, "config.yaml"), []byte("jobs: [\n"), 0o644))

	err := initViper(viper.New(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestLoad_Precedence(t *testing.T) {
	base := isolateDirs(t)
	cfgDir := filepath.Join(base, "XDG_CONFIG_HOME", "my-unicorn")
	require.NoError(t, os.MkdirAll(cfgDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfgDir, "config.yaml"), []byte("jobs: 6\nverbose: true\n"), 0o644))

	t.Setenv("MY_UNICORN_JOBS", "8")
	t.Setenv("MY_UNICORN_PROGRESS_BAR_WIDTH", "12")

	root := newRoot()
	require.NoError(t, root.PersistentFlags().Set("install-dir", "/opt/apps"))

	v := viper.New()
	require.NoError(t, initViper(v, root))
	s, err := LoadFrom(v)
	require.NoError(t, err)

	assert.Equal(t, "/opt/apps", s.InstallDir, "flag wins")
	assert.Equal(t, 8, s.Jobs, "env beats config file")
	assert.True(t, s.Verbose, "config file beats default")
	assert.Equal(t, 12, s.Progress.BarWidth)
}

func TestLoad_JobsFloor(t *testing.T) {
	isolateDirs(t)
	v := viper.New()
	require.NoError(t, initViper(v, nil))
	v.Set("jobs", 0)

	s, err := LoadFrom(v)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Jobs)
}
