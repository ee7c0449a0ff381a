package dirs

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestXDGOverrides(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG variables only apply on linux")
	}
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(base, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(base, "data"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(base, "cache"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(base, "state"))

	tests := []struct {
		name string
		fn   func() (string, error)
		want string
	}{
		{name: "config", fn: ConfigDir, want: filepath.Join(base, "config", "my-unicorn")},
		{name: "data", fn: DataDir, want: filepath.Join(base, "data", "my-unicorn")},
		{name: "cache", fn: CacheDir, want: filepath.Join(base, "cache", "my-unicorn")},
		{name: "state", fn: StateDir, want: filepath.Join(base, "state", "my-unicorn")},
		{name: "logs", fn: LogsDir, want: filepath.Join(base, "state", "my-unicorn", "logs")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultInstallDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := DefaultInstallDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "Applications"), got)
}

func TestEnsure(t *testing.T) {
	assert.Error(t, Ensure(""))

	p := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, Ensure(p))
	assert.DirExists(t, p)
}
