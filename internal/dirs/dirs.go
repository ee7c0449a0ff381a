// Package dirs resolves where my-unicorn keeps its configuration, caches,
// state and logs, following the XDG base directory layout on Linux.
package dirs

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

const appName = "my-unicorn"

// AppName returns the canonical application name for directory paths.
func AppName() string {
	return appName
}

// location describes one base directory on each platform.
type location struct {
	xdgEnv     string
	linuxHome  []string // below $HOME when xdgEnv is unset
	darwinHome []string // below $HOME on macOS
	fallback   func() (string, error)
}

func (l location) resolve() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if v := os.Getenv(l.xdgEnv); v != "" {
			return filepath.Join(v, appName), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(append(append([]string{home}, l.linuxHome...), appName)...), nil
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(append([]string{home}, l.darwinHome...)...), nil
	default:
		return l.fallback()
	}
}

func underUserDir(dir func() (string, error), elem ...string) func() (string, error) {
	return func() (string, error) {
		base, err := dir()
		if err != nil {
			return "", err
		}
		return filepath.Join(append([]string{base, appName}, elem...)...), nil
	}
}

var (
	configLoc = location{
		xdgEnv:     "XDG_CONFIG_HOME",
		linuxHome:  []string{".config"},
		darwinHome: []string{"Library", "Application Support", appName},
		fallback:   underUserDir(os.UserConfigDir),
	}
	dataLoc = location{
		xdgEnv:     "XDG_DATA_HOME",
		linuxHome:  []string{".local", "share"},
		darwinHome: []string{"Library", "Application Support", appName},
		fallback:   underUserDir(os.UserConfigDir),
	}
	cacheLoc = location{
		xdgEnv:     "XDG_CACHE_HOME",
		linuxHome:  []string{".cache"},
		darwinHome: []string{"Library", "Caches", appName},
		fallback:   underUserDir(os.UserCacheDir),
	}
	stateLoc = location{
		xdgEnv:     "XDG_STATE_HOME",
		linuxHome:  []string{".local", "state"},
		darwinHome: []string{"Library", "Application Support", appName, "state"},
		fallback:   underUserDir(os.UserConfigDir, "state"),
	}
)

// ConfigDir returns the configuration directory, e.g. ~/.config/my-unicorn.
func ConfigDir() (string, error) { return configLoc.resolve() }

// DataDir returns the data directory, e.g. ~/.local/share/my-unicorn.
func DataDir() (string, error) { return dataLoc.resolve() }

// CacheDir returns the cache directory, e.g. ~/.cache/my-unicorn.
func CacheDir() (string, error) { return cacheLoc.resolve() }

// StateDir returns the state directory, e.g. ~/.local/state/my-unicorn.
func StateDir() (string, error) { return stateLoc.resolve() }

// LogsDir returns the directory holding rotated log files.
func LogsDir() (string, error) {
	s, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(s, "logs"), nil
}

// DefaultInstallDir returns where AppImages go unless configured
// otherwise: ~/Applications.
func DefaultInstallDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "Applications"), nil
}

// Ensure creates the directory if it doesn't exist.
func Ensure(path string) error {
	if path == "" {
		return errors.New("empty path")
	}
	return os.MkdirAll(path, 0o755)
}

// EnsureAll creates the config, data, cache and state directories.
func EnsureAll() error {
	for _, fn := range []func() (string, error){ConfigDir, DataDir, CacheDir, StateDir} {
		p, err := fn()
		if err != nil {
			continue
		}
		if err := Ensure(p); err != nil {
			return err
		}
	}
	return nil
}
