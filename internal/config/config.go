package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"my-unicorn/internal/dirs"
)

// EnvPrefix namespaces environment overrides, e.g. MY_UNICORN_JOBS=4.
const EnvPrefix = "MY_UNICORN"

// Settings is the resolved configuration: flags over environment over the
// config file over defaults.
type Settings struct {
	InstallDir string   `mapstructure:"install_dir"`
	Jobs       int      `mapstructure:"jobs"`
	Verbose    bool     `mapstructure:"verbose"`
	Debug      bool     `mapstructure:"debug"`
	NoProgress bool     `mapstructure:"no_progress"`
	Progress   Progress `mapstructure:"progress"`
	Logging    Logging  `mapstructure:"logging"`
}

// Progress tunes the progress report.
type Progress struct {
	RenderInterval  time.Duration `mapstructure:"render_interval"`
	SpinnerFPS      float64       `mapstructure:"spinner_fps"`
	BarWidth        int           `mapstructure:"bar_width"`
	MinNameWidth    int           `mapstructure:"min_name_width"`
	MaxNameWidth    int           `mapstructure:"max_name_width"`
	MaxSpeedHistory int           `mapstructure:"max_speed_history"`
}

// Logging controls the rotating log file.
type Logging struct {
	FileEnabled bool `mapstructure:"file_enabled"`
	MaxSizeMB   int  `mapstructure:"max_size_mb"`
	MaxAgeDays  int  `mapstructure:"max_age_days"`
	MaxBackups  int  `mapstructure:"max_backups"`
}

// flagKeys maps persistent flag names to viper keys.
var flagKeys = map[string]string{
	"install-dir": "install_dir",
	"jobs":        "jobs",
	"verbose":     "verbose",
	"debug":       "debug",
	"no-progress": "no_progress",
}

// SetDefaults registers the built-in defaults on v.
func SetDefaults(v *viper.Viper) {
	if dir, err := dirs.DefaultInstallDir(); err == nil {
		v.SetDefault("install_dir", dir)
	}
	v.SetDefault("jobs", 3)
	v.SetDefault("verbose", false)
	v.SetDefault("debug", false)
	v.SetDefault("no_progress", false)

	v.SetDefault("progress.render_interval", time.Duration(0))
	v.SetDefault("progress.spinner_fps", 10.0)
	v.SetDefault("progress.bar_width", 30)
	v.SetDefault("progress.min_name_width", 20)
	v.SetDefault("progress.max_name_width", 40)
	v.SetDefault("progress.max_speed_history", 10)

	v.SetDefault("logging.file_enabled", true)
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_age_days", 14)
	v.SetDefault("logging.max_backups", 3)
}

// Init wires Viper with config paths, env, defaults, and flag bindings.
// It is non-fatal: a missing config file is not an error, a malformed one is.
func Init(root *cobra.Command) error {
	return initViper(viper.GetViper(), root)
}

func initViper(v *viper.Viper, root *cobra.Command) error {
	_ = dirs.EnsureAll()

	if cfgDir, err := dirs.ConfigDir(); err == nil {
		v.AddConfigPath(cfgDir)
	}
	v.SetConfigName("config") // supports config.{yaml|yml|json|toml}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if root != nil {
		for flag, key := range flagKeys {
			if f := root.PersistentFlags().Lookup(flag); f != nil {
				_ = v.BindPFlag(key, f)
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// Load resolves the global Viper instance into Settings.
func Load() (Settings, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom resolves v into Settings.
func LoadFrom(v *viper.Viper) (Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decode config: %w", err)
	}
	if s.Jobs < 1 {
		s.Jobs = 1
	}
	return s, nil
}

// FileUsed returns the path of the loaded config file, or "" when none was
// found.
func FileUsed() string {
	return viper.ConfigFileUsed()
}
