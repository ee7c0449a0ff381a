package cmd

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"my-unicorn/internal/config"
	"my-unicorn/internal/dirs"
	"my-unicorn/internal/logger"
	"my-unicorn/internal/progress"
)

const (
	ExitOK           = 0
	ExitCLIError     = 1
	ExitInstallError = 2
	ExitVerifyError  = 3
)

// ExitError wraps an error with a process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// app is the state shared by subcommands once flags and config are parsed.
type app struct {
	settings config.Settings
	progress *progress.Manager
	sink     progress.Sink
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "my-unicorn",
		Short:         "Install and update AppImages",
		Long:          "my-unicorn installs AppImage applications into one directory, verifies them against published checksums when available, and keeps them up to date.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.setup(cmd); err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}
			return nil
		},
	}

	bindPersistentFlags(root.PersistentFlags())

	root.AddCommand(newInstallCmd(a))
	root.AddCommand(newUpdateCmd(a))
	root.AddCommand(newDoctorCmd(a))
	root.AddCommand(newCompletionCmd())

	return root
}

func bindPersistentFlags(fs *pflag.FlagSet) {
	fs.String("install-dir", "", "Directory AppImages are installed into (default ~/Applications)")
	fs.IntP("jobs", "j", 3, "Max concurrent installs")
	fs.BoolP("verbose", "v", false, "Log each finished install")
	fs.Bool("no-progress", false, "Plain append-only progress output, even on a terminal")
	fs.Bool("debug", false, "Debug logging")
}

// setup resolves configuration, initializes logging and builds the progress
// manager.
func (a *app) setup(cmd *cobra.Command) error {
	if err := config.Init(cmd.Root()); err != nil {
		return err
	}
	s, err := config.Load()
	if err != nil {
		return err
	}
	a.settings = s

	logsDir, _ := dirs.LogsDir()
	if err := logger.InitWithFile(os.Stderr, s.Debug, logsDir, logger.FileConfig{
		Enabled:    s.Logging.FileEnabled,
		MaxSizeMB:  s.Logging.MaxSizeMB,
		MaxAgeDays: s.Logging.MaxAgeDays,
		MaxBackups: s.Logging.MaxBackups,
	}); err != nil {
		logger.Init(os.Stderr, s.Debug)
		logger.Warn().Err(err).Msg("file logging disabled")
	}

	a.sink = newSink(s.NoProgress)
	logger.SetInteractive(a.sink.IsTTY())
	a.progress = progress.NewManager(a.sink,
		progress.WithLogger(logger.Progress()),
		progress.WithRenderInterval(s.Progress.RenderInterval),
		progress.WithMaxSpeedHistory(s.Progress.MaxSpeedHistory),
		progress.WithRenderOptions(progress.RenderOptions{
			BarWidth:     s.Progress.BarWidth,
			MinNameWidth: s.Progress.MinNameWidth,
			MaxNameWidth: s.Progress.MaxNameWidth,
			SpinnerFPS:   s.Progress.SpinnerFPS,
		}),
	)
	logger.Debug().Interface("settings", s).Str("config", config.FileUsed()).Msg("configuration loaded")
	return nil
}

// newSink renders to stderr, redrawing in place when it is a terminal.
func newSink(plain bool) progress.Sink {
	if plain {
		return progress.NewStreamSink(os.Stderr)
	}
	return progress.NewTerminalSink(os.Stderr)
}

// Execute runs the CLI with the provided context.
func Execute(ctx context.Context) error {
	return ExecuteArgs(ctx, os.Args[1:])
}

// ExecuteArgs runs the CLI with explicit arguments.
func ExecuteArgs(ctx context.Context, args []string) error {
	defer func() { _ = logger.Close() }()

	root := newRootCmd()
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		var ee *ExitError
		if errors.As(err, &ee) {
			return ee
		}
		return &ExitError{Code: ExitCLIError, Err: err}
	}
	return nil
}
