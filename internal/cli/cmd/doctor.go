package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"my-unicorn/internal/config"
	"my-unicorn/internal/dirs"
	"my-unicorn/internal/logger"
)

func newDoctorCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Show directories, configuration and terminal detection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.doctor(cmd.OutOrStdout())
		},
	}
}

func (a *app) doctor(w io.Writer) error {
	row := func(k, v string) { fmt.Fprintf(w, "%-14s %s\n", k+":", v) }
	dir := func(fn func() (string, error)) string {
		p, err := fn()
		if err != nil {
			return "unavailable (" + err.Error() + ")"
		}
		return p
	}

	row("Install dir", a.settings.InstallDir)
	row("Config dir", dir(dirs.ConfigDir))
	row("Cache dir", dir(dirs.CacheDir))
	row("Logs dir", dir(dirs.LogsDir))

	cfg := config.FileUsed()
	if cfg == "" {
		cfg = "none (defaults)"
	}
	row("Config file", cfg)

	logFile := logger.FilePath()
	if logFile == "" {
		logFile = "disabled"
	}
	row("Log file", logFile)

	fd := int(os.Stderr.Fd())
	tty := term.IsTerminal(fd)
	row("Terminal", fmt.Sprintf("%t", tty))
	if tty {
		if width, _, err := term.GetSize(fd); err == nil {
			row("Width", fmt.Sprintf("%d", width))
		}
	}
	mode := "append"
	if a.sink != nil && a.sink.IsTTY() {
		mode = "redraw"
	}
	row("Progress", mode)
	row("Jobs", fmt.Sprintf("%d", a.settings.Jobs))
	return nil
}
