package cmd

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"

	"my-unicorn/internal/installer"
	"my-unicorn/internal/logger"
	"my-unicorn/internal/util"
)

type operation int

const (
	opInstall operation = iota
	opUpdate
)

func newInstallCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "install <file.AppImage>...",
		Short: "Install AppImages into the install directory",
		Long: `Copies each AppImage into the install directory and marks it executable.
When a "<file>.sha256" sidecar sits next to an AppImage, the copy is verified
against it before it is installed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAll(cmd.Context(), args, opInstall)
		},
	}
}

func newUpdateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "update <file.AppImage>...",
		Short: "Replace installed AppImages with newer files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAll(cmd.Context(), args, opUpdate)
		},
	}
}

// runAll processes every source inside one progress session, at most
// settings.Jobs at a time. Individual failures do not stop the others.
func (a *app) runAll(ctx context.Context, sources []string, op operation) error {
	svc := installer.NewService(
		installer.WithInstallDir(a.settings.InstallDir),
		installer.WithReporter(a.progress),
		installer.WithLogger(logger.Progress()),
	)

	unique, rejected := uniqueApps(sources)
	var failures []string
	for _, r := range rejected {
		logger.Warn().Err(r.err).Str("source", r.src).Msg("skipped")
		failures = append(failures, fmt.Sprintf("- %s: %v", r.src, r.err))
	}

	var verifyFailed bool
	err := a.progress.Session(ctx, func(ctx context.Context) error {
		p := pool.NewWithResults[outcome]().WithContext(ctx).WithMaxGoroutines(a.settings.Jobs)
		for _, src := range unique {
			src := src
			p.Go(func(ctx context.Context) (outcome, error) {
				return a.runOne(ctx, svc, src, op), nil
			})
		}
		results, err := p.Wait()
		for _, r := range results {
			if r.err == nil {
				continue
			}
			failures = append(failures, fmt.Sprintf("- %s: %v", r.src, r.err))
			if errors.Is(r.err, installer.ErrChecksumMismatch) {
				verifyFailed = true
			}
		}
		return err
	})
	if err != nil {
		return &ExitError{Code: ExitInstallError, Err: err}
	}
	if len(failures) == 0 {
		return nil
	}

	sort.Strings(failures)
	code := ExitInstallError
	if verifyFailed {
		code = ExitVerifyError
	}
	return &ExitError{
		Code: code,
		Err:  fmt.Errorf("%d of %d failed:\n%s", len(failures), len(sources), strings.Join(failures, "\n")),
	}
}

type outcome struct {
	src string
	err error
}

// errDuplicateApp rejects a source that installs to the same file as an
// earlier source on the command line.
var errDuplicateApp = errors.New("duplicate app")

// uniqueApps keeps the first source per app name. Later sources map to the
// same install path and are rejected.
func uniqueApps(sources []string) (unique []string, rejected []outcome) {
	first := make(map[string]string, len(sources))
	for _, src := range sources {
		name := util.AppNameFromPath(src)
		if prev, ok := first[name]; ok {
			rejected = append(rejected, outcome{
				src: src,
				err: fmt.Errorf("%w %q: already given as %s", errDuplicateApp, name, prev),
			})
			continue
		}
		first[name] = src
		unique = append(unique, src)
	}
	return unique, rejected
}

func (a *app) runOne(ctx context.Context, svc *installer.Service, src string, op operation) outcome {
	var (
		res installer.Result
		err error
	)
	switch op {
	case opUpdate:
		res, err = svc.Update(ctx, src)
	default:
		res, err = svc.Install(ctx, src)
	}
	if err != nil {
		logger.Debug().Err(err).Str("source", src).Msg("failed")
		return outcome{src: src, err: err}
	}
	if a.settings.Verbose {
		logger.Info().
			Str("app", res.Name).
			Str("path", res.Path).
			Str("size", humanize.IBytes(uint64(res.Bytes))).
			Bool("verified", res.Verified).
			Bool("up_to_date", res.UpToDate).
			Msg("ok")
	}
	return outcome{src: src}
}
