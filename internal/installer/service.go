// Package installer copies AppImages into the install directory, verifying
// them against a checksum sidecar when one is shipped, and reports each step
// to a progress.Reporter.
package installer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"my-unicorn/internal/progress"
	"my-unicorn/internal/util"
)

const (
	// DefaultBufferSize is the copy chunk; one progress update is sent per
	// chunk.
	DefaultBufferSize = 256 * 1024

	// ChecksumExt names the sidecar holding the expected SHA-256.
	ChecksumExt = ".sha256"

	upToDate = "Already up to date"
)

var (
	// ErrChecksumMismatch is returned when the copied file does not match its
	// sidecar digest.
	ErrChecksumMismatch = errors.New("checksum mismatch")
	// ErrNotInstalled is returned by Update when there is nothing to update.
	ErrNotInstalled = errors.New("not installed")
)

// Service installs and updates AppImages.
type Service struct {
	installDir string
	bufSize    int
	reporter   progress.Reporter
	log        zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithInstallDir sets the directory AppImages are installed into.
func WithInstallDir(dir string) Option {
	return func(s *Service) {
		s.installDir = dir
	}
}

// WithReporter attaches a progress reporter.
func WithReporter(rp progress.Reporter) Option {
	return func(s *Service) {
		s.reporter = rp
	}
}

// WithBufferSize overrides the copy chunk size.
func WithBufferSize(n int) Option {
	return func(s *Service) {
		s.bufSize = n
	}
}

// WithLogger sets the service logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) {
		s.log = l
	}
}

// NewService constructs a Service with the provided options.
func NewService(opts ...Option) *Service {
	s := &Service{
		installDir: ".",
		bufSize:    DefaultBufferSize,
		log:        zerolog.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.bufSize <= 0 {
		s.bufSize = DefaultBufferSize
	}
	if s.reporter == nil {
		s.reporter = nopReporter{}
	}
	return s
}

// Result describes one finished install or update.
type Result struct {
	Name     string
	Path     string
	Bytes    int64
	SHA256   string
	Verified bool
	UpToDate bool
}

// Target returns where the AppImage for name is installed.
func (s *Service) Target(name string) string {
	return filepath.Join(s.installDir, name+util.AppImageExt)
}

// Install copies src into the install directory.
func (s *Service) Install(ctx context.Context, src string) (Result, error) {
	return s.run(ctx, src, progress.CategoryInstallation)
}

// Update replaces an installed AppImage with src. When the installed copy
// already matches src nothing is written.
func (s *Service) Update(ctx context.Context, src string) (Result, error) {
	return s.run(ctx, src, progress.CategoryUpdate)
}

func (s *Service) run(ctx context.Context, src string, final progress.Category) (Result, error) {
	name := util.AppNameFromPath(src)
	res := Result{Name: name, Path: s.Target(name)}
	log := s.log.With().Str("app", name).Str("op", final.String()).Logger()

	if final == progress.CategoryUpdate {
		if _, err := os.Stat(res.Path); err != nil {
			err = fmt.Errorf("%s: %w", name, ErrNotInstalled)
			s.failStandalone(name, final, err)
			return res, err
		}
	}

	tmp, digest, n, err := s.download(ctx, name, src)
	if err != nil {
		return res, err
	}
	defer func() { _ = util.RemoveIfExists(tmp) }()
	res.Bytes = n
	res.SHA256 = digest

	expected, hasSum, err := readChecksum(src + ChecksumExt)
	if err != nil {
		log.Warn().Err(err).Msg("ignoring unreadable checksum file")
	}

	verifyID, finalID, err := s.workflow(name, final, hasSum)
	if err != nil {
		return res, err
	}

	if hasSum {
		if !strings.EqualFold(expected, digest) {
			err := fmt.Errorf("%s: %w: expected %s, got %s", name, ErrChecksumMismatch, expected, digest)
			s.reporter.FinishTask(verifyID, false, "checksum mismatch")
			s.reporter.FinishTask(finalID, false, "verification failed")
			return res, err
		}
		s.reporter.FinishTask(verifyID, true, "")
		res.Verified = true
	}

	if final == progress.CategoryUpdate {
		same, err := sameContent(res.Path, n, digest)
		if err != nil {
			log.Debug().Err(err).Msg("could not compare with installed copy")
		}
		if same {
			res.UpToDate = true
			s.reporter.FinishTask(finalID, true, upToDate)
			log.Info().Msg(upToDate)
			return res, nil
		}
	}

	if err := ctx.Err(); err != nil {
		s.reporter.FinishTask(finalID, false, "cancelled")
		return res, err
	}
	if err := os.Chmod(tmp, 0o755); err != nil {
		s.reporter.FinishTask(finalID, false, err.Error())
		return res, fmt.Errorf("chmod %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, res.Path); err != nil {
		s.reporter.FinishTask(finalID, false, err.Error())
		return res, fmt.Errorf("install %s: %w", name, err)
	}
	s.reporter.FinishTask(finalID, true, "")
	log.Info().Str("path", res.Path).Int64("bytes", n).Bool("verified", res.Verified).Msg("done")
	return res, nil
}

// download copies src into a hidden temp file next to the target, hashing
// it on the way, and returns the temp path.
func (s *Service) download(ctx context.Context, name, src string) (tmpPath, digest string, n int64, err error) {
	info, statErr := os.Stat(src)
	var opts []progress.TaskOption
	if statErr == nil {
		opts = append(opts, progress.WithTotal(float64(info.Size())))
	}
	id, err := s.reporter.AddTask(name, progress.CategoryDownload, opts...)
	if err != nil {
		return "", "", 0, err
	}
	fail := func(e error) (string, string, int64, error) {
		s.reporter.FinishTask(id, false, e.Error())
		if tmpPath != "" {
			_ = util.RemoveIfExists(tmpPath)
		}
		return "", "", 0, e
	}
	if statErr != nil {
		return fail(statErr)
	}
	if info.IsDir() {
		return fail(fmt.Errorf("%s is a directory", src))
	}

	in, err := os.Open(src)
	if err != nil {
		return fail(err)
	}
	defer in.Close()

	if err := util.EnsureDir(s.installDir); err != nil {
		return fail(err)
	}
	out, err := os.CreateTemp(s.installDir, "."+name+"-*.part")
	if err != nil {
		return fail(err)
	}
	tmpPath = out.Name()

	h := sha256.New()
	n, err = s.copy(ctx, id, io.MultiWriter(out, h), in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fail(err)
	}

	s.reporter.FinishTask(id, true, "")
	return tmpPath, hex.EncodeToString(h.Sum(nil)), n, nil
}

func (s *Service) copy(ctx context.Context, id string, dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, s.bufSize)
	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		nr, rerr := src.Read(buf)
		if nr > 0 {
			nw, werr := dst.Write(buf[:nr])
			written += int64(nw)
			if werr != nil {
				return written, werr
			}
			if nw != nr {
				return written, io.ErrShortWrite
			}
			s.reporter.UpdateTask(id, progress.Update{Completed: progress.Float(float64(written))})
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, rerr
		}
	}
}

// workflow registers the processing tasks: verify then install (or update)
// when a checksum is available, the final step alone otherwise.
func (s *Service) workflow(name string, final progress.Category, verify bool) (verifyID, finalID string, err error) {
	if final == progress.CategoryInstallation {
		return s.reporter.CreateInstallationWorkflow(name, verify)
	}
	if !verify {
		finalID, err = s.reporter.AddTask(name, final, progress.WithPhase(1, 1))
		return "", finalID, err
	}
	verifyID, err = s.reporter.AddTask(name, progress.CategoryVerification, progress.WithPhase(1, 2))
	if err != nil {
		return "", "", err
	}
	finalID, err = s.reporter.AddTask(name, final, progress.WithPhase(2, 2), progress.WithParent(verifyID))
	return verifyID, finalID, err
}

func (s *Service) failStandalone(name string, cat progress.Category, cause error) {
	id, err := s.reporter.AddTask(name, cat)
	if err != nil {
		return
	}
	s.reporter.FinishTask(id, false, cause.Error())
}

// readChecksum reads the first field of a sha256sum-style file. A missing
// file yields ok=false and no error.
func readChecksum(path string) (sum string, ok bool, err error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	fields := strings.Fields(string(b))
	if len(fields) == 0 {
		return "", false, fmt.Errorf("%s: empty checksum file", path)
	}
	if _, err := hex.DecodeString(fields[0]); err != nil || len(fields[0]) != sha256.Size*2 {
		return "", false, fmt.Errorf("%s: not a sha256 digest", path)
	}
	return fields[0], true, nil
}

// sameContent reports whether path has the given size and digest.
func sameContent(path string, size int64, digest string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	if info.Size() != size {
		return false, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return false, err
	}
	return hex.EncodeToString(h.Sum(nil)) == digest, nil
}
