// Package logger holds the process-wide zerolog logger.
//
// Console output goes to stderr. While a progress report is being redrawn
// on the terminal, console logging below debug level is suppressed so it
// cannot tear the report; the optional rotating log file still receives
// everything.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileName is the name of the log file inside the logs directory.
const FileName = "my-unicorn.log"

var (
	// Log is the global logger.
	Log = zerolog.Nop()

	mu          sync.RWMutex
	fileWriter  *lumberjack.Logger
	fileOnlyLog = zerolog.Nop()
	interactive bool
)

// FileConfig controls the rotating log file.
type FileConfig struct {
	Enabled    bool
	MaxSizeMB  int
	MaxAgeDays int
	MaxBackups int
}

func (c FileConfig) maxSizeMB() int {
	if c.MaxSizeMB <= 0 {
		return 10
	}
	return c.MaxSizeMB
}

func (c FileConfig) maxAgeDays() int {
	if c.MaxAgeDays <= 0 {
		return 14
	}
	return c.MaxAgeDays
}

func (c FileConfig) maxBackups() int {
	if c.MaxBackups <= 0 {
		return 3
	}
	return c.MaxBackups
}

func level(debug bool) zerolog.Level {
	if debug {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}

// Init sets up console-only logging to w.
func Init(w io.Writer, debug bool) {
	mu.Lock()
	defer mu.Unlock()

	Log = zerolog.New(consoleWriter(w)).Level(level(debug)).With().Timestamp().Logger()
	fileOnlyLog = zerolog.Nop()
}

// InitWithFile sets up console logging to w plus a rotating JSON file in
// logsDir. An empty logsDir or a disabled config behaves like Init.
func InitWithFile(w io.Writer, debug bool, logsDir string, cfg FileConfig) error {
	if logsDir == "" || !cfg.Enabled {
		Init(w, debug)
		return nil
	}
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return fmt.Errorf("create logs directory: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()

	fileWriter = &lumberjack.Logger{
		Filename:   filepath.Join(logsDir, FileName),
		MaxSize:    cfg.maxSizeMB(),
		MaxAge:     cfg.maxAgeDays(),
		MaxBackups: cfg.maxBackups(),
		LocalTime:  true,
	}
	lvl := level(debug)
	fileOnlyLog = zerolog.New(fileWriter).Level(lvl).With().Timestamp().Logger()
	Log = zerolog.New(io.MultiWriter(consoleWriter(w), fileWriter)).Level(lvl).With().Timestamp().Logger()
	return nil
}

func consoleWriter(w io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
}

// Close closes the log file, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	if fileWriter == nil {
		return nil
	}
	err := fileWriter.Close()
	fileWriter = nil
	fileOnlyLog = zerolog.Nop()
	return err
}

// FilePath returns the active log file path, or "" when file logging is off.
func FilePath() string {
	mu.RLock()
	defer mu.RUnlock()
	if fileWriter == nil {
		return ""
	}
	return fileWriter.Filename
}

// SetInteractive toggles console suppression for in-place progress output.
func SetInteractive(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	interactive = enabled
}

// Progress returns the logger handed to the progress engine. In
// interactive mode it only writes to the log file.
func Progress() zerolog.Logger {
	return current()
}

// current picks the file-only logger while console output is suppressed.
func current() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if interactive && Log.GetLevel() != zerolog.DebugLevel {
		return fileOnlyLog
	}
	return Log
}

// Debug starts a debug event. Debug output is never suppressed.
func Debug() *zerolog.Event {
	mu.RLock()
	defer mu.RUnlock()
	return Log.Debug()
}

// Info starts an info event.
func Info() *zerolog.Event {
	l := current()
	return l.Info()
}

// Warn starts a warning event.
func Warn() *zerolog.Event {
	l := current()
	return l.Warn()
}

// Error starts an error event.
func Error() *zerolog.Event {
	l := current()
	return l.Error()
}
