package progress

import (
	"bufio"
	"errors"
	"io"
	"os"

	"golang.org/x/term"
)

// Sink is where rendered reports go.
type Sink interface {
	Write(p []byte) error
	Flush() error
	IsTTY() bool
}

// Sizer is implemented by sinks that can report the terminal width.
type Sizer interface {
	Width() (int, error)
}

// TerminalSink writes to a file descriptor, usually os.Stderr or os.Stdout.
// It is interactive only when the descriptor is a terminal whose size can be
// queried.
type TerminalSink struct {
	f   *os.File
	w   *bufio.Writer
	tty bool
}

// NewTerminalSink wraps f. Detection failures fall back to non-interactive.
func NewTerminalSink(f *os.File) *TerminalSink {
	s := &TerminalSink{f: f, w: bufio.NewWriter(f)}
	fd := int(f.Fd())
	if term.IsTerminal(fd) {
		if _, _, err := term.GetSize(fd); err == nil {
			s.tty = true
		}
	}
	return s
}

func (s *TerminalSink) Write(p []byte) error {
	_, err := s.w.Write(p)
	return err
}

func (s *TerminalSink) Flush() error {
	return s.w.Flush()
}

func (s *TerminalSink) IsTTY() bool {
	return s.tty
}

// Width returns the current terminal width.
func (s *TerminalSink) Width() (int, error) {
	w, _, err := term.GetSize(int(s.f.Fd()))
	if err != nil {
		return 0, err
	}
	if w <= 0 {
		return 0, errors.New("terminal reported zero width")
	}
	return w, nil
}

// StreamSink writes to any io.Writer and is never interactive.
type StreamSink struct {
	w io.Writer
}

// NewStreamSink wraps w.
func NewStreamSink(w io.Writer) *StreamSink {
	return &StreamSink{w: w}
}

func (s *StreamSink) Write(p []byte) error {
	_, err := s.w.Write(p)
	return err
}

func (s *StreamSink) Flush() error {
	if f, ok := s.w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

func (s *StreamSink) IsTTY() bool {
	return false
}
