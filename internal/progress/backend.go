package progress

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
)

const (
	ansiCursorUp  = "\x1b[1A"
	ansiClearLine = "\x1b[2K\r"
	ansiReset     = "\x1b[0m"
)

// Backend writes reports to a sink. On a terminal it redraws in place; on
// anything else it appends each distinct section once.
type Backend struct {
	sink Sink
	log  zerolog.Logger

	lastLines int
	written   map[string]struct{}
}

// NewBackend returns a backend writing to sink.
func NewBackend(sink Sink, log zerolog.Logger) *Backend {
	return &Backend{
		sink:    sink,
		log:     log,
		written: make(map[string]struct{}),
	}
}

// Interactive reports whether the sink supports in-place redraw.
func (b *Backend) Interactive() bool {
	return b.sink.IsTTY()
}

// Width returns the sink's terminal width, or 0 when unavailable.
func (b *Backend) Width() int {
	if !b.Interactive() {
		return 0
	}
	sz, ok := b.sink.(Sizer)
	if !ok {
		return 0
	}
	w, err := sz.Width()
	if err != nil {
		b.log.Debug().Err(err).Msg("terminal size unavailable")
		return 0
	}
	return w
}

// Emit writes report. Output errors are logged and swallowed.
func (b *Backend) Emit(report string) {
	if b.Interactive() {
		b.emitInteractive(report)
		return
	}
	b.emitAppend(report)
}

func (b *Backend) emitInteractive(report string) {
	var out strings.Builder
	for i := 0; i < b.lastLines; i++ {
		out.WriteString(ansiCursorUp)
		out.WriteString(ansiClearLine)
	}
	lines := 0
	if report != "" {
		out.WriteString(report)
		out.WriteByte('\n')
		lines = rows(report, b.Width())
	}
	if out.Len() == 0 {
		return
	}

	if err := b.write(out.String()); err != nil {
		b.log.Debug().Err(err).Msg("progress redraw failed")
		return
	}
	b.lastLines = lines
}

func (b *Backend) emitAppend(report string) {
	if report == "" {
		return
	}
	var out strings.Builder
	for _, sec := range strings.Split(report, "\n\n") {
		if sec == "" {
			continue
		}
		if !strings.HasPrefix(sec, summaryPrefix) {
			if _, seen := b.written[sec]; seen {
				continue
			}
			b.written[sec] = struct{}{}
		}
		out.WriteString(sec)
		out.WriteString("\n\n")
	}
	if out.Len() == 0 {
		return
	}
	if err := b.write(out.String()); err != nil {
		b.log.Debug().Err(err).Msg("progress write failed")
	}
}

func (b *Backend) write(s string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panicked: %v", r)
		}
	}()
	if err := b.sink.Write([]byte(s)); err != nil {
		return err
	}
	return b.sink.Flush()
}

// rows counts the terminal rows report occupies, including lines the
// terminal wraps.
func rows(report string, width int) int {
	n := 0
	for _, l := range strings.Split(report, "\n") {
		w := lipgloss.Width(l)
		if width <= 0 || w <= width {
			n++
			continue
		}
		n += (w + width - 1) / width
	}
	return n
}

// Reset forgets the redraw line count and the set of written sections.
func (b *Backend) Reset() {
	b.lastLines = 0
	b.written = make(map[string]struct{})
}
