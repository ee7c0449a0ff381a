package progress

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
)

const (
	iconSuccess = "✓"
	iconWarning = "⚠"
	iconError   = "✗"
	iconPending = "…"
)

// Styles colors the interactive report. Non-interactive output is never
// styled.
type Styles struct {
	Header  lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Spinner lipgloss.Style
	Faint   lipgloss.Style
}

// DefaultStyles returns the palette used on terminals.
func DefaultStyles() Styles {
	base := lipgloss.NewStyle()
	return Styles{
		Header:  base.Bold(true),
		Success: base.Foreground(lipgloss.Color("#22C55E")),
		Warning: base.Foreground(lipgloss.Color("#F59E0B")),
		Error:   base.Foreground(lipgloss.Color("#EF4444")),
		Spinner: base.Foreground(lipgloss.Color("#22D3EE")),
		Faint:   base.Faint(true),
	}
}

// spinnerFrames is the ordered glyph set the processing section cycles
// through.
func spinnerFrames() []string {
	src := spinner.MiniDot.Frames
	frames := make([]string, 0, len(src))
	for _, f := range src {
		frames = append(frames, strings.TrimSpace(f))
	}
	return frames
}
