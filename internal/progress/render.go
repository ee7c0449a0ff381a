package progress

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"

	"my-unicorn/internal/util/format"
)

const (
	DefaultBarWidth     = 30
	DefaultMinNameWidth = 20
	DefaultMaxNameWidth = 40
	DefaultSpinnerFPS   = 10.0

	summaryPrefix = "Summary:"
	detailIndent  = "    "

	// downloadFixedWidth is every cell of a download line except the name
	// and the bar: size, speed, ETA, percentage, separators and the trailing
	// success mark.
	downloadFixedWidth = 1 + 10 + 1 + 10 + 1 + 5 + 1 + 2 + 1 + 4 + 2
)

// RenderOptions sizes the report.
type RenderOptions struct {
	BarWidth     int
	MinNameWidth int
	MaxNameWidth int
	SpinnerFPS   float64
}

func (o RenderOptions) withDefaults() RenderOptions {
	if o.BarWidth <= 0 {
		o.BarWidth = DefaultBarWidth
	}
	if o.MinNameWidth <= 0 {
		o.MinNameWidth = DefaultMinNameWidth
	}
	if o.MaxNameWidth < o.MinNameWidth {
		o.MaxNameWidth = max(DefaultMaxNameWidth, o.MinNameWidth)
	}
	if o.SpinnerFPS <= 0 {
		o.SpinnerFPS = DefaultSpinnerFPS
	}
	return o
}

// Frame carries the per-render inputs that do not live in the registry.
type Frame struct {
	Now time.Time
	// Width is the terminal width, or 0 when unknown. When set, no line of
	// the report is wider.
	Width int
	Color bool
	// Interactive animates the spinner. Otherwise running tasks show a
	// fixed mark.
	Interactive bool
	// Final adds the summary section.
	Final bool
}

// Renderer turns a snapshot into the textual report.
type Renderer struct {
	opts   RenderOptions
	frames []string
	styles Styles
}

// NewRenderer returns a renderer using the given sizes.
func NewRenderer(opts RenderOptions) *Renderer {
	return &Renderer{
		opts:   opts.withDefaults(),
		frames: spinnerFrames(),
		styles: DefaultStyles(),
	}
}

// Render builds the full report. Sections without tasks are omitted and
// the remaining ones are separated by a blank line.
func (r *Renderer) Render(s Snapshot, f Frame) string {
	tasks := s.Ordered()
	if len(tasks) == 0 {
		return ""
	}

	var api, downloads, processing []Task
	for _, t := range tasks {
		switch t.Category {
		case CategoryAPIFetching:
			api = append(api, t)
		case CategoryDownload:
			downloads = append(downloads, t)
		default:
			processing = append(processing, t)
		}
	}

	nameWidth := r.nameWidth(f)
	var sections []string
	if sec := r.apiSection(api, nameWidth, f); sec != "" {
		sections = append(sections, sec)
	}
	if sec := r.downloadSection(downloads, nameWidth, f); sec != "" {
		sections = append(sections, sec)
	}
	if sec := r.processingSection(processing, f); sec != "" {
		sections = append(sections, sec)
	}
	if f.Final {
		if sec := r.summarySection(tasks); sec != "" {
			sections = append(sections, sec)
		}
	}
	return fitWidth(strings.Join(sections, "\n\n"), f.Width)
}

// fitWidth cuts every line of report to width display cells so the
// terminal never wraps it.
func fitWidth(report string, width int) string {
	if width <= 0 {
		return report
	}
	lines := strings.Split(report, "\n")
	for i, l := range lines {
		if lipgloss.Width(l) <= width {
			continue
		}
		lines[i] = truncate.StringWithTail(l, uint(width), "…")
		if strings.Contains(l, "\x1b[") {
			lines[i] += ansiReset
		}
	}
	return strings.Join(lines, "\n")
}

// SpinnerGlyph picks the frame for the given instant. The same instant
// always yields the same glyph.
func (r *Renderer) SpinnerGlyph(now time.Time) string {
	secs := float64(now.UnixNano()) / float64(time.Second)
	n := int64(math.Floor(secs*r.opts.SpinnerFPS)) % int64(len(r.frames))
	if n < 0 {
		n += int64(len(r.frames))
	}
	return r.frames[n]
}

func (r *Renderer) nameWidth(f Frame) int {
	if f.Width <= 0 {
		return r.opts.MinNameWidth
	}
	reserved := r.opts.BarWidth + downloadFixedWidth
	w := f.Width - reserved
	if w < r.opts.MinNameWidth {
		return r.opts.MinNameWidth
	}
	if w > r.opts.MaxNameWidth {
		return r.opts.MaxNameWidth
	}
	return w
}

func (r *Renderer) apiSection(tasks []Task, nameWidth int, f Frame) string {
	if len(tasks) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(r.paint(f, r.styles.Header, "Fetching from API:"))
	for _, t := range tasks {
		b.WriteByte('\n')
		fmt.Fprintf(&b, "%s %.0f/%.0f %s", padName(t.Name, nameWidth), t.Completed, t.Total, r.apiStatus(t, f))
	}
	return b.String()
}

func (r *Renderer) apiStatus(t Task, f Frame) string {
	switch {
	case !t.Finished:
		return "Fetching..."
	case t.Failed():
		return r.paint(f, r.styles.Error, "Failed")
	case strings.Contains(strings.ToLower(t.Description), "cache"):
		return r.paint(f, r.styles.Success, "Retrieved from cache")
	default:
		return r.paint(f, r.styles.Success, "Retrieved")
	}
}

func (r *Renderer) downloadSection(tasks []Task, nameWidth int, f Frame) string {
	if len(tasks) == 0 {
		return ""
	}
	header := "Downloading:"
	if len(tasks) > 1 {
		header = fmt.Sprintf("Downloading (%d):", len(tasks))
	}

	var b strings.Builder
	b.WriteString(r.paint(f, r.styles.Header, header))
	for _, t := range tasks {
		b.WriteByte('\n')
		b.WriteString(r.downloadLine(t, nameWidth, f))
	}
	return b.String()
}

func (r *Renderer) downloadLine(t Task, nameWidth int, f Frame) string {
	size := "--"
	if t.Total > 0 {
		size = format.Bytes(t.Total)
	}
	eta := format.ETA(ETA(t.Total, t.Completed, t.CurrentSpeedEstimate))
	if t.Finished {
		eta = format.ETA(0, true)
	}

	ratio := 0.0
	if t.Total > 0 {
		ratio = t.Completed / t.Total
	}
	ratio = math.Max(0, math.Min(1, ratio))

	line := fmt.Sprintf("%s %10s %10s %5s %s %3d%%",
		padName(t.Name, nameWidth),
		size,
		format.Speed(t.CurrentSpeedEstimate),
		eta,
		r.bar(ratio),
		int(ratio*100),
	)
	switch {
	case t.Succeeded():
		line += " " + r.paint(f, r.styles.Success, iconSuccess)
	case t.Failed():
		line += "\n" + detailIndent + r.paint(f, r.styles.Error, "Error: "+t.ErrorMessage)
	}
	return line
}

func (r *Renderer) bar(ratio float64) string {
	filled := int(float64(r.opts.BarWidth) * ratio)
	if filled > r.opts.BarWidth {
		filled = r.opts.BarWidth
	}
	return "[" + strings.Repeat("=", filled) + strings.Repeat(".", r.opts.BarWidth-filled) + "]"
}

func (r *Renderer) processingSection(tasks []Task, f Frame) string {
	if len(tasks) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(r.paint(f, r.styles.Header, processingHeader(tasks)))
	for _, t := range currentPerName(tasks) {
		b.WriteByte('\n')
		fmt.Fprintf(&b, "(%d/%d) %s %s %s", t.Phase, t.TotalPhases, t.Category.Verb(), t.Name, r.processingIcon(t, f))
		switch {
		case t.Failed():
			b.WriteString("\n" + detailIndent + r.paint(f, r.styles.Error, "Error: "+t.ErrorMessage))
		case t.Succeeded() && t.Description != "":
			b.WriteString("\n" + detailIndent + r.paint(f, r.styles.Warning, t.Description))
		}
	}
	return b.String()
}

func (r *Renderer) processingIcon(t Task, f Frame) string {
	switch {
	case !t.Finished && !f.Interactive:
		return iconPending
	case !t.Finished:
		return r.paint(f, r.styles.Spinner, r.SpinnerGlyph(f.Now))
	case t.Failed():
		return r.paint(f, r.styles.Error, iconError)
	case t.Description != "":
		return r.paint(f, r.styles.Warning, iconWarning)
	default:
		return r.paint(f, r.styles.Success, iconSuccess)
	}
}

func processingHeader(tasks []Task) string {
	onlyVerification := true
	for _, t := range tasks {
		if t.Category == CategoryInstallation {
			return "Installing:"
		}
		if t.Category != CategoryVerification {
			onlyVerification = false
		}
	}
	if onlyVerification {
		return "Verifying:"
	}
	return "Processing:"
}

// currentPerName keeps one task per name, in order of the name's first
// appearance. A failed task beats a finished one, which beats one still
// running; ties go to the higher phase, then to the later registration.
func currentPerName(tasks []Task) []Task {
	var names []string
	best := make(map[string]Task)
	for _, t := range tasks {
		cur, seen := best[t.Name]
		if !seen {
			names = append(names, t.Name)
			best[t.Name] = t
			continue
		}
		if rank(t) > rank(cur) || (rank(t) == rank(cur) && t.Phase >= cur.Phase) {
			best[t.Name] = t
		}
	}

	out := make([]Task, 0, len(names))
	for _, n := range names {
		out = append(out, best[n])
	}
	return out
}

func rank(t Task) int {
	switch {
	case t.Failed():
		return 2
	case t.Finished:
		return 1
	default:
		return 0
	}
}

func (r *Renderer) summarySection(tasks []Task) string {
	var ok, failed int
	var failures []string
	for _, t := range tasks {
		if !t.Finished {
			continue
		}
		if t.Failed() {
			failed++
			failures = append(failures, fmt.Sprintf("  %s %s: %s", iconError, t.Name, t.ErrorMessage))
		} else {
			ok++
		}
	}
	if ok+failed == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %d succeeded, %d failed", summaryPrefix, ok, failed)
	for _, l := range failures {
		b.WriteString("\n" + l)
	}
	return b.String()
}

func (r *Renderer) paint(f Frame, st lipgloss.Style, s string) string {
	if !f.Color {
		return s
	}
	return st.Render(s)
}

// padName truncates or right-pads name to exactly width display cells.
func padName(name string, width int) string {
	if lipgloss.Width(name) > width {
		rs := []rune(name)
		for len(rs) > 0 && lipgloss.Width(string(rs))+1 > width {
			rs = rs[:len(rs)-1]
		}
		name = string(rs) + "…"
	}
	if pad := width - lipgloss.Width(name); pad > 0 {
		name += strings.Repeat(" ", pad)
	}
	return name
}
