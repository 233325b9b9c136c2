package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"

	"changelog.dev/changelog/internal/engine"
)

const dateLayout = "2006-01-02"

// IsTTY reports whether f is an interactive terminal
func IsTTY(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// DisableColorUnlessTTY drops colours when stdout is redirected
func DisableColorUnlessTTY() {
	if !IsTTY(os.Stdout) {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// Summary renders a one-line-per-release terminal view of a timeline
type Summary struct {
	timeline *engine.Timeline
	// Limit caps the number of releases shown; zero shows all
	Limit int
}

// NewSummary creates a summary for the timeline
func NewSummary(t *engine.Timeline) *Summary {
	return &Summary{timeline: t}
}

// Render returns the summary text
func (s *Summary) Render() string {
	var b strings.Builder

	title := lipgloss.NewStyle().Bold(true)
	b.WriteString(title.Render(fmt.Sprintf("%s timeline: %d releases", s.timeline.Cadence, len(s.timeline.Releases))))
	b.WriteString("\n")

	releases := s.timeline.Releases
	if s.Limit > 0 && len(releases) > s.Limit {
		releases = releases[:s.Limit]
	}

	width := 0
	for _, r := range releases {
		if len(r.Name) > width {
			width = len(r.Name)
		}
	}

	for i, r := range releases {
		name := fmt.Sprintf("%-*s", width, r.Name)
		if r.Untagged {
			b.WriteString(ColorMagenta(name))
		} else {
			b.WriteString(lipgloss.NewStyle().Foreground(releaseColor(i)).Render(name))
		}

		b.WriteString("  ")
		if r.Date.IsZero() {
			b.WriteString(ColorDim(strings.Repeat("-", len(dateLayout))))
		} else {
			b.WriteString(ColorDim(r.Date.UTC().Format(dateLayout)))
		}

		tickets := 0
		for _, row := range r.Tickets {
			if row.HasTicket() {
				tickets++
			}
		}
		fmt.Fprintf(&b, "  %d tickets", tickets)

		if len(r.Added) > 0 {
			b.WriteString("  ")
			b.WriteString(ColorAdded("+" + strings.Join(r.Added, " +")))
		}
		if len(r.Removed) > 0 {
			b.WriteString("  ")
			b.WriteString(ColorRemoved("-" + strings.Join(r.Removed, " -")))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// WriteTo writes the rendered summary to w
func (s *Summary) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, s.Render())
	return int64(n), err
}
