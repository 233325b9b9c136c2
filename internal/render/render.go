// Package render writes reconciled timelines as reStructuredText pages.
package render

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"

	"changelog.dev/changelog/internal/engine"
	"changelog.dev/changelog/internal/jira"
	"changelog.dev/changelog/internal/tag"
)

const (
	// DefaultBrowseURL is where ticket links point
	DefaultBrowseURL = "https://rubinobs.atlassian.net/browse/"

	wrapWidth   = 60
	productCols = 4
	dateLayout  = "2006-01-02T15:04:05Z"
)

var ticketHeaders = []string{"Ticket", "Description", "Last Merge", "Branch", "Packages"}

// Logger is the logging surface the writer reports to
type Logger interface {
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{}) {}

// Options configures a Writer
type Options struct {
	// Dir is the documentation source root; pages go to a cadence subdirectory
	Dir string
	// Products are listed on the products page
	Products []string
	// RepoURLs maps product name to its repository URL
	RepoURLs map[string]string
	// Tickets maps tracker key to summary and replaces pull request titles
	Tickets   map[string]string
	BrowseURL string
	Log       Logger
}

// Writer renders one timeline
type Writer struct {
	opts Options
	dir  string
}

// Subdir returns the directory a cadence is written to
func Subdir(c tag.Cadence) string {
	switch c {
	case tag.CadenceRegular:
		return "releases"
	case tag.CadenceDaily:
		return "daily"
	default:
		return "weekly"
	}
}

func caption(c tag.Cadence) string {
	switch c {
	case tag.CadenceRegular:
		return "Releases"
	case tag.CadenceDaily:
		return "Daily"
	default:
		return "Weekly"
	}
}

// NewWriter creates a writer
func NewWriter(opts Options) *Writer {
	if opts.BrowseURL == "" {
		opts.BrowseURL = DefaultBrowseURL
	}
	if opts.Log == nil {
		opts.Log = nopLogger{}
	}
	return &Writer{opts: opts}
}

// Write renders the index, products, summary and release pages
func (w *Writer) Write(tl *engine.Timeline) error {
	w.dir = filepath.Join(w.opts.Dir, Subdir(tl.Cadence))
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	releases := PageOrder(tl)
	if err := w.file("products.rst", w.writeProducts); err != nil {
		return err
	}
	if err := w.file("index.rst", func(f io.Writer) error {
		return writeIndex(f, caption(tl.Cadence), releases)
	}); err != nil {
		return err
	}

	summary, err := os.Create(filepath.Join(w.dir, "summary.rst"))
	if err != nil {
		return err
	}
	defer summary.Close()
	header(summary, "Summary", '-')
	fmt.Fprintln(summary)

	for _, r := range releases {
		w.opts.Log.Info("Writing release %s", PageName(r))
		if err := w.file(PageName(r)+".rst", func(f io.Writer) error {
			return w.WriteRelease(io.MultiWriter(f, summary), r)
		}); err != nil {
			return err
		}
	}
	return summary.Close()
}

func (w *Writer) file(name string, fn func(io.Writer) error) error {
	f, err := os.Create(filepath.Join(w.dir, name))
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return f.Close()
}

// PageOrder lists releases newest first
func PageOrder(tl *engine.Timeline) []*engine.Release {
	out := make([]*engine.Release, len(tl.Releases))
	copy(out, tl.Releases)
	if tl.Cadence != tag.CadenceRegular {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

// PageName is the document name of a release
func PageName(r *engine.Release) string {
	return strings.TrimPrefix(r.Name, "~")
}

func header(w io.Writer, title string, underline byte) {
	fmt.Fprintf(w, "%s\n%s\n", title, strings.Repeat(string(underline), ansi.StringWidth(title)))
}

// Link formats a named hyperlink reference; anonymous links may repeat names
func Link(name, url string, anonymous bool) string {
	trail := "_"
	if anonymous {
		trail = "__"
	}
	return fmt.Sprintf("`%s <%s>`%s", name, url, trail)
}

// Escape quotes the inline markup characters of plain text
func Escape(s string) string {
	r := strings.NewReplacer("*", `\*`, "`", "\\`", "_", `\_`)
	return r.Replace(s)
}

func writeIndex(w io.Writer, title string, releases []*engine.Release) error {
	header(w, title, '-')
	fmt.Fprintf(w, "\n.. toctree::\n   :caption: %s\n   :maxdepth: 1\n   :hidden:\n\n   summary\n   products\n", title)
	for _, r := range releases {
		fmt.Fprintf(w, "   %s\n", PageName(r))
	}
	fmt.Fprint(w, "\n- :doc:`summary`\n- :doc:`products`\n")
	for _, r := range releases {
		if _, err := fmt.Fprintf(w, "- :doc:`%s`\n", PageName(r)); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeProducts(f io.Writer) error {
	header(f, "Products", '-')
	fmt.Fprint(f, "\n\n")

	t := &Table{Headers: make([]string, productCols), Indent: 3}
	t.Headers[0] = "Products"
	for i, p := range w.opts.Products {
		if i%productCols == 0 {
			t.Rows = append(t.Rows, make([]Cell, productCols))
		}
		cell := p
		if url, ok := w.opts.RepoURLs[p]; ok {
			cell = Link(p, url, false)
		} else {
			w.opts.Log.Warn("Product repository for %s not found", p)
		}
		t.Rows[len(t.Rows)-1][i%productCols] = Cell{cell}
	}
	_, err := t.WriteTo(f)
	return err
}

// WriteRelease writes one release section
func (w *Writer) WriteRelease(f io.Writer, r *engine.Release) error {
	header(f, PageName(r), '-')
	fmt.Fprintln(f)

	verb := "Released"
	if r.Untagged {
		verb = "Updated"
	}
	fmt.Fprintf(f, "%s at %s\n\n", verb, formatDate(r.Date))

	if !r.Untagged {
		if err := writePackages(f, r); err != nil {
			return err
		}
	}

	t := &Table{Headers: ticketHeaders, Indent: 3, Rows: w.ticketRows(r)}
	if _, err := t.WriteTo(f); err != nil {
		return err
	}
	_, err := fmt.Fprintln(f)
	return err
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.UTC().Format(dateLayout)
}

func writePackages(f io.Writer, r *engine.Release) error {
	n := max(len(r.Added), len(r.Removed))
	if n == 0 {
		_, err := fmt.Fprint(f, "No packages added/removed in this release\n\n")
		return err
	}
	t := &Table{Headers: []string{"Added", "Removed"}, Indent: 3}
	for i := range n {
		row := []Cell{{""}, {""}}
		if i < len(r.Added) {
			row[0] = Cell{r.Added[i]}
		}
		if i < len(r.Removed) {
			row[1] = Cell{r.Removed[i]}
		}
		t.Rows = append(t.Rows, row)
	}
	if _, err := t.WriteTo(f); err != nil {
		return err
	}
	_, err := fmt.Fprintln(f)
	return err
}

func (w *Writer) ticketRows(r *engine.Release) [][]Cell {
	var rows [][]Cell
	for _, row := range r.Tickets {
		if !row.HasTicket() {
			continue
		}
		key := jira.TicketKey(row.Ticket)
		desc := row.Title
		if summary, ok := w.opts.Tickets[key]; ok && summary != "" {
			desc = summary
		}
		rows = append(rows, []Cell{
			{Link(fmt.Sprintf("DM_%05d", row.Ticket), w.opts.BrowseURL+key, false)},
			wrap(Escape(desc)),
			{formatDate(row.MergedAt)},
			{row.Branch},
			packageLines(row.Contributors),
		})
	}
	return rows
}

func wrap(s string) Cell {
	var out Cell
	for _, line := range strings.Split(ansi.Wordwrap(s, wrapWidth, ""), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	if len(out) == 0 {
		return Cell{""}
	}
	return out
}

// packageLines packs contributor links onto lines by the width of their names
func packageLines(contributors []engine.Contributor) Cell {
	var out Cell
	var line []string
	width := 0
	for _, c := range contributors {
		w := len(c.Package)
		if len(line) > 0 && width+2+w > wrapWidth {
			out = append(out, strings.Join(line, ", ")+",")
			line, width = nil, 0
		}
		if len(line) > 0 {
			width += 2
		}
		line = append(line, Link(c.Package, c.URL, true))
		width += w
	}
	if len(line) > 0 {
		out = append(out, strings.Join(line, ", "))
	}
	return out
}
