package render

import (
	"io"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Cell is one table cell; each entry is a line of text
type Cell []string

// Table is an RST grid table
type Table struct {
	Headers []string
	Rows    [][]Cell
	Indent  int
}

func (t *Table) widths() []int {
	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = ansi.StringWidth(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			for _, line := range cell {
				if w := ansi.StringWidth(line); w > widths[i] {
					widths[i] = w
				}
			}
		}
	}
	return widths
}

// WriteTo writes the table as a datatable directive
func (t *Table) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	widths := t.widths()
	pad := strings.Repeat(" ", t.Indent)

	border := func(line string) {
		b.WriteString(pad)
		for _, width := range widths {
			b.WriteString("+")
			b.WriteString(strings.Repeat(line, width))
		}
		b.WriteString("+\n")
	}
	row := func(cells []Cell) {
		height := 1
		for _, c := range cells {
			height = max(height, len(c))
		}
		for m := range height {
			b.WriteString(pad)
			for i, width := range widths {
				line := ""
				if i < len(cells) && m < len(cells[i]) {
					line = cells[i][m]
				}
				b.WriteString("|")
				b.WriteString(line)
				b.WriteString(strings.Repeat(" ", width-ansi.StringWidth(line)))
			}
			b.WriteString("|\n")
		}
	}

	b.WriteString(".. table::\n   :class: datatable\n\n")
	border("-")
	headers := make([]Cell, len(t.Headers))
	for i, h := range t.Headers {
		headers[i] = Cell{h}
	}
	row(headers)
	border("=")
	for _, r := range t.Rows {
		row(r)
		border("-")
	}

	n, err := io.WriteString(w, b.String())
	return int64(n), err
}
