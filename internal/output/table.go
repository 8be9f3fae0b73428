package output

import (
	"io"
	"strings"
	"unicode/utf8"
)

// Align is the horizontal alignment of a column.
type Align int

// Column alignments.
const (
	AlignLeft Align = iota
	AlignRight
)

// Table renders rows as aligned columns for text output.
type Table struct {
	headers []string
	aligns  []Align
	rows    [][]string
	sep     string
}

// NewTable creates a table with the given headers, all left aligned.
func NewTable(headers ...string) *Table {
	return &Table{
		headers: headers,
		aligns:  make([]Align, len(headers)),
		sep:     "  ",
	}
}

// AlignRight right-aligns the columns at idx, typically amounts.
func (t *Table) AlignRight(idx ...int) *Table {
	for _, i := range idx {
		if i >= 0 && i < len(t.aligns) {
			t.aligns[i] = AlignRight
		}
	}
	return t
}

// AddRow adds a row. Missing cells render empty.
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Render writes the header, a rule and every row to w.
func (t *Table) Render(w io.Writer) error {
	if len(t.headers) == 0 {
		return nil
	}
	widths := t.widths()

	rule := make([]string, len(widths))
	for i, n := range widths {
		rule[i] = strings.Repeat("-", n)
	}

	lines := make([]string, 0, len(t.rows)+2)
	lines = append(lines, t.line(t.headers, widths), strings.Join(rule, t.sep))
	for _, row := range t.rows {
		lines = append(lines, t.line(row, widths))
	}
	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}

// String returns the rendered table.
func (t *Table) String() string {
	var sb strings.Builder
	_ = t.Render(&sb)
	return sb.String()
}

func (t *Table) widths() []int {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range t.rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			widths[i] = max(widths[i], utf8.RuneCountInString(row[i]))
		}
	}
	return widths
}

func (t *Table) line(cells []string, widths []int) string {
	parts := make([]string, len(widths))
	for i, width := range widths {
		var cell string
		if i < len(cells) {
			cell = cells[i]
		}
		pad := strings.Repeat(" ", width-utf8.RuneCountInString(cell))
		if t.aligns[i] == AlignRight {
			parts[i] = pad + cell
		} else {
			parts[i] = cell + pad
		}
	}
	return strings.TrimRight(strings.Join(parts, t.sep), " ")
}
