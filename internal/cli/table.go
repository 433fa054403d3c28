package cli

import (
	"strings"
)

// Table is a plain-text table with dynamic column widths. Columns with a
// maximum width wrap their cells over several lines.
type Table struct {
	headers   []string
	rows      [][]string
	padding   int
	maxWidths map[int]int // 0 or absent = no limit
}

// NewTable creates a new table with the given headers.
func NewTable(headers []string) *Table {
	return &Table{
		headers:   headers,
		rows:      make([][]string, 0),
		padding:   2,
		maxWidths: make(map[int]int),
	}
}

// SetColumnMaxWidth sets a maximum width for a specific column.
func (t *Table) SetColumnMaxWidth(colIndex int, maxWidth int) {
	t.maxWidths[colIndex] = maxWidth
}

// AddRow adds a row, padding or truncating it to the header count.
func (t *Table) AddRow(row []string) {
	cells := make([]string, len(t.headers))
	copy(cells, row)
	t.rows = append(t.rows, cells)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// FitColumn caps column colIndex so that the rendered table is at most width
// characters wide. The column never shrinks below its header.
func (t *Table) FitColumn(colIndex int, width int) {
	if width <= 0 || colIndex < 0 || colIndex >= len(t.headers) {
		return
	}

	used := t.padding * (len(t.headers) - 1)
	for i := range t.headers {
		if i != colIndex {
			used += t.columnWidth(i)
		}
	}

	t.maxWidths[colIndex] = max(width-used, len(t.headers[colIndex]))
}

// columnWidth returns the unwrapped width of a column.
func (t *Table) columnWidth(colIndex int) int {
	w := len(t.headers[colIndex])
	for _, row := range t.rows {
		w = max(w, len(row[colIndex]))
	}
	return w
}

// Render formats and returns the table as a string.
func (t *Table) Render() string {
	if len(t.headers) == 0 {
		return ""
	}

	cells := make([][][]string, len(t.rows))
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = len(h)
	}
	for r, row := range t.rows {
		cells[r] = make([][]string, len(row))
		for c, cell := range row {
			cells[r][c] = wrapText(cell, t.maxWidths[c])
			for _, line := range cells[r][c] {
				widths[c] = max(widths[c], len(line))
			}
		}
	}

	gap := strings.Repeat(" ", t.padding)
	var b strings.Builder
	writeLine := func(parts []string) {
		b.WriteString(strings.TrimRight(strings.Join(parts, gap), " "))
		b.WriteString("\n")
	}

	parts := make([]string, len(t.headers))
	for i, h := range t.headers {
		parts[i] = padRight(h, widths[i])
	}
	writeLine(parts)

	for i, w := range widths {
		parts[i] = strings.Repeat("-", w)
	}
	writeLine(parts)

	for _, row := range cells {
		lines := 1
		for _, cell := range row {
			lines = max(lines, len(cell))
		}
		for l := 0; l < lines; l++ {
			for c := range t.headers {
				line := ""
				if l < len(row[c]) {
					line = row[c][l]
				}
				parts[c] = padRight(line, widths[c])
			}
			writeLine(parts)
		}
	}

	return b.String()
}

// padRight pads a string with spaces on the right to reach the desired width.
func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// wrapText wraps text to width, breaking after spaces or "|" separators and
// splitting tokens that are longer than a whole line.
func wrapText(text string, width int) []string {
	if width <= 0 || len(text) <= width {
		return []string{text}
	}

	var lines []string
	line := ""
	for _, tok := range tokens(text) {
		if len(line)+len(tok) > width && line != "" {
			lines = append(lines, strings.TrimRight(line, " "))
			line = ""
			tok = strings.TrimLeft(tok, " ")
		}
		for len(tok) > width {
			lines = append(lines, tok[:width])
			tok = tok[width:]
		}
		line += tok
	}
	if line = strings.TrimRight(line, " "); line != "" || len(lines) == 0 {
		lines = append(lines, line)
	}
	return lines
}

// tokens splits text after every space and "|", keeping the separators.
func tokens(text string) []string {
	var out []string
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] == ' ' || text[i] == '|' {
			out = append(out, text[start:i+1])
			start = i + 1
		}
	}
	if start < len(text) {
		out = append(out, text[start:])
	}
	return out
}
