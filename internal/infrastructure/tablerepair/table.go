package tablerepair

import "strings"

// Table is a parsed markdown grid: ordered headers plus ordered rows of cells.
type Table struct {
	Headers []string
	Rows    [][]string
}

// tableBlock tracks where a grid sits inside surrounding page text so a
// repaired grid can be spliced back without touching the prose around it.
type tableBlock struct {
	startLine int
	endLine   int // exclusive
	table     Table
}

// findTableBlock locates the first contiguous run of pipe-delimited lines
// that parses as header + divider + data rows. Returns false when the text
// holds no such grid.
func findTableBlock(lines []string) (tableBlock, bool) {
	start := -1
	for i := 0; i <= len(lines); i++ {
		inTable := i < len(lines) && strings.Contains(lines[i], "|")
		if inTable && start < 0 {
			start = i
			continue
		}
		if inTable || start < 0 {
			continue
		}
		if table, ok := parseGrid(lines[start:i]); ok {
			return tableBlock{startLine: start, endLine: i, table: table}, true
		}
		start = -1
	}
	return tableBlock{}, false
}

func parseGrid(lines []string) (Table, bool) {
	if len(lines) < 3 {
		return Table{}, false
	}
	if !isDividerLine(lines[1]) {
		return Table{}, false
	}

	headers := splitCells(lines[0])
	if len(headers) < 2 {
		return Table{}, false
	}

	rows := make([][]string, 0, len(lines)-2)
	for _, line := range lines[2:] {
		if isDividerLine(line) {
			continue
		}
		cells := splitCells(line)
		if len(cells) == 0 {
			continue
		}
		rows = append(rows, cells)
	}
	if len(rows) == 0 {
		return Table{}, false
	}
	return Table{Headers: headers, Rows: rows}, true
}

func isDividerLine(line string) bool {
	if !strings.Contains(line, "|") || !strings.Contains(line, "-") {
		return false
	}
	for _, r := range line {
		switch r {
		case '|', '-', ':', ' ', '\t':
		default:
			return false
		}
	}
	return true
}

func splitCells(line string) []string {
	trimmed := strings.Trim(strings.TrimSpace(line), "|")
	parts := strings.Split(trimmed, "|")
	cells := make([]string, 0, len(parts))
	for _, p := range parts {
		cells = append(cells, strings.TrimSpace(p))
	}
	return cells
}

// Markdown re-serializes the grid. Only repaired tables are re-serialized;
// untouched pages keep their original bytes.
func (t Table) Markdown() string {
	var b strings.Builder
	writeRow := func(cells []string) {
		b.WriteString("|")
		for _, c := range cells {
			b.WriteString(" ")
			b.WriteString(c)
			b.WriteString(" |")
		}
		b.WriteString("\n")
	}

	writeRow(t.Headers)
	b.WriteString("|")
	for range t.Headers {
		b.WriteString("---|")
	}
	b.WriteString("\n")
	for _, row := range t.Rows {
		writeRow(row)
	}
	return strings.TrimRight(b.String(), "\n")
}
