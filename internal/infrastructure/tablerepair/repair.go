package tablerepair

import (
	"regexp"
	"strings"
)

// Config holds the rotation-detection signals. The defaults target a known
// extraction defect where row data is shifted one column left of the headers:
// year values land in the last column while the "Year"-headed first column
// ends up holding percentages. Different extraction backends corrupt tables
// differently, so the signals are injectable rather than hard-coded.
type Config struct {
	TemporalHeaderWords []string
	YearPattern         *regexp.Regexp
	PercentPattern      *regexp.Regexp
	MinSignalValues     int
}

func DefaultConfig() Config {
	return Config{
		TemporalHeaderWords: []string{"year", "date", "period"},
		YearPattern:         regexp.MustCompile(`^(19|20)\d{2}$`),
		PercentPattern:      regexp.MustCompile(`^\d+(\.\d+)?\s*%$`),
		MinSignalValues:     2,
	}
}

type Repairer struct {
	cfg Config
}

func New(cfg Config) *Repairer {
	def := DefaultConfig()
	if len(cfg.TemporalHeaderWords) == 0 {
		cfg.TemporalHeaderWords = def.TemporalHeaderWords
	}
	if cfg.YearPattern == nil {
		cfg.YearPattern = def.YearPattern
	}
	if cfg.PercentPattern == nil {
		cfg.PercentPattern = def.PercentPattern
	}
	if cfg.MinSignalValues <= 0 {
		cfg.MinSignalValues = def.MinSignalValues
	}
	return &Repairer{cfg: cfg}
}

// RepairText scans page text for a markdown grid, checks it for the rotation
// defect and, when detected, splices the corrected grid back into the page.
// Absent signals leave the text byte-identical; that is the expected default
// outcome, not an error.
func (r *Repairer) RepairText(text string) (string, bool) {
	lines := strings.Split(text, "\n")
	repairedAny := false

	offset := 0
	for offset < len(lines) {
		block, ok := findTableBlock(lines[offset:])
		if !ok {
			break
		}
		start := offset + block.startLine
		end := offset + block.endLine

		fixed, repaired := r.Repair(block.table)
		if !repaired {
			offset = end
			continue
		}

		fixedLines := strings.Split(fixed.Markdown(), "\n")
		out := make([]string, 0, len(lines)-(end-start)+len(fixedLines))
		out = append(out, lines[:start]...)
		out = append(out, fixedLines...)
		out = append(out, lines[end:]...)
		lines = out
		repairedAny = true
		offset = start + len(fixedLines)
	}

	if !repairedAny {
		return text, false
	}
	return strings.Join(lines, "\n"), true
}

// Repair returns the corrected table and true when both rotation signals
// fire; otherwise the input table and false. Either signal alone is not
// enough evidence: a false positive would corrupt a correct table, which is
// strictly worse than leaving a corrupted one alone.
func (r *Repairer) Repair(t Table) (Table, bool) {
	if !r.detectRotation(t) {
		return t, false
	}

	rows := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		if len(row) < 2 {
			rows[i] = row
			continue
		}
		last := len(row) - 1
		rotated := make([]string, 0, len(row))
		rotated = append(rotated, row[last])
		rotated = append(rotated, row[:last]...)
		rows[i] = rotated
	}

	// Headers were extracted in the right order; only the row data rotated.
	return Table{Headers: t.Headers, Rows: rows}, true
}

func (r *Repairer) detectRotation(t Table) bool {
	if len(t.Headers) < 2 || len(t.Rows) == 0 {
		return false
	}
	last := len(t.Headers) - 1

	// Signal A: the last column does not declare itself temporal yet holds
	// mostly four-digit years.
	if r.headerIsTemporal(t.Headers[last]) {
		return false
	}
	if !r.columnMostlyMatches(t.Rows, last, r.cfg.YearPattern) {
		return false
	}

	// Signal B: the first column declares itself temporal yet holds mostly
	// percentages.
	if !r.headerIsTemporal(t.Headers[0]) {
		return false
	}
	return r.columnMostlyMatches(t.Rows, 0, r.cfg.PercentPattern)
}

func (r *Repairer) headerIsTemporal(header string) bool {
	h := strings.ToLower(header)
	for _, word := range r.cfg.TemporalHeaderWords {
		if strings.Contains(h, word) {
			return true
		}
	}
	return false
}

func (r *Repairer) columnMostlyMatches(rows [][]string, col int, pattern *regexp.Regexp) bool {
	matches := 0
	total := 0
	for _, row := range rows {
		if col >= len(row) {
			continue
		}
		total++
		if pattern.MatchString(strings.TrimSpace(row[col])) {
			matches++
		}
	}
	if total == 0 {
		return false
	}
	return matches >= r.cfg.MinSignalValues && matches*2 > total
}
