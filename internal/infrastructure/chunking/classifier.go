package chunking

import (
	"strings"

	"github.com/kirillkom/childcare-policy-rag/internal/core/domain"
)

const (
	minDividerLines = 1
	minTableRows    = 3
)

// Classify tags a page as table or narrative. The thresholds are deliberately
// conservative: stray pipe characters in prose must not turn a narrative page
// into a table page, because table pages bypass splitting entirely.
func Classify(text string) domain.PageClass {
	dividers := 0
	rows := 0
	for _, line := range strings.Split(text, "\n") {
		switch {
		case isDividerLine(line):
			dividers++
		case strings.Count(line, "|") >= 2:
			rows++
		}
	}
	if dividers >= minDividerLines && rows >= minTableRows {
		return domain.PageTable
	}
	return domain.PageNarrative
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
