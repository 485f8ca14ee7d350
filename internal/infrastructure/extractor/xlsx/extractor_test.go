package xlsx

import (
	"strings"
	"testing"
)

func TestRenderSheetProducesMarkdownTable(t *testing.T) {
	rows := [][]string{
		{"Family Size", "Monthly Limit"},
		{"2", "$4,106"},
		{"3", "$5,075"},
	}

	text := renderSheet("Income Limits", rows)
	lines := strings.Split(text, "\n")
	if lines[0] != "Income Limits" {
		t.Fatalf("sheet name must lead the page, got %q", lines[0])
	}
	if lines[2] != "| Family Size | Monthly Limit |" {
		t.Fatalf("unexpected header row: %q", lines[2])
	}
	if lines[3] != "|---|---|" {
		t.Fatalf("expected divider after header, got %q", lines[3])
	}
	if !strings.Contains(text, "| 2 | $4,106 |") {
		t.Fatalf("data row missing: %s", text)
	}
}

func TestRenderSheetPadsRaggedRows(t *testing.T) {
	rows := [][]string{
		{"Code", "Rate", "Tier"},
		{"BCY-26", "$92,041"},
	}

	text := renderSheet("Rates", rows)
	if !strings.Contains(text, "| BCY-26 | $92,041 |  |") {
		t.Fatalf("short rows must be padded to header width: %s", text)
	}
}

func TestRenderSheetSkipsEmptyRows(t *testing.T) {
	rows := [][]string{
		{"A", "B"},
		{"", "  "},
		{"1", "2"},
	}

	text := renderSheet("S", rows)
	if strings.Contains(text, "|  |  |") {
		t.Fatalf("empty rows must be dropped: %s", text)
	}
}

func TestRenderSheetEmpty(t *testing.T) {
	if text := renderSheet("S", nil); text != "" {
		t.Fatalf("expected empty page for empty sheet, got %q", text)
	}
}
