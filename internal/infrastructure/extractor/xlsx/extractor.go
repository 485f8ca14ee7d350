package xlsx

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/childcare-policy-rag/internal/core/domain"
	"github.com/kirillkom/childcare-policy-rag/internal/core/ports"
)

type Extractor struct {
	storage ports.ObjectStorage
}

func NewExtractor(storage ports.ObjectStorage) *Extractor {
	return &Extractor{storage: storage}
}

// ExtractPages renders each worksheet as one markdown-table page, so
// spreadsheet rate schedules flow through the same table-aware chunking as
// tables embedded in PDFs.
func (e *Extractor) ExtractPages(ctx context.Context, doc *domain.Document) ([]domain.Page, error) {
	reader, err := e.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("open source document: %w", err)
	}
	defer reader.Close()

	workbook, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse xlsx", err)
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	pages := make([]domain.Page, 0, len(sheets))
	for i, sheet := range sheets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rows, err := workbook.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		pages = append(pages, domain.Page{Number: i, Text: renderSheet(sheet, rows)})
	}
	return pages, nil
}

func renderSheet(name string, rows [][]string) string {
	rows = dropEmptyRows(rows)
	if len(rows) == 0 {
		return ""
	}

	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	var b strings.Builder
	b.WriteString(name)
	b.WriteString("\n\n")
	for i, row := range rows {
		b.WriteString(renderRow(row, width))
		b.WriteString("\n")
		if i == 0 {
			b.WriteString(dividerRow(width))
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderRow(cells []string, width int) string {
	var b strings.Builder
	b.WriteString("|")
	for i := 0; i < width; i++ {
		cell := ""
		if i < len(cells) {
			cell = strings.TrimSpace(cells[i])
		}
		b.WriteString(" ")
		b.WriteString(cell)
		b.WriteString(" |")
	}
	return b.String()
}

func dividerRow(width int) string {
	var b strings.Builder
	b.WriteString("|")
	for i := 0; i < width; i++ {
		b.WriteString("---|")
	}
	return b.String()
}

func dropEmptyRows(rows [][]string) [][]string {
	out := rows[:0]
	for _, row := range rows {
		empty := true
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				empty = false
				break
			}
		}
		if !empty {
			out = append(out, row)
		}
	}
	return out
}
