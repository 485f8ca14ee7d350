package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"

	lpdf "github.com/ledongthuc/pdf"

	"github.com/kirillkom/childcare-policy-rag/internal/core/domain"
	"github.com/kirillkom/childcare-policy-rag/internal/core/ports"
)

type Extractor struct {
	storage ports.ObjectStorage
}

func NewExtractor(storage ports.ObjectStorage) *Extractor {
	return &Extractor{storage: storage}
}

// ExtractPages reads the stored PDF and returns one entry per physical page.
// Page numbers are zero based. Pages without a text layer come back empty
// instead of failing the document; scanned pages are common in older policy
// publications.
func (e *Extractor) ExtractPages(ctx context.Context, doc *domain.Document) ([]domain.Page, error) {
	reader, err := e.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("open source document: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read source document: %w", err)
	}

	pdfReader, err := lpdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse pdf", err)
	}

	pages := make([]domain.Page, 0, pdfReader.NumPage())
	for i := 1; i <= pdfReader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := pdfReader.Page(i)
		text := ""
		if !page.V.IsNull() {
			content, err := page.GetPlainText(nil)
			if err != nil {
				return nil, fmt.Errorf("extract pdf page %d: %w", i, err)
			}
			text = content
		}
		pages = append(pages, domain.Page{Number: i - 1, Text: text})
	}
	return pages, nil
}
