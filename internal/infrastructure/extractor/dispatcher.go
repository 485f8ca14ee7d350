package extractor

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kirillkom/childcare-policy-rag/internal/core/domain"
	"github.com/kirillkom/childcare-policy-rag/internal/core/ports"
)

// Dispatcher routes page extraction by file extension.
type Dispatcher struct {
	byExt map[string]ports.PageExtractor
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{byExt: make(map[string]ports.PageExtractor)}
}

func (d *Dispatcher) Register(ext string, extractor ports.PageExtractor) {
	d.byExt[strings.ToLower(ext)] = extractor
}

func (d *Dispatcher) ExtractPages(ctx context.Context, doc *domain.Document) ([]domain.Page, error) {
	ext := strings.ToLower(filepath.Ext(doc.Filename))
	extractor, ok := d.byExt[ext]
	if !ok {
		return nil, domain.WrapError(
			domain.ErrInvalidInput,
			"dispatch extractor",
			fmt.Errorf("no extractor for %q", ext),
		)
	}
	return extractor.ExtractPages(ctx, doc)
}
