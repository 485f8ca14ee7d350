package ports

import (
	"context"
	"io"

	"github.com/kirillkom/childcare-policy-rag/internal/core/domain"
)

// DocumentIngestor is the inbound contract for document upload orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, filename, mimeType string, body io.Reader) (*domain.Document, error)
}

// DocumentQueryService is the inbound contract for retrieval-augmented answers.
type DocumentQueryService interface {
	Answer(ctx context.Context, question string, limit int, filter domain.SearchFilter) (*domain.Answer, error)
}

// DocumentReader is the inbound read model for document metadata/state.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}

// DocumentProcessor is the inbound contract for asynchronous ingestion.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}
