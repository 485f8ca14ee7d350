package ports

import (
	"context"
	"io"

	"github.com/kirillkom/childcare-policy-rag/internal/core/domain"
)

// DocumentRepository persists and reads document state. The persisted profile
// acts as the document-context cache consumed at embedding time.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SaveProfile(ctx context.Context, id string, profile domain.DocumentProfile, pageCount int) error
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes ingestion events.
type MessageQueue interface {
	PublishDocumentIngested(ctx context.Context, documentID string) error
	SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error
}

// PageExtractor turns a stored source document into ordered pages.
type PageExtractor interface {
	ExtractPages(ctx context.Context, doc *domain.Document) ([]domain.Page, error)
}

// DocumentProfiler derives category/tags/summary from extracted text.
type DocumentProfiler interface {
	Profile(ctx context.Context, text string) (domain.DocumentProfile, error)
}

// Embedder builds dense vectors for chunk and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// PageChunker applies the per-page chunking policy: one verbatim chunk for
// table pages (after structural repair), windowed splitting for narrative.
type PageChunker interface {
	ChunkPage(page domain.Page) (domain.PageClass, []string)
}

// VectorStore indexes dual-vector chunks and serves both retrieval paths.
type VectorStore interface {
	ReplaceDocumentChunks(ctx context.Context, doc *domain.Document, chunks []domain.Chunk, vectors [][]float32) error
	SearchDense(ctx context.Context, queryVector []float32, limit int, filter domain.SearchFilter) ([]domain.RetrievedChunk, error)
	SearchLexical(ctx context.Context, queryText string, limit int, filter domain.SearchFilter) ([]domain.RetrievedChunk, error)
}

// RelevanceJudge scores a candidate passage against a question, 0..10.
type RelevanceJudge interface {
	Score(ctx context.Context, question, passage string) (int, error)
}

// AnswerGenerator creates the final user-facing answer.
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, question string, chunks []domain.RetrievedChunk) (string, error)
}
