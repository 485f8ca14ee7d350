package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kirillkom/childcare-policy-rag/internal/core/domain"
	"github.com/kirillkom/childcare-policy-rag/internal/core/ports"
)

type ProcessDocumentUseCase struct {
	repo      ports.DocumentRepository
	extractor ports.PageExtractor
	profiler  ports.DocumentProfiler
	chunker   ports.PageChunker
	embedder  ports.Embedder
	vectorDB  ports.VectorStore
}

func NewProcessDocumentUseCase(
	repo ports.DocumentRepository,
	extractor ports.PageExtractor,
	profiler ports.DocumentProfiler,
	chunker ports.PageChunker,
	embedder ports.Embedder,
	vectorDB ports.VectorStore,
) *ProcessDocumentUseCase {
	return &ProcessDocumentUseCase{
		repo:      repo,
		extractor: extractor,
		profiler:  profiler,
		chunker:   chunker,
		embedder:  embedder,
		vectorDB:  vectorDB,
	}
}

func (uc *ProcessDocumentUseCase) ProcessByID(ctx context.Context, documentID string) error {
	if err := uc.markStatus(ctx, documentID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	doc, profile, pageCount, err := uc.processPipeline(ctx, documentID)
	if err != nil {
		if failErr := uc.markFailed(ctx, documentID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.persistProfile(ctx, doc.ID, profile, pageCount); err != nil {
		if failErr := uc.markFailed(ctx, documentID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.markStatus(ctx, documentID, domain.StatusReady, ""); err != nil {
		return fmt.Errorf("set status=ready: %w", err)
	}

	return nil
}

func (uc *ProcessDocumentUseCase) processPipeline(ctx context.Context, documentID string) (*domain.Document, domain.DocumentProfile, int, error) {
	doc, err := uc.loadDocument(ctx, documentID)
	if err != nil {
		return nil, domain.DocumentProfile{}, 0, err
	}

	pages, err := uc.extractPages(ctx, doc)
	if err != nil {
		return nil, domain.DocumentProfile{}, 0, err
	}

	profile, err := uc.profileDocument(ctx, pages)
	if err != nil {
		return nil, domain.DocumentProfile{}, 0, err
	}

	chunks, err := uc.chunkPages(doc.ID, pages, profile.Summary)
	if err != nil {
		return nil, domain.DocumentProfile{}, 0, err
	}

	vectors, err := uc.embed(ctx, chunks)
	if err != nil {
		return nil, domain.DocumentProfile{}, 0, err
	}

	if err := uc.index(ctx, doc, chunks, vectors); err != nil {
		return nil, domain.DocumentProfile{}, 0, err
	}

	doc.Profile = profile
	doc.PageCount = len(pages)
	return doc, profile, len(pages), nil
}

func (uc *ProcessDocumentUseCase) loadDocument(ctx context.Context, documentID string) (*domain.Document, error) {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("fetch document by id: %w", err)
	}
	return doc, nil
}

func (uc *ProcessDocumentUseCase) extractPages(ctx context.Context, doc *domain.Document) ([]domain.Page, error) {
	pages, err := uc.extractor.ExtractPages(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("extract pages: %w", err)
	}
	if !hasText(pages) {
		return nil, domain.WrapError(domain.ErrInvalidInput, "extract pages", errors.New("document has no extractable text"))
	}
	return pages, nil
}

func (uc *ProcessDocumentUseCase) profileDocument(ctx context.Context, pages []domain.Page) (domain.DocumentProfile, error) {
	profile, err := uc.profiler.Profile(ctx, openingText(pages))
	if err != nil {
		return domain.DocumentProfile{}, fmt.Errorf("profile document: %w", err)
	}
	return profile, nil
}

// chunkPages applies the per-page chunking policy and stamps every chunk with
// the document-level summary, which the embedder prepends so that chunks from
// short pages still carry enough context to be retrievable.
func (uc *ProcessDocumentUseCase) chunkPages(documentID string, pages []domain.Page, summary string) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	for _, page := range pages {
		_, texts := uc.chunker.ChunkPage(page)
		for seq, text := range texts {
			if strings.TrimSpace(text) == "" {
				continue
			}
			chunks = append(chunks, domain.Chunk{
				DocumentID: documentID,
				Page:       page.Number,
				Seq:        seq,
				Text:       text,
				Context:    summary,
			})
		}
	}
	if len(chunks) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "chunk document", errors.New("chunking produced zero chunks"))
	}
	return chunks, nil
}

func (uc *ProcessDocumentUseCase) embed(ctx context.Context, chunks []domain.Chunk) ([][]float32, error) {
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.EmbeddingText()
	}

	vectors, err := uc.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, domain.WrapError(
			domain.ErrInvalidInput,
			"embed chunks",
			fmt.Errorf("vectors/chunks mismatch: %d/%d", len(vectors), len(chunks)),
		)
	}
	return vectors, nil
}

func (uc *ProcessDocumentUseCase) index(ctx context.Context, doc *domain.Document, chunks []domain.Chunk, vectors [][]float32) error {
	if err := uc.vectorDB.ReplaceDocumentChunks(ctx, doc, chunks, vectors); err != nil {
		return fmt.Errorf("index chunks in vector db: %w", err)
	}
	return nil
}

func (uc *ProcessDocumentUseCase) persistProfile(ctx context.Context, documentID string, profile domain.DocumentProfile, pageCount int) error {
	if err := uc.repo.SaveProfile(ctx, documentID, profile, pageCount); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func (uc *ProcessDocumentUseCase) markStatus(ctx context.Context, documentID string, status domain.DocumentStatus, errMessage string) error {
	return uc.repo.UpdateStatus(ctx, documentID, status, errMessage)
}

func (uc *ProcessDocumentUseCase) markFailed(ctx context.Context, documentID string, processErr error) error {
	if processErr == nil {
		return nil
	}
	return uc.markStatus(ctx, documentID, domain.StatusFailed, processErr.Error())
}

func hasText(pages []domain.Page) bool {
	for _, page := range pages {
		if strings.TrimSpace(page.Text) != "" {
			return true
		}
	}
	return false
}

// openingText gathers the first pages up to the profiler's working budget.
func openingText(pages []domain.Page) string {
	const maxRunes = 4000
	var b strings.Builder
	for _, page := range pages {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(page.Text)
		if len([]rune(b.String())) >= maxRunes {
			break
		}
	}
	runes := []rune(b.String())
	if len(runes) > maxRunes {
		runes = runes[:maxRunes]
	}
	return string(runes)
}
