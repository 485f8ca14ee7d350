package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kirillkom/childcare-policy-rag/internal/core/domain"
)

type statusCall struct {
	status domain.DocumentStatus
	errMsg string
}

type processRepoFake struct {
	doc           *domain.Document
	getErr        error
	saveErr       error
	statusErr     error
	failStatusErr error
	statusCalls   []statusCall
	profile       domain.DocumentProfile
	profileID     string
	pageCount     int
}

func (f *processRepoFake) Create(context.Context, *domain.Document) error { return nil }

func (f *processRepoFake) GetByID(context.Context, string) (*domain.Document, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	copyDoc := *f.doc
	return &copyDoc, nil
}

func (f *processRepoFake) UpdateStatus(_ context.Context, _ string, status domain.DocumentStatus, errMessage string) error {
	f.statusCalls = append(f.statusCalls, statusCall{status: status, errMsg: errMessage})
	if status == domain.StatusFailed && f.failStatusErr != nil {
		return f.failStatusErr
	}
	if f.statusErr != nil {
		return f.statusErr
	}
	return nil
}

func (f *processRepoFake) SaveProfile(_ context.Context, id string, profile domain.DocumentProfile, pageCount int) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.profileID = id
	f.profile = profile
	f.pageCount = pageCount
	return nil
}

type pageExtractorFake struct {
	pages []domain.Page
	err   error
}

func (f *pageExtractorFake) ExtractPages(context.Context, *domain.Document) ([]domain.Page, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.pages, nil
}

type profilerFake struct {
	profile domain.DocumentProfile
	err     error
}

func (f *profilerFake) Profile(context.Context, string) (domain.DocumentProfile, error) {
	if f.err != nil {
		return domain.DocumentProfile{}, f.err
	}
	return f.profile, nil
}

// pageChunkerFake mimics the real policy: pipe-heavy pages become one atomic
// chunk, narrative pages are cut at paragraph breaks.
type pageChunkerFake struct{}

func (f *pageChunkerFake) ChunkPage(page domain.Page) (domain.PageClass, []string) {
	if strings.Contains(page.Text, "|") {
		return domain.PageTable, []string{page.Text}
	}
	return domain.PageNarrative, strings.Split(page.Text, "\n\n")
}

type processEmbedderFake struct {
	texts []string
	err   error
}

func (f *processEmbedderFake) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.texts = texts
	vectors := make([][]float32, len(texts))
	for i := range vectors {
		vectors[i] = []float32{float32(i)}
	}
	return vectors, nil
}

func (f *processEmbedderFake) EmbedQuery(context.Context, string) ([]float32, error) {
	return nil, errors.New("not implemented")
}

type processVectorFake struct {
	chunks  []domain.Chunk
	vectors [][]float32
	err     error
}

func (f *processVectorFake) ReplaceDocumentChunks(_ context.Context, _ *domain.Document, chunks []domain.Chunk, vectors [][]float32) error {
	if f.err != nil {
		return f.err
	}
	f.chunks = chunks
	f.vectors = vectors
	return nil
}

func (f *processVectorFake) SearchDense(context.Context, []float32, int, domain.SearchFilter) ([]domain.RetrievedChunk, error) {
	return nil, errors.New("not implemented")
}

func (f *processVectorFake) SearchLexical(context.Context, string, int, domain.SearchFilter) ([]domain.RetrievedChunk, error) {
	return nil, errors.New("not implemented")
}

func testPages() []domain.Page {
	return []domain.Page{
		{Number: 0, Text: "Eligibility overview.\n\nIncome limits apply."},
		{Number: 1, Text: "| Family Size | Limit |\n|---|---|\n| 2 | $4,106 |"},
	}
}

func TestProcessByIDSuccess(t *testing.T) {
	repo := &processRepoFake{doc: &domain.Document{ID: "doc-1"}}
	vector := &processVectorFake{}
	embedder := &processEmbedderFake{}
	uc := NewProcessDocumentUseCase(
		repo,
		&pageExtractorFake{pages: testPages()},
		&profilerFake{profile: domain.DocumentProfile{Category: "eligibility", Summary: "Income limits by family size."}},
		&pageChunkerFake{},
		embedder,
		vector,
	)

	if err := uc.ProcessByID(context.Background(), "doc-1"); err != nil {
		t.Fatalf("ProcessByID() error = %v", err)
	}
	if len(repo.statusCalls) != 2 {
		t.Fatalf("expected 2 status calls, got %d", len(repo.statusCalls))
	}
	if repo.statusCalls[0].status != domain.StatusProcessing || repo.statusCalls[1].status != domain.StatusReady {
		t.Fatalf("unexpected status sequence: %+v", repo.statusCalls)
	}
	if repo.profileID != "doc-1" || repo.pageCount != 2 {
		t.Fatalf("expected profile save for doc-1 with 2 pages, got %s/%d", repo.profileID, repo.pageCount)
	}
	if len(vector.chunks) != 3 {
		t.Fatalf("expected 2 narrative chunks + 1 table chunk, got %d", len(vector.chunks))
	}
	if vector.chunks[2].Page != 1 || !strings.Contains(vector.chunks[2].Text, "$4,106") {
		t.Fatalf("table chunk must keep its page and text: %+v", vector.chunks[2])
	}
}

func TestProcessByIDEmbedsWithProfileContext(t *testing.T) {
	repo := &processRepoFake{doc: &domain.Document{ID: "doc-1"}}
	embedder := &processEmbedderFake{}
	uc := NewProcessDocumentUseCase(
		repo,
		&pageExtractorFake{pages: testPages()},
		&profilerFake{profile: domain.DocumentProfile{Summary: "Income limits by family size."}},
		&pageChunkerFake{},
		embedder,
		&processVectorFake{},
	)

	if err := uc.ProcessByID(context.Background(), "doc-1"); err != nil {
		t.Fatalf("ProcessByID() error = %v", err)
	}
	for i, text := range embedder.texts {
		if !strings.HasPrefix(text, "Income limits by family size.") {
			t.Fatalf("embedded text %d missing profile context: %q", i, text)
		}
	}
}

func TestProcessByIDMarksFailedOnExtractError(t *testing.T) {
	repo := &processRepoFake{doc: &domain.Document{ID: "doc-1"}}
	uc := NewProcessDocumentUseCase(
		repo,
		&pageExtractorFake{err: errors.New("extract fail")},
		&profilerFake{},
		&pageChunkerFake{},
		&processEmbedderFake{},
		&processVectorFake{},
	)

	err := uc.ProcessByID(context.Background(), "doc-1")
	if err == nil {
		t.Fatalf("expected error")
	}
	if len(repo.statusCalls) != 2 {
		t.Fatalf("expected processing + failed status updates, got %d", len(repo.statusCalls))
	}
	if repo.statusCalls[1].status != domain.StatusFailed {
		t.Fatalf("expected failed status, got %+v", repo.statusCalls[1])
	}
}

func TestProcessByIDMarksFailedOnEmptyDocument(t *testing.T) {
	repo := &processRepoFake{doc: &domain.Document{ID: "doc-1"}}
	uc := NewProcessDocumentUseCase(
		repo,
		&pageExtractorFake{pages: []domain.Page{{Number: 0, Text: "   "}}},
		&profilerFake{},
		&pageChunkerFake{},
		&processEmbedderFake{},
		&processVectorFake{},
	)

	err := uc.ProcessByID(context.Background(), "doc-1")
	if err == nil || !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input error, got %v", err)
	}
	if repo.statusCalls[len(repo.statusCalls)-1].status != domain.StatusFailed {
		t.Fatalf("expected final failed status, got %+v", repo.statusCalls)
	}
}

func TestProcessByIDMarksFailedOnIndexError(t *testing.T) {
	repo := &processRepoFake{doc: &domain.Document{ID: "doc-1"}}
	uc := NewProcessDocumentUseCase(
		repo,
		&pageExtractorFake{pages: testPages()},
		&profilerFake{},
		&pageChunkerFake{},
		&processEmbedderFake{},
		&processVectorFake{err: errors.New("qdrant down")},
	)

	err := uc.ProcessByID(context.Background(), "doc-1")
	if err == nil {
		t.Fatalf("expected error")
	}
	if len(repo.statusCalls) != 2 || repo.statusCalls[1].status != domain.StatusFailed {
		t.Fatalf("expected final failed status, got %+v", repo.statusCalls)
	}
}
