package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kirillkom/childcare-policy-rag/internal/core/domain"
)

type queryEmbedderFake struct {
	err error
}

func (f *queryEmbedderFake) Embed(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("not implemented")
}

func (f *queryEmbedderFake) EmbedQuery(context.Context, string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2}, nil
}

type queryVectorFake struct {
	dense      []domain.RetrievedChunk
	lexical    []domain.RetrievedChunk
	lexicalErr error
}

func (f *queryVectorFake) ReplaceDocumentChunks(context.Context, *domain.Document, []domain.Chunk, [][]float32) error {
	return errors.New("not implemented")
}

func (f *queryVectorFake) SearchDense(context.Context, []float32, int, domain.SearchFilter) ([]domain.RetrievedChunk, error) {
	return f.dense, nil
}

func (f *queryVectorFake) SearchLexical(context.Context, string, int, domain.SearchFilter) ([]domain.RetrievedChunk, error) {
	if f.lexicalErr != nil {
		return nil, f.lexicalErr
	}
	return f.lexical, nil
}

// queryJudgeFake scores a passage by naive keyword overlap with the question,
// which is enough to steer the adaptive cutoff in pipeline tests.
type queryJudgeFake struct{}

func (f *queryJudgeFake) Score(_ context.Context, question, passage string) (int, error) {
	score := 0
	for _, word := range strings.Fields(strings.ToLower(question)) {
		if strings.Contains(strings.ToLower(passage), word) {
			score += 4
		}
	}
	if score > 10 {
		score = 10
	}
	return score, nil
}

type queryGeneratorFake struct {
	question string
	chunks   []domain.RetrievedChunk
	calls    int
}

func (f *queryGeneratorFake) GenerateAnswer(_ context.Context, question string, chunks []domain.RetrievedChunk) (string, error) {
	f.calls++
	f.question = question
	f.chunks = chunks
	return "generated answer", nil
}

func newQueryUC(vector *queryVectorFake, generator *queryGeneratorFake) *QueryUseCase {
	return NewQueryUseCase(&queryEmbedderFake{}, vector, &queryJudgeFake{}, generator, QueryConfig{})
}

func TestAnswerExactValueOutranksSemanticNeighbor(t *testing.T) {
	// The chunk carrying the literal "$92,041" is only found by the lexical
	// leg; a semantically similar chunk without the figure leads the dense
	// leg. Appearing in both lists must put the exact-match chunk first.
	exact := domain.RetrievedChunk{DocumentID: "rates", Page: 2, ChunkIndex: 0, Text: "A Four Star center may receive up to $92,041."}
	vague := domain.RetrievedChunk{DocumentID: "guide", Page: 5, ChunkIndex: 1, Text: "Centers receive quality-based reimbursement."}

	vector := &queryVectorFake{
		dense:   []domain.RetrievedChunk{vague, exact},
		lexical: []domain.RetrievedChunk{exact},
	}
	generator := &queryGeneratorFake{}
	uc := newQueryUC(vector, generator)

	answer, err := uc.Answer(context.Background(), "how much is $92,041 for a Four Star center", 0, domain.SearchFilter{})
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if len(answer.Sources) == 0 {
		t.Fatalf("expected sources")
	}
	if answer.Sources[0].DocumentID != "rates" {
		t.Fatalf("exact-match chunk must rank first, got %s", answer.Sources[0].DocumentID)
	}
}

func TestAnswerFindsYearInRepairedTable(t *testing.T) {
	tableChunk := domain.RetrievedChunk{
		DocumentID: "history", Page: 7, ChunkIndex: 0,
		Text: "| Year | PctA | PctB |\n|---|---|---|\n| 2012 | 81% | 58% |\n| 2013 | 84% | 62% |",
	}
	other := domain.RetrievedChunk{DocumentID: "intro", Page: 0, ChunkIndex: 0, Text: "Program overview."}

	vector := &queryVectorFake{
		dense:   []domain.RetrievedChunk{other},
		lexical: []domain.RetrievedChunk{tableChunk},
	}
	generator := &queryGeneratorFake{}
	uc := newQueryUC(vector, generator)

	answer, err := uc.Answer(context.Background(), "what was PctA in 2012", 0, domain.SearchFilter{})
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if len(answer.Sources) == 0 || answer.Sources[0].DocumentID != "history" {
		t.Fatalf("table chunk with the year must lead, got %+v", answer.Sources)
	}
	if !strings.Contains(answer.Sources[0].Text, "| 2012 | 81% | 58% |") {
		t.Fatalf("table chunk must arrive intact")
	}
}

func TestAnswerEmptyRetrievalSkipsGenerator(t *testing.T) {
	generator := &queryGeneratorFake{}
	uc := newQueryUC(&queryVectorFake{}, generator)

	answer, err := uc.Answer(context.Background(), "anything", 0, domain.SearchFilter{})
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if generator.calls != 0 {
		t.Fatalf("generator must not run without context")
	}
	if answer.Text != "" || answer.Sources == nil || len(answer.Sources) != 0 {
		t.Fatalf("expected empty answer with empty sources slice, got %+v", answer)
	}
}

func TestAnswerRerankRejectionSkipsGenerator(t *testing.T) {
	// Retrieval finds a chunk but the judge scores it below the floor.
	vector := &queryVectorFake{
		dense: []domain.RetrievedChunk{{DocumentID: "a", Page: 0, ChunkIndex: 0, Text: "unrelated content"}},
	}
	generator := &queryGeneratorFake{}
	uc := newQueryUC(vector, generator)

	answer, err := uc.Answer(context.Background(), "zzz qqq", 0, domain.SearchFilter{})
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if generator.calls != 0 {
		t.Fatalf("generator must not run when reranking rejects everything")
	}
	if len(answer.Sources) != 0 {
		t.Fatalf("expected no sources, got %d", len(answer.Sources))
	}
}

func TestAnswerLexicalFailureDegradesToDense(t *testing.T) {
	dense := []domain.RetrievedChunk{{DocumentID: "a", Page: 0, ChunkIndex: 0, Text: "copay amounts for families"}}
	vector := &queryVectorFake{dense: dense, lexicalErr: errors.New("sparse index down")}
	generator := &queryGeneratorFake{}
	uc := newQueryUC(vector, generator)

	answer, err := uc.Answer(context.Background(), "copay amounts", 0, domain.SearchFilter{})
	if err != nil {
		t.Fatalf("lexical outage must not fail the query: %v", err)
	}
	if len(answer.Sources) != 1 || answer.Sources[0].DocumentID != "a" {
		t.Fatalf("expected dense-only fallback results, got %+v", answer.Sources)
	}
}

func TestAnswerHonorsLimit(t *testing.T) {
	var dense []domain.RetrievedChunk
	for i := 0; i < 10; i++ {
		dense = append(dense, domain.RetrievedChunk{
			DocumentID: "a", Page: i, ChunkIndex: 0,
			Text: "eligibility rules for families",
		})
	}
	generator := &queryGeneratorFake{}
	uc := newQueryUC(&queryVectorFake{dense: dense}, generator)

	answer, err := uc.Answer(context.Background(), "eligibility rules", 2, domain.SearchFilter{})
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if len(answer.Sources) != 2 {
		t.Fatalf("expected limit of 2 sources, got %d", len(answer.Sources))
	}
	if answer.Text != "generated answer" {
		t.Fatalf("unexpected answer text: %s", answer.Text)
	}
}
