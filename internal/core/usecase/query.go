package usecase

import (
	"context"
	"fmt"

	"github.com/kirillkom/childcare-policy-rag/internal/core/domain"
	"github.com/kirillkom/childcare-policy-rag/internal/core/ports"
)

type QueryConfig struct {
	TopK          int
	PrefetchLimit int
	Candidates    int
	RRFK          int

	JudgeWorkers     int
	RerankGap        int
	RerankScoreFloor int
	RerankMaxResults int
}

func (c QueryConfig) normalize() QueryConfig {
	out := c
	if out.TopK <= 0 {
		out.TopK = 8
	}
	if out.PrefetchLimit <= 0 {
		out.PrefetchLimit = 100
	}
	if out.Candidates <= 0 {
		out.Candidates = 30
	}
	if out.RRFK <= 0 {
		out.RRFK = 60
	}
	if out.JudgeWorkers <= 0 {
		out.JudgeWorkers = 4
	}
	if out.RerankGap <= 0 {
		out.RerankGap = 3
	}
	if out.RerankScoreFloor <= 0 {
		out.RerankScoreFloor = 3
	}
	if out.RerankMaxResults <= 0 {
		out.RerankMaxResults = out.TopK
	}
	return out
}

type QueryUseCase struct {
	retriever *hybridRetriever
	reranker  *judgeReranker
	generator ports.AnswerGenerator
	cfg       QueryConfig
}

func NewQueryUseCase(
	embedder ports.Embedder,
	vectorDB ports.VectorStore,
	judge ports.RelevanceJudge,
	generator ports.AnswerGenerator,
	cfg QueryConfig,
) *QueryUseCase {
	cfg = cfg.normalize()
	return &QueryUseCase{
		retriever: &hybridRetriever{
			embedder:      embedder,
			vectorDB:      vectorDB,
			prefetchLimit: cfg.PrefetchLimit,
			candidates:    cfg.Candidates,
			rrfK:          cfg.RRFK,
		},
		reranker: &judgeReranker{
			judge:        judge,
			workers:      cfg.JudgeWorkers,
			gapThreshold: cfg.RerankGap,
			scoreFloor:   cfg.RerankScoreFloor,
			maxResults:   cfg.RerankMaxResults,
		},
		generator: generator,
		cfg:       cfg,
	}
}

// Answer runs the full retrieval pipeline: hybrid search, rank fusion, judge
// reranking with the adaptive cutoff, and finally answer generation over the
// surviving chunks. When nothing survives, the generator is skipped and the
// caller gets an empty answer with zero sources, which the API layer turns
// into a "no relevant context" reply.
func (uc *QueryUseCase) Answer(
	ctx context.Context,
	question string,
	limit int,
	filter domain.SearchFilter,
) (*domain.Answer, error) {
	fused, err := uc.retriever.retrieve(ctx, question, filter)
	if err != nil {
		return nil, err
	}
	if len(fused) == 0 {
		return emptyAnswer(), nil
	}

	reranker := *uc.reranker
	if limit > 0 && limit < reranker.maxResults {
		reranker.maxResults = limit
	}
	ranked, err := reranker.rerank(ctx, question, fused)
	if err != nil {
		return nil, err
	}
	if len(ranked) == 0 {
		return emptyAnswer(), nil
	}

	sources := make([]domain.RetrievedChunk, len(ranked))
	for i, candidate := range ranked {
		sources[i] = candidate.RetrievedChunk
	}

	answerText, err := uc.generator.GenerateAnswer(ctx, question, sources)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	return &domain.Answer{
		Text:    answerText,
		Sources: sources,
	}, nil
}

func emptyAnswer() *domain.Answer {
	return &domain.Answer{Sources: []domain.RetrievedChunk{}}
}
