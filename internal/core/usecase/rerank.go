package usecase

import (
	"context"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/childcare-policy-rag/internal/core/domain"
	"github.com/kirillkom/childcare-policy-rag/internal/core/ports"
)

// judgeReranker scores every fused candidate with the relevance judge and
// applies the adaptive cutoff. A failed judge call marks the candidate with
// relevance -1, which the score floor excludes, so a flaky judge shrinks the
// context instead of failing the query.
type judgeReranker struct {
	judge ports.RelevanceJudge

	workers      int
	gapThreshold int
	scoreFloor   int
	maxResults   int
}

func (r *judgeReranker) rerank(ctx context.Context, question string, candidates []domain.RetrievedChunk) ([]domain.RankedChunk, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	ranked := make([]domain.RankedChunk, len(candidates))
	for i, chunk := range candidates {
		ranked[i] = domain.RankedChunk{RetrievedChunk: chunk, Relevance: -1}
	}

	workers := r.workers
	if workers <= 0 {
		workers = 4
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range ranked {
		i := i
		g.Go(func() error {
			score, err := r.judge.Score(gctx, question, ranked[i].Text)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				slog.Warn("judge_call_failed",
					"doc_id", ranked[i].DocumentID,
					"page", ranked[i].Page,
					"chunk_index", ranked[i].ChunkIndex,
					"error", err,
				)
				return nil
			}
			ranked[i].Relevance = score
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Relevance != ranked[j].Relevance {
			return ranked[i].Relevance > ranked[j].Relevance
		}
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return lessByIdentity(ranked[i].RetrievedChunk, ranked[j].RetrievedChunk)
	})

	return r.selectAdaptive(ranked), nil
}

// selectAdaptive walks the sorted candidates and stops at the first of three
// cutoffs: the result cap, a score below the floor, or a relevance gap wider
// than the threshold. The gap cutoff trims the tail when quality drops
// sharply even though the remaining scores still clear the floor.
func (r *judgeReranker) selectAdaptive(ranked []domain.RankedChunk) []domain.RankedChunk {
	selected := make([]domain.RankedChunk, 0, r.maxResults)
	for i, candidate := range ranked {
		if r.maxResults > 0 && len(selected) >= r.maxResults {
			break
		}
		if candidate.Relevance < r.scoreFloor {
			break
		}
		if i > 0 && r.gapThreshold > 0 && ranked[i-1].Relevance-candidate.Relevance > r.gapThreshold {
			break
		}
		selected = append(selected, candidate)
	}
	return selected
}
