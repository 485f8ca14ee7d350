package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/childcare-policy-rag/internal/core/domain"
	"github.com/kirillkom/childcare-policy-rag/internal/core/ports"
)

// hybridRetriever runs the dense and lexical searches in parallel and fuses
// the result lists. The dense leg is mandatory; a lexical failure only
// degrades the query to dense results instead of failing it.
type hybridRetriever struct {
	embedder ports.Embedder
	vectorDB ports.VectorStore

	prefetchLimit int
	candidates    int
	rrfK          int
}

func (r *hybridRetriever) retrieve(ctx context.Context, question string, filter domain.SearchFilter) ([]domain.RetrievedChunk, error) {
	var (
		dense      []domain.RetrievedChunk
		lexical    []domain.RetrievedChunk
		lexicalErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		queryVector, err := r.embedder.EmbedQuery(gctx, question)
		if err != nil {
			return fmt.Errorf("embed query: %w", err)
		}
		dense, err = r.vectorDB.SearchDense(gctx, queryVector, r.prefetchLimit, filter)
		if err != nil {
			return fmt.Errorf("dense search: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		// Errors are captured, not returned, so a lexical outage cannot
		// cancel the dense leg through the group context.
		lexical, lexicalErr = r.vectorDB.SearchLexical(gctx, question, r.prefetchLimit, filter)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if lexicalErr != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		slog.Warn("hybrid_retrieval_degraded", "error", lexicalErr)
		lexical = nil
	}

	fused := fuseCandidatesRRF(dense, lexical, r.rrfK)
	return trimCandidates(fused, r.candidates), nil
}
