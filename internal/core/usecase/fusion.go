package usecase

import (
	"fmt"
	"sort"

	"github.com/kirillkom/childcare-policy-rag/internal/core/domain"
)

type fusedCandidate struct {
	chunk     domain.RetrievedChunk
	score     float64
	denseRank int
}

const unranked = 1 << 30

// fuseCandidatesRRF merges the dense and lexical result lists with reciprocal
// rank fusion. Each list contributes 1/(k+rank) per hit, so a chunk found by
// both retrievers outranks one found by only one of them regardless of the
// raw score scales, which are not comparable across retrievers.
func fuseCandidatesRRF(dense, lexical []domain.RetrievedChunk, rrfK int) []domain.RetrievedChunk {
	if rrfK <= 0 {
		rrfK = 60
	}

	acc := make(map[string]fusedCandidate, len(dense)+len(lexical))

	for rank, chunk := range dense {
		key := retrievalChunkKey(chunk)
		candidate, ok := acc[key]
		if !ok {
			candidate = fusedCandidate{chunk: chunk, denseRank: rank}
		}
		candidate.score += 1.0 / float64(rrfK+rank+1)
		acc[key] = candidate
	}

	for rank, chunk := range lexical {
		key := retrievalChunkKey(chunk)
		candidate, ok := acc[key]
		if !ok {
			candidate = fusedCandidate{chunk: chunk, denseRank: unranked}
		}
		candidate.score += 1.0 / float64(rrfK+rank+1)
		acc[key] = candidate
	}

	out := make([]fusedCandidate, 0, len(acc))
	for _, c := range acc {
		c.chunk.Score = c.score
		out = append(out, c)
	}

	// Equal fused scores are broken by the better dense rank, then by stable
	// identity so the ordering is deterministic across runs.
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		if out[i].denseRank != out[j].denseRank {
			return out[i].denseRank < out[j].denseRank
		}
		return lessByIdentity(out[i].chunk, out[j].chunk)
	})

	chunks := make([]domain.RetrievedChunk, len(out))
	for i, c := range out {
		chunks[i] = c.chunk
	}
	return chunks
}

func trimCandidates(chunks []domain.RetrievedChunk, limit int) []domain.RetrievedChunk {
	if limit <= 0 || len(chunks) <= limit {
		return chunks
	}
	return chunks[:limit]
}

func retrievalChunkKey(chunk domain.RetrievedChunk) string {
	return fmt.Sprintf("%s:%d:%d", chunk.DocumentID, chunk.Page, chunk.ChunkIndex)
}

func lessByIdentity(a, b domain.RetrievedChunk) bool {
	if a.DocumentID != b.DocumentID {
		return a.DocumentID < b.DocumentID
	}
	if a.Page != b.Page {
		return a.Page < b.Page
	}
	return a.ChunkIndex < b.ChunkIndex
}
