package domain

type SearchFilter struct {
	DocumentID string
}

type RetrievedChunk struct {
	DocumentID string  `json:"document_id"`
	Filename   string  `json:"filename"`
	Page       int     `json:"page"`
	ChunkIndex int     `json:"chunk_index"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
}

// RankedChunk carries the judge verdict for a retrieval candidate. Relevance
// is an integer on a 0..10 scale; failed judge calls are assigned -1 so the
// score floor excludes them.
type RankedChunk struct {
	RetrievedChunk
	Relevance int `json:"relevance"`
}

type Answer struct {
	Text    string           `json:"text"`
	Sources []RetrievedChunk `json:"sources"`
}
