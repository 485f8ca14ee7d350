package qdrant

import (
	"hash/fnv"
	"regexp"
	"sort"
	"strings"
)

type SparseVector struct {
	Indices []uint32  `json:"indices"`
	Values  []float32 `json:"values"`
}

const defaultVocabSize = 30000

// unitPhraseRe joins "family of 5"-style phrases into one token before the
// main scan, so the size qualifier survives as a searchable unit instead of a
// bare digit.
var unitPhraseRe = regexp.MustCompile(`(?i)\b(family|household|group)\s+of\s+(\d+)\b`)

// tokenRe keeps domain values atomic: dollar amounts ("$4,106") and
// percentages ("85%") stay whole, and hyphenated identifiers ("BCY-26")
// survive as single tokens. This is what lets sparse search hit table-derived
// facts that dense embeddings smear across subwords.
var tokenRe = regexp.MustCompile(`\$\d[\d,]*(?:\.\d+)?|\d+(?:\.\d+)?%|[a-z][a-z0-9]*(?:[-_][a-z0-9]+)*|\d+(?:\.\d+)?`)

// SparseEncoder produces hashed term-frequency vectors over a fixed-size
// vocabulary. Output indices are strictly unique and sorted ascending; the
// index rejects anything else.
type SparseEncoder struct {
	vocabSize uint32
}

func NewSparseEncoder(vocabSize int) *SparseEncoder {
	if vocabSize <= 0 {
		vocabSize = defaultVocabSize
	}
	return &SparseEncoder{vocabSize: uint32(vocabSize)}
}

// Encode never fails: characters outside the token patterns are dropped and
// empty input yields an empty vector, which legitimately means "no lexical
// content".
func (e *SparseEncoder) Encode(text string) SparseVector {
	tokens := e.tokenize(text)
	if len(tokens) == 0 {
		return SparseVector{}
	}

	// Hash collisions accumulate frequency; overwriting would silently drop
	// one of the colliding terms.
	termFreq := make(map[uint32]float64, len(tokens))
	for _, token := range tokens {
		termFreq[e.hashToken(token)]++
	}

	indices := make([]uint32, 0, len(termFreq))
	for idx := range termFreq {
		indices = append(indices, idx)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })

	values := make([]float32, 0, len(indices))
	for _, idx := range indices {
		values = append(values, float32(termFreq[idx]))
	}
	return SparseVector{Indices: indices, Values: values}
}

func (e *SparseEncoder) tokenize(text string) []string {
	lowered := strings.ToLower(text)
	joined := unitPhraseRe.ReplaceAllString(lowered, "${1}_of_${2}")
	return tokenRe.FindAllString(joined, -1)
}

func (e *SparseEncoder) hashToken(token string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(token))
	return h.Sum32() % e.vocabSize
}

// IsEmpty reports whether the vector carries no lexical signal.
func (v SparseVector) IsEmpty() bool {
	return len(v.Indices) == 0
}

// validate enforces the index contract: strictly ascending unique indices and
// matching value counts.
func (v SparseVector) validate() bool {
	if len(v.Indices) != len(v.Values) {
		return false
	}
	for i := 1; i < len(v.Indices); i++ {
		if v.Indices[i-1] >= v.Indices[i] {
			return false
		}
	}
	return true
}
