package chunking

type Splitter struct {
	ChunkSize int
	Overlap   int
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Splitter{
		ChunkSize: chunkSize,
		Overlap:   overlap,
	}
}

// Split windows narrative text into chunks of at most ChunkSize runes with
// Overlap runes shared between consecutive chunks. Each window is cut at the
// best boundary available in its back half: paragraph break, then line break,
// then sentence end, then word gap, then a raw slice as last resort. Chunks
// are not trimmed, so stripping the overlap from each chunk after the first
// reconstructs the input exactly.
func (s *Splitter) Split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= s.ChunkSize {
		return []string{text}
	}

	out := make([]string, 0, len(runes)/(s.ChunkSize-s.Overlap)+1)
	start := 0
	for {
		end := start + s.ChunkSize
		if end >= len(runes) {
			out = append(out, string(runes[start:]))
			break
		}
		end = cutPoint(runes, start, end)
		out = append(out, string(runes[start:end]))

		next := end - s.Overlap
		if next <= start {
			// Degenerate boundary; move on without overlap to guarantee progress.
			next = end
		}
		start = next
	}
	return out
}

type boundaryFn func(runes []rune, i int) bool

var boundaries = []boundaryFn{
	func(r []rune, i int) bool { return i >= 2 && r[i-1] == '\n' && r[i-2] == '\n' },
	func(r []rune, i int) bool { return r[i-1] == '\n' },
	func(r []rune, i int) bool {
		return i >= 2 && r[i-1] == ' ' && (r[i-2] == '.' || r[i-2] == '!' || r[i-2] == '?')
	},
	func(r []rune, i int) bool { return r[i-1] == ' ' },
}

// cutPoint returns the cut index in (mid, limit] with the strongest boundary,
// or limit when the window holds no boundary at all.
func cutPoint(runes []rune, start, limit int) int {
	mid := start + (limit-start)/2
	for _, boundary := range boundaries {
		for i := limit; i > mid; i-- {
			if boundary(runes, i) {
				return i
			}
		}
	}
	return limit
}
