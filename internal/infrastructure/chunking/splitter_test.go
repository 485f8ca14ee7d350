package chunking

import (
	"strings"
	"testing"
)

func narrativeText(sentences int) string {
	var b strings.Builder
	for i := 0; i < sentences; i++ {
		b.WriteString("Families must meet income eligibility requirements before enrollment. ")
		if i%5 == 4 {
			b.WriteString("\n\n")
		}
	}
	return strings.TrimRight(b.String(), " \n")
}

func TestSplitShortTextSingleChunk(t *testing.T) {
	s := NewSplitter(1000, 200)
	text := "A short eligibility note."

	chunks := s.Split(text)
	if len(chunks) != 1 || chunks[0] != text {
		t.Fatalf("expected single verbatim chunk, got %v", chunks)
	}
}

func TestSplitRespectsChunkSizeBound(t *testing.T) {
	s := NewSplitter(1000, 200)
	chunks := s.Split(narrativeText(100))

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if n := len([]rune(chunk)); n > 1000 {
			t.Fatalf("chunk %d exceeds size bound: %d runes", i, n)
		}
	}
}

func TestSplitPrefersWordBoundaries(t *testing.T) {
	s := NewSplitter(1000, 200)
	chunks := s.Split(narrativeText(100))

	for i, chunk := range chunks[:len(chunks)-1] {
		if !strings.HasSuffix(chunk, " ") && !strings.HasSuffix(chunk, "\n") {
			t.Fatalf("chunk %d not cut at a boundary: %q", i, chunk[len(chunk)-20:])
		}
	}
}

func TestSplitOverlapReconstructsOriginal(t *testing.T) {
	s := NewSplitter(1000, 200)
	text := narrativeText(100)
	chunks := s.Split(text)

	rebuilt := chunks[0]
	for _, chunk := range chunks[1:] {
		runes := []rune(chunk)
		if len(runes) <= s.Overlap {
			t.Fatalf("chunk shorter than overlap: %d runes", len(runes))
		}
		rebuilt += string(runes[s.Overlap:])
	}
	if rebuilt != text {
		t.Fatalf("overlap-stripped concatenation does not reconstruct input:\nwant %d runes, got %d", len([]rune(text)), len([]rune(rebuilt)))
	}
}

func TestSplitEmptyInput(t *testing.T) {
	s := NewSplitter(1000, 200)
	if chunks := s.Split(""); chunks != nil {
		t.Fatalf("expected nil for empty input, got %v", chunks)
	}
}

func TestSplitFallsBackToRawSliceWithoutBoundaries(t *testing.T) {
	s := NewSplitter(100, 20)
	text := strings.Repeat("x", 350)

	chunks := s.Split(text)
	for i, chunk := range chunks {
		if n := len([]rune(chunk)); n > 100 {
			t.Fatalf("chunk %d exceeds size bound without boundaries: %d", i, n)
		}
	}
	rebuilt := chunks[0]
	for _, chunk := range chunks[1:] {
		rebuilt += chunk[s.Overlap:]
	}
	if rebuilt != text {
		t.Fatalf("raw-slice fallback must still reconstruct input")
	}
}
