package qdrant

import (
	"reflect"
	"testing"
)

func TestEncodeDeterministic(t *testing.T) {
	enc := NewSparseEncoder(0)
	text := "Families with income below 85% of the state median qualify."

	a := enc.Encode(text)
	b := enc.Encode(text)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("encoding must be deterministic")
	}
}

func TestEncodeIndicesSortedUnique(t *testing.T) {
	enc := NewSparseEncoder(0)
	v := enc.Encode("provider provider reimbursement rate rate rate eligibility")

	if !v.validate() {
		t.Fatalf("expected strictly ascending unique indices, got %v", v.Indices)
	}
	if len(v.Indices) != len(v.Values) {
		t.Fatalf("indices/values length mismatch: %d/%d", len(v.Indices), len(v.Values))
	}
}

func TestEncodeEmptyAndNoiseInput(t *testing.T) {
	enc := NewSparseEncoder(0)

	if v := enc.Encode(""); !v.IsEmpty() {
		t.Fatalf("empty input must yield empty vector, got %v", v)
	}
	if v := enc.Encode("!!! ... ---"); !v.IsEmpty() {
		t.Fatalf("punctuation-only input must yield empty vector, got %v", v)
	}
}

func TestEncodeKeepsDollarAmountAtomic(t *testing.T) {
	enc := NewSparseEncoder(0)
	v := enc.Encode("$4,106")

	if len(v.Indices) != 1 {
		t.Fatalf("dollar amount must hash as one token, got %d indices", len(v.Indices))
	}
	if v.Values[0] != 1 {
		t.Fatalf("expected frequency 1, got %f", v.Values[0])
	}
}

func TestEncodeKeepsPercentAtomic(t *testing.T) {
	enc := NewSparseEncoder(0)
	v := enc.Encode("85%")

	if len(v.Indices) != 1 {
		t.Fatalf("percentage must hash as one token, got %d indices", len(v.Indices))
	}
}

func TestEncodeKeepsHyphenatedIdentifierAtomic(t *testing.T) {
	enc := NewSparseEncoder(0)
	v := enc.Encode("BCY-26")

	if len(v.Indices) != 1 {
		t.Fatalf("hyphenated identifier must hash as one token, got %d indices", len(v.Indices))
	}
}

func TestEncodeJoinsUnitPhrases(t *testing.T) {
	enc := NewSparseEncoder(0)

	joined := enc.Encode("family of 5")
	if len(joined.Indices) != 1 {
		t.Fatalf("unit phrase must hash as one token, got %d indices", len(joined.Indices))
	}

	// The joined token must differ from the bare word so "family of 5" and
	// "family of 3" do not match the same index.
	other := enc.Encode("family of 3")
	if joined.Indices[0] == other.Indices[0] {
		t.Fatalf("different family sizes must not share a token index")
	}
}

func TestEncodeCollisionsAccumulateFrequency(t *testing.T) {
	// With a single-slot vocabulary every token collides onto index 0, so
	// the value must equal the total token count.
	enc := NewSparseEncoder(1)
	v := enc.Encode("eligibility income limit waiting list")

	if len(v.Indices) != 1 || v.Indices[0] != 0 {
		t.Fatalf("expected single collapsed index 0, got %v", v.Indices)
	}
	if v.Values[0] != 5 {
		t.Fatalf("collisions must sum frequencies, want 5 got %f", v.Values[0])
	}
}

func TestEncodeCountsRepeatedTerms(t *testing.T) {
	enc := NewSparseEncoder(0)
	v := enc.Encode("copay copay copay")

	if len(v.Values) != 1 || v.Values[0] != 3 {
		t.Fatalf("expected raw term frequency 3, got %v", v.Values)
	}
}
