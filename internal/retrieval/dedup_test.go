package retrieval

import (
	"testing"

	"github.com/geochain/geochain/internal/corpus"
)

func TestFingerprint_NormalizesWhitespaceAndCase(t *testing.T) {
	a := Fingerprint("Mali   GDP\tgrew\n4.2 percent")
	b := Fingerprint("mali gdp grew 4.2 percent")
	if a != b {
		t.Error("fingerprints should match after whitespace/case normalization")
	}

	c := Fingerprint("mali gdp shrank 4.2 percent")
	if a == c {
		t.Error("different content should not share a fingerprint")
	}
}

func TestDedupe_FirstSeenWins(t *testing.T) {
	// The same passage retrieved by two variants: the first variant's copy
	// is kept even though the later copy scored higher.
	variant0 := []corpus.Candidate{
		candidate("a", "shared passage about Mali", 0.70),
		candidate("b", "unique passage one", 0.90),
	}
	variant1 := []corpus.Candidate{
		candidate("a2", "Shared   passage about MALI", 0.99),
		candidate("c", "unique passage two", 0.80),
	}

	merged := dedupe([][]corpus.Candidate{variant0, variant1})
	if len(merged) != 3 {
		t.Fatalf("got %d candidates, want 3", len(merged))
	}
	if merged[0].Document.ID != "a" || merged[0].Score != 0.70 {
		t.Errorf("first candidate = %s(%v), want the variant-0 copy a(0.70)",
			merged[0].Document.ID, merged[0].Score)
	}
	if merged[1].Document.ID != "b" || merged[2].Document.ID != "c" {
		t.Errorf("order = [%s %s %s], want first-seen order [a b c]",
			merged[0].Document.ID, merged[1].Document.ID, merged[2].Document.ID)
	}
}

func TestDedupe_CrossSourceIdenticalContent(t *testing.T) {
	// Boilerplate rows can fingerprint identically across sources; the
	// first-seen copy wins by variant-processing order.
	epr := candidate("epr-1", "no data available for this indicator", 0.8)
	wb := corpus.Candidate{
		Document: corpus.Document{
			ID:         "wb-1",
			Content:    "No data available for this indicator",
			SourceName: "WorldBank",
			SourceYear: "2024",
		},
		Score: 0.9,
	}

	merged := dedupe([][]corpus.Candidate{{epr}, {wb}})
	if len(merged) != 1 {
		t.Fatalf("got %d candidates, want 1", len(merged))
	}
	if merged[0].Document.SourceName != "EPR" {
		t.Errorf("kept source = %s, want EPR (first seen)", merged[0].Document.SourceName)
	}
}

func TestDedupe_EmptyInput(t *testing.T) {
	if got := dedupe(nil); got != nil {
		t.Errorf("dedupe(nil) = %v, want nil", got)
	}
	if got := dedupe([][]corpus.Candidate{nil, {}}); got != nil {
		t.Errorf("dedupe of empty variants = %v, want nil", got)
	}
}
