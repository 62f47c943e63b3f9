package retrieval

import (
	"math"
	"testing"

	"github.com/geochain/geochain/internal/corpus"
)

func candidate(id, content string, score float64, embedding ...float32) corpus.Candidate {
	return corpus.Candidate{
		Document: corpus.Document{
			ID:         id,
			Content:    content,
			SourceName: "EPR",
			SourceYear: "2021",
		},
		Score:     score,
		Embedding: embedding,
	}
}

func TestSelectMMR_EmptyPool(t *testing.T) {
	if got := selectMMR(nil, 5, 0.5); got != nil {
		t.Errorf("selectMMR(nil) = %v, want nil", got)
	}
}

func TestSelectMMR_KLargerThanPool(t *testing.T) {
	pool := []corpus.Candidate{
		candidate("a", "alpha", 0.9),
		candidate("b", "beta", 0.8),
	}
	got := selectMMR(pool, 10, 0.5)
	if len(got) != 2 {
		t.Errorf("got %d selections, want 2", len(got))
	}
}

func TestSelectMMR_LambdaOneIsPlainTopK(t *testing.T) {
	pool := []corpus.Candidate{
		candidate("a", "first", 0.9),
		candidate("b", "second", 0.7),
		candidate("c", "third", 0.8),
	}
	got := selectMMR(pool, 2, 1.0)
	if got[0].Document.ID != "a" || got[1].Document.ID != "c" {
		t.Errorf("lambda=1 selection = [%s %s], want [a c] (pure relevance)",
			got[0].Document.ID, got[1].Document.ID)
	}
}

// Two near-identical candidates and one dissimilar candidate of slightly
// lower raw relevance: the dissimilar one must be picked second, because
// maxSim penalizes the duplicate on the second pick.
func TestSelectMMR_PenalizesNearDuplicates(t *testing.T) {
	pool := []corpus.Candidate{
		candidate("dup1", "mali gdp", 0.95, 1, 0, 0),
		candidate("dup2", "mali gdp", 0.94, 0.999, 0.01, 0),
		candidate("other", "ethnic power relations", 0.90, 0, 1, 0),
	}

	got := selectMMR(pool, 3, 0.5)
	if len(got) != 3 {
		t.Fatalf("got %d selections, want 3", len(got))
	}
	if got[0].Document.ID != "dup1" {
		t.Errorf("first pick = %s, want dup1 (highest relevance)", got[0].Document.ID)
	}
	if got[1].Document.ID != "other" {
		t.Errorf("second pick = %s, want other (duplicate penalized)", got[1].Document.ID)
	}
	if got[2].Document.ID != "dup2" {
		t.Errorf("third pick = %s, want dup2", got[2].Document.ID)
	}
}

// Without embeddings the selection falls back to token-overlap similarity
// and must still push the near-duplicate behind the dissimilar candidate.
func TestSelectMMR_ContentSimilarityFallback(t *testing.T) {
	pool := []corpus.Candidate{
		candidate("dup1", "Mali GDP grew 4.2 percent in 2024", 0.95),
		candidate("dup2", "Mali GDP grew 4.2 percent in 2024", 0.94),
		candidate("other", "The Tuareg are politically excluded in the north", 0.90),
	}

	got := selectMMR(pool, 2, 0.5)
	if got[0].Document.ID != "dup1" || got[1].Document.ID != "other" {
		t.Errorf("selection = [%s %s], want [dup1 other]",
			got[0].Document.ID, got[1].Document.ID)
	}
}

func TestSelectMMR_TieBreakByRelevanceThenOrder(t *testing.T) {
	// Orthogonal embeddings: maxSim is 0 for everyone, so MMR score is
	// lambda*relevance and ties reduce to relevance then pool order.
	pool := []corpus.Candidate{
		candidate("a", "one", 0.8, 1, 0, 0, 0),
		candidate("b", "two", 0.9, 0, 1, 0, 0),
		candidate("c", "three", 0.9, 0, 0, 1, 0),
	}
	got := selectMMR(pool, 3, 0.5)
	if got[0].Document.ID != "b" || got[1].Document.ID != "c" || got[2].Document.ID != "a" {
		t.Errorf("selection order = [%s %s %s], want [b c a]",
			got[0].Document.ID, got[1].Document.ID, got[2].Document.ID)
	}
}

func TestSelectMMR_Deterministic(t *testing.T) {
	pool := []corpus.Candidate{
		candidate("a", "mali economy trade", 0.9),
		candidate("b", "mali economy exports", 0.9),
		candidate("c", "nigerian ethnic groups", 0.85),
		candidate("d", "sahel conflict zones", 0.85),
	}

	first := selectMMR(pool, 3, 0.5)
	for range 20 {
		got := selectMMR(pool, 3, 0.5)
		for i := range got {
			if got[i].Document.ID != first[i].Document.ID {
				t.Fatalf("selection not deterministic at position %d", i)
			}
		}
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("cosineSimilarity = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestJaccardSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "mali gdp growth", "mali gdp growth", 1},
		{"disjoint", "alpha beta", "gamma delta", 0},
		{"case and punctuation insensitive", "Mali, GDP.", "mali gdp", 1},
		{"empty", "", "mali", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := jaccardSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("jaccardSimilarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
