package retrieval

import (
	"math"
	"strings"

	"github.com/geochain/geochain/internal/corpus"
)

// DefaultLambda weights relevance and diversity equally in MMR scoring.
// Lambda 1 degenerates to plain top-k by relevance, 0 to maximum diversity.
const DefaultLambda = 0.5

// selectMMR picks k candidates from the pool by Maximal Marginal Relevance:
//
//	score(c) = lambda*relevance(c) - (1-lambda)*maxSim(c, selected)
//
// Ties break by original relevance, then first-seen (pool) order, so the
// selection is fully deterministic for a given pool.
func selectMMR(pool []corpus.Candidate, k int, lambda float64) []corpus.Candidate {
	if k <= 0 || len(pool) == 0 {
		return nil
	}
	if lambda < 0 {
		lambda = 0
	}
	if lambda > 1 {
		lambda = 1
	}
	if k > len(pool) {
		k = len(pool)
	}

	selected := make([]corpus.Candidate, 0, k)
	remaining := make([]corpus.Candidate, len(pool))
	copy(remaining, pool)

	for len(selected) < k && len(remaining) > 0 {
		best := 0
		bestScore := math.Inf(-1)
		for i, c := range remaining {
			score := lambda*c.Score - (1-lambda)*maxSimilarity(c, selected)
			// Strict improvement wins; on an exact tie the higher raw
			// relevance wins, and an earlier pool position wins last.
			if score > bestScore ||
				(score == bestScore && c.Score > remaining[best].Score) {
				best = i
				bestScore = score
			}
		}
		selected = append(selected, remaining[best])
		remaining = append(remaining[:best], remaining[best+1:]...)
	}
	return selected
}

// maxSimilarity returns the highest pairwise similarity between c and any
// already-selected candidate, 0 when nothing is selected yet.
func maxSimilarity(c corpus.Candidate, selected []corpus.Candidate) float64 {
	maxSim := 0.0
	for _, s := range selected {
		if sim := candidateSimilarity(c, s); sim > maxSim {
			maxSim = sim
		}
	}
	return maxSim
}

// candidateSimilarity compares two candidates: cosine over embeddings when
// both carry vectors, token-overlap (Jaccard) over content otherwise. The
// fallback keeps MMR meaningful when a backend cannot return stored vectors.
func candidateSimilarity(a, b corpus.Candidate) float64 {
	if len(a.Embedding) > 0 && len(a.Embedding) == len(b.Embedding) {
		return cosineSimilarity(a.Embedding, b.Embedding)
	}
	return jaccardSimilarity(a.Document.Content, b.Document.Content)
}

// cosineSimilarity computes the cosine of two equal-length vectors.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// jaccardSimilarity computes token-set overlap between two texts.
func jaccardSimilarity(a, b string) float64 {
	tokensA := tokenSet(a)
	tokensB := tokenSet(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}

	intersection := 0
	for tok := range tokensA {
		if _, ok := tokensB[tok]; ok {
			intersection++
		}
	}
	union := len(tokensA) + len(tokensB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(s))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[strings.Trim(f, ".,;:!?()[]\"'")] = struct{}{}
	}
	delete(set, "")
	return set
}
