package retrieval

import (
	"hash/fnv"
	"strings"

	"github.com/geochain/geochain/internal/corpus"
)

// Fingerprint computes the content fingerprint used for deduplication:
// FNV-64a over the lower-cased, whitespace-collapsed text. Two documents
// with the same fingerprint are the same passage for citation purposes,
// regardless of which query variant retrieved them.
func Fingerprint(content string) uint64 {
	h := fnv.New64a()
	// Write on fnv never fails.
	_, _ = h.Write([]byte(normalizeContent(content)))
	return h.Sum64()
}

// normalizeContent lower-cases and collapses all whitespace runs to single
// spaces so trivial formatting differences do not defeat deduplication.
func normalizeContent(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// dedupe merges per-variant selections into a single candidate list. The
// first occurrence of a fingerprint wins, in variant-processing order with
// the original query's variant first; later duplicates are discarded even
// when they scored higher. Output preserves first-seen order.
func dedupe(perVariant [][]corpus.Candidate) []corpus.Candidate {
	var merged []corpus.Candidate
	seen := make(map[uint64]struct{})

	for _, variantResults := range perVariant {
		for _, candidate := range variantResults {
			fp := Fingerprint(candidate.Document.Content)
			if _, dup := seen[fp]; dup {
				continue
			}
			seen[fp] = struct{}{}
			merged = append(merged, candidate)
		}
	}
	return merged
}
