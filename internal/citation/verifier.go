package citation

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
)

// DefaultWarnDistinctSources is the verification floor: answers citing fewer
// distinct sources get a low-diversity warning attached, never an error.
const DefaultWarnDistinctSources = 2

// markerPattern matches the canonical inline citation marker [N], N >= 1.
var markerPattern = regexp.MustCompile(`\[([1-9][0-9]*)\]`)

// VerificationResult reports how the generated answer used its sources.
type VerificationResult struct {
	CitedIDs            []int    // resolved citation ids, first-appearance order
	CitedSourceKeys     []string // distinct SourceKeys, first-citation-appearance order
	DistinctSourceCount int
	DanglingIDs         []int    // markers that resolve to nothing; logged, not fatal
	Warnings            []string // low-diversity and similar advisories
	References          []string // "<sourceName> (<sourceYear>)" per distinct cited SourceKey
}

// ParseMarkers extracts citation markers of the form [N] from answer text,
// returning unique ids in first-appearance order. Pure function, independent
// of any generation call.
func ParseMarkers(text string) []int {
	var ids []int
	seen := make(map[int]struct{})
	for _, match := range markerPattern.FindAllStringSubmatch(text, -1) {
		id, err := strconv.Atoi(match[1])
		if err != nil {
			continue // cannot happen with the pattern, but be safe
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// Verifier checks generated answers against a citation index.
type Verifier struct {
	warnDistinct int
	logger       *slog.Logger
}

// NewVerifier creates a verifier. warnDistinct <= 0 selects the default
// floor of 2 distinct sources.
func NewVerifier(warnDistinct int, logger *slog.Logger) *Verifier {
	if warnDistinct <= 0 {
		warnDistinct = DefaultWarnDistinctSources
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Verifier{warnDistinct: warnDistinct, logger: logger}
}

// Verify scans the answer for citation markers, resolves them against the
// index, and reports diversity metrics plus the reference list. Unresolvable
// markers are logged as dangling and excluded; an answer below the distinct
// source floor gets a warning, not an error.
func (v *Verifier) Verify(answer string, idx *Index) VerificationResult {
	var res VerificationResult
	seenKeys := make(map[string]struct{})

	for _, id := range ParseMarkers(answer) {
		doc, ok := idx.Resolve(id)
		if !ok {
			v.logger.Warn("dangling citation marker", "id", id)
			res.DanglingIDs = append(res.DanglingIDs, id)
			continue
		}
		res.CitedIDs = append(res.CitedIDs, id)

		key := doc.SourceKey()
		if _, dup := seenKeys[key]; dup {
			continue
		}
		seenKeys[key] = struct{}{}
		res.CitedSourceKeys = append(res.CitedSourceKeys, key)
		res.References = append(res.References,
			fmt.Sprintf("%s (%s)", doc.SourceName, doc.SourceYear))
	}

	res.DistinctSourceCount = len(res.CitedSourceKeys)
	if res.DistinctSourceCount < v.warnDistinct {
		warning := fmt.Sprintf(
			"answer cites %d distinct source(s), below the minimum of %d",
			res.DistinctSourceCount, v.warnDistinct)
		res.Warnings = append(res.Warnings, warning)
		v.logger.Warn("low source diversity",
			"distinct_sources", res.DistinctSourceCount,
			"minimum", v.warnDistinct)
	}
	return res
}
