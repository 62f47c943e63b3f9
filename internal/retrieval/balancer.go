package retrieval

import (
	"math"
	"sort"

	"github.com/geochain/geochain/internal/corpus"
)

// DefaultTargetTotal is the default size of the balanced selection handed to
// citation indexing.
const DefaultTargetTotal = 15

// capRule caps per-source contribution for runs with up to maxSources
// distinct sources. The table is ordered ascending and consulted first-match.
type capRule struct {
	maxSources int
	cap        int
}

// capTable is the adaptive per-source cap policy: few sources may each
// contribute more, many sources are each held to a thin slice. Declarative
// so the policy is inspectable and testable in isolation.
var capTable = []capRule{
	{maxSources: 2, cap: 8},
	{maxSources: 4, cap: 4},
	{maxSources: math.MaxInt, cap: 2},
}

// capForSourceCount returns the per-source cap for a run with s distinct
// sources.
func capForSourceCount(s int) int {
	for _, rule := range capTable {
		if s <= rule.maxSources {
			return rule.cap
		}
	}
	// Unreachable: the last rule matches every count.
	return capTable[len(capTable)-1].cap
}

// sourceGroup collects one provenance source's candidates, ordered by
// descending relevance with first-seen order breaking ties.
type sourceGroup struct {
	key        string
	candidates []corpus.Candidate
}

// balance groups deduplicated candidates by SourceKey and interleaves them
// round-robin under the adaptive per-source cap, visiting groups in
// first-encounter order. The emission order is the citation order; it is
// deliberately NOT sorted by relevance afterwards.
func balance(candidates []corpus.Candidate, target int) []corpus.Candidate {
	if target <= 0 {
		target = DefaultTargetTotal
	}
	if len(candidates) == 0 {
		return nil
	}

	groups := groupBySource(candidates)
	perSource := capForSourceCount(len(groups))

	selected := make([]corpus.Candidate, 0, target)
	taken := make([]int, len(groups))

	for len(selected) < target {
		progressed := false
		for i := range groups {
			if len(selected) >= target {
				break
			}
			if taken[i] >= perSource || taken[i] >= len(groups[i].candidates) {
				continue
			}
			selected = append(selected, groups[i].candidates[taken[i]])
			taken[i]++
			progressed = true
		}
		if !progressed {
			break // every group capped or exhausted
		}
	}
	return selected
}

// groupBySource partitions candidates into source groups in first-encounter
// order, each group internally sorted by descending relevance. The sort is
// stable, so equal scores keep their first-seen order.
func groupBySource(candidates []corpus.Candidate) []sourceGroup {
	index := make(map[string]int)
	var groups []sourceGroup

	for _, c := range candidates {
		key := c.Document.SourceKey()
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, sourceGroup{key: key})
		}
		groups[i].candidates = append(groups[i].candidates, c)
	}

	for i := range groups {
		sort.SliceStable(groups[i].candidates, func(a, b int) bool {
			return groups[i].candidates[a].Score > groups[i].candidates[b].Score
		})
	}
	return groups
}
