package retrieval

import (
	"strings"
)

// DefaultMaxVariants bounds the variant list: the original query plus up to
// two synthetic reformulations.
const DefaultMaxVariants = 3

// keywordEntry maps a domain keyword to the related terms substituted into
// synthetic variants. Entries are an ordered slice, not a map, so expansion
// is deterministic.
type keywordEntry struct {
	keyword string
	related []string
}

// defaultKeywordTable covers the domains the corpus is annotated with
// (content hints: economic, demographic, political, ethnic, conflict,
// military, education, health).
var defaultKeywordTable = []keywordEntry{
	{"political", []string{"ethnic", "demographics", "economy"}},
	{"economic", []string{"GDP", "trade", "demographics"}},
	{"economy", []string{"GDP", "unemployment", "trade"}},
	{"demographic", []string{"population", "ethnic", "migration"}},
	{"ethnic", []string{"political", "conflict", "demographics"}},
	{"conflict", []string{"ethnic", "military", "political"}},
	{"military", []string{"conflict", "security", "political"}},
	{"leader", []string{"government", "political", "election"}},
	{"population", []string{"demographics", "migration", "health"}},
}

// Expander turns one user query into an ordered list of query variants. The
// first variant is always the original query verbatim; synthetic variants
// substitute matched domain keywords with related terms so the parallel
// retrievals probe semantically distinct regions of the corpus.
type Expander struct {
	table       []keywordEntry
	maxVariants int
}

// NewExpander creates an expander over the default domain-keyword table.
// maxVariants <= 0 selects DefaultMaxVariants.
func NewExpander(maxVariants int) *Expander {
	return newExpanderWithTable(maxVariants, defaultKeywordTable)
}

// newExpanderWithTable creates an expander with a custom keyword table.
func newExpanderWithTable(maxVariants int, table []keywordEntry) *Expander {
	if maxVariants <= 0 {
		maxVariants = DefaultMaxVariants
	}
	return &Expander{table: table, maxVariants: maxVariants}
}

// Expand returns the variant list for a query. Matching is case-insensitive
// substring lookup against the keyword table; if nothing matches, the result
// is just the original query. Same query, same table, same output.
func (e *Expander) Expand(query string) []string {
	variants := []string{query}
	if e.maxVariants == 1 {
		return variants
	}

	seen := map[string]struct{}{normalizeVariant(query): {}}
	lower := strings.ToLower(query)

	for _, entry := range e.table {
		idx := strings.Index(lower, entry.keyword)
		if idx < 0 {
			continue
		}
		for _, term := range entry.related {
			if len(variants) >= e.maxVariants {
				return variants
			}
			// Substitute the matched keyword in place, preserving the
			// surrounding original text.
			variant := query[:idx] + term + query[idx+len(entry.keyword):]
			key := normalizeVariant(variant)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			variants = append(variants, variant)
		}
	}
	return variants
}

func normalizeVariant(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
