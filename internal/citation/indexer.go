// Package citation assigns citation identifiers to the balanced selection,
// renders the citation-ready context bundle, and verifies after generation
// that the produced answer actually exercises source diversity.
//
// The id-to-document index is request-scoped: built fresh per run by
// BuildIndex and passed forward to the verifier, never shared between
// requests.
package citation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/geochain/geochain/internal/corpus"
)

// Defaults for context assembly. MinDistinctSources is the floor the
// generation instruction asks for, not the verification warning threshold.
const (
	DefaultContextChars       = 1000
	DefaultMinDistinctSources = 3

	// truncationMarker flags context text cut at the character budget.
	truncationMarker = "..."
)

// Context is one citable entry of the bundle handed to generation.
type Context struct {
	ID        int // sequential, starting at 1, in balanced selection order
	Document  corpus.Document
	Text      string // content bounded to the character budget
	Truncated bool
}

// Index maps citation identifiers to their documents for one request.
type Index struct {
	entries []Context
	byID    map[int]corpus.Document
}

// BuildIndex assigns citationId 1, 2, 3... in the exact order produced by
// source balancing. contextChars <= 0 selects DefaultContextChars.
func BuildIndex(candidates []corpus.Candidate, contextChars int) *Index {
	if contextChars <= 0 {
		contextChars = DefaultContextChars
	}

	idx := &Index{byID: make(map[int]corpus.Document, len(candidates))}
	for i, c := range candidates {
		text, truncated := truncateAtWhitespace(c.Document.Content, contextChars)
		if truncated {
			text += truncationMarker
		}
		entry := Context{
			ID:        i + 1,
			Document:  c.Document,
			Text:      text,
			Truncated: truncated,
		}
		idx.entries = append(idx.entries, entry)
		idx.byID[entry.ID] = c.Document
	}
	return idx
}

// Entries returns the bundle entries in citation order.
func (x *Index) Entries() []Context {
	return x.entries
}

// Len returns the number of citable entries.
func (x *Index) Len() int {
	return len(x.entries)
}

// Resolve looks up the document behind a citation identifier.
func (x *Index) Resolve(id int) (corpus.Document, bool) {
	doc, ok := x.byID[id]
	return doc, ok
}

// Bundle renders the citation-ready context block for the generation prompt,
// one entry per line group:
//
//	[citation 1] EPR (2021): The Bambara hold senior government posts...
func (x *Index) Bundle() string {
	var b strings.Builder
	for i, e := range x.entries {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[citation %d] %s (%s): %s",
			e.ID, e.Document.SourceName, e.Document.SourceYear, e.Text)
	}
	return b.String()
}

// truncateAtWhitespace bounds s to limit characters, cutting at a whitespace
// boundary so words are never split. Returns the bounded text and whether a
// cut happened.
func truncateAtWhitespace(s string, limit int) (string, bool) {
	runes := []rune(s)
	if len(runes) <= limit {
		return s, false
	}

	cut := limit
	for cut > 0 && !unicode.IsSpace(runes[cut]) {
		cut--
	}
	if cut == 0 {
		// Single token longer than the budget; hard cut is the only option.
		cut = limit
	}
	return strings.TrimRight(string(runes[:cut]), " \t\n"), true
}
