package citation

import (
	"strings"
	"testing"

	"github.com/geochain/geochain/internal/corpus"
)

func candidate(id, source, year, content string) corpus.Candidate {
	return corpus.Candidate{Document: corpus.Document{
		ID:         id,
		Content:    content,
		SourceName: source,
		SourceYear: year,
	}}
}

func TestBuildIndex_SequentialIDsInInputOrder(t *testing.T) {
	selection := []corpus.Candidate{
		candidate("a", "EPR", "2021", "Bambara representation in government."),
		candidate("b", "WorldBank", "2024", "GDP growth reached 4.2 percent."),
		candidate("c", "EPR", "2021", "Tuareg groups remain excluded."),
	}

	idx := BuildIndex(selection, 0)

	if idx.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", idx.Len())
	}
	for i, e := range idx.Entries() {
		if e.ID != i+1 {
			t.Errorf("entry %d has id %d, want %d", i, e.ID, i+1)
		}
		if e.Document.ID != selection[i].Document.ID {
			t.Errorf("entry %d holds document %q, want %q", i, e.Document.ID, selection[i].Document.ID)
		}
		if e.Truncated {
			t.Errorf("entry %d truncated, content is under the budget", i)
		}
	}
}

func TestBuildIndex_Resolve(t *testing.T) {
	idx := BuildIndex([]corpus.Candidate{
		candidate("a", "EPR", "2021", "some passage"),
	}, 0)

	doc, ok := idx.Resolve(1)
	if !ok || doc.ID != "a" {
		t.Errorf("Resolve(1) = %v, %v; want document a", doc.ID, ok)
	}
	if _, ok := idx.Resolve(2); ok {
		t.Error("Resolve(2) resolved on a single-entry index")
	}
	if _, ok := idx.Resolve(0); ok {
		t.Error("Resolve(0) resolved, ids start at 1")
	}
}

func TestBuildIndex_TruncatesAtWhitespace(t *testing.T) {
	// 30-character budget lands mid-word; the cut must back up to the
	// previous word boundary and append the marker.
	content := "The national assembly approved electoral reforms in the spring session."
	idx := BuildIndex([]corpus.Candidate{
		candidate("a", "EPR", "2021", content),
	}, 30)

	e := idx.Entries()[0]
	if !e.Truncated {
		t.Fatal("expected truncation for content over the budget")
	}
	if !strings.HasSuffix(e.Text, truncationMarker) {
		t.Errorf("truncated text %q lacks the marker", e.Text)
	}
	body := strings.TrimSuffix(e.Text, truncationMarker)
	if body != "The national assembly approved" {
		t.Errorf("truncated body = %q, want cut at word boundary", body)
	}
	if strings.ContainsRune(body, ' ') && strings.HasSuffix(body, " ") {
		t.Errorf("truncated body %q has trailing whitespace", body)
	}
}

func TestBuildIndex_OversizedSingleToken(t *testing.T) {
	content := strings.Repeat("x", 50)
	idx := BuildIndex([]corpus.Candidate{
		candidate("a", "EPR", "2021", content),
	}, 10)

	e := idx.Entries()[0]
	if !e.Truncated {
		t.Fatal("expected truncation")
	}
	if got := strings.TrimSuffix(e.Text, truncationMarker); len(got) != 10 {
		t.Errorf("hard cut produced %d chars, want 10", len(got))
	}
}

func TestBundle_Format(t *testing.T) {
	idx := BuildIndex([]corpus.Candidate{
		candidate("a", "EPR", "2021", "The Bambara hold senior government posts."),
		candidate("b", "WorldBank", "2024", "GDP growth reached 4.2 percent."),
	}, 0)

	bundle := idx.Bundle()
	want := "[citation 1] EPR (2021): The Bambara hold senior government posts." +
		"\n\n" +
		"[citation 2] WorldBank (2024): GDP growth reached 4.2 percent."
	if bundle != want {
		t.Errorf("Bundle() =\n%q\nwant\n%q", bundle, want)
	}
}

func TestBundle_Empty(t *testing.T) {
	idx := BuildIndex(nil, 0)
	if idx.Len() != 0 {
		t.Errorf("Len() = %d, want 0", idx.Len())
	}
	if got := idx.Bundle(); got != "" {
		t.Errorf("Bundle() = %q, want empty", got)
	}
}

func TestTruncateAtWhitespace_Unicode(t *testing.T) {
	// The limit counts runes, not bytes.
	content := "Présence ethnique dans les régions du nord malien aujourd'hui"
	got, truncated := truncateAtWhitespace(content, 20)
	if !truncated {
		t.Fatal("expected truncation")
	}
	if n := len([]rune(got)); n > 20 {
		t.Errorf("kept %d runes, budget is 20", n)
	}
	if strings.HasSuffix(got, " ") {
		t.Errorf("result %q has trailing space", got)
	}
}

func TestBuildIndex_DefaultBudget(t *testing.T) {
	long := strings.Repeat("word ", 400) // 2000 chars
	idx := BuildIndex([]corpus.Candidate{
		candidate("a", "EPR", "2021", long),
	}, 0)

	e := idx.Entries()[0]
	if !e.Truncated {
		t.Fatal("expected truncation at the default budget")
	}
	body := strings.TrimSuffix(e.Text, truncationMarker)
	if n := len([]rune(body)); n > DefaultContextChars {
		t.Errorf("kept %d runes, default budget is %d", n, DefaultContextChars)
	}
}
