package retrieval

import (
	"reflect"
	"testing"
)

func TestExpander_OriginalAlwaysFirst(t *testing.T) {
	e := NewExpander(3)

	variants := e.Expand("Mali political situation")
	if len(variants) == 0 {
		t.Fatal("Expand returned no variants")
	}
	if variants[0] != "Mali political situation" {
		t.Errorf("first variant = %q, want original query verbatim", variants[0])
	}
}

func TestExpander_PoliticalQueryExpandsToThree(t *testing.T) {
	e := NewExpander(3)

	variants := e.Expand("Mali political situation")
	if len(variants) != 3 {
		t.Fatalf("got %d variants, want 3: %v", len(variants), variants)
	}
	if variants[1] != "Mali ethnic situation" {
		t.Errorf("second variant = %q, want keyword substitution", variants[1])
	}
	if variants[2] != "Mali demographics situation" {
		t.Errorf("third variant = %q, want keyword substitution", variants[2])
	}
}

func TestExpander_NoKeywordMatch(t *testing.T) {
	e := NewExpander(3)

	variants := e.Expand("what is the capital of France")
	want := []string{"what is the capital of France"}
	if !reflect.DeepEqual(variants, want) {
		t.Errorf("Expand = %v, want singleton original", variants)
	}
}

func TestExpander_CaseInsensitiveMatching(t *testing.T) {
	e := NewExpander(2)

	variants := e.Expand("POLITICAL unrest in Nigeria")
	if len(variants) != 2 {
		t.Fatalf("got %d variants, want 2: %v", len(variants), variants)
	}
	if variants[1] != "ethnic unrest in Nigeria" {
		t.Errorf("variant = %q, want substitution preserving surrounding text", variants[1])
	}
}

func TestExpander_Deterministic(t *testing.T) {
	e := NewExpander(3)

	first := e.Expand("economic conflict in the Sahel")
	for range 10 {
		if got := e.Expand("economic conflict in the Sahel"); !reflect.DeepEqual(got, first) {
			t.Fatalf("Expand not deterministic: %v vs %v", got, first)
		}
	}
}

func TestExpander_MaxVariantsBound(t *testing.T) {
	tests := []struct {
		name        string
		maxVariants int
		query       string
		wantLen     int
	}{
		{"bound of one returns only original", 1, "political crisis", 1},
		{"bound of two", 2, "political crisis", 2},
		{"default bound", 0, "political crisis", 3},
		{"bound above available substitutions", 10, "political crisis", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewExpander(tt.maxVariants)
			got := e.Expand(tt.query)
			if len(got) != tt.wantLen {
				t.Errorf("got %d variants %v, want %d", len(got), got, tt.wantLen)
			}
		})
	}
}

func TestExpander_SkipsDuplicateVariants(t *testing.T) {
	table := []keywordEntry{
		{"political", []string{"political", "ethnic"}},
	}
	e := newExpanderWithTable(3, table)

	variants := e.Expand("Mali political situation")
	// Substituting "political" with itself reproduces the original and must
	// be dropped.
	if len(variants) != 2 {
		t.Fatalf("got %d variants, want 2: %v", len(variants), variants)
	}
	if variants[1] != "Mali ethnic situation" {
		t.Errorf("variant = %q, want the non-duplicate substitution", variants[1])
	}
}
