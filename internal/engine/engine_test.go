package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/geochain/geochain/internal/corpus"
	"github.com/geochain/geochain/internal/log"
	"github.com/geochain/geochain/internal/retrieval"
)

// stubIndex returns the same candidates for every query variant.
type stubIndex struct {
	candidates []corpus.Candidate
	err        error
}

func (s *stubIndex) SearchPool(ctx context.Context, query string, opts ...corpus.SearchOption) ([]corpus.Candidate, error) {
	return s.candidates, s.err
}

func (s *stubIndex) Search(ctx context.Context, query string, opts ...corpus.SearchOption) ([]corpus.Candidate, error) {
	return s.candidates, s.err
}

// mockGenerator records what it was asked and returns a canned answer.
type mockGenerator struct {
	answer     string
	err        error
	callCount  int
	lastSystem string
	lastPrompt string
}

func (m *mockGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	m.callCount++
	m.lastSystem = system
	m.lastPrompt = prompt
	if m.err != nil {
		return "", m.err
	}
	return m.answer, nil
}

func threeSourceCandidates() []corpus.Candidate {
	mk := func(id, source, year, content string) corpus.Candidate {
		return corpus.Candidate{Document: corpus.Document{
			ID: id, Content: content, SourceName: source, SourceYear: year,
		}, Score: 0.9}
	}
	return []corpus.Candidate{
		mk("e1", "EPR", "2021", "The Bambara hold senior government posts."),
		mk("g1", "GlobalLeadership", "2024", "A new administration took office in 2024."),
		mk("w1", "WorldBank", "2024", "GDP growth reached 4.2 percent."),
	}
}

func newTestEngine(index retrieval.VectorIndex, gen TextGenerator) *Engine {
	pipe := retrieval.NewPipeline(index, retrieval.Options{}, log.NewNop())
	return New(pipe, gen, Config{GenerateRPS: 1000, GenerateBurst: 1000}, log.NewNop())
}

func TestQuery_AnswersWithCitations(t *testing.T) {
	gen := &mockGenerator{
		answer: "Representation is broad [1] under the new administration [2], and the economy grows [3].",
	}
	e := newTestEngine(&stubIndex{candidates: threeSourceCandidates()}, gen)

	answer, err := e.Query(context.Background(), "Mali political situation")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}

	if gen.callCount != 1 {
		t.Fatalf("generator called %d times, want 1", gen.callCount)
	}
	if !strings.Contains(gen.lastPrompt, "[citation 1]") {
		t.Error("prompt lacks the citation bundle")
	}
	if !strings.Contains(gen.lastPrompt, "Mali political situation") {
		t.Error("prompt lacks the question")
	}
	if !strings.Contains(gen.lastSystem, "[N]") {
		t.Error("system prompt lacks the marker format instruction")
	}

	if want := []int{1, 2, 3}; len(answer.CitedIDs) != 3 ||
		answer.CitedIDs[0] != want[0] || answer.CitedIDs[2] != want[2] {
		t.Errorf("CitedIDs = %v, want %v", answer.CitedIDs, want)
	}
	if answer.DistinctSourceCount != 3 {
		t.Errorf("DistinctSourceCount = %d, want 3", answer.DistinctSourceCount)
	}
	if len(answer.Warnings) != 0 {
		t.Errorf("Warnings = %v, want none", answer.Warnings)
	}
	if len(answer.Contexts) != 3 {
		t.Errorf("Contexts = %d entries, want 3", len(answer.Contexts))
	}
}

func TestQuery_EmptyQuestion(t *testing.T) {
	e := newTestEngine(&stubIndex{}, &mockGenerator{})
	if _, err := e.Query(context.Background(), "   "); !errors.Is(err, ErrEmptyQuestion) {
		t.Errorf("got %v, want ErrEmptyQuestion", err)
	}
}

func TestQuery_NoCandidatesSkipsGeneration(t *testing.T) {
	gen := &mockGenerator{answer: "should not be used"}
	e := newTestEngine(&stubIndex{candidates: nil}, gen)

	answer, err := e.Query(context.Background(), "obscure question")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if gen.callCount != 0 {
		t.Errorf("generator called %d times on empty retrieval, want 0", gen.callCount)
	}
	if answer.Text != noInformationAnswer {
		t.Errorf("Text = %q, want the no-information answer", answer.Text)
	}
}

func TestQuery_RetrievalFailure(t *testing.T) {
	e := newTestEngine(&stubIndex{err: errors.New("index down")}, &mockGenerator{})
	_, err := e.Query(context.Background(), "Mali political situation")
	if !errors.Is(err, retrieval.ErrRetrievalFailed) {
		t.Errorf("got %v, want ErrRetrievalFailed", err)
	}
}

func TestQuery_GeneratorFailure(t *testing.T) {
	boom := errors.New("model unavailable")
	e := newTestEngine(&stubIndex{candidates: threeSourceCandidates()}, &mockGenerator{err: boom})

	if _, err := e.Query(context.Background(), "Mali political situation"); !errors.Is(err, boom) {
		t.Errorf("got %v, want the generator error", err)
	}
}

func TestQuery_DanglingMarkerReported(t *testing.T) {
	gen := &mockGenerator{answer: "One claim [1], another from nowhere [9]."}
	e := newTestEngine(&stubIndex{candidates: threeSourceCandidates()}, gen)

	answer, err := e.Query(context.Background(), "Mali political situation")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(answer.DanglingIDs) != 1 || answer.DanglingIDs[0] != 9 {
		t.Errorf("DanglingIDs = %v, want [9]", answer.DanglingIDs)
	}
	if len(answer.Warnings) != 1 {
		t.Errorf("Warnings = %v, want the low-diversity warning", answer.Warnings)
	}
}

func TestQueryCountry_ComposesQuestion(t *testing.T) {
	gen := &mockGenerator{answer: "answer [1]"}
	e := newTestEngine(&stubIndex{candidates: threeSourceCandidates()}, gen)

	answer, err := e.QueryCountry(context.Background(), "Mali", "What is the ethnic composition?")
	if err != nil {
		t.Fatalf("QueryCountry failed: %v", err)
	}
	if want := "Regarding Mali: What is the ethnic composition?"; answer.Question != want {
		t.Errorf("Question = %q, want %q", answer.Question, want)
	}
}

func TestQueryCountry_Validation(t *testing.T) {
	e := newTestEngine(&stubIndex{}, &mockGenerator{})

	if _, err := e.QueryCountry(context.Background(), "", "question"); !errors.Is(err, ErrEmptyCountry) {
		t.Errorf("got %v, want ErrEmptyCountry", err)
	}
	if _, err := e.QueryCountry(context.Background(), "Mali", ""); !errors.Is(err, ErrEmptyQuestion) {
		t.Errorf("got %v, want ErrEmptyQuestion", err)
	}
}

func TestCountrySummary(t *testing.T) {
	gen := &mockGenerator{answer: "summary [1]"}
	e := newTestEngine(&stubIndex{candidates: threeSourceCandidates()}, gen)

	answer, err := e.CountrySummary(context.Background(), "Mali")
	if err != nil {
		t.Fatalf("CountrySummary failed: %v", err)
	}
	if !strings.Contains(answer.Question, "comprehensive summary of Mali") {
		t.Errorf("Question = %q, want a summary question", answer.Question)
	}

	if _, err := e.CountrySummary(context.Background(), " "); !errors.Is(err, ErrEmptyCountry) {
		t.Errorf("got %v, want ErrEmptyCountry", err)
	}
}

func TestCompareCountries(t *testing.T) {
	tests := []struct {
		name   string
		aspect string
		want   string
	}{
		{"all metrics", "all", "Compare Mali and Niger across all key metrics"},
		{"empty aspect", "", "Compare Mali and Niger across all key metrics"},
		{"specific aspect", "economy", "Compare the economy of Mali and Niger."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &mockGenerator{answer: "comparison [1]"}
			e := newTestEngine(&stubIndex{candidates: threeSourceCandidates()}, gen)

			answer, err := e.CompareCountries(context.Background(), "Mali", "Niger", tt.aspect)
			if err != nil {
				t.Fatalf("CompareCountries failed: %v", err)
			}
			if !strings.Contains(answer.Question, tt.want) {
				t.Errorf("Question = %q, want substring %q", answer.Question, tt.want)
			}
		})
	}
}

func TestCompareCountries_Validation(t *testing.T) {
	e := newTestEngine(&stubIndex{}, &mockGenerator{})
	for _, pair := range [][2]string{{"", "Niger"}, {"Mali", ""}} {
		if _, err := e.CompareCountries(context.Background(), pair[0], pair[1], "all"); !errors.Is(err, ErrEmptyCountry) {
			t.Errorf("CompareCountries(%q, %q) = %v, want ErrEmptyCountry", pair[0], pair[1], err)
		}
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	if cfg.ContextChars != 1000 || cfg.MinDistinctSources != 3 || cfg.WarnDistinctSources != 2 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.GenerateRPS != DefaultGenerateRPS || cfg.GenerateBurst != DefaultGenerateBurst {
		t.Errorf("unexpected limiter defaults: %+v", cfg)
	}
}

func TestBuildUserPrompt(t *testing.T) {
	prompt := buildUserPrompt("[citation 1] EPR (2021): text", "What changed?")
	if !strings.HasPrefix(prompt, "Context:") {
		t.Errorf("prompt = %q, want Context prefix", prompt)
	}
	if !strings.Contains(prompt, "Question: What changed?") {
		t.Errorf("prompt lacks the question: %q", prompt)
	}
}

func TestBuildSystemPrompt_IncludesFloor(t *testing.T) {
	got := buildSystemPrompt(3)
	if !strings.Contains(got, "at least 3 distinct sources") {
		t.Errorf("system prompt lacks the diversity floor: %q", got)
	}
}
