// Package engine ties the retrieval pipeline to answer generation. One
// query is one pass: retrieve a balanced, provenance-diverse selection,
// hand the generator a citation-ready context bundle, then verify the
// produced answer actually cites its sources.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"golang.org/x/time/rate"

	"github.com/geochain/geochain/internal/citation"
	"github.com/geochain/geochain/internal/retrieval"
)

var (
	// ErrEmptyQuestion indicates the question was empty or whitespace.
	ErrEmptyQuestion = errors.New("question cannot be empty")

	// ErrEmptyCountry indicates a country-scoped call without a country.
	ErrEmptyCountry = errors.New("country cannot be empty")
)

// noInformationAnswer is returned without a generation call when retrieval
// produces zero candidates.
const noInformationAnswer = "No relevant information found in the knowledge base."

// Generation rate limiting defaults. The limiter spans all engine methods,
// bounding the model call rate regardless of the calling surface.
const (
	DefaultGenerateRPS   = 2.0
	DefaultGenerateBurst = 4
)

// TextGenerator produces an answer from a system instruction and a prompt.
// Defined here on the consumer side; GenkitGenerator is the production
// implementation.
type TextGenerator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// GenkitGenerator generates text through Genkit with a fixed model.
type GenkitGenerator struct {
	g         *genkit.Genkit
	modelName string // provider-qualified, e.g. "googleai/gemini-2.5-flash"
}

// NewGenkitGenerator creates a generator for the given model.
func NewGenkitGenerator(g *genkit.Genkit, modelName string) *GenkitGenerator {
	return &GenkitGenerator{g: g, modelName: modelName}
}

// Generate implements TextGenerator.
func (gg *GenkitGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	resp, err := genkit.Generate(ctx, gg.g,
		ai.WithModelName(gg.modelName),
		ai.WithSystem(system),
		ai.WithPrompt(prompt),
	)
	if err != nil {
		return "", fmt.Errorf("generating answer: %w", err)
	}
	return resp.Text(), nil
}

// Config holds the engine knobs. Zero values select the defaults.
type Config struct {
	ContextChars        int     // per-entry context budget (default 1000)
	MinDistinctSources  int     // diversity floor asked of the generator (default 3)
	WarnDistinctSources int     // post-generation verification floor (default 2)
	GenerateRPS         float64 // sustained model call rate
	GenerateBurst       int     // model call burst allowance
}

func (c Config) withDefaults() Config {
	if c.ContextChars <= 0 {
		c.ContextChars = citation.DefaultContextChars
	}
	if c.MinDistinctSources <= 0 {
		c.MinDistinctSources = citation.DefaultMinDistinctSources
	}
	if c.WarnDistinctSources <= 0 {
		c.WarnDistinctSources = citation.DefaultWarnDistinctSources
	}
	if c.GenerateRPS <= 0 {
		c.GenerateRPS = DefaultGenerateRPS
	}
	if c.GenerateBurst <= 0 {
		c.GenerateBurst = DefaultGenerateBurst
	}
	return c
}

// Answer is the verified result of one query.
type Answer struct {
	Question            string             `json:"question"`
	Text                string             `json:"text"`
	Contexts            []citation.Context `json:"contexts,omitempty"`
	CitedIDs            []int              `json:"cited_ids,omitempty"`
	References          []string           `json:"references,omitempty"`
	DistinctSourceCount int                `json:"distinct_source_count"`
	DanglingIDs         []int              `json:"dangling_ids,omitempty"`
	Warnings            []string           `json:"warnings,omitempty"`
	DegradedVariants    []string           `json:"degraded_variants,omitempty"`
}

// Engine answers questions over the document corpus.
type Engine struct {
	pipeline  *retrieval.Pipeline
	generator TextGenerator
	verifier  *citation.Verifier
	cfg       Config
	limiter   *rate.Limiter
	logger    *slog.Logger
}

// New creates an engine over a retrieval pipeline and a text generator.
func New(pipeline *retrieval.Pipeline, generator TextGenerator, cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	return &Engine{
		pipeline:  pipeline,
		generator: generator,
		verifier:  citation.NewVerifier(cfg.WarnDistinctSources, logger),
		cfg:       cfg,
		limiter:   rate.NewLimiter(rate.Limit(cfg.GenerateRPS), cfg.GenerateBurst),
		logger:    logger,
	}
}

// Query answers a free-form question: retrieve, generate, verify.
func (e *Engine) Query(ctx context.Context, question string) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	result, err := e.pipeline.Run(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("retrieving context: %w", err)
	}

	answer := &Answer{
		Question:         question,
		DegradedVariants: result.DegradedVariants,
	}

	if len(result.Candidates) == 0 {
		e.logger.Info("no candidates retrieved, skipping generation", "question", question)
		answer.Text = noInformationAnswer
		return answer, nil
	}

	idx := citation.BuildIndex(result.Candidates, e.cfg.ContextChars)
	answer.Contexts = idx.Entries()

	if err := e.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for generation slot: %w", err)
	}

	text, err := e.generator.Generate(ctx,
		buildSystemPrompt(e.cfg.MinDistinctSources),
		buildUserPrompt(idx.Bundle(), question))
	if err != nil {
		return nil, err
	}
	answer.Text = text

	verification := e.verifier.Verify(text, idx)
	answer.CitedIDs = verification.CitedIDs
	answer.References = verification.References
	answer.DistinctSourceCount = verification.DistinctSourceCount
	answer.DanglingIDs = verification.DanglingIDs
	answer.Warnings = verification.Warnings

	e.logger.Debug("query answered",
		"question", question,
		"contexts", idx.Len(),
		"cited", len(verification.CitedIDs),
		"distinct_sources", verification.DistinctSourceCount)
	return answer, nil
}

// QueryCountry answers a question scoped to one country.
func (e *Engine) QueryCountry(ctx context.Context, country, question string) (*Answer, error) {
	country = strings.TrimSpace(country)
	if country == "" {
		return nil, ErrEmptyCountry
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	return e.Query(ctx, fmt.Sprintf("Regarding %s: %s", country, question))
}

// CountrySummary produces a comprehensive summary of one country.
func (e *Engine) CountrySummary(ctx context.Context, country string) (*Answer, error) {
	country = strings.TrimSpace(country)
	if country == "" {
		return nil, ErrEmptyCountry
	}
	question := fmt.Sprintf(
		"Provide a comprehensive summary of %s, including key statistics, demographics, economy, and geography.",
		country)
	return e.Query(ctx, question)
}

// CompareCountries compares two countries on one aspect, or across all key
// metrics when aspect is empty or "all".
func (e *Engine) CompareCountries(ctx context.Context, country1, country2, aspect string) (*Answer, error) {
	country1 = strings.TrimSpace(country1)
	country2 = strings.TrimSpace(country2)
	if country1 == "" || country2 == "" {
		return nil, ErrEmptyCountry
	}

	var question string
	if aspect = strings.TrimSpace(aspect); aspect == "" || aspect == "all" {
		question = fmt.Sprintf(
			"Compare %s and %s across all key metrics including population, economy, geography, and development indicators.",
			country1, country2)
	} else {
		question = fmt.Sprintf("Compare the %s of %s and %s.", aspect, country1, country2)
	}
	return e.Query(ctx, question)
}
