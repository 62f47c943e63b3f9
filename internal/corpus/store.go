// Package corpus provides the document store backing retrieval: embedding
// generation plus vector similarity search over PostgreSQL + pgvector.
//
// The store exposes two search modes. Search returns a plain top-k similarity
// ranking. SearchPool returns the larger fetch-k candidate pool together with
// stored embeddings so the caller can run Maximal Marginal Relevance over it;
// backends that cannot return vectors report ErrPoolUnsupported and callers
// fall back to Search.
package corpus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/firebase/genkit/go/ai"
)

// Search query timeout; vector scans on a cold index can stall, and the
// pipeline's per-variant budget depends on searches returning promptly.
const defaultSearchTimeout = 10 * time.Second

// ErrPoolUnsupported signals that the backend cannot serve MMR-capable pool
// searches. Callers degrade to a plain top-k Search.
var ErrPoolUnsupported = errors.New("pool search unsupported by backend")

// Querier defines the database operations the store needs. The interface is
// defined here, on the consumer side, so tests can substitute a mock and the
// pgx implementation stays swappable.
type Querier interface {
	// UpsertDocument inserts or replaces a document row.
	UpsertDocument(ctx context.Context, arg UpsertDocumentParams) error

	// SearchSimilar returns the top-k rows by embedding similarity.
	SearchSimilar(ctx context.Context, arg SearchParams) ([]DocumentRow, error)

	// SearchPool returns up to fetch-k rows by embedding similarity,
	// including each row's stored embedding. Implementations without access
	// to stored vectors return ErrPoolUnsupported.
	SearchPool(ctx context.Context, arg SearchParams) ([]DocumentRow, error)

	// CountBySource counts documents grouped by (source_name, source_year).
	CountBySource(ctx context.Context) ([]SourceCount, error)

	// CountAll counts all documents.
	CountAll(ctx context.Context) (int64, error)

	// DeleteDocument removes a document by ID.
	DeleteDocument(ctx context.Context, id string) error
}

// UpsertDocumentParams carries one document plus its embedding to the backend.
type UpsertDocumentParams struct {
	Document  Document
	Embedding []float32
}

// SearchParams carries an embedded query to the backend.
type SearchParams struct {
	QueryEmbedding []float32
	Limit          int32
	Filters        map[string]string
}

// DocumentRow is one search hit as returned by the backend.
type DocumentRow struct {
	Document   Document
	Similarity float64
	Embedding  []float32 // populated by SearchPool only
}

// Store manages corpus documents with vector search. It is safe for
// concurrent use; the retrieval pipeline issues variant searches in parallel.
type Store struct {
	queries  Querier
	embedder ai.Embedder
	logger   *slog.Logger
}

// New creates a Store over the given querier and embedder.
func New(querier Querier, embedder ai.Embedder, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		queries:  querier,
		embedder: embedder,
		logger:   logger,
	}
}

// Add embeds and upserts one document. The document must pass Validate.
func (s *Store) Add(ctx context.Context, doc Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}

	embedding, err := s.embed(ctx, doc.Content)
	if err != nil {
		return fmt.Errorf("embedding document %q: %w", doc.ID, err)
	}

	if err := s.queries.UpsertDocument(ctx, UpsertDocumentParams{
		Document:  doc,
		Embedding: embedding,
	}); err != nil {
		return fmt.Errorf("upserting document %q: %w", doc.ID, err)
	}

	s.logger.Debug("added document",
		"id", doc.ID,
		"source_key", doc.SourceKey(),
		"content_length", len(doc.Content))
	return nil
}

// Search performs a plain top-k similarity search.
func (s *Store) Search(ctx context.Context, query string, opts ...SearchOption) ([]Candidate, error) {
	cfg := buildSearchConfig(opts)

	queryCtx, cancel := context.WithTimeout(ctx, defaultSearchTimeout)
	defer cancel()

	embedding, err := s.embed(queryCtx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	rows, err := s.queries.SearchSimilar(queryCtx, SearchParams{
		QueryEmbedding: embedding,
		Limit:          int32(cfg.topK), // #nosec G115 -- topK validated positive and small
		Filters:        cfg.filters,
	})
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	return rowsToCandidates(rows), nil
}

// SearchPool performs an MMR-capable pool search: up to fetch-k candidates
// ranked by raw similarity, each carrying its stored embedding. Returns
// ErrPoolUnsupported unchanged so callers can detect the degraded mode.
func (s *Store) SearchPool(ctx context.Context, query string, opts ...SearchOption) ([]Candidate, error) {
	cfg := buildSearchConfig(opts)

	queryCtx, cancel := context.WithTimeout(ctx, defaultSearchTimeout)
	defer cancel()

	embedding, err := s.embed(queryCtx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	rows, err := s.queries.SearchPool(queryCtx, SearchParams{
		QueryEmbedding: embedding,
		Limit:          int32(cfg.fetchK), // #nosec G115 -- fetchK validated positive and small
		Filters:        cfg.filters,
	})
	if err != nil {
		if errors.Is(err, ErrPoolUnsupported) {
			return nil, err
		}
		return nil, fmt.Errorf("pool search: %w", err)
	}
	return rowsToCandidates(rows), nil
}

// Status reports per-source document counts plus the total.
func (s *Store) Status(ctx context.Context) ([]SourceCount, int64, error) {
	counts, err := s.queries.CountBySource(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("counting by source: %w", err)
	}
	total, err := s.queries.CountAll(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("counting documents: %w", err)
	}
	return counts, total, nil
}

// Delete removes a document by ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.queries.DeleteDocument(ctx, id); err != nil {
		return fmt.Errorf("deleting document %q: %w", id, err)
	}
	s.logger.Debug("deleted document", "id", id)
	return nil
}

// embed generates an embedding for one text via the configured embedder.
func (s *Store) embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := s.embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{ai.DocumentFromText(text, nil)},
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("embedding timeout: %w", err)
		}
		return nil, err
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return nil, errors.New("embedder returned empty embedding")
	}
	return resp.Embeddings[0].Embedding, nil
}

// rowsToCandidates converts backend rows to candidates.
func rowsToCandidates(rows []DocumentRow) []Candidate {
	candidates := make([]Candidate, 0, len(rows))
	for _, row := range rows {
		candidates = append(candidates, Candidate{
			Document:  row.Document,
			Score:     row.Similarity,
			Embedding: row.Embedding,
		})
	}
	return candidates
}
