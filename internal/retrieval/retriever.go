package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/geochain/geochain/internal/corpus"
)

// VectorIndex is the nearest-neighbor search the pipeline retrieves from.
// The interface is defined here, on the consumer side; corpus.Store is the
// production implementation. Implementations must be safe for concurrent
// calls: query variants search the index in parallel.
type VectorIndex interface {
	// SearchPool returns up to fetch-k candidates ranked by raw similarity,
	// carrying embeddings for MMR. Returns corpus.ErrPoolUnsupported when
	// the backend cannot serve this mode.
	SearchPool(ctx context.Context, query string, opts ...corpus.SearchOption) ([]corpus.Candidate, error)

	// Search returns a plain top-k similarity ranking.
	Search(ctx context.Context, query string, opts ...corpus.SearchOption) ([]corpus.Candidate, error)
}

// Retriever fetches a relevance-ranked pool for one query variant and
// selects a diverse subset via MMR. When the index cannot serve the pool
// search, or it errors, the retriever degrades to plain top-k similarity so
// the rest of the pipeline is unaffected by which mode produced the
// candidates.
type Retriever struct {
	index  VectorIndex
	fetchK int
	topK   int
	lambda float64
	logger *slog.Logger
}

// NewRetriever creates a diversity retriever. Zero values select the
// defaults: fetchK 100, topK 30, lambda 0.5.
func NewRetriever(index VectorIndex, fetchK, topK int, lambda float64, logger *slog.Logger) *Retriever {
	if fetchK <= 0 {
		fetchK = corpus.DefaultFetchK
	}
	if topK <= 0 {
		topK = corpus.DefaultTopK
	}
	if lambda <= 0 || lambda > 1 {
		lambda = DefaultLambda
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{
		index:  index,
		fetchK: fetchK,
		topK:   topK,
		lambda: lambda,
		logger: logger,
	}
}

// Retrieve returns up to topK diverse candidates for one query variant.
func (r *Retriever) Retrieve(ctx context.Context, variant string) ([]corpus.Candidate, error) {
	pool, err := r.index.SearchPool(ctx, variant,
		corpus.WithFetchK(r.fetchK), corpus.WithTopK(r.topK))
	if err != nil {
		if ctx.Err() != nil {
			// Variant budget exhausted; no point retrying in plain mode.
			return nil, fmt.Errorf("pool search: %w", err)
		}
		if errors.Is(err, corpus.ErrPoolUnsupported) {
			r.logger.Warn("mmr search mode unsupported, falling back to plain similarity",
				"variant", variant)
		} else {
			r.logger.Warn("pool search failed, falling back to plain similarity",
				"variant", variant, "error", err)
		}
		results, ferr := r.index.Search(ctx, variant, corpus.WithTopK(r.topK))
		if ferr != nil {
			return nil, fmt.Errorf("fallback similarity search: %w", ferr)
		}
		return results, nil
	}

	return selectMMR(pool, r.topK, r.lambda), nil
}
