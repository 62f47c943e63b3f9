// Package retrieval implements the provenance-diverse retrieval pipeline:
// query expansion, per-variant MMR retrieval, cross-variant deduplication
// and round-robin source balancing.
//
// One Run is one pass: Expand -> Retrieve(parallel) -> Dedup -> Balance.
// Nothing in the package retains state across runs; a Pipeline is safe for
// concurrent use because every run builds its own request-scoped data.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/geochain/geochain/internal/corpus"
)

// ErrRetrievalFailed is returned when every query variant fails. Partial
// variant failure is a logged degradation, not an error; only a total
// failure is fatal for the request.
var ErrRetrievalFailed = errors.New("retrieval failed for all query variants")

// Default timeouts for variant retrieval. A variant that misses its budget
// contributes no candidates but does not fail the request.
const (
	DefaultVariantTimeout = 10 * time.Second
	DefaultOverallTimeout = 25 * time.Second
)

// Options configures one pipeline. Zero values select the defaults.
type Options struct {
	MaxVariants    int           // variant list bound, including the original query (default 3)
	FetchK         int           // candidate pool size per variant (default 100)
	TopK           int           // MMR selection size per variant (default 30)
	Lambda         float64       // MMR relevance/diversity weight (default 0.5)
	TargetTotal    int           // balanced selection size (default 15)
	VariantTimeout time.Duration // per-variant retrieval budget
	OverallTimeout time.Duration // whole-run budget; cancels pending variants
}

func (o Options) withDefaults() Options {
	if o.MaxVariants <= 0 {
		o.MaxVariants = DefaultMaxVariants
	}
	if o.FetchK <= 0 {
		o.FetchK = corpus.DefaultFetchK
	}
	if o.TopK <= 0 {
		o.TopK = corpus.DefaultTopK
	}
	if o.Lambda <= 0 || o.Lambda > 1 {
		o.Lambda = DefaultLambda
	}
	if o.TargetTotal <= 0 {
		o.TargetTotal = DefaultTargetTotal
	}
	if o.VariantTimeout <= 0 {
		o.VariantTimeout = DefaultVariantTimeout
	}
	if o.OverallTimeout <= 0 {
		o.OverallTimeout = DefaultOverallTimeout
	}
	return o
}

// Result is the outcome of one pipeline run. Candidates are in round-robin
// emission order, which is the citation order consumed downstream.
type Result struct {
	Query            string
	Variants         []string
	DegradedVariants []string // variants that timed out or errored
	Deduplicated     int      // candidate count after dedup, before balancing
	Candidates       []corpus.Candidate
}

// Pipeline wires the expander and the diversity retriever over one index.
type Pipeline struct {
	expander  *Expander
	retriever *Retriever
	opts      Options
	logger    *slog.Logger
}

// NewPipeline creates a pipeline over the given index.
func NewPipeline(index VectorIndex, opts Options, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	opts = opts.withDefaults()
	return &Pipeline{
		expander:  NewExpander(opts.MaxVariants),
		retriever: NewRetriever(index, opts.FetchK, opts.TopK, opts.Lambda, logger),
		opts:      opts,
		logger:    logger,
	}
}

// Run executes one retrieval pass for a query. Variants are retrieved
// concurrently; each task writes only its own slot, and merging happens
// after the join point, so no locking is needed beyond the barrier itself.
func (p *Pipeline) Run(ctx context.Context, query string) (*Result, error) {
	variants := p.expander.Expand(query)

	runCtx, cancel := context.WithTimeout(ctx, p.opts.OverallTimeout)
	defer cancel()

	perVariant := make([][]corpus.Candidate, len(variants))
	variantErrs := make([]error, len(variants))

	g, gctx := errgroup.WithContext(runCtx)
	for i, variant := range variants {
		g.Go(func() error {
			vctx, vcancel := context.WithTimeout(gctx, p.opts.VariantTimeout)
			defer vcancel()

			candidates, err := p.retriever.Retrieve(vctx, variant)
			if err != nil {
				// Recorded, not returned: one failed variant must not
				// cancel its siblings.
				variantErrs[i] = err
				return nil
			}
			perVariant[i] = candidates
			return nil
		})
	}
	// Tasks never return errors; Wait is purely the join barrier.
	_ = g.Wait()

	result := &Result{Query: query, Variants: variants}

	failed := 0
	for i, err := range variantErrs {
		if err == nil {
			continue
		}
		failed++
		result.DegradedVariants = append(result.DegradedVariants, variants[i])
		if errors.Is(err, context.DeadlineExceeded) {
			p.logger.Warn("variant timed out", "variant", variants[i])
		} else {
			p.logger.Warn("variant retrieval failed", "variant", variants[i], "error", err)
		}
	}
	if failed == len(variants) {
		return nil, fmt.Errorf("%w: %d variants", ErrRetrievalFailed, failed)
	}

	merged := dedupe(perVariant)
	result.Deduplicated = len(merged)
	result.Candidates = balance(merged, p.opts.TargetTotal)

	p.logger.Debug("retrieval complete",
		"query", query,
		"variants", len(variants),
		"degraded", failed,
		"deduplicated", len(merged),
		"selected", len(result.Candidates))
	return result, nil
}
