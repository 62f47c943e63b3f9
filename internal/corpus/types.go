package corpus

import (
	"errors"
	"fmt"
	"time"
)

// Document is one passage of the ingested corpus. Documents are immutable
// once produced by ingestion; the store only reads them back for retrieval.
type Document struct {
	ID         string
	Content    string
	SourceName string // e.g. "EPR", "WorldBank", "Wikipedia"
	SourceYear string // publication year as recorded by ingestion, e.g. "2021"
	SourceType string // optional enrichment: "statistical", "encyclopedic", ...

	// Optional enrichment fields usable for filtering; not required for
	// correctness of the retrieval pipeline.
	Topics       []string
	ContentHints []string
	Countries    []string

	CreatedAt time.Time
}

// ErrInvalidDocument indicates a document is missing a required field.
var ErrInvalidDocument = errors.New("invalid document")

// SourceKey identifies the citable authority behind a document. Two
// documents sharing a SourceKey count as one provenance source.
func (d Document) SourceKey() string {
	return d.SourceName + "_" + d.SourceYear
}

// Validate checks the fields the retrieval pipeline depends on.
// sourceType, topics, contentHints and countries are optional enrichment.
func (d Document) Validate() error {
	if d.Content == "" {
		return fmt.Errorf("%w: empty content (id=%q)", ErrInvalidDocument, d.ID)
	}
	if d.SourceName == "" {
		return fmt.Errorf("%w: empty source name (id=%q)", ErrInvalidDocument, d.ID)
	}
	if d.SourceYear == "" {
		return fmt.Errorf("%w: empty source year (id=%q)", ErrInvalidDocument, d.ID)
	}
	return nil
}

// Candidate is a document returned by a similarity search together with its
// raw relevance score. Candidates are transient, scoped to one pipeline run.
type Candidate struct {
	Document Document

	// Score is the raw similarity reported by the index, higher is better.
	Score float64

	// Embedding is populated by pool searches so the caller can run MMR over
	// the pool. Nil when the search mode does not return vectors.
	Embedding []float32
}

// SourceCount reports how many documents one provenance source contributes.
type SourceCount struct {
	SourceName string
	SourceYear string
	Count      int64
}
