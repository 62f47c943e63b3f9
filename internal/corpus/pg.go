package corpus

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
)

// PGQuerier implements Querier over PostgreSQL + pgvector.
// Similarity is cosine: 1 - (embedding <=> query).
type PGQuerier struct {
	pool *pgxpool.Pool
}

// NewPGQuerier wraps an existing connection pool. The pool must have pgvector
// types registered; use NewPool to create one.
func NewPGQuerier(pool *pgxpool.Pool) *PGQuerier {
	return &PGQuerier{pool: pool}
}

// NewPool creates a pgx pool with pgvector type support registered on every
// connection.
func NewPool(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return pool, nil
}

const documentColumns = `id, content, source_name, source_year, source_type,
	topics, content_hints, countries, created_at`

// UpsertDocument inserts or replaces a document row.
func (q *PGQuerier) UpsertDocument(ctx context.Context, arg UpsertDocumentParams) error {
	doc := arg.Document
	createdAt := doc.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := q.pool.Exec(ctx, `
		INSERT INTO documents (id, content, source_name, source_year, source_type,
			topics, content_hints, countries, embedding, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			source_name = EXCLUDED.source_name,
			source_year = EXCLUDED.source_year,
			source_type = EXCLUDED.source_type,
			topics = EXCLUDED.topics,
			content_hints = EXCLUDED.content_hints,
			countries = EXCLUDED.countries,
			embedding = EXCLUDED.embedding`,
		doc.ID, doc.Content, doc.SourceName, doc.SourceYear, doc.SourceType,
		doc.Topics, doc.ContentHints, doc.Countries,
		pgvector.NewVector(arg.Embedding), createdAt)
	if err != nil {
		return fmt.Errorf("upsert: %w", err)
	}
	return nil
}

// SearchSimilar returns the top-k rows by cosine similarity.
func (q *PGQuerier) SearchSimilar(ctx context.Context, arg SearchParams) ([]DocumentRow, error) {
	where, args := buildFilterClause(arg.Filters, 3)
	sql := fmt.Sprintf(`
		SELECT %s, 1 - (embedding <=> $1) AS similarity
		FROM documents
		%s
		ORDER BY embedding <=> $1
		LIMIT $2`, documentColumns, where)

	return q.queryRows(ctx, sql, false,
		append([]any{pgvector.NewVector(arg.QueryEmbedding), arg.Limit}, args...)...)
}

// SearchPool returns up to fetch-k rows including stored embeddings so the
// caller can run MMR over the pool.
func (q *PGQuerier) SearchPool(ctx context.Context, arg SearchParams) ([]DocumentRow, error) {
	where, args := buildFilterClause(arg.Filters, 3)
	sql := fmt.Sprintf(`
		SELECT %s, 1 - (embedding <=> $1) AS similarity, embedding
		FROM documents
		%s
		ORDER BY embedding <=> $1
		LIMIT $2`, documentColumns, where)

	return q.queryRows(ctx, sql, true,
		append([]any{pgvector.NewVector(arg.QueryEmbedding), arg.Limit}, args...)...)
}

// CountBySource counts documents grouped by provenance source.
func (q *PGQuerier) CountBySource(ctx context.Context) ([]SourceCount, error) {
	rows, err := q.pool.Query(ctx, `
		SELECT source_name, source_year, COUNT(*)
		FROM documents
		GROUP BY source_name, source_year
		ORDER BY source_name, source_year`)
	if err != nil {
		return nil, fmt.Errorf("count by source: %w", err)
	}
	defer rows.Close()

	var counts []SourceCount
	for rows.Next() {
		var sc SourceCount
		if err := rows.Scan(&sc.SourceName, &sc.SourceYear, &sc.Count); err != nil {
			return nil, fmt.Errorf("scanning source count: %w", err)
		}
		counts = append(counts, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating source counts: %w", err)
	}
	return counts, nil
}

// CountAll counts all documents.
func (q *PGQuerier) CountAll(ctx context.Context) (int64, error) {
	var count int64
	if err := q.pool.QueryRow(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count all: %w", err)
	}
	return count, nil
}

// DeleteDocument removes a document by ID.
func (q *PGQuerier) DeleteDocument(ctx context.Context, id string) error {
	if _, err := q.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return nil
}

// buildFilterClause renders the optional metadata filters as a WHERE clause.
// Filter values are always bound as parameters, never interpolated.
// firstArg is the positional index of the first filter parameter.
func buildFilterClause(filters map[string]string, firstArg int) (string, []any) {
	if len(filters) == 0 {
		return "", nil
	}

	// Fixed key order keeps generated SQL deterministic.
	var clauses []string
	var args []any
	n := firstArg
	for _, key := range []string{"source_name", "source_type", "country"} {
		value, ok := filters[key]
		if !ok {
			continue
		}
		switch key {
		case "country":
			clauses = append(clauses, fmt.Sprintf("$%d = ANY(countries)", n))
		default:
			clauses = append(clauses, fmt.Sprintf("%s = $%d", key, n))
		}
		args = append(args, value)
		n++
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

// queryRows executes a search query and scans document rows.
func (q *PGQuerier) queryRows(ctx context.Context, sql string, withEmbedding bool, args ...any) ([]DocumentRow, error) {
	rows, err := q.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var result []DocumentRow
	for rows.Next() {
		var row DocumentRow
		dest := []any{
			&row.Document.ID, &row.Document.Content,
			&row.Document.SourceName, &row.Document.SourceYear, &row.Document.SourceType,
			&row.Document.Topics, &row.Document.ContentHints, &row.Document.Countries,
			&row.Document.CreatedAt, &row.Similarity,
		}
		var vec pgvector.Vector
		if withEmbedding {
			dest = append(dest, &vec)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning document row: %w", err)
		}
		if withEmbedding {
			row.Embedding = vec.Slice()
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating document rows: %w", err)
	}
	return result, nil
}
