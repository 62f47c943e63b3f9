package corpus

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// documentRecord is the JSONL wire format produced by the ingestion tooling.
type documentRecord struct {
	ID           string   `json:"id"`
	Content      string   `json:"content"`
	SourceName   string   `json:"source_name"`
	SourceYear   string   `json:"source_year"`
	SourceType   string   `json:"source_type"`
	Topics       []string `json:"topics"`
	ContentHints []string `json:"content_hints"`
	Countries    []string `json:"countries"`
}

// LoadResult summarizes one ingestion run.
type LoadResult struct {
	Added   int
	Skipped int // invalid or malformed records, logged and skipped
}

// LoadJSONL reads newline-delimited document records and upserts them into
// the store. Malformed or invalid records are skipped with a warning; the
// load only fails outright on read errors or when every record is rejected.
//
// Raw ETL (CSV parsing, scraping, chunking) happens upstream; this boundary
// accepts only prepared records.
func (s *Store) LoadJSONL(ctx context.Context, r io.Reader, logger *slog.Logger) (LoadResult, error) {
	if logger == nil {
		logger = s.logger
	}

	var res LoadResult
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var rec documentRecord
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			logger.Warn("skipping malformed record", "line", line, "error", err)
			res.Skipped++
			continue
		}

		doc := Document{
			ID:           rec.ID,
			Content:      rec.Content,
			SourceName:   rec.SourceName,
			SourceYear:   rec.SourceYear,
			SourceType:   rec.SourceType,
			Topics:       rec.Topics,
			ContentHints: rec.ContentHints,
			Countries:    rec.Countries,
		}
		if doc.ID == "" {
			doc.ID = fmt.Sprintf("%s_%s_%d", rec.SourceName, rec.SourceYear, line)
		}

		if err := s.Add(ctx, doc); err != nil {
			if ctx.Err() != nil {
				return res, fmt.Errorf("load interrupted at line %d: %w", line, ctx.Err())
			}
			logger.Warn("skipping document", "line", line, "id", doc.ID, "error", err)
			res.Skipped++
			continue
		}
		res.Added++
	}
	if err := scanner.Err(); err != nil {
		return res, fmt.Errorf("reading records: %w", err)
	}

	if res.Added == 0 && res.Skipped > 0 {
		return res, fmt.Errorf("all %d records rejected", res.Skipped)
	}

	logger.Info("ingestion complete", "added", res.Added, "skipped", res.Skipped)
	return res, nil
}
