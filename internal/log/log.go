// Package log provides the logging infrastructure shared by all geochain
// components.
//
// The retrieval pipeline leans on structured logging for its degradation
// paths: MMR fallbacks, timed-out query variants and dangling citations are
// reported as log events rather than errors, so every component receives a
// logger via its constructor and annotates it with component context:
//
//	logger := log.New(log.Config{Level: slog.LevelDebug})
//	pipe := retrieval.NewPipeline(index, opts, logger.With("component", "retrieval"))
//
// In tests, use NewNop to silence output or NewWithWriter to capture it.
package log

import (
	"io"
	"log/slog"
	"os"
)

// Logger is a type alias for *slog.Logger. Components accept log.Logger as a
// dependency; the alias keeps full compatibility with the slog ecosystem
// (With, WithGroup, handlers) without a custom interface.
type Logger = *slog.Logger

// Config defines logger configuration options.
type Config struct {
	// Level sets the minimum log level. Default: slog.LevelInfo
	Level slog.Level

	// JSON enables JSON format output. Default: false (text format)
	JSON bool

	// AddSource adds source file information to log entries. Default: false
	AddSource bool
}

// New creates a new logger writing to os.Stderr.
func New(cfg Config) Logger {
	return NewWithWriter(os.Stderr, cfg)
}

// NewWithWriter creates a new logger that writes to the specified writer.
// Useful for testing or custom output destinations.
func NewWithWriter(w io.Writer, cfg Config) Logger {
	opts := &slog.HandlerOptions{
		Level:     cfg.Level,
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// NewNop creates a logger that discards all output. Test use only: the
// pipeline reports retrieval degradations through logs, and discarding them
// in production would hide exactly the conditions operators need to see.
func NewNop() Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
