// Package cmd provides the geochain CLI commands.
//
// Commands:
//   - serve: HTTP API server for queries and corpus status
//   - ask: one-shot question against the knowledge base
//   - ingest: load prepared JSONL documents into the corpus
//   - status: document counts per source
//   - version: build information
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "geochain",
	Short: "Geopolitical knowledge base with cited answers",
	Long: `GeoChain answers questions about countries and governance from a
curated document corpus. Every answer carries inline citations back to
the sources it was grounded on.`,
	SilenceUsage: true,
}

// Execute runs the root command. Called from main.
func Execute() error {
	initLogger()
	return rootCmd.Execute()
}

// initLogger sets the default structured logger. DEBUG in the environment
// switches to debug level. Logs go to stderr so stdout stays clean for
// command output.
func initLogger() {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
