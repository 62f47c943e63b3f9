package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/geochain/geochain/internal/app"
	"github.com/geochain/geochain/internal/config"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file.jsonl]",
	Short: "Load prepared JSONL documents into the corpus",
	Long: `Reads newline-delimited document records, embeds them and upserts them
into the corpus. Re-ingesting the same file is safe: records are keyed
by document ID.

Only one ingest may run at a time; concurrent runs fail fast on the
ingest lock.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// The embedding index has a single writer. A file lock in the config
	// directory keeps a second ingest from interleaving upserts.
	configDir, err := config.Dir()
	if err != nil {
		return err
	}
	lockPath := filepath.Join(configDir, "ingest.lock")
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquiring ingest lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another ingest is already running (lock: %s)", lockPath)
	}
	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			slog.Warn("releasing ingest lock", "error", unlockErr)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.Setup(ctx, cfg, slog.Default())
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			slog.Warn("shutdown error", "error", closeErr)
		}
	}()

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening input: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only file

	res, err := a.Corpus.LoadJSONL(ctx, f, slog.Default())
	if err != nil {
		return fmt.Errorf("loading documents: %w", err)
	}

	cmd.Printf("Ingested %d documents (%d skipped)\n", res.Added, res.Skipped)
	return nil
}
