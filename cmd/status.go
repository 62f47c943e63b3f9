package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/geochain/geochain/internal/app"
	"github.com/geochain/geochain/internal/config"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show document counts per source",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

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

	sources, total, err := a.Corpus.Status(ctx)
	if err != nil {
		return fmt.Errorf("reading corpus status: %w", err)
	}

	cmd.Printf("Total documents: %d\n", total)
	if len(sources) == 0 {
		cmd.Println("The corpus is empty. Run `geochain ingest` to load documents.")
		return nil
	}

	cmd.Println()
	cmd.Println("Documents per source:")
	for _, s := range sources {
		cmd.Printf("  %-30s %6d\n", s.SourceName+" ("+s.SourceYear+")", s.Count)
	}
	return nil
}
