package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/geochain/geochain/internal/app"
	"github.com/geochain/geochain/internal/config"
	"github.com/geochain/geochain/internal/engine"
)

var askCountry string

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a one-shot question against the knowledge base",
	Long: `Retrieves relevant documents, generates a cited answer and prints it
as rendered Markdown followed by the reference list.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askCountry, "country", "", "scope the question to one country")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
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

	question := strings.Join(args, " ")

	var answer *engine.Answer
	if askCountry != "" {
		answer, err = a.Engine.QueryCountry(ctx, askCountry, question)
	} else {
		answer, err = a.Engine.Query(ctx, question)
	}
	if err != nil {
		return fmt.Errorf("answering question: %w", err)
	}

	cmd.Println(renderMarkdown(answer.Text))

	if len(answer.References) > 0 {
		cmd.Println("References:")
		for _, ref := range answer.References {
			cmd.Printf("  - %s\n", ref)
		}
	}
	for _, warning := range answer.Warnings {
		cmd.Printf("Warning: %s\n", warning)
	}

	return nil
}

// renderMarkdown converts the answer to styled terminal output. Falls back
// to the raw text when the renderer cannot be constructed.
func renderMarkdown(text string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}
