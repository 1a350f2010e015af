package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pulpit/internal/adapter/gemini"
	"pulpit/internal/app"
	"pulpit/internal/config"
)

const (
	ExitSuccess       = 0
	ExitGenericError  = 1
	ExitConfigInvalid = 2
	ExitBootstrapFail = 3
	ExitNoDocuments   = 4
)

var rootCmd = &cobra.Command{
	Use:   "pulpit",
	Short: "Sermon transcript archive: ingestion, identity, and hybrid retrieval",
	Long: "pulpit ingests sermon transcripts into a searchable archive with stable " +
		"positional chunk identities, a BM25 lexical index, and a Weaviate-backed " +
		"semantic channel fused at query time.",
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(searchCmd)
}

// Execute runs the root command and returns an error; exit code is set by RunE.
func Execute() error {
	return rootCmd.Execute()
}

// exitWith prints message to stderr and exits with code.
func exitWith(code int, msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(code)
}

// setup loads config, connects every external dependency, and wires the app.
// Shared by all commands that need a live stack.
func setup(ctx context.Context) (*config.Config, *app.Dependencies, *app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	deps, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("bootstrap: %w", err)
	}

	embedder, err := gemini.NewEmbedder(ctx, cfg.GeminiAPIKey, cfg.EmbeddingModel)
	if err != nil {
		deps.DB.Close()
		return nil, nil, nil, fmt.Errorf("gemini embedder: %w", err)
	}

	a, err := app.New(cfg, deps.DB, deps.VectorStore, deps.NSQProducer, embedder)
	if err != nil {
		deps.DB.Close()
		return nil, nil, nil, fmt.Errorf("wire app: %w", err)
	}

	return cfg, deps, a, nil
}
