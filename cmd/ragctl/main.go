// Package main provides the ragctl CLI for document ingestion and
// retrieval-augmented querying.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bull/docrag/internal/collection"
	"github.com/bull/docrag/internal/config"
	"github.com/bull/docrag/internal/embedding"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "ragctl",
	Short: "Local RAG document store and query tool",
	Long:  "CLI tool for managing local vector collections, ingesting documents, and asking questions against them",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		setupLogging(cfg.Logging.Level)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "docrag.yaml", "path to the configuration file")
}

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogging(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}

func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

// openLocalStore wires the embedding provider and the collection store from
// configuration.
func openLocalStore(cfg *config.Config) (*collection.Store, error) {
	provider, err := embedding.NewOpenAI(embedding.OpenAIOptions{
		Model:     cfg.Embedding.Model,
		Dimension: cfg.Embedding.Dimension,
		BatchSize: cfg.Embedding.BatchSize,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding provider: %w", err)
	}
	store, err := collection.NewStore(cfg.Data.Dir, provider)
	if err != nil {
		return nil, fmt.Errorf("open collection store: %w", err)
	}
	return store, nil
}
