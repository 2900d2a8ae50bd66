package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bull/docrag/internal/collection"
)

var createDimension int

var createCmd = &cobra.Command{
	Use:   "create-collection <name>",
	Short: "Create a local vector collection",
	Long: `Creates a collection with the configured embedding dimensionality.

Creating an existing collection is a no-op; creating it with a different
dimension fails.`,
	Args: cobra.ExactArgs(1),
	RunE: runCreate,
}

func init() {
	createCmd.Flags().IntVar(&createDimension, "dimension", 0, "embedding dimension (default: from config)")
	rootCmd.AddCommand(createCmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dim := createDimension
	if dim <= 0 {
		dim = cfg.Embedding.Dimension
	}

	// Creating a collection never embeds, so no provider is needed.
	store, err := collection.NewStore(cfg.Data.Dir, nil)
	if err != nil {
		return fmt.Errorf("open collection store: %w", err)
	}
	defer store.Close()

	name := args[0]
	if err := store.Create(name, dim); err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	fmt.Printf("Collection %q ready (dimension %d)\n", name, dim)
	return nil
}
