package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bull/docrag/internal/collection"
)

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "List local collections",
	RunE:  runCollections,
}

func init() {
	rootCmd.AddCommand(collectionsCmd)
}

func runCollections(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// Listing never embeds, so no provider is needed.
	store, err := collection.NewStore(cfg.Data.Dir, nil)
	if err != nil {
		return fmt.Errorf("open collection store: %w", err)
	}
	defer store.Close()

	names, err := store.List()
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	if len(names) == 0 {
		fmt.Println("No collections")
		return nil
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}
