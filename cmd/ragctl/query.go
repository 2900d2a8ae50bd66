package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bull/docrag/internal/generation"
	"github.com/bull/docrag/internal/retrieval"
)

var (
	queryTopK     int
	queryMaxChars int
)

var queryCmd = &cobra.Command{
	Use:   "query <collection> <question...>",
	Short: "Ask a question against a local collection",
	Long: `Retrieves the most similar chunks, assembles a context-bounded prompt,
and sends it to the configured generation server.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().IntVar(&queryTopK, "top-k", 0, "number of chunks to retrieve (default: from config)")
	queryCmd.Flags().IntVar(&queryMaxChars, "max-context-chars", 0, "context character budget (default: from config)")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	collectionName := args[0]
	question := strings.Join(args[1:], " ")

	topK := queryTopK
	if topK <= 0 {
		topK = cfg.Retrieval.TopK
	}
	maxChars := queryMaxChars
	if maxChars <= 0 {
		maxChars = cfg.Retrieval.MaxContextChars
	}

	store, err := openLocalStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	generator := generation.NewClient(cfg.Generation.URL, cfg.Generation.MaxNewTokens, cfg.Generation.Temperature)
	engine := retrieval.NewEngine(store, generator, topK, maxChars, nil)

	answer, err := engine.Ask(context.Background(), collectionName, question)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}

	if answer.NoContext {
		fmt.Println("No context found in collection:", collectionName)
		return nil
	}
	if answer.GenerationErr != "" {
		fmt.Println("LLM call failed:", answer.GenerationErr)
		return nil
	}

	fmt.Println("\n--- ANSWER ---")
	fmt.Println()
	fmt.Println(answer.Text)
	fmt.Println("\n--- SOURCES ---")
	fmt.Println()
	for _, line := range answer.Citations {
		fmt.Println(line)
	}
	return nil
}
