package main

import (
	"context"
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/bull/docrag/internal/ingest"
)

var (
	ingestChunkSize int
	ingestOverlap   int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <collection> <path>",
	Short: "Ingest documents into a local collection",
	Long: `Ingests a file or a directory of .txt/.md files.

Text files containing form feeds are treated as paginated (the pdftotext
convention); markdown files are split into header sections. A failing file
is reported and the rest of the batch continues.`,
	Args: cobra.ExactArgs(2),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().IntVar(&ingestChunkSize, "chunk-size", 0, "chunk size in characters (default: from config)")
	ingestCmd.Flags().IntVar(&ingestOverlap, "overlap", -1, "chunk overlap in characters (default: from config)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	collectionName, path := args[0], args[1]

	size := ingestChunkSize
	if size <= 0 {
		size = cfg.Chunking.Size
	}
	overlap := ingestOverlap
	if overlap < 0 {
		overlap = cfg.Chunking.Overlap
	}

	docs, err := ingest.LoadPath(path)
	if err != nil {
		return fmt.Errorf("load documents: %w", err)
	}
	if len(docs) == 0 {
		fmt.Println("No ingestable documents found")
		return nil
	}

	store, err := openLocalStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	pipeline := ingest.NewPipeline(store, size, overlap, nil)

	bar := progressbar.Default(int64(len(docs)), "ingesting")
	pipeline.OnDocument = func() { _ = bar.Add(1) }

	report, err := pipeline.Ingest(context.Background(), collectionName, docs)
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}
	_ = bar.Finish()

	fmt.Println()
	fmt.Println("Ingest complete")
	fmt.Printf("  Files: %d/%d\n", report.IngestedFiles, report.TotalFiles)
	fmt.Printf("  Chunks: %d\n", report.TotalChunks)
	fmt.Printf("  Duration: %s\n", report.Duration.Round(time.Millisecond))

	if len(report.Failed) > 0 {
		fmt.Println()
		fmt.Println("Failed files:")
		for _, failed := range report.Failed {
			fmt.Printf("  - %s: %s\n", failed.Path, failed.Reason)
		}
	}
	return nil
}
