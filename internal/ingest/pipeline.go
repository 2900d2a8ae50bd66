// Package ingest drives documents through chunking and embedding into the
// vector stores: text documents into the local collection store, page images
// into the remote multi-vector store.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bull/docrag/internal/chunker"
	"github.com/bull/docrag/internal/collection"
)

// FailedFile records one document that could not be ingested.
type FailedFile struct {
	Path   string
	Reason string
}

// Report aggregates the outcome of an ingestion run. Failures are
// per-document; one bad file never aborts the rest of the batch.
type Report struct {
	TotalFiles    int
	IngestedFiles int
	TotalChunks   int
	Failed        []FailedFile
	Duration      time.Duration
}

// Pipeline ingests text documents into a local vector collection.
type Pipeline struct {
	store     *collection.Store
	chunkSize int
	overlap   int
	logger    *slog.Logger

	// OnDocument, when set, is invoked after each document finishes
	// (successfully or not). The CLI uses it to advance a progress bar.
	OnDocument func()
}

// NewPipeline creates an ingestion pipeline. Zero chunk parameters select
// the chunker defaults.
func NewPipeline(store *collection.Store, chunkSize, overlap int, logger *slog.Logger) *Pipeline {
	if chunkSize <= 0 {
		chunkSize = chunker.DefaultSize
	}
	if overlap < 0 {
		overlap = chunker.DefaultOverlap
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		store:     store,
		chunkSize: chunkSize,
		overlap:   overlap,
		logger:    logger,
	}
}

// Ingest processes each document: extract units, chunk, and store with one
// collection add per document. Extraction or storage failures are recorded
// per document and remaining documents continue.
func (p *Pipeline) Ingest(ctx context.Context, collectionName string, docs []Document) (*Report, error) {
	start := time.Now()
	report := &Report{TotalFiles: len(docs)}

	for _, doc := range docs {
		chunks, err := p.ingestDocument(ctx, collectionName, doc)
		if p.OnDocument != nil {
			p.OnDocument()
		}
		if err != nil {
			p.logger.Warn("failed to ingest document", "path", doc.Path(), "error", err)
			report.Failed = append(report.Failed, FailedFile{Path: doc.Path(), Reason: err.Error()})
			continue
		}
		report.IngestedFiles++
		report.TotalChunks += chunks
		p.logger.Info("ingested document", "path", doc.Path(), "chunks", chunks)
	}

	report.Duration = time.Since(start)
	return report, nil
}

// ingestDocument chunks every unit of one document and issues a single
// collection add for all of them, keeping the partial-failure window between
// metadata and index writes as small as possible.
func (p *Pipeline) ingestDocument(ctx context.Context, collectionName string, doc Document) (int, error) {
	units, err := doc.Units()
	if err != nil {
		return 0, fmt.Errorf("extract: %w", err)
	}

	var texts []string
	var metadatas []map[string]any
	flatIndex := 0 // global chunk counter for non-paged units

	for _, unit := range units {
		if unit.Page != nil && strings.TrimSpace(unit.Text) == "" {
			// Blank pages produce no chunks at all.
			continue
		}

		chunks, err := chunker.Split(unit.Text, p.chunkSize, p.overlap)
		if err != nil {
			return 0, fmt.Errorf("chunk: %w", err)
		}

		for i, text := range chunks {
			meta := map[string]any{
				"source": doc.Name(),
				"path":   doc.Path(),
			}
			if unit.Page != nil {
				meta["page"] = *unit.Page
				meta["chunk"] = i
			} else {
				meta["chunk"] = flatIndex
				flatIndex++
			}
			for k, v := range unit.Extra {
				meta[k] = v
			}
			texts = append(texts, text)
			metadatas = append(metadatas, meta)
		}
	}

	if len(texts) == 0 {
		return 0, nil
	}
	if err := p.store.Add(ctx, collectionName, texts, metadatas); err != nil {
		return 0, fmt.Errorf("store: %w", err)
	}
	return len(texts), nil
}
