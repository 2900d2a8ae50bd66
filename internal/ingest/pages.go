package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/bull/docrag/internal/embedding"
	"github.com/bull/docrag/internal/remotestore"
)

// PageRenderer renders a document (typically a PDF) into one encoded image
// per page. Rendering is an external collaborator; the pipeline only sees
// bytes.
type PageRenderer interface {
	RenderPages(ctx context.Context, data []byte) ([][]byte, error)
}

// PageWriter is the multi-vector store side of page ingestion.
// *remotestore.Store satisfies it.
type PageWriter interface {
	UpsertBatch(ctx context.Context, points []remotestore.PagePoint) error
}

// ImageStore persists rendered page images. *pagestore.Store satisfies it.
type ImageStore interface {
	UploadPage(ctx context.Context, sessionID, document string, page int, data []byte) error
}

// PageFile is one uploaded document to ingest into a session.
type PageFile struct {
	Name string
	Data []byte
}

// PageResult reports the outcome for one file. Err is empty on success.
type PageResult struct {
	Filename string
	NumPages int
	Err      string
}

// PageIngestor turns documents into per-page multi-vector points plus stored
// page images, scoped to a session.
type PageIngestor struct {
	renderer  PageRenderer
	vision    embedding.VisionProvider
	writer    PageWriter
	images    ImageStore
	batchSize int
	logger    *slog.Logger
}

// NewPageIngestor wires a page ingestion pipeline. A batchSize of 0 selects
// single-page batches, which keeps peak memory on the vision model bounded.
func NewPageIngestor(
	renderer PageRenderer,
	vision embedding.VisionProvider,
	writer PageWriter,
	images ImageStore,
	batchSize int,
	logger *slog.Logger,
) *PageIngestor {
	if batchSize <= 0 {
		batchSize = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PageIngestor{
		renderer:  renderer,
		vision:    vision,
		writer:    writer,
		images:    images,
		batchSize: batchSize,
		logger:    logger,
	}
}

// IngestFiles processes each file into the given session. A failure in one
// file is recorded in its result and the remaining files continue.
func (p *PageIngestor) IngestFiles(ctx context.Context, sessionID uuid.UUID, files []PageFile) []PageResult {
	results := make([]PageResult, 0, len(files))
	for _, file := range files {
		numPages, err := p.ingestFile(ctx, sessionID, file)
		if err != nil {
			p.logger.Error("failed to process file", "filename", file.Name, "error", err)
			results = append(results, PageResult{Filename: file.Name, Err: err.Error()})
			continue
		}
		results = append(results, PageResult{Filename: file.Name, NumPages: numPages})
	}
	return results
}

// ingestFile renders pages, then per batch embeds the images and issues the
// vector-store upsert and the per-page image uploads concurrently. Both must
// complete before the batch counts as durable.
func (p *PageIngestor) ingestFile(ctx context.Context, sessionID uuid.UUID, file PageFile) (int, error) {
	pages, err := p.renderer.RenderPages(ctx, file.Data)
	if err != nil {
		return 0, fmt.Errorf("render pages: %w", err)
	}

	numPages := len(pages)
	totalBatches := (numPages + p.batchSize - 1) / p.batchSize

	for start := 0; start < numPages; start += p.batchSize {
		end := min(start+p.batchSize, numPages)
		batch := pages[start:end]

		multiVectors, err := p.vision.EmbedImages(ctx, batch)
		if err != nil {
			return 0, fmt.Errorf("embed pages %d-%d: %w", start+1, end, err)
		}

		points := make([]remotestore.PagePoint, len(batch))
		for offset := range batch {
			points[offset] = remotestore.PagePoint{
				ID:      uuid.New().String(),
				Vectors: multiVectors[offset],
				Payload: remotestore.PagePayload{
					SessionID: sessionID.String(),
					Document:  file.Name,
					Page:      start + offset + 1,
				},
			}
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			if err := p.writer.UpsertBatch(gctx, points); err != nil {
				return fmt.Errorf("upsert pages %d-%d: %w", start+1, end, err)
			}
			return nil
		})
		for offset, image := range batch {
			page := start + offset + 1
			g.Go(func() error {
				if err := p.images.UploadPage(gctx, sessionID.String(), file.Name, page, image); err != nil {
					return fmt.Errorf("upload page %d: %w", page, err)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return 0, err
		}

		p.logger.Info("processed batch",
			"batch", start/p.batchSize+1,
			"total_batches", totalBatches,
			"filename", file.Name,
		)
	}

	return numPages, nil
}
