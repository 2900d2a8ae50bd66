package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/bull/docrag/internal/embedding"
	"github.com/bull/docrag/internal/generation"
	"github.com/bull/docrag/internal/pagestore"
	"github.com/bull/docrag/internal/remotestore"
)

// PageSearcher is the remote multi-vector store side of page retrieval.
// *remotestore.Store satisfies it.
type PageSearcher interface {
	Query(ctx context.Context, queryVectors [][]float32, topK int, sessionID string) ([]remotestore.ScoredPage, error)
}

// PageFetcher resolves a retrieved page to its stored image.
// *pagestore.Store satisfies it.
type PageFetcher interface {
	DownloadPage(ctx context.Context, sessionID, document string, page int) ([]byte, error)
}

// PageHit is one retrieved page with its image loaded.
type PageHit struct {
	remotestore.ScoredPage
	Image []byte
}

// PageEngine retrieves the most relevant pages of a session: the query text
// is embedded into the multi-vector space, matched against the session's
// pages, and the winning page images are fetched concurrently.
type PageEngine struct {
	vision embedding.VisionProvider
	store  PageSearcher
	images PageFetcher
	topK   int
	logger *slog.Logger
}

func NewPageEngine(vision embedding.VisionProvider, store PageSearcher, images PageFetcher, topK int, logger *slog.Logger) *PageEngine {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PageEngine{vision: vision, store: store, images: images, topK: topK, logger: logger}
}

// Retrieve returns the session's best-matching pages in score order, each
// with its image. A hit whose image cannot be fetched fails the whole
// retrieval; the images are the retrieval result, not a decoration.
func (e *PageEngine) Retrieve(ctx context.Context, sessionID, query string) ([]PageHit, error) {
	queryVectors, err := e.vision.EmbedQueryText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	pages, err := e.store.Query(ctx, queryVectors, e.topK, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query pages: %w", err)
	}
	if len(pages) == 0 {
		return nil, nil
	}

	hits := make([]PageHit, len(pages))
	g, gctx := errgroup.WithContext(ctx)
	for i, page := range pages {
		g.Go(func() error {
			img, err := e.images.DownloadPage(gctx, page.Payload.SessionID, page.Payload.Document, page.Payload.Page)
			if err != nil {
				return fmt.Errorf("download %s page %d: %w", page.Payload.Document, page.Payload.Page, err)
			}
			hits[i] = PageHit{ScoredPage: page, Image: img}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	e.logger.Debug("retrieved pages", "session", sessionID, "hits", len(hits))
	return hits, nil
}

// PageAnswerStreamer streams a structured answer grounded on page images.
// *generation.StreamClient satisfies it.
type PageAnswerStreamer interface {
	StreamAnswerPages(ctx context.Context, prompt string, images [][]byte) (<-chan generation.StructuredAnswer, func() error)
}

// SessionEngine answers a question against one session's documents: the
// best-matching pages are retrieved with their images and handed to a
// streaming multimodal generator, partial structured answers flowing back as
// the model produces them.
type SessionEngine struct {
	pages *PageEngine
	gen   PageAnswerStreamer
}

func NewSessionEngine(pages *PageEngine, gen PageAnswerStreamer) *SessionEngine {
	return &SessionEngine{pages: pages, gen: gen}
}

// Ask retrieves the session's pages for the question and starts the streamed
// answer. With no matching pages the returned channel is nil and the hits
// empty; callers treat that as "no context". The wait function reports the
// stream's terminal error once the channel is drained.
func (e *SessionEngine) Ask(ctx context.Context, sessionID, question string) ([]PageHit, <-chan generation.StructuredAnswer, func() error, error) {
	hits, err := e.pages.Retrieve(ctx, sessionID, question)
	if err != nil {
		return nil, nil, nil, err
	}
	if len(hits) == 0 {
		return nil, nil, nil, nil
	}

	images := make([][]byte, len(hits))
	for i, hit := range hits {
		images[i] = hit.Image
	}

	stream, wait := e.gen.StreamAnswerPages(ctx, buildPagePrompt(question, hits), images)
	return hits, stream, wait, nil
}

// buildPagePrompt names the attached pages in order so the model can cite
// them in its sources list.
func buildPagePrompt(question string, hits []PageHit) string {
	var b strings.Builder
	b.WriteString("You are a concise assistant. Answer the QUESTION using ONLY the attached document pages, in order:\n")
	for i, hit := range hits {
		fmt.Fprintf(&b, "[%d] %s\n", i+1,
			pagestore.PagePath(hit.Payload.SessionID, hit.Payload.Document, hit.Payload.Page))
	}
	b.WriteString("\nQUESTION:\n")
	b.WriteString(question)
	b.WriteString("\n\nRespond as JSON with an \"answer\" string and a \"sources\" list naming the pages used. " +
		"If the answer is not supported by the pages, say 'I don't know based on the provided context.'")
	return b.String()
}
