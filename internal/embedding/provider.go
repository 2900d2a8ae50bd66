// Package embedding defines the embedding provider contract and its
// implementations. A provider maps text (or page images) to fixed-length
// vectors; the dimensionality is fixed per deployment and every consumer
// receives an explicit provider instance at construction time.
package embedding

import "context"

// Provider generates dense text embeddings. Implementations must return one
// vector per input text, each of exactly Dimension() length.
type Provider interface {
	// Dimension returns the fixed embedding dimensionality.
	Dimension() int

	// EmbedTexts embeds a batch of texts, preserving input order.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery embeds a single query string.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VisionProvider generates multi-vector embeddings for page images. Each
// image maps to a set of sub-vectors of Dimension() length; queries are plain
// text run through the same model so they are comparable under max-similarity
// aggregation.
type VisionProvider interface {
	Dimension() int

	// EmbedImages embeds a batch of encoded page images, one multi-vector
	// per image, preserving input order.
	EmbedImages(ctx context.Context, images [][]byte) ([][][]float32, error)

	// EmbedQueryText embeds a text query into the same multi-vector space.
	EmbedQueryText(ctx context.Context, text string) ([][]float32, error)
}
