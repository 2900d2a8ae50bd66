package embedding

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
)

const (
	// DefaultModel is the OpenAI model used for text embeddings.
	DefaultModel = "text-embedding-3-small"

	// DefaultDimension is the vector dimension for text-embedding-3-small.
	DefaultDimension = 1536

	// DefaultBatchSize balances requests-per-minute vs tokens-per-minute
	// rate limits. OpenAI accepts up to 2048 texts per request, but smaller
	// batches reduce TPM pressure.
	DefaultBatchSize = 500
)

// OpenAI is a Provider backed by the OpenAI embeddings API. Requests are
// batched, and rate-limit errors (HTTP 429) are retried with exponential
// backoff; other API errors fail immediately.
type OpenAI struct {
	client    *openai.Client
	model     string
	dimension int
	batchSize int
}

// OpenAIOptions configures an OpenAI provider. Zero values select defaults.
type OpenAIOptions struct {
	Model     string
	Dimension int
	BatchSize int
}

// NewOpenAI creates an OpenAI embedding provider. It requires OPENAI_API_KEY
// in the environment.
func NewOpenAI(opts OpenAIOptions) (*OpenAI, error) {
	if os.Getenv("OPENAI_API_KEY") == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.Dimension <= 0 {
		opts.Dimension = DefaultDimension
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}

	// openai-go reads OPENAI_API_KEY from the environment itself.
	client := openai.NewClient()

	return &OpenAI{
		client:    &client,
		model:     opts.Model,
		dimension: opts.Dimension,
		batchSize: opts.BatchSize,
	}, nil
}

// Dimension returns the configured embedding dimensionality.
func (p *OpenAI) Dimension() int { return p.dimension }

// EmbedTexts embeds the given texts, splitting the request into batches.
func (p *OpenAI) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	var all [][]float32
	for i := 0; i < len(texts); i += p.batchSize {
		end := min(i+p.batchSize, len(texts))
		batch, err := p.embedBatchWithRetry(ctx, texts[i:end])
		if err != nil {
			return nil, fmt.Errorf("batch %d-%d: %w", i, end, err)
		}
		all = append(all, batch...)
	}
	return all, nil
}

// EmbedQuery embeds a single query string.
func (p *OpenAI) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// embedBatchWithRetry embeds one batch, retrying with exponential backoff on
// rate-limit errors only.
func (p *OpenAI) embedBatchWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	var embeddings [][]float32

	operation := func() error {
		resp, err := p.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Input: openai.EmbeddingNewParamsInputUnion{
				OfArrayOfStrings: texts,
			},
			Model: p.model,
		})
		if err != nil {
			if isRateLimitError(err) {
				return err
			}
			return backoff.Permanent(err)
		}

		embeddings = make([][]float32, len(resp.Data))
		for i, data := range resp.Data {
			if len(data.Embedding) != p.dimension {
				return backoff.Permanent(fmt.Errorf(
					"embedding %d has %d dimensions, expected %d", i, len(data.Embedding), p.dimension))
			}
			embeddings[i] = toFloat32(data.Embedding)
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	err := backoff.Retry(operation, backoff.WithContext(b, ctx))
	return embeddings, err
}

// isRateLimitError checks if the error is a rate limit error (HTTP 429).
func isRateLimitError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}

// toFloat32 converts the API's float64 embeddings to float32 for storage.
func toFloat32(f64 []float64) []float32 {
	f32 := make([]float32, len(f64))
	for i, v := range f64 {
		f32[i] = float32(v)
	}
	return f32
}
