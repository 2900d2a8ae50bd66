package embedding

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultVisionDimension is the sub-vector dimension produced by the
// late-interaction vision model service.
const DefaultVisionDimension = 128

// VisionClient is a VisionProvider backed by an HTTP vision-language model
// service. The service accepts page images (or query text) and returns one
// multi-vector per input, each sub-vector of the deployment's fixed
// dimensionality.
type VisionClient struct {
	url        string
	dimension  int
	httpClient *http.Client
}

// NewVisionClient creates a client for the vision embedding service at url.
// A dimension of 0 selects DefaultVisionDimension.
func NewVisionClient(url string, dimension int) *VisionClient {
	if dimension <= 0 {
		dimension = DefaultVisionDimension
	}
	return &VisionClient{
		url:        url,
		dimension:  dimension,
		httpClient: &http.Client{Timeout: 3 * time.Minute},
	}
}

// Dimension returns the sub-vector dimensionality.
func (c *VisionClient) Dimension() int { return c.dimension }

type visionImageRequest struct {
	Images []string `json:"images"`
}

type visionImageResponse struct {
	Embeddings [][][]float32 `json:"embeddings"`
}

// EmbedImages embeds encoded page images into multi-vectors, one per image.
func (c *VisionClient) EmbedImages(ctx context.Context, images [][]byte) ([][][]float32, error) {
	encoded := make([]string, len(images))
	for i, img := range images {
		encoded[i] = base64.StdEncoding.EncodeToString(img)
	}

	var resp visionImageResponse
	if err := c.post(ctx, c.url+"/embed/images", visionImageRequest{Images: encoded}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Embeddings) != len(images) {
		return nil, fmt.Errorf("vision service returned %d embeddings for %d images",
			len(resp.Embeddings), len(images))
	}
	for i, mv := range resp.Embeddings {
		for _, v := range mv {
			if len(v) != c.dimension {
				return nil, fmt.Errorf("image %d: sub-vector has %d dimensions, expected %d",
					i, len(v), c.dimension)
			}
		}
	}
	return resp.Embeddings, nil
}

type visionQueryRequest struct {
	Query string `json:"query"`
}

type visionQueryResponse struct {
	Embedding [][]float32 `json:"embedding"`
}

// EmbedQueryText embeds a text query into the multi-vector space.
func (c *VisionClient) EmbedQueryText(ctx context.Context, text string) ([][]float32, error) {
	var resp visionQueryResponse
	if err := c.post(ctx, c.url+"/embed/query", visionQueryRequest{Query: text}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Embedding) == 0 {
		return nil, fmt.Errorf("vision service returned empty query embedding")
	}
	for _, v := range resp.Embedding {
		if len(v) != c.dimension {
			return nil, fmt.Errorf("query sub-vector has %d dimensions, expected %d",
				len(v), c.dimension)
		}
	}
	return resp.Embedding, nil
}

func (c *VisionClient) post(ctx context.Context, url string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("vision service request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("vision service returned %d: %s", resp.StatusCode, string(data))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode vision response: %w", err)
	}
	return nil
}
