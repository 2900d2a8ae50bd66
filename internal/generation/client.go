// Package generation holds the answer-producing clients: an HTTP client for
// a local text-generation server and a streaming structured client on the
// OpenAI API.
package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultMaxNewTokens caps the generated answer length.
	DefaultMaxNewTokens = 256

	// DefaultTimeout covers slow local models on CPU.
	DefaultTimeout = 180 * time.Second
)

// Client calls a local generation server over HTTP. The server contract is a
// JSON POST carrying the prompt and decode parameters, answering with either
// a "text" or a "generated_text" field.
type Client struct {
	url          string
	maxNewTokens int
	temperature  float64
	httpClient   *http.Client
}

// NewClient builds a generation client for the given endpoint URL.
func NewClient(url string, maxNewTokens int, temperature float64) *Client {
	if maxNewTokens <= 0 {
		maxNewTokens = DefaultMaxNewTokens
	}
	return &Client{
		url:          url,
		maxNewTokens: maxNewTokens,
		temperature:  temperature,
		httpClient:   &http.Client{Timeout: DefaultTimeout},
	}
}

type generateRequest struct {
	Prompt       string  `json:"prompt"`
	MaxNewTokens int     `json:"max_new_tokens"`
	Temperature  float64 `json:"temperature"`
}

type generateResponse struct {
	Text          string `json:"text"`
	GeneratedText string `json:"generated_text"`
}

// Generate sends the prompt and returns the trimmed completion. Non-2xx
// responses and malformed bodies come back as errors carrying the response
// body, since local model servers put their diagnostics there.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(generateRequest{
		Prompt:       prompt,
		MaxNewTokens: c.maxNewTokens,
		Temperature:  c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("generation request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("generation request failed: status %d, body: %s", resp.StatusCode, body)
	}

	var out generateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode response: %w, body: %s", err, body)
	}
	if out.Text != "" {
		return strings.TrimSpace(out.Text), nil
	}
	if out.GeneratedText != "" {
		return strings.TrimSpace(out.GeneratedText), nil
	}
	return "", fmt.Errorf("response has neither text nor generated_text, body: %s", body)
}
