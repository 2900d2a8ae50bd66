package generation

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/openai/openai-go"
)

// StructuredAnswer is the typed answer shape streamed back from the model.
// It is populated incrementally while the model emits its JSON response.
type StructuredAnswer struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

// StreamClient produces StructuredAnswer partials from the OpenAI chat API.
type StreamClient struct {
	client *openai.Client
	model  openai.ChatModel
}

// NewStreamClient wraps an OpenAI client. An empty model selects GPT-4o.
func NewStreamClient(client *openai.Client, model openai.ChatModel) *StreamClient {
	if model == "" {
		model = openai.ChatModelGPT4o
	}
	return &StreamClient{client: client, model: model}
}

// StreamAnswer starts a streaming completion and sends a partial
// StructuredAnswer for every chunk whose accumulated JSON can be completed
// into something parseable. The channel is closed when the stream ends; the
// returned function reports the terminal error, if any, once the channel is
// drained.
func (s *StreamClient) StreamAnswer(ctx context.Context, prompt string) (<-chan StructuredAnswer, func() error) {
	return s.stream(ctx, openai.UserMessage(prompt))
}

// StreamAnswerPages streams a structured answer grounded on page images. The
// prompt and the images are sent as one multimodal user message, images as
// base64 JPEG data URIs in the given order.
func (s *StreamClient) StreamAnswerPages(ctx context.Context, prompt string, images [][]byte) (<-chan StructuredAnswer, func() error) {
	parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(images)+1)
	parts = append(parts, openai.TextContentPart(prompt))
	for _, img := range images {
		parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(img),
		}))
	}
	return s.stream(ctx, openai.UserMessage(parts))
}

func (s *StreamClient) stream(ctx context.Context, message openai.ChatCompletionMessageParamUnion) (<-chan StructuredAnswer, func() error) {
	out := make(chan StructuredAnswer)
	var streamErr error

	go func() {
		defer close(out)

		stream := s.client.Chat.Completions.NewStreaming(ctx, openai.ChatCompletionNewParams{
			Messages: []openai.ChatCompletionMessageParamUnion{message},
			Model:    s.model,
			ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
				OfJSONObject: &openai.ResponseFormatJSONObjectParam{
					Type: "json_object",
				},
			},
		})
		defer stream.Close()

		acc := openai.ChatCompletionAccumulator{}
		for stream.Next() {
			chunk := stream.Current()
			acc.AddChunk(chunk)
			if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
				continue
			}

			partial, ok := parsePartialAnswer(acc.Choices[0].Message.Content)
			if !ok {
				continue
			}
			select {
			case out <- partial:
			case <-ctx.Done():
				streamErr = ctx.Err()
				return
			}
		}
		streamErr = stream.Err()
	}()

	return out, func() error { return streamErr }
}

// parsePartialAnswer completes a JSON prefix and decodes it. Mid-token
// prefixes that cannot be completed are skipped.
func parsePartialAnswer(prefix string) (StructuredAnswer, bool) {
	completed, ok := completeJSON(prefix)
	if !ok {
		return StructuredAnswer{}, false
	}
	var ans StructuredAnswer
	if err := json.Unmarshal([]byte(completed), &ans); err != nil {
		return StructuredAnswer{}, false
	}
	return ans, true
}

// completeJSON closes the open strings, objects and arrays of a JSON prefix
// so the prefix parses as a document. It reports false for prefixes cut
// inside an escape sequence or other spot that cannot be closed cleanly.
func completeJSON(prefix string) (string, bool) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return "", false
	}

	var stack []byte
	inString := false
	escaped := false
	for i := 0; i < len(prefix); i++ {
		c := prefix[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			stack = append(stack, c)
		case '}':
			if len(stack) == 0 || stack[len(stack)-1] != '{' {
				return "", false
			}
			stack = stack[:len(stack)-1]
		case ']':
			if len(stack) == 0 || stack[len(stack)-1] != '[' {
				return "", false
			}
			stack = stack[:len(stack)-1]
		}
	}
	if escaped {
		return "", false
	}

	var b strings.Builder
	b.WriteString(prefix)
	if inString {
		b.WriteByte('"')
	}

	// A dangling key or comma ("{\"a\": " or "[1,") needs a value before the
	// container can close.
	closed := strings.TrimRight(b.String(), " \t\n")
	if strings.HasSuffix(closed, ":") || strings.HasSuffix(closed, ",") {
		return "", false
	}

	for i := len(stack) - 1; i >= 0; i-- {
		switch stack[i] {
		case '{':
			b.WriteByte('}')
		case '[':
			b.WriteByte(']')
		}
	}
	return b.String(), true
}
