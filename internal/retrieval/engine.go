package retrieval

import (
	"context"
	"log/slog"

	"github.com/bull/docrag/internal/collection"
)

// DefaultTopK is the default number of results pulled into the context.
const DefaultTopK = 5

// Searcher is the local vector store side of retrieval.
// *collection.Store satisfies it.
type Searcher interface {
	Search(ctx context.Context, name, query string, topK int) ([]collection.SearchResult, error)
}

// Generator produces an answer from an assembled prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Engine answers questions against a collection: search, assemble context
// within the character budget, generate.
type Engine struct {
	store    Searcher
	gen      Generator
	topK     int
	maxChars int
	logger   *slog.Logger
}

func NewEngine(store Searcher, gen Generator, topK, maxChars int, logger *slog.Logger) *Engine {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if maxChars <= 0 {
		maxChars = DefaultMaxContextChars
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, gen: gen, topK: topK, maxChars: maxChars, logger: logger}
}

// Answer is the outcome of one question. NoContext means the collection had
// nothing to retrieve; GenerationErr carries a model failure after retrieval
// succeeded. Both are reportable outcomes rather than errors.
type Answer struct {
	Text          string
	Citations     []string
	NoContext     bool
	GenerationErr string
}

// Ask retrieves context for the question and generates an answer. Only
// retrieval failures are returned as errors.
func (e *Engine) Ask(ctx context.Context, collectionName, question string) (Answer, error) {
	results, err := e.store.Search(ctx, collectionName, question, e.topK)
	if err != nil {
		return Answer{}, err
	}
	if len(results) == 0 {
		return Answer{NoContext: true}, nil
	}

	assembled := BuildContext(results, e.maxChars)
	prompt := BuildPrompt(question, assembled)
	e.logger.Debug("assembled prompt",
		"collection", collectionName,
		"results", len(results),
		"included", assembled.Included,
		"prompt_chars", len(prompt),
	)

	text, err := e.gen.Generate(ctx, prompt)
	if err != nil {
		e.logger.Error("generation failed", "error", err)
		return Answer{Citations: assembled.Citations, GenerationErr: err.Error()}, nil
	}
	return Answer{Text: text, Citations: assembled.Citations}, nil
}
