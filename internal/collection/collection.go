// Package collection implements the local vector collection: a named pairing
// of a flat similarity index with a durable metadata table keyed by the same
// int64 ids. A Store manages all collections under one data directory, one
// metadata file and one index file per collection.
package collection

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/bull/docrag/internal/embedding"
	"github.com/bull/docrag/internal/vectorindex"
)

// SearchResult is one search hit with its resolved record. Score is the raw
// inner product over unit-normalized vectors.
type SearchResult struct {
	ID       int64
	Score    float32
	Text     string
	Metadata map[string]any
}

// nameRe rejects anything that could escape the data directory. Collection
// names map directly to file names.
var nameRe = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// Store manages local vector collections under a single data directory.
//
// Adds against one collection are serialized (add-then-persist is a
// read-modify-write over the index file) while searches run in parallel and
// may race with an in-flight add; a search started before an add completes
// may or may not see the new vectors.
type Store struct {
	dir      string
	provider embedding.Provider

	mu      sync.Mutex // guards handles
	handles map[string]*handle
}

// handle is one open collection: its metadata table, its in-memory index,
// and the lock serializing writers.
type handle struct {
	mu    sync.RWMutex
	meta  *metadataStore
	index *vectorindex.Flat
}

// NewStore opens (creating if needed) a collection store rooted at dir.
// The provider supplies embeddings for Add and Search and fixes the
// dimensionality of new collections.
func NewStore(dir string, provider embedding.Provider) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{
		dir:      dir,
		provider: provider,
		handles:  make(map[string]*handle),
	}, nil
}

func (s *Store) metaPath(name string) string  { return filepath.Join(s.dir, name+".db") }
func (s *Store) indexPath(name string) string { return filepath.Join(s.dir, name+".index") }

// Create ensures the collection exists with the given dimensionality.
// It is idempotent; calling it for an existing collection with a different
// dim fails with ErrDimensionMismatch.
func (s *Store) Create(name string, dim int) error {
	if !nameRe.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if dim <= 0 {
		return fmt.Errorf("invalid dimension %d", dim)
	}
	h, err := s.open(name, true, dim)
	if err != nil {
		return err
	}
	if got := h.index.Dimension(); got != dim {
		return fmt.Errorf("%w: collection %q has dimension %d, requested %d",
			ErrDimensionMismatch, name, got, dim)
	}
	return nil
}

// Add embeds texts, inserts one record per text, and adds the normalized
// vectors to the index under the assigned ids. Metadata rows are committed
// before the index file is rewritten, so a crash between the two leaves
// records without vectors (never vectors without records).
func (s *Store) Add(ctx context.Context, name string, texts []string, metadatas []map[string]any) error {
	if len(texts) == 0 {
		return nil
	}
	if metadatas == nil {
		metadatas = make([]map[string]any, len(texts))
		for i := range metadatas {
			metadatas[i] = map[string]any{}
		}
	}
	if len(metadatas) != len(texts) {
		return fmt.Errorf("texts/metadatas length mismatch: %d != %d", len(texts), len(metadatas))
	}

	h, err := s.open(name, false, 0)
	if err != nil {
		return err
	}

	// Embed before taking the write lock or touching storage; an embedding
	// failure must not leave partial state behind.
	vectors, err := s.provider.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed texts: %w", err)
	}
	if len(vectors) != len(texts) {
		return fmt.Errorf("provider returned %d vectors for %d texts", len(vectors), len(texts))
	}
	for _, v := range vectors {
		vectorindex.Normalize(v)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if dim := h.index.Dimension(); dim != s.provider.Dimension() {
		return fmt.Errorf("%w: collection %q has dimension %d, provider produces %d",
			ErrDimensionMismatch, name, dim, s.provider.Dimension())
	}

	ids, err := h.meta.insert(texts, metadatas)
	if err != nil {
		return err
	}
	if err := h.index.AddWithIDs(ids, vectors); err != nil {
		return fmt.Errorf("add vectors: %w", err)
	}
	if err := h.index.Save(s.indexPath(name)); err != nil {
		return fmt.Errorf("persist index: %w", err)
	}
	return nil
}

// Search embeds the query and returns up to topK results in descending score
// order. Sentinel ids from an underfilled index are dropped, and a hit whose
// record has gone missing is skipped rather than failing the query.
func (s *Store) Search(ctx context.Context, name, query string, topK int) ([]SearchResult, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("invalid topK %d", topK)
	}
	h, err := s.open(name, false, 0)
	if err != nil {
		return nil, err
	}

	vector, err := s.provider.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	vectorindex.Normalize(vector)

	h.mu.RLock()
	defer h.mu.RUnlock()

	hits, err := h.index.Search(vector, topK)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(hits))
	for _, hit := range hits {
		if hit.ID == vectorindex.NotFound {
			continue
		}
		rec, ok, err := h.meta.get(hit.ID)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		results = append(results, SearchResult{
			ID:       rec.ID,
			Score:    hit.Score,
			Text:     rec.Text,
			Metadata: rec.Metadata,
		})
	}
	return results, nil
}

// List enumerates collection names from the data directory.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read data dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".db") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".db"))
	}
	sort.Strings(names)
	return names, nil
}

// Close releases all open collections.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	for name, h := range s.handles {
		if err := h.meta.close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(s.handles, name)
	}
	return firstErr
}

// open returns the cached handle for name, loading it from disk on first
// use. With create set, missing files are initialized with dim; otherwise a
// missing collection is ErrNotFound.
func (s *Store) open(name string, create bool, dim int) (*handle, error) {
	if !nameRe.MatchString(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if h, ok := s.handles[name]; ok {
		return h, nil
	}

	indexPath := s.indexPath(name)
	_, statErr := os.Stat(indexPath)
	exists := statErr == nil

	if !exists && !create {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	var idx *vectorindex.Flat
	var err error
	if exists {
		idx, err = vectorindex.Load(indexPath)
		if err != nil {
			return nil, fmt.Errorf("load index for %q: %w", name, err)
		}
	} else {
		idx, err = vectorindex.NewFlat(dim)
		if err != nil {
			return nil, err
		}
		if err := idx.Save(indexPath); err != nil {
			return nil, fmt.Errorf("initialize index for %q: %w", name, err)
		}
	}

	meta, err := openMetadata(s.metaPath(name))
	if err != nil {
		return nil, err
	}

	h := &handle{meta: meta, index: idx}
	s.handles[name] = h
	return h, nil
}
