package collection

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider embeds text as a bag-of-words over a fixed vocabulary so
// tests get deterministic, meaningfully ranked similarities.
type fakeProvider struct {
	dim   int
	vocab map[string]int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		dim: 8,
		vocab: map[string]int{
			"cats": 0, "feline": 0, "cat": 0,
			"mammals": 1, "animals": 1, "animal": 1,
			"rockets": 2, "rocket": 2, "space": 2,
			"fly": 3, "flying": 3,
			"hello": 4, "world": 5,
		},
	}
}

func (p *fakeProvider) Dimension() int { return p.dim }

func (p *fakeProvider) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		v := make([]float32, p.dim)
		for _, word := range strings.Fields(strings.ToLower(text)) {
			word = strings.Trim(word, ".,!?")
			if d, ok := p.vocab[word]; ok {
				v[d]++
			} else {
				v[p.dim-1] += 0.1
			}
		}
		vectors[i] = v
	}
	return vectors, nil
}

func (p *fakeProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir(), newFakeProvider())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCreate_Idempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create("c", 8))
	require.NoError(t, store.Add(ctx, "c", []string{"hello world"}, nil))

	// Second create must not lose existing entries.
	require.NoError(t, store.Create("c", 8))

	results, err := store.Search(ctx, "c", "hello", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "hello world", results[0].Text)
}

func TestCreate_DimensionMismatchRejected(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Create("c", 8))
	err := store.Create("c", 16)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestCreate_InvalidName(t *testing.T) {
	store := newTestStore(t)

	for _, name := range []string{"", "../evil", "a/b", ".hidden", "a\\b"} {
		err := store.Create(name, 8)
		assert.ErrorIs(t, err, ErrInvalidName, "name %q", name)
	}
}

func TestAddSearch_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create("c", 8))
	meta := map[string]any{"source": "doc1", "chunk": "0"}
	require.NoError(t, store.Add(ctx, "c", []string{"cats are mammals"}, []map[string]any{meta}))

	results, err := store.Search(ctx, "c", "cats are mammals", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, int64(1), results[0].ID)
	assert.Equal(t, "cats are mammals", results[0].Text)
	assert.Equal(t, meta, results[0].Metadata)
	assert.InDelta(t, 1.0, float64(results[0].Score), 1e-5)
}

func TestSearch_RankingByRelevance(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create("c", 8))
	texts := []string{"cats are mammals", "rockets fly to space"}
	require.NoError(t, store.Add(ctx, "c", texts, nil))

	results, err := store.Search(ctx, "c", "feline animals", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, int64(1), results[0].ID)
	assert.Equal(t, "cats are mammals", results[0].Text)
	assert.Greater(t, results[0].Score, results[1].Score)

	top, err := store.Search(ctx, "c", "feline animals", 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, int64(1), top[0].ID)
}

func TestSearch_DropsSentinelIDs(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create("c", 8))
	require.NoError(t, store.Add(ctx, "c", []string{"hello world"}, nil))

	// topK exceeds the index size; the padding ids must not surface.
	results, err := store.Search(ctx, "c", "hello", 5)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSearch_MissingCollection(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Search(context.Background(), "nope", "query", 5)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAdd_MissingCollection(t *testing.T) {
	store := newTestStore(t)

	err := store.Add(context.Background(), "nope", []string{"text"}, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewStore(dir, newFakeProvider())
	require.NoError(t, err)
	require.NoError(t, store.Create("c", 8))
	require.NoError(t, store.Add(ctx, "c", []string{"cats are mammals"}, nil))
	require.NoError(t, store.Close())

	reopened, err := NewStore(dir, newFakeProvider())
	require.NoError(t, err)
	defer reopened.Close()

	results, err := reopened.Search(ctx, "c", "feline animals", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(1), results[0].ID)
	assert.Equal(t, "cats are mammals", results[0].Text)
}

func TestAdd_RepeatedCyclesKeepIDsUnique(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create("c", 8))
	require.NoError(t, store.Add(ctx, "c", []string{"cats", "rockets"}, nil))
	require.NoError(t, store.Add(ctx, "c", []string{"animals", "space"}, nil))

	results, err := store.Search(ctx, "c", "cats animals rockets space", 10)
	require.NoError(t, err)
	require.Len(t, results, 4)

	seen := map[int64]bool{}
	for _, r := range results {
		assert.False(t, seen[r.ID], "duplicate id %d", r.ID)
		seen[r.ID] = true
	}
	assert.Equal(t, map[int64]bool{1: true, 2: true, 3: true, 4: true}, seen)
}

func TestList(t *testing.T) {
	store := newTestStore(t)

	names, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, store.Create("beta", 8))
	require.NoError(t, store.Create("alpha", 8))

	names, err = store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, names)
}
