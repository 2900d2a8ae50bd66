// Package vectorindex provides an id-addressable flat vector index with
// exact inner-product search.
package vectorindex

import (
	"fmt"
	"sort"
)

// NotFound is the sentinel id returned by Search to pad results when the
// index holds fewer entries than the requested k.
const NotFound int64 = -1

// Result is a single search hit. Score is the raw inner product between the
// query and the stored vector; for unit-normalized vectors it equals cosine
// similarity and lies in [-1, 1].
type Result struct {
	ID    int64
	Score float32
}

// Flat is a brute-force inner-product index. Every entry is scored against
// the query on each search, so results are exact. Callers are expected to
// store unit-normalized vectors; Flat does not normalize on its own.
//
// Flat is not safe for concurrent use; callers serialize access.
type Flat struct {
	dim     int
	ids     []int64
	vectors [][]float32
}

// NewFlat creates an empty index with a fixed vector dimensionality.
func NewFlat(dim int) (*Flat, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("invalid dimension %d", dim)
	}
	return &Flat{dim: dim}, nil
}

// Dimension returns the fixed vector dimensionality of the index.
func (f *Flat) Dimension() int { return f.dim }

// Len returns the number of stored vectors.
func (f *Flat) Len() int { return len(f.ids) }

// AddWithIDs appends (id, vector) pairs to the index. The caller owns id
// uniqueness; the index stores whatever it is given.
func (f *Flat) AddWithIDs(ids []int64, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids/vectors length mismatch: %d != %d", len(ids), len(vectors))
	}
	for i, v := range vectors {
		if len(v) != f.dim {
			return fmt.Errorf("vector %d has %d dimensions, expected %d", i, len(v), f.dim)
		}
	}
	f.ids = append(f.ids, ids...)
	f.vectors = append(f.vectors, vectors...)
	return nil
}

// Search returns the k highest-scoring entries by inner product, descending.
// The returned slice always has length k; positions beyond the number of
// stored vectors carry the NotFound id.
func (f *Flat) Search(query []float32, k int) ([]Result, error) {
	if len(query) != f.dim {
		return nil, fmt.Errorf("query has %d dimensions, expected %d", len(query), f.dim)
	}
	if k <= 0 {
		return nil, fmt.Errorf("invalid k %d", k)
	}

	scored := make([]Result, len(f.ids))
	for i, v := range f.vectors {
		scored[i] = Result{ID: f.ids[i], Score: Dot(query, v)}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	results := make([]Result, k)
	for i := range results {
		if i < len(scored) {
			results[i] = scored[i]
		} else {
			results[i] = Result{ID: NotFound}
		}
	}
	return results, nil
}
