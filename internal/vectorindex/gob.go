package vectorindex

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
)

// flatState is the on-disk representation of a Flat index.
type flatState struct {
	Dim     int
	IDs     []int64
	Vectors [][]float32
}

// Save writes the index to path atomically: the state is gob-encoded into a
// temp file in the same directory, then renamed over the target.
func (f *Flat) Save(path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".index-*")
	if err != nil {
		return fmt.Errorf("create temp index file: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc := gob.NewEncoder(tmp)
	state := flatState{Dim: f.dim, IDs: f.ids, Vectors: f.vectors}
	if err := enc.Encode(state); err != nil {
		tmp.Close()
		return fmt.Errorf("encode index: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename index: %w", err)
	}
	return nil
}

// Load reads an index previously written by Save.
func Load(path string) (*Flat, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var state flatState
	if err := gob.NewDecoder(file).Decode(&state); err != nil {
		return nil, fmt.Errorf("decode index %s: %w", path, err)
	}
	if state.Dim <= 0 {
		return nil, fmt.Errorf("decode index %s: invalid dimension %d", path, state.Dim)
	}
	return &Flat{dim: state.Dim, ids: state.IDs, vectors: state.Vectors}, nil
}
