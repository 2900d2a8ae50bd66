// Package chunker splits raw text into overlapping fixed-size windows for
// embedding. Sizes and overlap are counted in characters, not tokens.
package chunker

import "fmt"

const (
	// DefaultSize is the default window length in characters.
	DefaultSize = 1000

	// DefaultOverlap is the default number of characters shared between
	// consecutive windows.
	DefaultOverlap = 200
)

// Split slices text into windows of at most size characters, each advancing
// by size-overlap. Text that fits in one window is returned as a single
// chunk, even when empty. The final window always ends exactly at the end of
// the text.
func Split(text string, size, overlap int) ([]string, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid chunk size %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("invalid overlap %d for size %d", overlap, size)
	}

	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}, nil
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := min(start+size, len(runes))
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
		start = max(0, end-overlap)
	}
	return chunks, nil
}
