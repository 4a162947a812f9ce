package chunker

import "strings"

// Defaults for retrieval-sized windows.
const (
	DefaultSize    = 1000
	DefaultOverlap = 200
)

// Chunk splits text into overlapping fixed-size windows suitable for
// retrieval. A window of size characters slides across the text, advancing by
// size-overlap each step; each window is trimmed of surrounding whitespace.
// A trailing remainder shorter than the overlap is already covered by the
// prior window and is not emitted as a near-duplicate fragment. Identical
// input always yields identical output.
func Chunk(text string, size, overlap int) []string {
	if size <= 0 {
		size = DefaultSize
	}
	if overlap < 0 || overlap >= size {
		overlap = DefaultOverlap
		if overlap >= size {
			overlap = size / 5
		}
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= size {
		return []string{strings.TrimSpace(text)}
	}

	step := size - overlap
	var out []string
	for start := 0; start < len(runes); start += step {
		// The tail shorter than the overlap sits entirely inside the previous
		// window; emitting it would duplicate content.
		if start > 0 && len(runes)-start < overlap {
			break
		}
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, strings.TrimSpace(string(runes[start:end])))
		if end == len(runes) {
			break
		}
	}
	return out
}
