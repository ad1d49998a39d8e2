// Package chunker splits long text into overlapping word windows for embedding.
package chunker

import "strings"

const (
	// DefaultWindow is the number of words per chunk
	DefaultWindow = 500
	// DefaultOverlap is the number of words shared by consecutive chunks
	DefaultOverlap = 50
	// MinChunkWords drops trailing windows too small to carry meaning
	MinChunkWords = 50
)

// Words splits text on any run of whitespace
func Words(text string) []string {
	return strings.Fields(text)
}

// WordCount returns the number of whitespace-separated words in text
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// Chunk splits text into windows of `window` words that start every
// window-overlap words. Windows with fewer than MinChunkWords words are
// dropped, so text shorter than that yields no chunks.
func Chunk(text string, window, overlap int) []string {
	if window <= 0 {
		window = DefaultWindow
	}
	if overlap < 0 {
		overlap = 0
	}
	step := window - overlap
	if step < 1 {
		step = 1
	}

	words := Words(text)
	var chunks []string
	for start := 0; start < len(words); start += step {
		end := start + window
		if end > len(words) {
			end = len(words)
		}
		if end-start < MinChunkWords {
			continue
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}
	return chunks
}

// ChunkDefault chunks with the default window and overlap
func ChunkDefault(text string) []string {
	return Chunk(text, DefaultWindow, DefaultOverlap)
}
