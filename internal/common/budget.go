package common

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

const bytesPerMB = 1024 * 1024

// Budget tracks the bytes and words a single collection run has consumed.
// Collectors create one per run and check it before every fetch.
type Budget struct {
	MaxBytes int64
	MaxWords int
	Bytes    int64
	Words    int
}

// NewBudget returns an empty budget with the given caps. Zero caps fall back to the defaults.
func NewBudget(maxBytes int64, maxWords int) *Budget {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if maxWords <= 0 {
		maxWords = DefaultMaxWords
	}
	return &Budget{MaxBytes: maxBytes, MaxWords: maxWords}
}

func (b *Budget) Add(bytes int64, words int) {
	b.Bytes += bytes
	b.Words += words
}

// Exhausted reports whether either cap is reached, with the message shown to users
func (b *Budget) Exhausted() (bool, string) {
	if b.Bytes >= b.MaxBytes {
		return true, fmt.Sprintf("Byte limit reached (%.1fMB / %.0fMB)",
			float64(b.Bytes)/bytesPerMB, float64(b.MaxBytes)/bytesPerMB)
	}
	if b.Words >= b.MaxWords {
		return true, fmt.Sprintf("Word limit reached (%s / %s words)",
			humanize.Comma(int64(b.Words)), humanize.Comma(int64(b.MaxWords)))
	}
	return false, ""
}

// Usage is the running total attached to progress updates
func (b *Budget) Usage() string {
	return fmt.Sprintf("%.1fMB / %s words", float64(b.Bytes)/bytesPerMB, humanize.Comma(int64(b.Words)))
}
