//go:build !cgo

package embeddings

import (
	"context"
	"errors"

	"github.com/ternarybob/neighborhood/internal/common"
)

// ErrFastEmbedNotAvailable is returned when the binary was built without cgo
var ErrFastEmbedNotAvailable = errors.New("fastembed: not available (built without cgo, set [embeddings] provider = \"ollama\")")

// FastEmbedEncoder is a stub for non-cgo builds
type FastEmbedEncoder struct{}

func NewFastEmbedEncoder(_ common.EmbeddingsConfig) (*FastEmbedEncoder, error) {
	return nil, ErrFastEmbedNotAvailable
}

func (e *FastEmbedEncoder) EmbedDocuments(_ context.Context, _ []string) ([][]float32, error) {
	return nil, ErrFastEmbedNotAvailable
}

func (e *FastEmbedEncoder) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	return nil, ErrFastEmbedNotAvailable
}

func (e *FastEmbedEncoder) Dimension() int {
	return 0
}

func (e *FastEmbedEncoder) Close() error {
	return nil
}
