//go:build cgo

package embeddings

import (
	"context"
	"fmt"
	"sync"

	fastembed "github.com/anush008/fastembed-go"
	"github.com/ternarybob/neighborhood/internal/common"
)

var fastembedModels = map[string]fastembed.EmbeddingModel{
	"all-MiniLM-L6-v2":                       fastembed.AllMiniLML6V2,
	"sentence-transformers/all-MiniLM-L6-v2": fastembed.AllMiniLML6V2,
	"BAAI/bge-small-en-v1.5":                 fastembed.BGESmallENV15,
	"BAAI/bge-base-en-v1.5":                  fastembed.BGEBaseENV15,
}

// FastEmbedEncoder runs a local ONNX sentence-embedding model
type FastEmbedEncoder struct {
	model     *fastembed.FlagEmbedding
	dimension int
	batchSize int
	mu        sync.RWMutex
}

// NewFastEmbedEncoder loads the model, downloading it to CacheDir on first use
func NewFastEmbedEncoder(config common.EmbeddingsConfig) (*FastEmbedEncoder, error) {
	model, ok := fastembedModels[config.Model]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported fastembed model %q", ErrInvalidConfig, config.Model)
	}

	maxLength := config.MaxLength
	if maxLength == 0 {
		maxLength = 512
	}
	batchSize := config.BatchSize
	if batchSize == 0 {
		batchSize = 256
	}

	showProgress := false
	flagEmbed, err := fastembed.NewFlagEmbedding(&fastembed.InitOptions{
		Model:                model,
		CacheDir:             config.CacheDir,
		MaxLength:            maxLength,
		ShowDownloadProgress: &showProgress,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing fastembed: %w", err)
	}

	dimension, _ := ModelDimension(config.Model)
	return &FastEmbedEncoder{
		model:     flagEmbed,
		dimension: dimension,
		batchSize: batchSize,
	}, nil
}

// EmbedDocuments encodes texts without a passage prefix so documents and
// queries share one vector space
func (e *FastEmbedEncoder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	vectors, err := e.model.Embed(texts, e.batchSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	return vectors, nil
}

func (e *FastEmbedEncoder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *FastEmbedEncoder) Dimension() int {
	return e.dimension
}

func (e *FastEmbedEncoder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.model != nil {
		err := e.model.Destroy()
		e.model = nil
		return err
	}
	return nil
}
