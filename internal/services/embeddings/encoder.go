// Package embeddings provides the text encoders used by the embedding index.
package embeddings

import (
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/neighborhood/internal/common"
	"github.com/ternarybob/neighborhood/internal/interfaces"
)

// DefaultDimension is the vector size of all-MiniLM-L6-v2
const DefaultDimension = 384

var (
	// ErrEmptyInput is returned when there is nothing to encode
	ErrEmptyInput = errors.New("embeddings: empty input")
	// ErrEmbeddingFailed wraps failures of the underlying model
	ErrEmbeddingFailed = errors.New("embeddings: encoding failed")
	// ErrInvalidConfig is returned for unknown providers or models
	ErrInvalidConfig = errors.New("embeddings: invalid config")
)

// NewEncoder creates the encoder selected by [embeddings] provider
func NewEncoder(config common.EmbeddingsConfig, logger arbor.ILogger) (interfaces.Encoder, error) {
	switch config.Provider {
	case "fastembed", "":
		encoder, err := NewFastEmbedEncoder(config)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("model", config.Model).Int("dimension", encoder.Dimension()).Msg("FastEmbed encoder initialized")
		return encoder, nil
	case "ollama":
		encoder, err := NewOllamaEncoder(config)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("model", config.Model).Str("url", config.OllamaURL).Msg("Ollama encoder initialized")
		return encoder, nil
	default:
		return nil, fmt.Errorf("%w: unsupported provider %q (supported: fastembed, ollama)", ErrInvalidConfig, config.Provider)
	}
}

// knownDimensions maps model names to their output size
var knownDimensions = map[string]int{
	"all-MiniLM-L6-v2":                       384,
	"sentence-transformers/all-MiniLM-L6-v2": 384,
	"BAAI/bge-small-en-v1.5":                 384,
	"BAAI/bge-base-en-v1.5":                  768,
	"all-minilm":                             384,
	"all-minilm:latest":                      384,
	"nomic-embed-text":                       768,
	"nomic-embed-text:latest":                768,
	"mxbai-embed-large":                      1024,
	"mxbai-embed-large:latest":               1024,
}

// ModelDimension returns the known output size of a model
func ModelDimension(model string) (int, bool) {
	dim, ok := knownDimensions[model]
	return dim, ok
}
