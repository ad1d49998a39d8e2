package embeddings

import (
	"context"
	"fmt"
	"sync"

	"github.com/ternarybob/neighborhood/internal/common"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
)

// OllamaEncoder encodes text through an Ollama embedding model
type OllamaEncoder struct {
	embedder  embeddings.Embedder
	model     string
	mu        sync.Mutex
	dimension int
}

// NewOllamaEncoder creates an encoder backed by the Ollama server at OllamaURL
func NewOllamaEncoder(config common.EmbeddingsConfig) (*OllamaEncoder, error) {
	model := config.Model
	if model == "" || model == "all-MiniLM-L6-v2" {
		model = "all-minilm"
	}

	llm, err := ollama.New(ollama.WithModel(model), ollama.WithServerURL(config.OllamaURL))
	if err != nil {
		return nil, fmt.Errorf("creating ollama client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	dimension, _ := ModelDimension(model)
	return &OllamaEncoder{
		embedder:  embedder,
		model:     model,
		dimension: dimension,
	}, nil
}

func (e *OllamaEncoder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}

	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	if len(vectors) > 0 {
		e.learnDimension(len(vectors[0]))
	}
	return vectors, nil
}

func (e *OllamaEncoder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyInput
	}

	vector, err := e.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	e.learnDimension(len(vector))
	return vector, nil
}

// Dimension returns the known model size, or the size observed on the first call
func (e *OllamaEncoder) Dimension() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dimension
}

func (e *OllamaEncoder) learnDimension(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dimension == 0 {
		e.dimension = n
	}
}

func (e *OllamaEncoder) Close() error {
	return nil
}
