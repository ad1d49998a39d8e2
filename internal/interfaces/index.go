package interfaces

import (
	"context"

	"github.com/ternarybob/neighborhood/internal/models"
)

// Encoder maps text to fixed-dimension vectors
type Encoder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	Dimension() int
	Close() error
}

// EmbeddingIndex stores chunk vectors for one project and ranks them by cosine similarity
type EmbeddingIndex interface {
	Upsert(ctx context.Context, chunk models.Chunk) (string, error)
	UpsertBatch(ctx context.Context, chunks []models.Chunk, progress func(current, total int)) ([]string, error)
	Search(ctx context.Context, query string, topK int) ([]models.SearchResult, error)
	Stats(ctx context.Context) (models.IndexStats, error)
	DeleteBySource(ctx context.Context, source string) error
	List(ctx context.Context, offset, limit int, source string) ([]models.IndexedDocument, int, error)
	Close() error
}

// IndexRegistry hands out at most one open index per project
type IndexRegistry interface {
	Get(ctx context.Context, projectID string) (EmbeddingIndex, error)
	Drop(ctx context.Context, projectID string) error
	Close() error
}
