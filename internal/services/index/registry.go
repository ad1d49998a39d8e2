package index

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/qdrant/go-client/qdrant"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/neighborhood/internal/common"
	"github.com/ternarybob/neighborhood/internal/interfaces"
)

const (
	BackendChromem = "chromem"
	BackendQdrant  = "qdrant"
)

type dropper interface {
	Drop(ctx context.Context) error
}

// Registry lazily opens one index per project and shares it between callers
type Registry struct {
	config  *common.Config
	encoder interfaces.Encoder
	catalog interfaces.CatalogStorage
	logger  arbor.ILogger

	mu      sync.RWMutex
	indexes map[string]interfaces.EmbeddingIndex
	qdrant  *qdrant.Client
}

// NewRegistry creates a registry for the backend named in config.Index.Backend
func NewRegistry(config *common.Config, encoder interfaces.Encoder, catalog interfaces.CatalogStorage, logger arbor.ILogger) (*Registry, error) {
	r := &Registry{
		config:  config,
		encoder: encoder,
		catalog: catalog,
		logger:  logger,
		indexes: make(map[string]interfaces.EmbeddingIndex),
	}

	switch config.Index.Backend {
	case "", BackendChromem:
	case BackendQdrant:
		client, err := NewQdrantClient(config.Index.Qdrant)
		if err != nil {
			return nil, err
		}
		r.qdrant = client
	default:
		return nil, fmt.Errorf("unknown index backend: %s", config.Index.Backend)
	}

	return r, nil
}

// IndexPath is where the embedded backend persists a project index
func IndexPath(dataDir, projectID string) string {
	return filepath.Join(dataDir, projectID, "index")
}

func (r *Registry) Get(ctx context.Context, projectID string) (interfaces.EmbeddingIndex, error) {
	r.mu.RLock()
	idx, ok := r.indexes[projectID]
	r.mu.RUnlock()
	if ok {
		return idx, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if idx, ok := r.indexes[projectID]; ok {
		return idx, nil
	}

	idx, err := r.open(ctx, projectID)
	if err != nil {
		return nil, err
	}
	r.indexes[projectID] = idx
	return idx, nil
}

func (r *Registry) open(ctx context.Context, projectID string) (interfaces.EmbeddingIndex, error) {
	if r.qdrant != nil {
		return NewQdrantIndex(ctx, r.qdrant, projectID, r.encoder, r.logger)
	}
	return NewChromemIndex(
		projectID,
		IndexPath(r.config.Storage.DataDir, projectID),
		r.config.Index.Compress,
		r.encoder,
		r.catalog,
		r.config.Index.Concurrency,
		r.logger,
	)
}

// Drop removes all stored vectors for a project
func (r *Registry) Drop(ctx context.Context, projectID string) error {
	idx, err := r.Get(ctx, projectID)
	if err != nil {
		return err
	}

	if d, ok := idx.(dropper); ok {
		if err := d.Drop(ctx); err != nil {
			return err
		}
	}

	r.mu.Lock()
	delete(r.indexes, projectID)
	r.mu.Unlock()

	if r.qdrant == nil {
		_ = os.RemoveAll(filepath.Join(r.config.Storage.DataDir, projectID, "index"))
	}

	r.logger.Info().Str("project_id", projectID).Msg("Project index dropped")
	return nil
}

func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, idx := range r.indexes {
		if err := idx.Close(); err != nil {
			r.logger.Warn().Err(err).Str("project_id", id).Msg("Failed to close index")
		}
	}
	r.indexes = make(map[string]interfaces.EmbeddingIndex)

	if r.qdrant != nil {
		return r.qdrant.Close()
	}
	return nil
}
