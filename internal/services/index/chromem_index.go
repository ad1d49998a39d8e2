package index

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/philippgille/chromem-go"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/neighborhood/internal/interfaces"
	"github.com/ternarybob/neighborhood/internal/models"
)

const (
	// DistanceCosine is the only metric the indexes use
	DistanceCosine = "cosine"
	// embedBatchSize bounds how many chunks are encoded per encoder call
	embedBatchSize = 64
)

// ChromemIndex is an embedded, file-persisted index for one project.
// chromem-go has no listing API, so indexed ids are also recorded in the catalog.
type ChromemIndex struct {
	projectID   string
	path        string
	db          *chromem.DB
	collection  *chromem.Collection
	encoder     interfaces.Encoder
	catalog     interfaces.CatalogStorage
	concurrency int
	logger      arbor.ILogger
}

// NewChromemIndex opens (or creates) the persistent collection for projectID under path
func NewChromemIndex(projectID, path string, compress bool, encoder interfaces.Encoder, catalog interfaces.CatalogStorage, concurrency int, logger arbor.ILogger) (*ChromemIndex, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	db, err := chromem.NewPersistentDB(path, compress)
	if err != nil {
		return nil, fmt.Errorf("failed to open index at %s: %w", path, err)
	}

	embed := func(ctx context.Context, text string) ([]float32, error) {
		return encoder.EmbedQuery(ctx, text)
	}
	collection, err := db.GetOrCreateCollection(projectID, map[string]string{"distance": DistanceCosine}, embed)
	if err != nil {
		return nil, fmt.Errorf("failed to open collection %s: %w", projectID, err)
	}

	if concurrency < 1 {
		concurrency = 1
	}

	logger.Debug().
		Str("project_id", projectID).
		Str("path", path).
		Int("documents", collection.Count()).
		Msg("Embedding index opened")

	return &ChromemIndex{
		projectID:   projectID,
		path:        path,
		db:          db,
		collection:  collection,
		encoder:     encoder,
		catalog:     catalog,
		concurrency: concurrency,
		logger:      logger,
	}, nil
}

// Upsert encodes and stores a single chunk, returning its document id
func (i *ChromemIndex) Upsert(ctx context.Context, chunk models.Chunk) (string, error) {
	ids, err := i.UpsertBatch(ctx, []models.Chunk{chunk}, nil)
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

// UpsertBatch stores chunks in order, calling progress once per chunk
func (i *ChromemIndex) UpsertBatch(ctx context.Context, chunks []models.Chunk, progress func(current, total int)) ([]string, error) {
	ids := make([]string, 0, len(chunks))
	total := len(chunks)

	for start := 0; start < total; start += embedBatchSize {
		end := start + embedBatchSize
		if end > total {
			end = total
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for j, c := range batch {
			texts[j] = c.Text
		}
		vectors, err := i.encoder.EmbedDocuments(ctx, texts)
		if err != nil {
			return ids, fmt.Errorf("failed to encode chunks: %w", err)
		}
		if len(vectors) != len(batch) {
			return ids, fmt.Errorf("encoder returned %d vectors for %d chunks", len(vectors), len(batch))
		}

		docs := make([]chromem.Document, len(batch))
		entries := make([]models.CatalogEntry, len(batch))
		now := time.Now()
		for j, c := range batch {
			id := DocumentID(c.URL, c.Text)
			docs[j] = chromem.Document{
				ID:        id,
				Metadata:  chunkMetadata(c),
				Embedding: vectors[j],
				Content:   c.Text,
			}
			entries[j] = models.CatalogEntry{
				ProjectID:  i.projectID,
				DocumentID: id,
				Source:     c.Source,
				IndexedAt:  now.Add(time.Duration(start+j) * time.Microsecond),
			}
		}

		if err := i.collection.AddDocuments(ctx, docs, i.concurrency); err != nil {
			return ids, fmt.Errorf("failed to store chunks: %w", err)
		}
		if i.catalog != nil {
			if err := i.catalog.Record(ctx, entries); err != nil {
				return ids, err
			}
		}

		for j := range docs {
			ids = append(ids, docs[j].ID)
			if progress != nil {
				progress(start+j+1, total)
			}
		}
	}

	return ids, nil
}

// Search ranks stored chunks against the query, highest similarity first
func (i *ChromemIndex) Search(ctx context.Context, query string, topK int) ([]models.SearchResult, error) {
	count := i.collection.Count()
	if count == 0 || topK <= 0 {
		return []models.SearchResult{}, nil
	}
	if topK > count {
		topK = count
	}

	vector, err := i.encoder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}

	hits, err := i.collection.QueryEmbedding(ctx, vector, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query index: %w", err)
	}

	results := make([]models.SearchResult, 0, len(hits))
	for _, hit := range hits {
		results = append(results, models.SearchResult{
			ID:      hit.ID,
			Score:   float64(hit.Similarity),
			Payload: metadataChunk(hit.Metadata, hit.Content),
		})
	}
	return results, nil
}

func (i *ChromemIndex) Stats(ctx context.Context) (models.IndexStats, error) {
	return models.IndexStats{
		DocumentCount:   i.collection.Count(),
		VectorDimension: i.encoder.Dimension(),
		DistanceMetric:  DistanceCosine,
	}, nil
}

// DeleteBySource removes every chunk whose payload source equals source
func (i *ChromemIndex) DeleteBySource(ctx context.Context, source string) error {
	if err := i.collection.Delete(ctx, map[string]string{keySource: source}, nil); err != nil {
		return fmt.Errorf("failed to delete chunks for source %s: %w", source, err)
	}
	if i.catalog != nil {
		return i.catalog.DeleteBySource(ctx, i.projectID, source)
	}
	return nil
}

// List pages through indexed chunks in indexing order
func (i *ChromemIndex) List(ctx context.Context, offset, limit int, source string) ([]models.IndexedDocument, int, error) {
	if i.catalog == nil {
		return nil, 0, errors.New("document listing requires a catalog")
	}

	entries, total, err := i.catalog.List(ctx, i.projectID, source, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	docs := make([]models.IndexedDocument, 0, len(entries))
	for _, entry := range entries {
		doc, err := i.collection.GetByID(ctx, entry.DocumentID)
		if err != nil {
			i.logger.Debug().Str("doc_id", entry.DocumentID).Msg("Catalog entry without indexed document")
			continue
		}
		docs = append(docs, models.IndexedDocument{
			ID:      doc.ID,
			Vector:  doc.Embedding,
			Payload: metadataChunk(doc.Metadata, doc.Content),
		})
	}
	return docs, total, nil
}

// Drop deletes the collection files and the catalog of this project
func (i *ChromemIndex) Drop(ctx context.Context) error {
	if err := i.db.DeleteCollection(i.projectID); err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	if i.catalog != nil {
		if err := i.catalog.DeleteProject(ctx, i.projectID); err != nil {
			return err
		}
	}
	return os.RemoveAll(i.path)
}

// Close is a no-op; chromem persists every write immediately
func (i *ChromemIndex) Close() error {
	return nil
}
