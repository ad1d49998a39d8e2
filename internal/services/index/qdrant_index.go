package index

import (
	"context"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/neighborhood/internal/common"
	"github.com/ternarybob/neighborhood/internal/interfaces"
	"github.com/ternarybob/neighborhood/internal/models"
)

// QdrantIndex keeps one qdrant collection per project
type QdrantIndex struct {
	client     *qdrant.Client
	collection string
	encoder    interfaces.Encoder
	logger     arbor.ILogger
}

// NewQdrantClient connects to the qdrant gRPC endpoint described by cfg
func NewQdrantClient(cfg common.QdrantConfig) (*qdrant.Client, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to qdrant at %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return client, nil
}

// NewQdrantIndex ensures the collection for projectID exists with the encoder dimension
func NewQdrantIndex(ctx context.Context, client *qdrant.Client, projectID string, encoder interfaces.Encoder, logger arbor.ILogger) (*QdrantIndex, error) {
	name := "project_" + projectID

	exists, err := client.CollectionExists(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to check collection %s: %w", name, err)
	}
	if !exists {
		err = client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: name,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(encoder.Dimension()),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create collection %s: %w", name, err)
		}
		logger.Info().Str("collection", name).Int("dimension", encoder.Dimension()).Msg("Created qdrant collection")
	}

	return &QdrantIndex{
		client:     client,
		collection: name,
		encoder:    encoder,
		logger:     logger,
	}, nil
}

// pointID maps the md5 document id onto the uuid space qdrant requires
func pointID(docID string) (*qdrant.PointId, error) {
	raw, err := hex.DecodeString(docID)
	if err != nil {
		return nil, fmt.Errorf("invalid document id %q: %w", docID, err)
	}
	id, err := uuid.FromBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid document id %q: %w", docID, err)
	}
	return qdrant.NewID(id.String()), nil
}

func chunkPayload(docID string, chunk models.Chunk) (map[string]*qdrant.Value, error) {
	values := map[string]any{keyText: chunk.Text, keyDocID: docID}
	for k, v := range chunkMetadata(chunk) {
		values[k] = v
	}
	values[keyWordCount] = chunk.WordCount
	if chunk.Timestamp != nil {
		values[keyTimestamp] = *chunk.Timestamp
	}
	return qdrant.TryValueMap(values)
}

func payloadChunk(payload map[string]*qdrant.Value) (string, models.Chunk) {
	meta := make(map[string]string, len(payload))
	var text, docID string
	for k, v := range payload {
		switch k {
		case keyText:
			text = v.GetStringValue()
		case keyDocID:
			docID = v.GetStringValue()
		case keyWordCount:
			meta[k] = strconv.FormatInt(v.GetIntegerValue(), 10)
		case keyTimestamp:
			meta[k] = strconv.FormatFloat(v.GetDoubleValue(), 'f', -1, 64)
		default:
			meta[k] = v.GetStringValue()
		}
	}
	return docID, metadataChunk(meta, text)
}

func (q *QdrantIndex) Upsert(ctx context.Context, chunk models.Chunk) (string, error) {
	ids, err := q.UpsertBatch(ctx, []models.Chunk{chunk}, nil)
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

func (q *QdrantIndex) UpsertBatch(ctx context.Context, chunks []models.Chunk, progress func(current, total int)) ([]string, error) {
	ids := make([]string, 0, len(chunks))
	total := len(chunks)

	for start := 0; start < total; start += embedBatchSize {
		end := min(start+embedBatchSize, total)
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for j, c := range batch {
			texts[j] = c.Text
		}
		vectors, err := q.encoder.EmbedDocuments(ctx, texts)
		if err != nil {
			return ids, fmt.Errorf("failed to encode chunks: %w", err)
		}
		if len(vectors) != len(batch) {
			return ids, fmt.Errorf("encoder returned %d vectors for %d chunks", len(vectors), len(batch))
		}

		points := make([]*qdrant.PointStruct, len(batch))
		batchIDs := make([]string, len(batch))
		for j, c := range batch {
			docID := DocumentID(c.URL, c.Text)
			pid, err := pointID(docID)
			if err != nil {
				return ids, err
			}
			payload, err := chunkPayload(docID, c)
			if err != nil {
				return ids, fmt.Errorf("failed to build payload: %w", err)
			}
			points[j] = &qdrant.PointStruct{
				Id:      pid,
				Vectors: qdrant.NewVectorsDense(vectors[j]),
				Payload: payload,
			}
			batchIDs[j] = docID
		}

		wait := true
		_, err = q.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: q.collection,
			Wait:           &wait,
			Points:         points,
		})
		if err != nil {
			return ids, fmt.Errorf("failed to store chunks: %w", err)
		}

		for j, id := range batchIDs {
			ids = append(ids, id)
			if progress != nil {
				progress(start+j+1, total)
			}
		}
	}
	return ids, nil
}

func (q *QdrantIndex) Search(ctx context.Context, query string, topK int) ([]models.SearchResult, error) {
	if topK <= 0 {
		return []models.SearchResult{}, nil
	}
	vector, err := q.encoder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}

	hits, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQueryDense(vector),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query index: %w", err)
	}

	results := make([]models.SearchResult, 0, len(hits))
	for _, hit := range hits {
		docID, chunk := payloadChunk(hit.GetPayload())
		results = append(results, models.SearchResult{
			ID:      docID,
			Score:   float64(hit.GetScore()),
			Payload: chunk,
		})
	}
	return results, nil
}

func (q *QdrantIndex) Stats(ctx context.Context) (models.IndexStats, error) {
	exact := true
	count, err := q.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: q.collection,
		Exact:          &exact,
	})
	if err != nil {
		return models.IndexStats{}, fmt.Errorf("failed to count points: %w", err)
	}
	return models.IndexStats{
		DocumentCount:   int(count),
		VectorDimension: q.encoder.Dimension(),
		DistanceMetric:  DistanceCosine,
	}, nil
}

func sourceFilter(source string) *qdrant.Filter {
	if source == "" {
		return nil
	}
	return &qdrant.Filter{Must: []*qdrant.Condition{qdrant.NewMatch(keySource, source)}}
}

func (q *QdrantIndex) DeleteBySource(ctx context.Context, source string) error {
	wait := true
	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.collection,
		Wait:           &wait,
		Points:         qdrant.NewPointsSelectorFilter(sourceFilter(source)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete chunks for source %s: %w", source, err)
	}
	return nil
}

// List scrolls offset+limit points and returns the requested window.
// Qdrant pages with point cursors, so deep offsets cost a longer scroll.
func (q *QdrantIndex) List(ctx context.Context, offset, limit int, source string) ([]models.IndexedDocument, int, error) {
	exact := true
	filter := sourceFilter(source)
	total, err := q.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: q.collection,
		Filter:         filter,
		Exact:          &exact,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count points: %w", err)
	}
	if offset >= int(total) || limit <= 0 {
		return []models.IndexedDocument{}, int(total), nil
	}

	points, err := q.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: q.collection,
		Filter:         filter,
		Limit:          qdrant.PtrOf(uint32(offset + limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to scroll points: %w", err)
	}

	docs := make([]models.IndexedDocument, 0, limit)
	for idx, point := range points {
		if idx < offset {
			continue
		}
		docID, chunk := payloadChunk(point.GetPayload())
		docs = append(docs, models.IndexedDocument{ID: docID, Payload: chunk})
	}
	return docs, int(total), nil
}

// Drop deletes the project collection
func (q *QdrantIndex) Drop(ctx context.Context) error {
	if err := q.client.DeleteCollection(ctx, q.collection); err != nil {
		return fmt.Errorf("failed to delete collection %s: %w", q.collection, err)
	}
	return nil
}

// Close leaves the shared client open; the registry owns it
func (q *QdrantIndex) Close() error {
	return nil
}
