package index

import (
	"strconv"

	"github.com/ternarybob/neighborhood/internal/models"
)

// Payload keys written for every chunk. Anything else is an extra.
const (
	keySource           = "source"
	keySourceType       = "source_type"
	keyURL              = "url"
	keyTitle            = "title"
	keyDate             = "date"
	keyWordCount        = "word_count"
	keyCollectionMethod = "collection_method"
	keyTimestamp        = "timestamp"
	keyText             = "text"
	keyDocID            = "doc_id"
)

var reservedKeys = map[string]bool{
	keySource: true, keySourceType: true, keyURL: true, keyTitle: true, keyDate: true,
	keyWordCount: true, keyCollectionMethod: true, keyTimestamp: true, keyText: true, keyDocID: true,
}

// chunkMetadata flattens a chunk payload into string metadata
func chunkMetadata(chunk models.Chunk) map[string]string {
	meta := map[string]string{
		keySource:           chunk.Source,
		keySourceType:       chunk.SourceType,
		keyURL:              chunk.URL,
		keyTitle:            chunk.Title,
		keyDate:             chunk.Date,
		keyWordCount:        strconv.Itoa(chunk.WordCount),
		keyCollectionMethod: chunk.CollectionMethod,
	}
	if chunk.Timestamp != nil {
		meta[keyTimestamp] = strconv.FormatFloat(*chunk.Timestamp, 'f', -1, 64)
	}
	for k, v := range chunk.Extra {
		if !reservedKeys[k] {
			meta[k] = v
		}
	}
	return meta
}

// metadataChunk rebuilds a chunk payload from string metadata
func metadataChunk(meta map[string]string, text string) models.Chunk {
	chunk := models.Chunk{
		Text:             text,
		Source:           meta[keySource],
		SourceType:       meta[keySourceType],
		URL:              meta[keyURL],
		Title:            meta[keyTitle],
		Date:             meta[keyDate],
		CollectionMethod: meta[keyCollectionMethod],
	}
	chunk.WordCount, _ = strconv.Atoi(meta[keyWordCount])
	if ts, ok := meta[keyTimestamp]; ok {
		if v, err := strconv.ParseFloat(ts, 64); err == nil {
			chunk.Timestamp = &v
		}
	}
	for k, v := range meta {
		if reservedKeys[k] {
			continue
		}
		if chunk.Extra == nil {
			chunk.Extra = make(map[string]string)
		}
		chunk.Extra[k] = v
	}
	return chunk
}
