package models

// Unit kinds produced by collectors
const (
	UnitKindPage              = "page"
	UnitKindTranscriptSegment = "transcript_segment"
	UnitKindDocument          = "document"
)

// RawUnit is one transient item produced by a collector before chunking
type RawUnit struct {
	Kind        string            `json:"kind"`
	URL         string            `json:"url"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Text        string            `json:"text"`
	Timestamp   *float64          `json:"timestamp,omitempty"` // Seconds into a video
	Date        string            `json:"date,omitempty"`
	Method      string            `json:"method,omitempty"`
	Bytes       int               `json:"bytes"`
	WordCount   int               `json:"word_count"`
	Extra       map[string]string `json:"extra,omitempty"`
}

// CollectConstraints bounds a single collector invocation.
// Zero values fall back to the collector defaults.
type CollectConstraints struct {
	MaxItems       int   `json:"max_items"`
	MaxBytes       int64 `json:"max_bytes"`
	MaxWords       int   `json:"max_words"`
	SameDomainOnly bool  `json:"same_domain_only"`
}

// ProgressFunc receives collector progress. extra carries a human readable
// budget summary such as "1.2MB / 3,400 words".
type ProgressFunc func(processed, total int, label, extra string)

// CollectResult is the ordered output of one collector run.
// LimitMessage is set when a resource cap ended the run early.
type CollectResult struct {
	Units        []RawUnit `json:"units"`
	LimitMessage string    `json:"limit_message,omitempty"`
	Method       string    `json:"method"`
	TotalBytes   int64     `json:"total_bytes"`
	TotalWords   int       `json:"total_words"`
}

// Chunk is the unit of retrieval; its payload alone is enough to cite it
type Chunk struct {
	Text             string            `json:"text"`
	Source           string            `json:"source"`
	SourceType       string            `json:"source_type"`
	URL              string            `json:"url"`
	Title            string            `json:"title"`
	Date             string            `json:"date"`
	CollectionMethod string            `json:"collection_method"`
	WordCount        int               `json:"word_count"`
	Timestamp        *float64          `json:"timestamp,omitempty"`
	Extra            map[string]string `json:"extra,omitempty"`
}

// IndexedDocument is a chunk stored in the embedding index
type IndexedDocument struct {
	ID      string    `json:"id"`
	Vector  []float32 `json:"-"`
	Payload Chunk     `json:"payload"`
}

// SearchResult is one ranked hit from the embedding index
type SearchResult struct {
	ID      string  `json:"id"`
	Score   float64 `json:"score"`
	Payload Chunk   `json:"payload"`
}

// IndexStats summarizes an embedding index
type IndexStats struct {
	DocumentCount   int    `json:"document_count"`
	VectorDimension int    `json:"vector_dimension"`
	DistanceMetric  string `json:"distance_metric"`
}
