package models

// TranscriptEntry is a raw caption cue
type TranscriptEntry struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// TranscriptSegment groups consecutive caption entries
type TranscriptSegment struct {
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Text      string  `json:"text"`
}

// VideoInfo is a playlist entry
type VideoInfo struct {
	VideoID     string `json:"video_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	PublishedAt string `json:"published_at"`
	Thumbnail   string `json:"thumbnail"`
}

// Transcript is the full caption text of one video
type Transcript struct {
	VideoInfo
	URL       string              `json:"url"`
	Language  string              `json:"language"`
	Method    string              `json:"method"`
	FullText  string              `json:"full_transcript"`
	Segments  []TranscriptSegment `json:"segments"`
	WordCount int                 `json:"word_count"`
}
