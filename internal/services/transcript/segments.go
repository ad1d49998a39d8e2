package transcript

import (
	"strings"

	"github.com/ternarybob/neighborhood/internal/models"
)

// entriesPerSegment groups captions into roughly two minute windows
const entriesPerSegment = 40

// GroupSegments folds caption entries into citation segments. A segment is closed
// at every entry index i > 0 with i%40 == 0; that entry is included in the closing
// segment and its start becomes the next segment's start time.
func GroupSegments(entries []models.TranscriptEntry) []models.TranscriptSegment {
	var segments []models.TranscriptSegment
	var current []string
	currentStart := 0.0

	for i, entry := range entries {
		current = append(current, entry.Text)
		if i > 0 && i%entriesPerSegment == 0 {
			segments = append(segments, models.TranscriptSegment{
				StartTime: currentStart,
				EndTime:   entry.Start,
				Text:      strings.Join(current, " "),
			})
			current = nil
			currentStart = entry.Start
		}
	}

	if len(current) > 0 {
		segments = append(segments, models.TranscriptSegment{
			StartTime: currentStart,
			EndTime:   entries[len(entries)-1].Start,
			Text:      strings.Join(current, " "),
		})
	}
	return segments
}

// fullText joins every entry's text with single spaces
func fullText(entries []models.TranscriptEntry) string {
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = e.Text
	}
	return strings.Join(parts, " ")
}
