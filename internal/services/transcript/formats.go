package transcript

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/ternarybob/neighborhood/internal/models"
)

// vttDefaultDuration is assigned to cues since the end time is not parsed
const vttDefaultDuration = 3

type json3Document struct {
	Events []struct {
		StartMs    float64 `json:"tStartMs"`
		DurationMs float64 `json:"dDurationMs"`
		Segs       []struct {
			UTF8 string `json:"utf8"`
		} `json:"segs"`
	} `json:"events"`
}

// ParseJSON3 reads the json3 caption format: events carrying segs of utf8 text
func ParseJSON3(data []byte) ([]models.TranscriptEntry, error) {
	var doc json3Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse json3 captions: %w", err)
	}

	var entries []models.TranscriptEntry
	for _, event := range doc.Events {
		if len(event.Segs) == 0 {
			continue
		}
		var b strings.Builder
		for _, seg := range event.Segs {
			b.WriteString(seg.UTF8)
		}
		text := strings.TrimSpace(b.String())
		if text == "" {
			continue
		}
		entries = append(entries, models.TranscriptEntry{
			Text:     text,
			Start:    event.StartMs / 1000,
			Duration: event.DurationMs / 1000,
		})
	}
	return entries, nil
}

// ParseVTT reads WebVTT cues. Cue identifiers and the header are skipped.
func ParseVTT(data []byte) []models.TranscriptEntry {
	var entries []models.TranscriptEntry
	var text []string
	start := 0.0

	flush := func() {
		if len(text) > 0 {
			entries = append(entries, models.TranscriptEntry{
				Text:     strings.Join(text, " "),
				Start:    start,
				Duration: vttDefaultDuration,
			})
			text = nil
		}
	}

	for _, line := range strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.Contains(line, "-->"):
			if ts, ok := parseVTTTimestamp(strings.TrimSpace(strings.SplitN(line, "-->", 2)[0])); ok {
				start = ts
			}
		case trimmed == "":
			flush()
		case strings.HasPrefix(line, "WEBVTT"), isDigits(trimmed):
		default:
			text = append(text, trimmed)
		}
	}
	flush()
	return entries
}

// parseVTTTimestamp accepts hh:mm:ss.mmm and mm:ss.mmm (comma separators too)
func parseVTTTimestamp(s string) (float64, bool) {
	parts := strings.Split(strings.ReplaceAll(s, ",", "."), ":")
	switch len(parts) {
	case 3:
		h, err1 := strconv.Atoi(parts[0])
		m, err2 := strconv.Atoi(parts[1])
		sec, err3 := strconv.ParseFloat(parts[2], 64)
		if err1 != nil || err2 != nil || err3 != nil {
			return 0, false
		}
		return float64(h*3600+m*60) + sec, true
	case 2:
		m, err1 := strconv.Atoi(parts[0])
		sec, err2 := strconv.ParseFloat(parts[1], 64)
		if err1 != nil || err2 != nil {
			return 0, false
		}
		return float64(m*60) + sec, true
	}
	return 0, false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
