package transcript

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/neighborhood/internal/models"
)

// ErrNoCaptionTracks is returned when a video page lists no captions
var ErrNoCaptionTracks = errors.New("video has no caption tracks")

// CaptionTrack is one caption language offered for a video
type CaptionTrack struct {
	LanguageCode string
	Name         string
	Generated    bool
	Translatable bool
	BaseURL      string
}

// TrackSource lists and fetches the caption tracks of a video
type TrackSource interface {
	ListTracks(ctx context.Context, videoID string) ([]CaptionTrack, error)
	// FetchTrack downloads a track; a non-empty translateTo asks for a machine translation
	FetchTrack(ctx context.Context, track CaptionTrack, translateTo string) ([]models.TranscriptEntry, error)
}

// WatchPageTracks reads caption tracks from the player response embedded in the watch page
type WatchPageTracks struct {
	client  *http.Client
	baseURL string
	logger  arbor.ILogger
}

func NewWatchPageTracks(client *http.Client, logger arbor.ILogger) *WatchPageTracks {
	if client == nil {
		client = http.DefaultClient
	}
	return &WatchPageTracks{
		client:  client,
		baseURL: "https://www.youtube.com",
		logger:  logger,
	}
}

type playerCaptionTrack struct {
	BaseURL string `json:"baseUrl"`
	Name    struct {
		SimpleText string `json:"simpleText"`
		Runs       []struct {
			Text string `json:"text"`
		} `json:"runs"`
	} `json:"name"`
	LanguageCode   string `json:"languageCode"`
	Kind           string `json:"kind"`
	IsTranslatable bool   `json:"isTranslatable"`
}

func (w *WatchPageTracks) ListTracks(ctx context.Context, videoID string) ([]CaptionTrack, error) {
	body, err := w.get(ctx, w.baseURL+"/watch?v="+url.QueryEscape(videoID))
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse watch page: %w", err)
	}

	var raw string
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		if arr, ok := extractJSONArray(text, `"captionTracks":`); ok {
			raw = arr
			return false
		}
		return true
	})
	if raw == "" {
		return nil, ErrNoCaptionTracks
	}

	var parsed []playerCaptionTrack
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode caption tracks: %w", err)
	}

	tracks := make([]CaptionTrack, 0, len(parsed))
	for _, p := range parsed {
		name := p.Name.SimpleText
		if name == "" && len(p.Name.Runs) > 0 {
			name = p.Name.Runs[0].Text
		}
		tracks = append(tracks, CaptionTrack{
			LanguageCode: p.LanguageCode,
			Name:         name,
			Generated:    p.Kind == "asr",
			Translatable: p.IsTranslatable,
			BaseURL:      p.BaseURL,
		})
	}
	if len(tracks) == 0 {
		return nil, ErrNoCaptionTracks
	}
	return tracks, nil
}

func (w *WatchPageTracks) FetchTrack(ctx context.Context, track CaptionTrack, translateTo string) ([]models.TranscriptEntry, error) {
	if track.BaseURL == "" {
		return nil, fmt.Errorf("caption track %s has no URL", track.LanguageCode)
	}
	trackURL := track.BaseURL + "&fmt=json3"
	if translateTo != "" {
		if !track.Translatable {
			return nil, fmt.Errorf("caption track %s is not translatable", track.LanguageCode)
		}
		trackURL += "&tlang=" + url.QueryEscape(translateTo)
	}

	body, err := w.get(ctx, trackURL)
	if err != nil {
		return nil, err
	}
	entries, err := ParseJSON3(body)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("caption track %s is empty", track.LanguageCode)
	}
	return entries, nil
}

func (w *WatchPageTracks) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch %s: HTTP %d", target, resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 16*1024*1024))
}

// extractJSONArray finds key in s and returns the balanced JSON array that follows it
func extractJSONArray(s, key string) (string, bool) {
	idx := strings.Index(s, key)
	if idx < 0 {
		return "", false
	}
	rest := s[idx+len(key):]
	start := strings.IndexByte(rest, '[')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(rest); i++ {
		c := rest[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return rest[start : i+1], true
			}
		}
	}
	return "", false
}
