package transcript

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/neighborhood/internal/models"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// maxPageSize is the largest page playlistItems.list returns
const maxPageSize = 50

// PlaylistLister enumerates the videos of a playlist
type PlaylistLister interface {
	ListPlaylist(ctx context.Context, playlistID string, max int) ([]models.VideoInfo, error)
}

// APILister lists playlists through the YouTube Data API v3
type APILister struct {
	service *youtube.Service
	logger  arbor.ILogger
}

// NewAPILister creates an API lister authenticated with apiKey
func NewAPILister(ctx context.Context, apiKey string, logger arbor.ILogger, opts ...option.ClientOption) (*APILister, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}
	return &APILister{service: service, logger: logger}, nil
}

func (a *APILister) ListPlaylist(ctx context.Context, playlistID string, max int) ([]models.VideoInfo, error) {
	var videos []models.VideoInfo
	pageToken := ""

	for len(videos) < max {
		call := a.service.PlaylistItems.List([]string{"snippet", "contentDetails"}).
			PlaylistId(playlistID).
			MaxResults(int64(min(maxPageSize, max-len(videos)))).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return videos, fmt.Errorf("playlistItems.list failed: %w", err)
		}

		for _, item := range resp.Items {
			if item.ContentDetails == nil || item.Snippet == nil {
				continue
			}
			info := models.VideoInfo{
				VideoID:     item.ContentDetails.VideoId,
				Title:       item.Snippet.Title,
				Description: item.Snippet.Description,
				PublishedAt: item.Snippet.PublishedAt,
			}
			if item.Snippet.Thumbnails != nil && item.Snippet.Thumbnails.Default != nil {
				info.Thumbnail = item.Snippet.Thumbnails.Default.Url
			}
			videos = append(videos, info)
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}

	if len(videos) > max {
		videos = videos[:max]
	}
	return videos, nil
}

// FallbackLister uses the API when configured and yt-dlp otherwise or when the API fails
type FallbackLister struct {
	primary  PlaylistLister
	fallback PlaylistLister
	logger   arbor.ILogger
}

// NewFallbackLister accepts a nil primary when no API key is configured
func NewFallbackLister(primary, fallback PlaylistLister, logger arbor.ILogger) *FallbackLister {
	return &FallbackLister{primary: primary, fallback: fallback, logger: logger}
}

func (f *FallbackLister) ListPlaylist(ctx context.Context, playlistID string, max int) ([]models.VideoInfo, error) {
	if f.primary != nil {
		videos, err := f.primary.ListPlaylist(ctx, playlistID, max)
		if err == nil {
			return videos, nil
		}
		event := f.logger.Warn().Err(err).Str("playlist_id", playlistID)
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && (gerr.Code == http.StatusForbidden || gerr.Code == http.StatusUnauthorized) {
			event = event.Str("hint", "check the YouTube API key and quota")
		}
		event.Msg("YouTube API listing failed, falling back to yt-dlp")
	}
	if f.fallback == nil {
		return nil, errors.New("no playlist lister available")
	}
	return f.fallback.ListPlaylist(ctx, playlistID, max)
}
