package transcript

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/neighborhood/internal/common"
	"github.com/ternarybob/neighborhood/internal/interfaces"
	"github.com/ternarybob/neighborhood/internal/models"
	"github.com/ternarybob/neighborhood/internal/services/chunker"
)

// MethodTranscriptAPI is the collection method recorded on transcript sources
const MethodTranscriptAPI = "youtube_transcript_api"

// Service turns playlists and single videos into transcript segment units
type Service struct {
	lister    PlaylistLister
	fetcher   *Fetcher
	maxVideos int
	logger    arbor.ILogger
}

func NewService(lister PlaylistLister, fetcher *Fetcher, maxVideos int, logger arbor.ILogger) *Service {
	if maxVideos <= 0 {
		maxVideos = common.DefaultMaxVideos
	}
	return &Service{
		lister:    lister,
		fetcher:   fetcher,
		maxVideos: maxVideos,
		logger:    logger,
	}
}

// NewServiceFromConfig wires the watch page tracks, yt-dlp when the binary is found and,
// when an API key is set, the Data API lister
func NewServiceFromConfig(ctx context.Context, config common.TranscriptConfig, client *http.Client, logger arbor.ILogger) *Service {
	var fallback PlaylistLister
	var downloader SubtitleDownloader
	if ytdlp := NewYTDLP(config, logger); ytdlp.Available() {
		fallback, downloader = ytdlp, ytdlp
	} else {
		logger.Warn().Str("path", ytdlp.path).Msg("yt-dlp not found, subtitle fallback disabled")
	}

	var primary PlaylistLister
	if config.YouTubeAPIKey != "" {
		api, err := NewAPILister(ctx, config.YouTubeAPIKey, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("YouTube API unavailable, playlists will be listed with yt-dlp")
		} else {
			primary = api
		}
	}

	return NewService(
		NewFallbackLister(primary, fallback, logger),
		NewFetcher(NewWatchPageTracks(client, logger), downloader, logger),
		config.MaxVideos,
		logger,
	)
}

// CollectPlaylist fetches transcripts for every listed video until the byte or word cap trips
func (s *Service) CollectPlaylist(ctx context.Context, locator string, constraints models.CollectConstraints, progress models.ProgressFunc) (*models.CollectResult, error) {
	playlistID := ExtractPlaylistID(locator)
	if playlistID == "" {
		return nil, fmt.Errorf("%w: no playlist id in %q", interfaces.ErrInvalidLocator, locator)
	}

	max := constraints.MaxItems
	if max <= 0 {
		max = s.maxVideos
	}

	videos, err := s.lister.ListPlaylist(ctx, playlistID, max)
	if err != nil {
		s.logger.Warn().Err(err).Str("playlist_id", playlistID).Msg("Playlist listing failed")
	}

	budget := common.NewBudget(constraints.MaxBytes, constraints.MaxWords)
	result := &models.CollectResult{Units: []models.RawUnit{}, Method: MethodTranscriptAPI}
	collected := 0

	for i, video := range videos {
		if exhausted, msg := budget.Exhausted(); exhausted {
			result.LimitMessage = msg
			s.logger.Warn().Str("playlist_id", playlistID).Msg("Stopping playlist collection: " + msg)
			break
		}
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		transcript, err := s.fetcher.Fetch(ctx, video.VideoID)
		if err == nil {
			transcript.VideoInfo = video
			budget.Add(int64(len(transcript.FullText)), transcript.WordCount)
			result.Units = append(result.Units, segmentUnits(transcript, VideoURL(video.VideoID))...)
			collected++
		} else if ctx.Err() != nil {
			return result, ctx.Err()
		}

		if progress != nil {
			progress(i+1, len(videos), video.Title, budget.Usage())
		}
	}

	result.TotalBytes = budget.Bytes
	result.TotalWords = budget.Words

	s.logger.Info().
		Str("playlist_id", playlistID).
		Int("videos", len(videos)).
		Int("transcripts", collected).
		Str("usage", budget.Usage()).
		Str("limit_message", result.LimitMessage).
		Msg("Playlist collection complete")

	return result, nil
}

// CollectVideo fetches the transcript of a single video. A video without any
// transcript is an error, unlike a playlist entry.
func (s *Service) CollectVideo(ctx context.Context, locator string, constraints models.CollectConstraints, progress models.ProgressFunc) (*models.CollectResult, error) {
	videoID := ExtractVideoID(locator)
	if videoID == "" {
		return nil, fmt.Errorf("%w: no video id in %q", interfaces.ErrInvalidLocator, locator)
	}

	transcript, err := s.fetcher.Fetch(ctx, videoID)
	if err != nil {
		return nil, err
	}

	budget := common.NewBudget(constraints.MaxBytes, constraints.MaxWords)
	budget.Add(int64(len(transcript.FullText)), transcript.WordCount)
	if progress != nil {
		progress(1, 1, videoID, budget.Usage())
	}

	return &models.CollectResult{
		Units:      segmentUnits(transcript, locator),
		Method:     MethodTranscriptAPI,
		TotalBytes: budget.Bytes,
		TotalWords: budget.Words,
	}, nil
}

// segmentUnits emits one unit per grouped segment, timestamped at its start
func segmentUnits(t *models.Transcript, url string) []models.RawUnit {
	units := make([]models.RawUnit, 0, len(t.Segments))
	for _, seg := range t.Segments {
		start := seg.StartTime
		units = append(units, models.RawUnit{
			Kind:        models.UnitKindTranscriptSegment,
			URL:         url,
			Title:       t.Title,
			Description: t.Description,
			Text:        seg.Text,
			Timestamp:   &start,
			Date:        t.PublishedAt,
			Method:      t.Method,
			Bytes:       len(seg.Text),
			WordCount:   chunker.WordCount(seg.Text),
			Extra:       map[string]string{"video_id": t.VideoID},
		})
	}
	return units
}

// IsNoTranscript reports whether err means no strategy found captions
func IsNoTranscript(err error) bool {
	return errors.Is(err, ErrNoTranscript)
}

// PlaylistCollector adapts the service to the collector contract for playlist sources
type PlaylistCollector struct{ *Service }

func (c PlaylistCollector) Collect(ctx context.Context, locator string, constraints models.CollectConstraints, progress models.ProgressFunc) (*models.CollectResult, error) {
	return c.CollectPlaylist(ctx, locator, constraints, progress)
}

// VideoCollector adapts the service to the collector contract for single video sources
type VideoCollector struct{ *Service }

func (c VideoCollector) Collect(ctx context.Context, locator string, constraints models.CollectConstraints, progress models.ProgressFunc) (*models.CollectResult, error) {
	return c.CollectVideo(ctx, locator, constraints, progress)
}
