package transcript

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/neighborhood/internal/models"
)

// ErrNoTranscript is returned when every strategy failed for a video
var ErrNoTranscript = errors.New("no transcript available")

// Strategy method names recorded on each transcript
const (
	MethodEnglish        = "youtube_transcript_api-english"
	MethodEnglishVariant = "youtube_transcript_api-english-variant"
	MethodYTDLP          = "yt-dlp"
)

const targetLanguage = "en"

var regionalVariants = []string{"en-US", "en-GB"}

// Fetcher resolves the transcript of one video by trying, in order: an English track,
// a regional English variant, the first fetchable track, a translation to English,
// and finally the subtitle downloader. The downloader runs at most once per video.
type Fetcher struct {
	tracks     TrackSource
	downloader SubtitleDownloader
	logger     arbor.ILogger
}

func NewFetcher(tracks TrackSource, downloader SubtitleDownloader, logger arbor.ILogger) *Fetcher {
	return &Fetcher{
		tracks:     tracks,
		downloader: downloader,
		logger:     logger,
	}
}

// Fetch returns the grouped transcript for videoID or ErrNoTranscript
func (f *Fetcher) Fetch(ctx context.Context, videoID string) (*models.Transcript, error) {
	entries, method, language := f.fromTracks(ctx, videoID)

	if len(entries) == 0 && f.downloader != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		f.logger.Debug().Str("video_id", videoID).Msg("Trying yt-dlp fallback")
		downloaded, err := f.downloader.Download(ctx, videoID)
		if err != nil {
			f.logger.Debug().Err(err).Str("video_id", videoID).Msg("yt-dlp fallback failed")
		} else if len(downloaded) > 0 {
			entries, method, language = downloaded, MethodYTDLP, targetLanguage
		}
	}

	if len(entries) == 0 {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		f.logger.Warn().Str("video_id", videoID).Msg("No transcript available after trying all methods")
		return nil, fmt.Errorf("%w for video %s", ErrNoTranscript, videoID)
	}

	text := fullText(entries)
	f.logger.Debug().
		Str("video_id", videoID).
		Str("method", method).
		Int("entries", len(entries)).
		Msg("Transcript fetched")

	return &models.Transcript{
		VideoInfo: models.VideoInfo{VideoID: videoID},
		URL:       VideoURL(videoID),
		Language:  language,
		Method:    method,
		FullText:  text,
		Segments:  GroupSegments(entries),
		WordCount: len(strings.Fields(text)),
	}, nil
}

// fromTracks runs the caption track strategies. The track list is fetched once.
func (f *Fetcher) fromTracks(ctx context.Context, videoID string) ([]models.TranscriptEntry, string, string) {
	if f.tracks == nil {
		return nil, "", ""
	}

	tracks, err := f.tracks.ListTracks(ctx, videoID)
	if err != nil {
		f.logger.Debug().Err(err).Str("video_id", videoID).Msg("Caption track listing failed")
		return nil, "", ""
	}

	// English, then regional English variants
	if entries := f.fetchLanguage(ctx, tracks, []string{targetLanguage}); len(entries) > 0 {
		return entries, MethodEnglish, targetLanguage
	}
	if entries := f.fetchLanguage(ctx, tracks, regionalVariants); len(entries) > 0 {
		return entries, MethodEnglishVariant, targetLanguage
	}

	// First fetchable track of any language
	for _, track := range tracks {
		if ctx.Err() != nil {
			return nil, "", ""
		}
		entries, err := f.tracks.FetchTrack(ctx, track, "")
		if err == nil && len(entries) > 0 {
			kind := "manual"
			if track.Generated {
				kind = "auto"
			}
			return entries, fmt.Sprintf("youtube_transcript_api-%s-%s", track.LanguageCode, kind), track.LanguageCode
		}
	}

	// Machine translation of any track
	for _, track := range tracks {
		if ctx.Err() != nil {
			return nil, "", ""
		}
		entries, err := f.tracks.FetchTrack(ctx, track, targetLanguage)
		if err == nil && len(entries) > 0 {
			return entries, fmt.Sprintf("youtube_transcript_api-%s-translated", track.LanguageCode), targetLanguage
		}
	}

	return nil, "", ""
}

// fetchLanguage tries manual tracks before generated ones for each language in order
func (f *Fetcher) fetchLanguage(ctx context.Context, tracks []CaptionTrack, languages []string) []models.TranscriptEntry {
	for _, lang := range languages {
		for _, generated := range []bool{false, true} {
			for _, track := range tracks {
				if track.LanguageCode != lang || track.Generated != generated {
					continue
				}
				entries, err := f.tracks.FetchTrack(ctx, track, "")
				if err == nil && len(entries) > 0 {
					return entries
				}
				f.logger.Debug().Err(err).Str("language", lang).Msg("Caption track fetch failed")
			}
		}
	}
	return nil
}
