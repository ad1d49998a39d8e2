package transcript

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/neighborhood/internal/common"
	"github.com/ternarybob/neighborhood/internal/interfaces"
	"github.com/ternarybob/neighborhood/internal/models"
	"google.golang.org/api/option"
)

func TestExtractIDs(t *testing.T) {
	assert.Equal(t, "PLabc_123-x", ExtractPlaylistID("https://www.youtube.com/playlist?list=PLabc_123-x"))
	assert.Equal(t, "PLxyz", ExtractPlaylistID("https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=PLxyz"))
	assert.Empty(t, ExtractPlaylistID("https://www.youtube.com/watch?v=dQw4w9WgXcQ"))

	assert.Equal(t, "dQw4w9WgXcQ", ExtractVideoID("https://www.youtube.com/watch?v=dQw4w9WgXcQ"))
	assert.Equal(t, "dQw4w9WgXcQ", ExtractVideoID("https://youtu.be/dQw4w9WgXcQ"))
	assert.Equal(t, "dQw4w9WgXcQ", ExtractVideoID("https://www.youtube.com/embed/dQw4w9WgXcQ?start=10"))
	assert.Empty(t, ExtractVideoID("not a video"))
}

func makeEntries(n int) []models.TranscriptEntry {
	entries := make([]models.TranscriptEntry, n)
	for i := range entries {
		entries[i] = models.TranscriptEntry{Text: fmt.Sprintf("w%d", i), Start: float64(i * 3), Duration: 3}
	}
	return entries
}

func TestGroupSegments_EveryFortyEntries(t *testing.T) {
	segments := GroupSegments(makeEntries(85))
	require.Len(t, segments, 3)

	assert.Equal(t, 0.0, segments[0].StartTime)
	assert.Equal(t, 120.0, segments[0].EndTime)
	assert.Len(t, strings.Fields(segments[0].Text), 41)

	assert.Equal(t, 120.0, segments[1].StartTime)
	assert.Equal(t, 240.0, segments[1].EndTime)
	assert.Len(t, strings.Fields(segments[1].Text), 40)

	assert.Equal(t, 240.0, segments[2].StartTime)
	assert.Equal(t, 252.0, segments[2].EndTime)
	assert.Equal(t, "w81 w82 w83 w84", segments[2].Text)

	assert.Empty(t, GroupSegments(nil))
}

func TestParseJSON3(t *testing.T) {
	data := []byte(`{"events":[
{"tStartMs":0,"dDurationMs":1500,"segs":[{"utf8":"Good "},{"utf8":"evening"}]},
{"tStartMs":1500,"dDurationMs":500},
{"tStartMs":2000,"dDurationMs":1000,"segs":[{"utf8":"\n"}]},
{"tStartMs":2500,"dDurationMs":2000,"segs":[{"utf8":"everyone"}]}]}`)

	entries, err := ParseJSON3(data)
	require.NoError(t, err)
	assert.Equal(t, []models.TranscriptEntry{
		{Text: "Good evening", Start: 0, Duration: 1.5},
		{Text: "everyone", Start: 2.5, Duration: 2},
	}, entries)

	_, err = ParseJSON3([]byte("not json"))
	assert.Error(t, err)
}

func TestParseVTT(t *testing.T) {
	data := []byte("WEBVTT\n\n1\n00:00:01.000 --> 00:00:03.000\nCall to order\n\n2\n01:02.500 --> 01:04.000\nRoll call\nof members\n")
	entries := ParseVTT(data)
	require.Len(t, entries, 2)
	assert.Equal(t, models.TranscriptEntry{Text: "Call to order", Start: 1, Duration: 3}, entries[0])
	assert.Equal(t, models.TranscriptEntry{Text: "Roll call of members", Start: 62.5, Duration: 3}, entries[1])
}

// fakeTracks serves canned tracks; fetch outcomes are keyed by language and translation target
type fakeTracks struct {
	tracks  []CaptionTrack
	listErr error
	ok      map[string]bool
	fetched []string
}

func (f *fakeTracks) ListTracks(ctx context.Context, videoID string) ([]CaptionTrack, error) {
	return f.tracks, f.listErr
}

func (f *fakeTracks) FetchTrack(ctx context.Context, track CaptionTrack, translateTo string) ([]models.TranscriptEntry, error) {
	key := track.LanguageCode
	if track.Generated {
		key += "/auto"
	}
	if translateTo != "" {
		key += "->" + translateTo
	}
	f.fetched = append(f.fetched, key)
	if !f.ok[key] {
		return nil, errors.New("fetch failed")
	}
	return []models.TranscriptEntry{{Text: "from " + key, Start: 0, Duration: 1}}, nil
}

type fakeDownloader struct {
	calls   int
	entries []models.TranscriptEntry
	err     error
}

func (d *fakeDownloader) Download(ctx context.Context, videoID string) ([]models.TranscriptEntry, error) {
	d.calls++
	return d.entries, d.err
}

func TestFetcher_StrategyOrder(t *testing.T) {
	tests := []struct {
		name       string
		tracks     []CaptionTrack
		ok         map[string]bool
		wantMethod string
		wantText   string
	}{
		{
			name:       "manual english preferred over generated",
			tracks:     []CaptionTrack{{LanguageCode: "de"}, {LanguageCode: "en", Generated: true}, {LanguageCode: "en"}},
			ok:         map[string]bool{"en": true, "en/auto": true, "de": true},
			wantMethod: MethodEnglish,
			wantText:   "from en",
		},
		{
			name:       "regional variant",
			tracks:     []CaptionTrack{{LanguageCode: "es"}, {LanguageCode: "en-GB"}},
			ok:         map[string]bool{"en-GB": true, "es": true},
			wantMethod: MethodEnglishVariant,
			wantText:   "from en-GB",
		},
		{
			name:       "first fetchable track",
			tracks:     []CaptionTrack{{LanguageCode: "fr"}, {LanguageCode: "es", Generated: true}},
			ok:         map[string]bool{"es/auto": true},
			wantMethod: "youtube_transcript_api-es-auto",
			wantText:   "from es/auto",
		},
		{
			name:       "translation",
			tracks:     []CaptionTrack{{LanguageCode: "fr", Translatable: true}},
			ok:         map[string]bool{"fr->en": true},
			wantMethod: "youtube_transcript_api-fr-translated",
			wantText:   "from fr->en",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			downloader := &fakeDownloader{}
			fetcher := NewFetcher(&fakeTracks{tracks: tt.tracks, ok: tt.ok}, downloader, arbor.NewLogger())

			transcript, err := fetcher.Fetch(context.Background(), "abcdefghijk")
			require.NoError(t, err)
			assert.Equal(t, tt.wantMethod, transcript.Method)
			assert.Equal(t, tt.wantText, transcript.FullText)
			assert.Equal(t, VideoURL("abcdefghijk"), transcript.URL)
			assert.Zero(t, downloader.calls)
		})
	}
}

func TestFetcher_DownloaderRunsOnceAfterTracksFail(t *testing.T) {
	tracks := &fakeTracks{
		tracks: []CaptionTrack{{LanguageCode: "en"}, {LanguageCode: "fr", Translatable: true}},
		ok:     map[string]bool{},
	}
	downloader := &fakeDownloader{entries: makeEntries(3)}
	fetcher := NewFetcher(tracks, downloader, arbor.NewLogger())

	transcript, err := fetcher.Fetch(context.Background(), "abcdefghijk")
	require.NoError(t, err)
	assert.Equal(t, 1, downloader.calls)
	assert.Equal(t, MethodYTDLP, transcript.Method)
	assert.Equal(t, "w0 w1 w2", transcript.FullText)
	assert.Equal(t, 3, transcript.WordCount)
	assert.Equal(t, []string{"en", "en", "fr", "en->en", "fr->en"}, tracks.fetched)
}

func TestFetcher_NoTranscript(t *testing.T) {
	downloader := &fakeDownloader{err: ErrNoSubtitles}
	fetcher := NewFetcher(&fakeTracks{listErr: ErrNoCaptionTracks}, downloader, arbor.NewLogger())

	_, err := fetcher.Fetch(context.Background(), "abcdefghijk")
	assert.ErrorIs(t, err, ErrNoTranscript)
	assert.True(t, IsNoTranscript(err))
	assert.Equal(t, 1, downloader.calls)
}

func TestYTDLP_FallsBackToVTT(t *testing.T) {
	y := NewYTDLP(common.TranscriptConfig{TempDir: t.TempDir()}, arbor.NewLogger())

	var formats []string
	y.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		var format, output string
		for i, a := range args {
			switch a {
			case "--sub-format":
				format = args[i+1]
			case "--output":
				output = args[i+1]
			}
		}
		formats = append(formats, format)
		if format == "vtt" {
			path := strings.Replace(output, "%(id)s", "abcdefghijk", 1) + ".en.vtt"
			return nil, os.WriteFile(path, []byte("WEBVTT\n\n00:00:05.000 --> 00:00:07.000\nPublic comment\n"), 0644)
		}
		return nil, nil
	}

	entries, err := y.Download(context.Background(), "abcdefghijk")
	require.NoError(t, err)
	assert.Equal(t, []string{"json3", "vtt"}, formats)
	require.Len(t, entries, 1)
	assert.Equal(t, "Public comment", entries[0].Text)
	assert.Equal(t, 5.0, entries[0].Start)

	// The private directory is removed afterwards
	left, err := filepath.Glob(filepath.Join(y.tempDir, "subs-*"))
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestYTDLP_ListPlaylist(t *testing.T) {
	y := NewYTDLP(common.TranscriptConfig{}, arbor.NewLogger())
	var gotArgs []string
	y.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		gotArgs = args
		return []byte(`{"id":"vid00000001","title":"Meeting 1","upload_date":"20240105"}
garbage line
{"id":"vid00000002","thumbnails":[{"url":"http://img/2.jpg"}]}
`), nil
	}

	videos, err := y.ListPlaylist(context.Background(), "PL1", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"--flat-playlist", "--dump-json", "--playlist-end", "10", PlaylistURL("PL1")}, gotArgs)
	require.Len(t, videos, 2)
	assert.Equal(t, models.VideoInfo{VideoID: "vid00000001", Title: "Meeting 1", PublishedAt: "20240105"}, videos[0])
	assert.Equal(t, "Unknown", videos[1].Title)
	assert.Equal(t, "http://img/2.jpg", videos[1].Thumbnail)
}

func TestNewServiceFromConfig_YTDLPAvailability(t *testing.T) {
	missing := common.TranscriptConfig{YTDLPPath: filepath.Join(t.TempDir(), "yt-dlp")}
	assert.False(t, NewYTDLP(missing, arbor.NewLogger()).Available())

	svc := NewServiceFromConfig(context.Background(), missing, nil, arbor.NewLogger())
	assert.Nil(t, svc.fetcher.downloader)
	lister, ok := svc.lister.(*FallbackLister)
	require.True(t, ok)
	assert.Nil(t, lister.fallback)
	_, err := svc.lister.ListPlaylist(context.Background(), "PLabc", 5)
	assert.Error(t, err)

	binary := filepath.Join(t.TempDir(), "yt-dlp")
	require.NoError(t, os.WriteFile(binary, []byte("#!/bin/sh\nexit 0\n"), 0o755))
	present := common.TranscriptConfig{YTDLPPath: binary}
	assert.True(t, NewYTDLP(present, arbor.NewLogger()).Available())

	svc = NewServiceFromConfig(context.Background(), present, nil, arbor.NewLogger())
	assert.IsType(t, &YTDLP{}, svc.fetcher.downloader)
	lister, ok = svc.lister.(*FallbackLister)
	require.True(t, ok)
	assert.IsType(t, &YTDLP{}, lister.fallback)
}

func TestWatchPageTracks(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/watch":
			fmt.Fprintf(w, `<html><head><script>var ytInitialPlayerResponse = {"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":[{"baseUrl":"%s/api/timedtext?v=abc&lang=en","name":{"simpleText":"English [auto]"},"languageCode":"en","kind":"asr","isTranslatable":true}]}}};</script></head><body></body></html>`, server.URL)
		case "/api/timedtext":
			assert.Equal(t, "json3", r.URL.Query().Get("fmt"))
			assert.Equal(t, "en", r.URL.Query().Get("lang"))
			fmt.Fprint(w, `{"events":[{"tStartMs":1000,"dDurationMs":2000,"segs":[{"utf8":"Welcome"}]}]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	tracks := NewWatchPageTracks(server.Client(), arbor.NewLogger())
	tracks.baseURL = server.URL

	list, err := tracks.ListTracks(context.Background(), "abcdefghijk")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "en", list[0].LanguageCode)
	assert.True(t, list[0].Generated)
	assert.Equal(t, "English [auto]", list[0].Name)

	entries, err := tracks.FetchTrack(context.Background(), list[0], "")
	require.NoError(t, err)
	assert.Equal(t, []models.TranscriptEntry{{Text: "Welcome", Start: 1, Duration: 2}}, entries)
}

func TestAPILister_Pages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "PL1", r.URL.Query().Get("playlistId"))
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("pageToken") == "" {
			fmt.Fprint(w, `{"items":[{"snippet":{"title":"Meeting 1","description":"d1","publishedAt":"2024-01-01T00:00:00Z","thumbnails":{"default":{"url":"http://img/1.jpg"}}},"contentDetails":{"videoId":"vid00000001"}}],"nextPageToken":"p2"}`)
			return
		}
		fmt.Fprint(w, `{"items":[{"snippet":{"title":"Meeting 2"},"contentDetails":{"videoId":"vid00000002"}}]}`)
	}))
	defer server.Close()

	lister, err := NewAPILister(context.Background(), "test-key", arbor.NewLogger(), option.WithEndpoint(server.URL+"/"))
	require.NoError(t, err)

	videos, err := lister.ListPlaylist(context.Background(), "PL1", 50)
	require.NoError(t, err)
	require.Len(t, videos, 2)
	assert.Equal(t, models.VideoInfo{
		VideoID:     "vid00000001",
		Title:       "Meeting 1",
		Description: "d1",
		PublishedAt: "2024-01-01T00:00:00Z",
		Thumbnail:   "http://img/1.jpg",
	}, videos[0])
	assert.Equal(t, "vid00000002", videos[1].VideoID)
}

type fakeLister struct {
	videos []models.VideoInfo
	err    error
	calls  int
}

func (l *fakeLister) ListPlaylist(ctx context.Context, playlistID string, max int) ([]models.VideoInfo, error) {
	l.calls++
	if len(l.videos) > max {
		return l.videos[:max], l.err
	}
	return l.videos, l.err
}

func TestFallbackLister(t *testing.T) {
	primary := &fakeLister{err: errors.New("quota exceeded")}
	fallback := &fakeLister{videos: []models.VideoInfo{{VideoID: "vid00000001"}}}

	videos, err := NewFallbackLister(primary, fallback, arbor.NewLogger()).ListPlaylist(context.Background(), "PL1", 5)
	require.NoError(t, err)
	assert.Len(t, videos, 1)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, fallback.calls)

	_, err = NewFallbackLister(nil, fallback, arbor.NewLogger()).ListPlaylist(context.Background(), "PL1", 5)
	require.NoError(t, err)
	assert.Equal(t, 2, fallback.calls)
}

// entryTracks answers every video with the same English transcript
func entryTracks() *fakeTracks {
	return &fakeTracks{tracks: []CaptionTrack{{LanguageCode: "en"}}, ok: map[string]bool{"en": true}}
}

func TestPlaylistCollector_UnitsAndWordCap(t *testing.T) {
	lister := &fakeLister{videos: []models.VideoInfo{
		{VideoID: "vid00000001", Title: "Meeting 1", PublishedAt: "2024-01-01"},
		{VideoID: "vid00000002", Title: "Meeting 2"},
		{VideoID: "vid00000003", Title: "Meeting 3"},
	}}
	fetcher := NewFetcher(entryTracks(), nil, arbor.NewLogger())
	service := NewService(lister, fetcher, 0, arbor.NewLogger())

	var progress []int
	result, err := PlaylistCollector{service}.Collect(context.Background(), "https://www.youtube.com/playlist?list=PL1",
		models.CollectConstraints{MaxWords: 4}, func(processed, total int, label, extra string) {
			assert.Equal(t, 3, total)
			progress = append(progress, processed)
		})
	require.NoError(t, err)

	// Each transcript is "from en" (2 words); the cap of 4 trips after two videos
	require.Len(t, result.Units, 2)
	assert.Equal(t, []int{1, 2}, progress)
	assert.Equal(t, "Word limit reached (4 / 4 words)", result.LimitMessage)
	assert.Equal(t, MethodTranscriptAPI, result.Method)

	unit := result.Units[0]
	assert.Equal(t, models.UnitKindTranscriptSegment, unit.Kind)
	assert.Equal(t, VideoURL("vid00000001"), unit.URL)
	assert.Equal(t, "Meeting 1", unit.Title)
	assert.Equal(t, "2024-01-01", unit.Date)
	assert.Equal(t, "vid00000001", unit.Extra["video_id"])
	require.NotNil(t, unit.Timestamp)
	assert.Equal(t, 0.0, *unit.Timestamp)
}

func TestVideoCollector(t *testing.T) {
	service := NewService(&fakeLister{}, NewFetcher(entryTracks(), nil, arbor.NewLogger()), 0, arbor.NewLogger())

	result, err := VideoCollector{service}.Collect(context.Background(), "https://www.youtube.com/watch?v=abcdefghijk", models.CollectConstraints{}, nil)
	require.NoError(t, err)
	require.Len(t, result.Units, 1)
	assert.Equal(t, "https://www.youtube.com/watch?v=abcdefghijk", result.Units[0].URL)

	_, err = VideoCollector{service}.Collect(context.Background(), "https://example.com", models.CollectConstraints{}, nil)
	assert.ErrorIs(t, err, interfaces.ErrInvalidLocator)

	empty := NewService(&fakeLister{}, NewFetcher(&fakeTracks{listErr: ErrNoCaptionTracks}, nil, arbor.NewLogger()), 0, arbor.NewLogger())
	_, err = VideoCollector{empty}.Collect(context.Background(), "https://youtu.be/abcdefghijk", models.CollectConstraints{}, nil)
	assert.ErrorIs(t, err, ErrNoTranscript)
}
