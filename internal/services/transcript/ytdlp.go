package transcript

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/neighborhood/internal/common"
	"github.com/ternarybob/neighborhood/internal/models"
)

// ErrNoSubtitles is returned when yt-dlp produced no subtitle file
var ErrNoSubtitles = errors.New("yt-dlp found no subtitles")

// SubtitleDownloader fetches captions with an external tool
type SubtitleDownloader interface {
	Download(ctx context.Context, videoID string) ([]models.TranscriptEntry, error)
}

// commandRunner runs a subprocess and returns its stdout
type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > 500 {
			msg = msg[:500]
		}
		return stdout.Bytes(), fmt.Errorf("%s failed: %w: %s", name, err, msg)
	}
	return stdout.Bytes(), nil
}

// YTDLP wraps the yt-dlp binary for subtitle download and playlist listing
type YTDLP struct {
	path            string
	subtitleTimeout time.Duration
	listingTimeout  time.Duration
	tempDir         string
	run             commandRunner
	logger          arbor.ILogger
}

func NewYTDLP(config common.TranscriptConfig, logger arbor.ILogger) *YTDLP {
	path := config.YTDLPPath
	if path == "" {
		path = "yt-dlp"
	}
	subtitleTimeout := config.SubtitleTimeout.Duration()
	if subtitleTimeout <= 0 {
		subtitleTimeout = 60 * time.Second
	}
	listingTimeout := config.ListingTimeout.Duration()
	if listingTimeout <= 0 {
		listingTimeout = 120 * time.Second
	}
	return &YTDLP{
		path:            path,
		subtitleTimeout: subtitleTimeout,
		listingTimeout:  listingTimeout,
		tempDir:         config.TempDir,
		run:             execRunner,
		logger:          logger,
	}
}

// Available reports whether the binary can be found
func (y *YTDLP) Available() bool {
	_, err := exec.LookPath(y.path)
	return err == nil
}

// Download writes subtitles into a private temp directory, json3 first and vtt when
// no json3 file appears, then parses the first file found.
func (y *YTDLP) Download(ctx context.Context, videoID string) ([]models.TranscriptEntry, error) {
	dir, err := os.MkdirTemp(y.tempDir, "subs-")
	if err != nil {
		return nil, fmt.Errorf("failed to create subtitle directory: %w", err)
	}
	defer os.RemoveAll(dir)

	for _, format := range []string{"json3", "vtt"} {
		runCtx, cancel := context.WithTimeout(ctx, y.subtitleTimeout)
		_, runErr := y.run(runCtx, y.path,
			"--skip-download",
			"--write-subs",
			"--write-auto-subs",
			"--sub-langs", "en.*,en",
			"--sub-format", format,
			"--output", filepath.Join(dir, "%(id)s"),
			"https://www.youtube.com/watch?v="+videoID,
		)
		cancel()
		if runErr != nil {
			y.logger.Debug().Err(runErr).Str("video_id", videoID).Str("format", format).Msg("yt-dlp subtitle run failed")
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		path, ok := findSubtitleFile(dir, "."+format)
		if !ok {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read subtitles: %w", err)
		}

		var entries []models.TranscriptEntry
		if format == "json3" {
			entries, err = ParseJSON3(data)
			if err != nil {
				return nil, err
			}
		} else {
			entries = ParseVTT(data)
		}
		if len(entries) == 0 {
			return nil, ErrNoSubtitles
		}
		return entries, nil
	}

	return nil, ErrNoSubtitles
}

func findSubtitleFile(dir, ext string) (string, bool) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, f := range files {
		if !f.IsDir() && strings.HasSuffix(f.Name(), ext) {
			return filepath.Join(dir, f.Name()), true
		}
	}
	return "", false
}

type flatPlaylistEntry struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	UploadDate  string `json:"upload_date"`
	Thumbnail   string `json:"thumbnail"`
	Thumbnails  []struct {
		URL string `json:"url"`
	} `json:"thumbnails"`
}

// ListPlaylist lists up to max videos without credentials
func (y *YTDLP) ListPlaylist(ctx context.Context, playlistID string, max int) ([]models.VideoInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, y.listingTimeout)
	defer cancel()

	out, err := y.run(ctx, y.path,
		"--flat-playlist",
		"--dump-json",
		"--playlist-end", strconv.Itoa(max),
		PlaylistURL(playlistID),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlist with yt-dlp: %w", err)
	}
	return parseFlatPlaylist(out), nil
}

// parseFlatPlaylist reads one JSON object per line, skipping lines that do not parse
func parseFlatPlaylist(out []byte) []models.VideoInfo {
	var videos []models.VideoInfo
	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var entry flatPlaylistEntry
		if err := json.Unmarshal(line, &entry); err != nil || entry.ID == "" {
			continue
		}
		title := entry.Title
		if title == "" {
			title = "Unknown"
		}
		thumbnail := entry.Thumbnail
		if thumbnail == "" && len(entry.Thumbnails) > 0 {
			thumbnail = entry.Thumbnails[0].URL
		}
		videos = append(videos, models.VideoInfo{
			VideoID:     entry.ID,
			Title:       title,
			Description: entry.Description,
			PublishedAt: entry.UploadDate,
			Thumbnail:   thumbnail,
		})
	}
	return videos
}
