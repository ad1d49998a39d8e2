// Package transcript collects caption text from video playlists and single videos.
package transcript

import "regexp"

var (
	playlistPatterns = []*regexp.Regexp{
		regexp.MustCompile(`list=([a-zA-Z0-9_-]+)`),
	}
	videoPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:v=|/)([0-9A-Za-z_-]{11})`),
		regexp.MustCompile(`(?:embed/)([0-9A-Za-z_-]{11})`),
		regexp.MustCompile(`(?:watch\?v=)([0-9A-Za-z_-]{11})`),
	}
)

// ExtractPlaylistID returns the list= parameter of a playlist URL, or ""
func ExtractPlaylistID(locator string) string {
	return firstMatch(playlistPatterns, locator)
}

// ExtractVideoID returns the 11 character video id of a video URL, or ""
func ExtractVideoID(locator string) string {
	return firstMatch(videoPatterns, locator)
}

func firstMatch(patterns []*regexp.Regexp, s string) string {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(s); m != nil {
			return m[1]
		}
	}
	return ""
}

// VideoURL is the canonical watch URL stored on transcript chunks
func VideoURL(videoID string) string {
	return "https://youtube.com/watch?v=" + videoID
}

// PlaylistURL is the URL handed to yt-dlp for unauthenticated listing
func PlaylistURL(playlistID string) string {
	return "https://www.youtube.com/playlist?list=" + playlistID
}
