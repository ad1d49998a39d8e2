package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/neighborhood/internal/common"
)

// maxPageBytes bounds a single response body
const maxPageBytes = 32 * 1024 * 1024

// FetchedPage is a raw page as returned by a fetcher
type FetchedPage struct {
	URL         string
	HTML        string
	ContentType string
	Bytes       int64
	Title       string // Only set by fetchers that render the page
}

// PageFetcher retrieves one URL
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*FetchedPage, error)
}

// HTTPFetcher fetches pages with a plain HTTP GET
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	retry     *RetryPolicy
	logger    arbor.ILogger
}

// NewHTTPFetcher creates a fetcher. A nil client gets one with the configured timeout.
func NewHTTPFetcher(config common.CrawlerConfig, client *http.Client, logger arbor.ILogger) *HTTPFetcher {
	if client == nil {
		timeout := config.RequestTimeout.Duration()
		if timeout <= 0 {
			timeout = common.DefaultFetchTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = common.DefaultUserAgent
	}
	return &HTTPFetcher{
		client:    client,
		userAgent: userAgent,
		retry:     NewRetryPolicy(),
		logger:    logger,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*FetchedPage, error) {
	var page *FetchedPage

	statusCode, err := f.retry.ExecuteWithRetry(ctx, f.logger, func() (int, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return 0, err
		}
		req.Header.Set("User-Agent", f.userAgent)

		start := time.Now()
		resp, err := f.client.Do(req)
		if err != nil {
			return 0, err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			return resp.StatusCode, nil
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
		if err != nil {
			return resp.StatusCode, fmt.Errorf("failed to read body: %w", err)
		}

		f.logger.Debug().
			Str("url", url).
			Int("status_code", resp.StatusCode).
			Int("bytes", len(body)).
			Dur("duration", time.Since(start)).
			Msg("Page fetched")

		page = &FetchedPage{
			URL:         resp.Request.URL.String(),
			HTML:        string(body),
			ContentType: resp.Header.Get("Content-Type"),
			Bytes:       int64(len(body)),
		}
		return resp.StatusCode, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	if statusCode >= 400 || page == nil {
		return nil, fmt.Errorf("failed to fetch %s: HTTP %d", url, statusCode)
	}
	return page, nil
}
