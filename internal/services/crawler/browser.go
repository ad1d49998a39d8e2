package crawler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/neighborhood/internal/common"
)

// settleDelay lets client-side scripts finish after the body is ready
const settleDelay = 2 * time.Second

// BrowserFetcher renders pages in a headless Chrome owned by one browser context.
// It is not safe for concurrent use; the rendered collector drives it from a single goroutine.
type BrowserFetcher struct {
	browserCtx context.Context
	timeout    time.Duration
	settle     time.Duration
	logger     arbor.ILogger
}

// allocatorOptions builds the chromedp exec allocator options from config
func allocatorOptions(config common.CrawlerConfig) []chromedp.ExecAllocatorOption {
	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = common.DefaultUserAgent
	}

	opts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", config.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-background-timer-throttling", false),
		chromedp.Flag("disable-renderer-backgrounding", false),
		chromedp.UserAgent(userAgent),
	)
	for _, flag := range config.ChromeFlags {
		opts = append(opts, chromedp.Flag(flag, true))
	}
	return opts
}

// newBrowser starts a private allocator and browser. The returned cancel tears both down.
func newBrowser(parent context.Context, config common.CrawlerConfig, logger arbor.ILogger) (*BrowserFetcher, context.CancelFunc, error) {
	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(parent, allocatorOptions(config)...)
	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx,
		chromedp.WithLogf(func(s string, i ...interface{}) {
			logger.Trace().Msg(fmt.Sprintf(s, i...))
		}),
	)
	cancel := func() {
		browserCancel()
		allocatorCancel()
	}

	// Start the browser now so launch failures surface before the crawl begins
	if err := chromedp.Run(browserCtx, chromedp.Navigate("about:blank")); err != nil {
		cancel()
		return nil, nil, fmt.Errorf("failed to start browser: %w", err)
	}

	timeout := config.RenderTimeout.Duration()
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &BrowserFetcher{
		browserCtx: browserCtx,
		timeout:    timeout,
		settle:     settleDelay,
		logger:     logger,
	}, cancel, nil
}

func (b *BrowserFetcher) Fetch(ctx context.Context, url string) (*FetchedPage, error) {
	tabCtx, tabCancel := chromedp.NewContext(b.browserCtx)
	defer tabCancel()
	tabCtx, timeoutCancel := context.WithTimeout(tabCtx, b.timeout)
	defer timeoutCancel()

	// Abort the tab when the caller gives up
	stop := context.AfterFunc(ctx, tabCancel)
	defer stop()

	var mu sync.Mutex
	var mimeType string
	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		if e, ok := ev.(*network.EventResponseReceived); ok && e.Type == network.ResourceTypeDocument {
			mu.Lock()
			if mimeType == "" {
				mimeType = e.Response.MimeType
			}
			mu.Unlock()
		}
	})

	var title, html, location string
	err := chromedp.Run(tabCtx,
		network.Enable(),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(b.settle),
		chromedp.Title(&title),
		chromedp.Location(&location),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", url, err)
	}

	mu.Lock()
	contentType := mimeType
	mu.Unlock()
	if contentType == "" {
		contentType = "text/html"
	}
	if location == "" {
		location = url
	}

	return &FetchedPage{
		URL:         location,
		HTML:        html,
		ContentType: contentType,
		Bytes:       int64(len(html)),
		Title:       title,
	}, nil
}
