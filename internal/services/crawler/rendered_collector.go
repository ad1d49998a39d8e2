package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/neighborhood/internal/common"
	"github.com/ternarybob/neighborhood/internal/interfaces"
	"github.com/ternarybob/neighborhood/internal/models"
)

// MethodBrowserRender is the collection method recorded for rendered crawls
const MethodBrowserRender = "browser_render"

// RenderedCollector crawls a site through headless Chrome so client-rendered pages have content
type RenderedCollector struct {
	config common.CrawlerConfig
	logger arbor.ILogger
}

func NewRenderedCollector(config common.CrawlerConfig, logger arbor.ILogger) *RenderedCollector {
	return &RenderedCollector{
		config: config,
		logger: logger,
	}
}

var errRenderedCrawlPanicked = errors.New("rendered crawl panicked")

type crawlOutcome struct {
	result *models.CollectResult
	err    error
}

// Collect runs the whole crawl on a dedicated goroutine that owns its own browser.
// The caller blocks until that goroutine has finished and the browser is gone;
// cancelling ctx stops the crawl at the next page.
func (r *RenderedCollector) Collect(ctx context.Context, locator string, constraints models.CollectConstraints, progress models.ProgressFunc) (*models.CollectResult, error) {
	if u, err := url.Parse(locator); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q is not an absolute URL", interfaces.ErrInvalidLocator, locator)
	}

	done := make(chan crawlOutcome, 1)

	common.SafeGo(r.logger, "rendered-crawl", func() {
		out := crawlOutcome{err: errRenderedCrawlPanicked}
		defer func() { done <- out }()
		out.result, out.err = r.run(ctx, locator, constraints, progress)
	})

	out := <-done
	return out.result, out.err
}

func (r *RenderedCollector) run(ctx context.Context, locator string, constraints models.CollectConstraints, progress models.ProgressFunc) (*models.CollectResult, error) {
	browser, cancel, err := newBrowser(ctx, r.config, r.logger)
	if err != nil {
		return nil, err
	}
	defer cancel()

	delay := r.config.RenderedDelay.Duration()
	if delay <= 0 {
		delay = common.DefaultRenderedDelay
	}

	c := &pageCrawler{
		fetcher:  browser,
		limiter:  newCollectorLimiter(delay, r.config.DomainDelays),
		links:    NewLinkExtractor(r.logger),
		method:   MethodBrowserRender,
		maxPages: maxPagesOrDefault(r.config.MaxPages),
		logger:   r.logger,
	}
	return c.crawl(ctx, locator, constraints, progress)
}
