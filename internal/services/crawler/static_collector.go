package crawler

import (
	"context"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/neighborhood/internal/common"
	"github.com/ternarybob/neighborhood/internal/models"
)

// MethodWebScraper is the collection method recorded for static crawls
const MethodWebScraper = "web_scraper"

// StaticCollector crawls a site over plain HTTP
type StaticCollector struct {
	crawler *pageCrawler
}

// NewStaticCollector creates a static page collector. client may be nil.
func NewStaticCollector(config common.CrawlerConfig, client *http.Client, logger arbor.ILogger) *StaticCollector {
	return &StaticCollector{
		crawler: &pageCrawler{
			fetcher:  NewHTTPFetcher(config, client, logger),
			limiter:  newCollectorLimiter(config.RequestDelay.Duration(), config.DomainDelays),
			links:    NewLinkExtractor(logger),
			method:   MethodWebScraper,
			maxPages: maxPagesOrDefault(config.MaxPages),
			logger:   logger,
		},
	}
}

// Collect crawls breadth first from locator until the page ceiling, a cap or the frontier ends
func (s *StaticCollector) Collect(ctx context.Context, locator string, constraints models.CollectConstraints, progress models.ProgressFunc) (*models.CollectResult, error) {
	return s.crawler.crawl(ctx, locator, constraints, progress)
}

func maxPagesOrDefault(n int) int {
	if n <= 0 {
		return common.DefaultMaxPages
	}
	return n
}
