package crawler

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/neighborhood/internal/common"
	"github.com/ternarybob/neighborhood/internal/interfaces"
	"github.com/ternarybob/neighborhood/internal/models"
)

// pageCrawler runs the breadth-first crawl shared by both page collectors
type pageCrawler struct {
	fetcher  PageFetcher
	limiter  *RateLimiter
	links    *LinkExtractor
	method   string
	maxPages int
	logger   arbor.ILogger
}

func (c *pageCrawler) crawl(ctx context.Context, startURL string, constraints models.CollectConstraints, progress models.ProgressFunc) (*models.CollectResult, error) {
	startURL = strings.TrimSpace(startURL)
	if !IsValidURL(startURL) {
		return nil, fmt.Errorf("%w: %q is not an absolute URL", interfaces.ErrInvalidLocator, startURL)
	}

	maxPages := constraints.MaxItems
	if maxPages <= 0 {
		maxPages = c.maxPages
	}
	budget := common.NewBudget(constraints.MaxBytes, constraints.MaxWords)
	result := &models.CollectResult{Units: []models.RawUnit{}, Method: c.method}

	queue := []string{startURL}
	queued := map[string]bool{startURL: true}
	visited := make(map[string]bool)
	skippedExternal := 0

	c.logger.Info().
		Str("start_url", startURL).
		Int("max_pages", maxPages).
		Str("method", c.method).
		Msg("Starting crawl")

	for len(queue) > 0 && len(result.Units) < maxPages {
		if exhausted, msg := budget.Exhausted(); exhausted {
			result.LimitMessage = msg
			c.logger.Warn().Str("start_url", startURL).Msg("Stopping crawl: " + msg)
			break
		}

		url := queue[0]
		queue = queue[1:]

		if visited[url] {
			continue
		}
		if constraints.SameDomainOnly && !SameDomain(url, startURL) {
			skippedExternal++
			continue
		}

		if err := c.limiter.Wait(ctx, url); err != nil {
			return result, err
		}
		visited[url] = true

		page, err := c.fetcher.Fetch(ctx, url)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			c.logger.Warn().Err(err).Str("url", url).Msg("Skipping page")
			continue
		}
		visited[page.URL] = true
		budget.Add(page.Bytes, 0)

		if !isHTMLContent(page.ContentType) {
			c.logger.Debug().Str("url", url).Str("content_type", page.ContentType).Msg("Skipping non-HTML content")
			continue
		}

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
		if err != nil {
			c.logger.Warn().Err(err).Str("url", url).Msg("Skipping unparseable page")
			continue
		}
		links := c.links.ExtractLinks(doc, page.URL)
		content := ExtractPage(doc)
		if content.Title == "" {
			content.Title = page.Title
		}

		words := len(strings.Fields(content.Text))
		budget.Add(0, words)

		result.Units = append(result.Units, models.RawUnit{
			Kind:        models.UnitKindPage,
			URL:         page.URL,
			Title:       content.Title,
			Description: content.Description,
			Text:        content.Text,
			Method:      c.method,
			Bytes:       int(page.Bytes),
			WordCount:   words,
		})
		if progress != nil {
			progress(len(result.Units), maxPages, content.Title, budget.Usage())
		}

		for _, link := range links {
			if visited[link] || queued[link] {
				continue
			}
			if constraints.SameDomainOnly && !SameDomain(link, startURL) {
				continue
			}
			queued[link] = true
			queue = append(queue, link)
		}
	}

	result.TotalBytes = budget.Bytes
	result.TotalWords = budget.Words

	c.logger.Info().
		Str("start_url", startURL).
		Int("pages", len(result.Units)).
		Str("usage", budget.Usage()).
		Int("skipped_external", skippedExternal).
		Str("limit_message", result.LimitMessage).
		Msg("Crawl complete")

	return result, nil
}
