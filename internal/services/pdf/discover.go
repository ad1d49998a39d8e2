package pdf

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/neighborhood/internal/common"
	"github.com/ternarybob/neighborhood/internal/models"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxSitePDFs bounds how many linked documents one page yields
const DefaultMaxSitePDFs = 10

// siteConcurrency is the number of documents downloaded at once from one page
const siteConcurrency = 3

// DiscoverPDFLinks fetches pageURL and returns the absolute URLs of links whose path ends in .pdf
func (e *Extractor) DiscoverPDFLinks(ctx context.Context, pageURL string) ([]string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL %s: %w", pageURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", common.DefaultUserAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("failed to fetch %s: HTTP %d", pageURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", pageURL, err)
	}

	seen := make(map[string]bool)
	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)
		if !strings.HasSuffix(strings.ToLower(abs.Path), ".pdf") {
			return
		}
		abs.Fragment = ""
		link := abs.String()
		if !seen[link] {
			seen[link] = true
			links = append(links, link)
		}
	})

	e.logger.Debug().Str("url", pageURL).Int("pdf_links", len(links)).Msg("Discovered PDF links")
	return links, nil
}

// CollectFromSite extracts up to maxDocs documents linked from pageURL. Documents that fail
// to download or parse are skipped; the result keeps link order.
func (e *Extractor) CollectFromSite(ctx context.Context, pageURL string, maxDocs int, progress models.ProgressFunc) ([]*models.PDFDocument, error) {
	if maxDocs <= 0 {
		maxDocs = DefaultMaxSitePDFs
	}

	links, err := e.DiscoverPDFLinks(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	if len(links) > maxDocs {
		links = links[:maxDocs]
	}

	docs := make([]*models.PDFDocument, len(links))
	progressCh := make(chan string, len(links))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(siteConcurrency)
	for i, link := range links {
		g.Go(func() error {
			doc, err := e.ExtractURL(gctx, link)
			if err != nil {
				e.logger.Warn().Err(err).Str("url", link).Msg("Skipping PDF")
			} else {
				docs[i] = doc
			}
			progressCh <- link
			return nil
		})
	}

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
		close(progressCh)
	}()

	processed := 0
	for link := range progressCh {
		processed++
		if progress != nil {
			progress(processed, len(links), link, "")
		}
	}
	if err := <-done; err != nil {
		return nil, err
	}

	result := make([]*models.PDFDocument, 0, len(docs))
	for _, doc := range docs {
		if doc != nil {
			result = append(result, doc)
		}
	}
	return result, ctx.Err()
}
