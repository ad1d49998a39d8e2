package crawler

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
)

// LinkExtractor resolves anchor links found in a page
type LinkExtractor struct {
	logger arbor.ILogger
}

// NewLinkExtractor creates a new link extractor
func NewLinkExtractor(logger arbor.ILogger) *LinkExtractor {
	return &LinkExtractor{
		logger: logger,
	}
}

// ExtractLinks returns absolute, de-duplicated anchor targets in document order
func (le *LinkExtractor) ExtractLinks(doc *goquery.Document, sourceURL string) []string {
	var links []string
	seen := make(map[string]bool)

	baseURL, err := url.Parse(sourceURL)
	if err != nil {
		le.logger.Warn().Err(err).Str("source_url", sourceURL).Msg("Failed to parse source URL for link resolution")
		baseURL = nil
	}

	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		href, exists := s.Attr("href")
		if !exists || shouldSkipLink(href) {
			return
		}

		resolved := le.resolveURL(href, baseURL)
		if resolved == "" || !IsValidURL(resolved) {
			return
		}

		if !seen[resolved] {
			seen[resolved] = true
			links = append(links, resolved)
		}
	})

	return links
}

// shouldSkipLink rejects links that can never lead to a page
func shouldSkipLink(href string) bool {
	href = strings.ToLower(strings.TrimSpace(href))
	if href == "" || strings.HasPrefix(href, "#") {
		return true
	}
	for _, scheme := range []string{"javascript:", "mailto:", "tel:", "sms:", "ftp:", "data:"} {
		if strings.HasPrefix(href, scheme) {
			return true
		}
	}
	return false
}

// resolveURL resolves href against baseURL and drops any fragment
func (le *LinkExtractor) resolveURL(href string, baseURL *url.URL) string {
	var resolved *url.URL
	var err error
	if baseURL == nil {
		resolved, err = url.Parse(strings.TrimSpace(href))
		if err != nil || !resolved.IsAbs() {
			return ""
		}
	} else {
		resolved, err = baseURL.Parse(strings.TrimSpace(href))
		if err != nil {
			le.logger.Debug().Err(err).Str("href", href).Msg("Failed to resolve URL")
			return ""
		}
	}
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	resolved.Fragment = ""
	return resolved.String()
}
