package crawler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PageContent is the readable part of an HTML page
type PageContent struct {
	Title       string
	Description string
	Text        string
}

var contentClassPattern = regexp.MustCompile(`content|main`)

// strippedElements never carry page content
const strippedElements = "script, style, nav, footer, header, noscript"

// ExtractPage pulls title, meta description and main text out of a parsed document.
// The document is modified: boilerplate elements are removed.
func ExtractPage(doc *goquery.Document) PageContent {
	title := collapseWhitespace(doc.Find("title").First().Text())
	description, _ := doc.Find(`meta[name="description"]`).First().Attr("content")

	doc.Find(strippedElements).Remove()

	return PageContent{
		Title:       title,
		Description: collapseWhitespace(description),
		Text:        collapseWhitespace(nodeText(mainContent(doc))),
	}
}

// ExtractHTML parses html and extracts its content
func ExtractHTML(html string) (PageContent, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return PageContent{}, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return ExtractPage(doc), nil
}

// mainContent picks main, then article, then a div whose class mentions content or main, then body
func mainContent(doc *goquery.Document) *goquery.Selection {
	if sel := doc.Find("main").First(); sel.Length() > 0 {
		return sel
	}
	if sel := doc.Find("article").First(); sel.Length() > 0 {
		return sel
	}
	if sel := doc.Find("div[class]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		class, _ := s.Attr("class")
		return contentClassPattern.MatchString(class)
	}).First(); sel.Length() > 0 {
		return sel
	}
	if sel := doc.Find("body").First(); sel.Length() > 0 {
		return sel
	}
	return doc.Selection
}

// nodeText joins every text node under sel with spaces so adjacent blocks do not run together
func nodeText(sel *goquery.Selection) string {
	var b strings.Builder
	var walk func(s *goquery.Selection)
	walk = func(s *goquery.Selection) {
		s.Contents().Each(func(_ int, child *goquery.Selection) {
			if goquery.NodeName(child) == "#text" {
				b.WriteString(child.Text())
				b.WriteByte(' ')
				return
			}
			walk(child)
		})
	}
	walk(sel)
	return b.String()
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// isHTMLContent accepts any content type mentioning html or text
func isHTMLContent(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "html") || strings.Contains(ct, "text")
}
