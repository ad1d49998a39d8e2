package pdf

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/neighborhood/internal/common"
	"github.com/ternarybob/neighborhood/internal/interfaces"
	"github.com/ternarybob/neighborhood/internal/models"
)

// Collection methods recorded on document sources
const (
	MethodURLDownload = "pdf_url_download"
	MethodUpload      = "pdf_upload"
)

// URLCollector collects a linked document, or every document linked from a page when
// the locator is not itself a .pdf URL
type URLCollector struct {
	extractor *Extractor
	logger    arbor.ILogger
}

var _ interfaces.Collector = (*URLCollector)(nil)

func NewURLCollector(extractor *Extractor, logger arbor.ILogger) *URLCollector {
	return &URLCollector{extractor: extractor, logger: logger}
}

func (c *URLCollector) Collect(ctx context.Context, locator string, constraints models.CollectConstraints, progress models.ProgressFunc) (*models.CollectResult, error) {
	u, err := url.Parse(locator)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", interfaces.ErrInvalidLocator, locator)
	}

	budget := common.NewBudget(constraints.MaxBytes, constraints.MaxWords)
	result := &models.CollectResult{Units: []models.RawUnit{}, Method: MethodURLDownload}

	if strings.HasSuffix(strings.ToLower(u.Path), ".pdf") {
		doc, err := c.extractor.ExtractURL(ctx, locator)
		if err != nil {
			c.logger.Warn().Err(err).Str("url", locator).Msg("PDF extraction failed")
		} else {
			budget.Add(int64(len(doc.FullText)), doc.WordCount)
			result.Units = append(result.Units, documentUnit(doc, locator, MethodURLDownload))
		}
		if progress != nil {
			progress(1, 1, locator, budget.Usage())
		}
	} else {
		maxDocs := constraints.MaxItems
		if maxDocs <= 0 {
			maxDocs = DefaultMaxSitePDFs
		}
		docs, err := c.extractor.CollectFromSite(ctx, locator, maxDocs, nil)
		if err != nil {
			c.logger.Warn().Err(err).Str("url", locator).Msg("PDF discovery failed")
		}
		for i, doc := range docs {
			if exhausted, msg := budget.Exhausted(); exhausted {
				result.LimitMessage = msg
				break
			}
			budget.Add(int64(len(doc.FullText)), doc.WordCount)
			result.Units = append(result.Units, documentUnit(doc, doc.URL, MethodURLDownload))
			if progress != nil {
				progress(i+1, len(docs), DocumentTitle(doc), budget.Usage())
			}
		}
	}

	result.TotalBytes = budget.Bytes
	result.TotalWords = budget.Words

	c.logger.Info().
		Str("url", locator).
		Int("documents", len(result.Units)).
		Str("usage", budget.Usage()).
		Msg("PDF collection complete")

	return result, nil
}

// UploadCollector extracts a document stored on local disk
type UploadCollector struct {
	extractor *Extractor
	logger    arbor.ILogger
}

var _ interfaces.Collector = (*UploadCollector)(nil)

func NewUploadCollector(extractor *Extractor, logger arbor.ILogger) *UploadCollector {
	return &UploadCollector{extractor: extractor, logger: logger}
}

// Collect accepts a filesystem path or a file:// URL
func (c *UploadCollector) Collect(ctx context.Context, locator string, constraints models.CollectConstraints, progress models.ProgressFunc) (*models.CollectResult, error) {
	filePath := strings.TrimPrefix(locator, "file://")
	if filePath == "" {
		return nil, fmt.Errorf("%w: empty path", interfaces.ErrInvalidLocator)
	}
	if _, err := os.Stat(filePath); err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrInvalidLocator, err)
	}

	result := &models.CollectResult{Units: []models.RawUnit{}, Method: MethodUpload}
	doc, err := c.extractor.ExtractFile(ctx, filePath)
	if err != nil {
		c.logger.Warn().Err(err).Str("path", filePath).Msg("PDF extraction failed")
		return result, nil
	}

	budget := common.NewBudget(constraints.MaxBytes, constraints.MaxWords)
	budget.Add(int64(len(doc.FullText)), doc.WordCount)
	result.Units = append(result.Units, documentUnit(doc, locator, MethodUpload))
	result.TotalBytes = budget.Bytes
	result.TotalWords = budget.Words

	if progress != nil {
		progress(1, 1, DocumentTitle(doc), budget.Usage())
	}
	return result, nil
}

func documentUnit(doc *models.PDFDocument, unitURL, method string) models.RawUnit {
	extra := map[string]string{"page_count": strconv.Itoa(doc.Metadata.PageCount)}
	if doc.Metadata.Author != "" {
		extra["author"] = doc.Metadata.Author
	}
	return models.RawUnit{
		Kind:        models.UnitKindDocument,
		URL:         unitURL,
		Title:       DocumentTitle(doc),
		Description: doc.Metadata.Subject,
		Text:        doc.FullText,
		Method:      method,
		Bytes:       len(doc.FullText),
		WordCount:   doc.WordCount,
		Extra:       extra,
	}
}
