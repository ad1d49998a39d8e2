// -----------------------------------------------------------------------
// PDF Extractor Service - Extract text content from PDF documents
// pdfcpu reads metadata, ledongthuc/pdf decodes page text, docconv is the fallback
// -----------------------------------------------------------------------

package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"code.sajari.com/docconv"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/neighborhood/internal/common"
	"github.com/ternarybob/neighborhood/internal/interfaces"
	"github.com/ternarybob/neighborhood/internal/models"
)

// Extraction methods recorded on each document
const (
	MethodPDFText = "pdf_text"
	MethodDocconv = "docconv"
)

const (
	downloadTimeout = 30 * time.Second
	maxPDFBytes     = 64 * 1024 * 1024
	untitledPDF     = "Untitled PDF"
)

var whitespace = regexp.MustCompile(`\s+`)

// textFallback converts a whole PDF to plain text; pages are separated by form feeds
type textFallback func(data []byte) (string, error)

func docconvText(data []byte) (string, error) {
	res, err := docconv.Convert(bytes.NewReader(data), "application/pdf", false)
	if err != nil {
		return "", err
	}
	return res.Body, nil
}

// Extractor implements the DocumentExtractor interface
type Extractor struct {
	client   *http.Client
	fallback textFallback
	logger   arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.DocumentExtractor = (*Extractor)(nil)

// NewExtractor creates a new PDF extractor. A nil client gets one with a download timeout.
func NewExtractor(client *http.Client, logger arbor.ILogger) *Extractor {
	if client == nil {
		client = &http.Client{Timeout: downloadTimeout}
	}
	return &Extractor{
		client:   client,
		fallback: docconvText,
		logger:   logger,
	}
}

// ExtractURL downloads a PDF and extracts it
func (e *Extractor) ExtractURL(ctx context.Context, pdfURL string) (*models.PDFDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pdfURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid PDF URL %s: %w", pdfURL, err)
	}
	req.Header.Set("User-Agent", common.DefaultUserAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download PDF from %s: %w", pdfURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("failed to download PDF from %s: HTTP %d", pdfURL, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPDFBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF from %s: %w", pdfURL, err)
	}

	doc, err := e.ExtractBytes(ctx, data, filenameFromURL(pdfURL))
	if err != nil {
		return nil, err
	}
	doc.URL = pdfURL
	return doc, nil
}

// ExtractFile reads and extracts a PDF from disk
func (e *Extractor) ExtractFile(ctx context.Context, filePath string) (*models.PDFDocument, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF file: %w", err)
	}
	doc, err := e.ExtractBytes(ctx, data, filepath.Base(filePath))
	if err != nil {
		return nil, err
	}
	doc.URL = "file://" + filePath
	return doc, nil
}

// ExtractBytes extracts metadata and per-page text from PDF bytes
func (e *Extractor) ExtractBytes(ctx context.Context, data []byte, name string) (*models.PDFDocument, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pdfCtx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}
	if err := api.ValidateContext(pdfCtx); err != nil {
		e.logger.Debug().Err(err).Str("file", name).Msg("PDF validation reported problems")
	}

	doc := &models.PDFDocument{
		Filename: name,
		Metadata: models.PDFMetadata{
			Title:        strings.TrimSpace(pdfCtx.XRefTable.Title),
			Author:       strings.TrimSpace(pdfCtx.XRefTable.Author),
			Subject:      strings.TrimSpace(pdfCtx.XRefTable.Subject),
			Creator:      strings.TrimSpace(pdfCtx.XRefTable.Creator),
			Producer:     strings.TrimSpace(pdfCtx.XRefTable.Producer),
			CreationDate: strings.TrimSpace(pdfCtx.XRefTable.CreationDate),
			PageCount:    pdfCtx.PageCount,
		},
		Method: MethodPDFText,
	}

	texts, err := pageTexts(data)
	if err != nil {
		e.logger.Warn().Err(err).Str("file", name).Msg("Failed to extract PDF content, trying alternative method")
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if !readable(texts) {
		if !isBlank(texts) {
			e.logger.Warn().Str("file", name).Msg("PDF text is not readable, trying alternative method")
		}
		texts = nil
		if e.fallback != nil {
			text, ferr := e.fallback(data)
			switch {
			case ferr != nil:
				e.logger.Warn().Err(ferr).Str("file", name).Msg("docconv fallback failed")
			case readable([]string{text}):
				texts = splitPages(text)
				doc.Method = MethodDocconv
			}
		}
	}

	pageCount := max(doc.Metadata.PageCount, len(texts))
	doc.Pages = make([]models.PDFPage, 0, pageCount)
	parts := make([]string, 0, pageCount)
	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		text := ""
		if pageNum <= len(texts) {
			text = texts[pageNum-1]
		}
		doc.Pages = append(doc.Pages, models.PDFPage{
			PageNumber: pageNum,
			Text:       text,
			WordCount:  len(strings.Fields(text)),
		})
		parts = append(parts, text)
	}

	doc.FullText = strings.TrimSpace(whitespace.ReplaceAllString(strings.Join(parts, "\n\n"), " "))
	doc.WordCount = len(strings.Fields(doc.FullText))

	e.logger.Debug().
		Str("file", name).
		Int("page_count", pageCount).
		Int("word_count", doc.WordCount).
		Str("method", doc.Method).
		Msg("Extracted PDF")

	return doc, nil
}

// splitPages splits fallback output on form feeds
func splitPages(text string) []string {
	pages := strings.Split(strings.TrimRight(text, "\f"), "\f")
	for i, p := range pages {
		pages[i] = strings.TrimSpace(p)
	}
	return pages
}

func isBlank(pages []string) bool {
	for _, p := range pages {
		if strings.TrimSpace(p) != "" {
			return false
		}
	}
	return true
}

func filenameFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" {
		return ""
	}
	return name
}

// DocumentTitle is the title cited for a document
func DocumentTitle(doc *models.PDFDocument) string {
	if title := doc.Title(); title != "" {
		return title
	}
	return untitledPDF
}
