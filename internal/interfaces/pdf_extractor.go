package interfaces

import (
	"context"

	"github.com/ternarybob/neighborhood/internal/models"
)

// DocumentExtractor pulls per-page text and metadata out of PDF documents
type DocumentExtractor interface {
	ExtractURL(ctx context.Context, url string) (*models.PDFDocument, error)
	ExtractFile(ctx context.Context, path string) (*models.PDFDocument, error)
	ExtractBytes(ctx context.Context, data []byte, name string) (*models.PDFDocument, error)
}
