package projects

import (
	"context"
	"strconv"

	"github.com/ternarybob/neighborhood/internal/models"
)

const (
	DefaultDocumentLimit = 50
	MaxDocumentLimit     = 500
	previewLength        = 500
)

// Documents pages through a project's indexed chunks. sourceID filters by the
// source's name; an unknown id lists everything.
func (s *Service) Documents(ctx context.Context, projectID, sourceID string, offset, limit int) (*models.DocumentPage, error) {
	project, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = DefaultDocumentLimit
	}
	if limit > MaxDocumentLimit {
		limit = MaxDocumentLimit
	}
	if offset < 0 {
		offset = 0
	}

	var sourceName string
	if sourceID != "" {
		if src := project.FindSource(sourceID); src != nil {
			sourceName = src.Name
		}
	}

	page := &models.DocumentPage{Documents: []models.DocumentView{}, Limit: limit, Offset: offset}

	index, err := s.indexes.Get(ctx, projectID)
	if err != nil {
		s.logger.Warn().Err(err).Str("project_id", projectID).Msg("Failed to open index for document listing")
		return page, nil
	}

	docs, total, err := index.List(ctx, offset, limit, sourceName)
	if err != nil {
		return nil, err
	}
	page.Total = total
	for _, doc := range docs {
		page.Documents = append(page.Documents, documentView(doc))
	}
	return page, nil
}

func documentView(doc models.IndexedDocument) models.DocumentView {
	p := doc.Payload
	view := models.DocumentView{
		ID:         doc.ID,
		Text:       preview(p.Text),
		FullText:   p.Text,
		Source:     orUnknown(p.Source),
		SourceType: orUnknown(p.SourceType),
		URL:        p.URL,
		Title:      p.Title,
		Date:       p.Date,
		WordCount:  p.WordCount,
		Metadata:   map[string]string{},
	}
	if p.CollectionMethod != "" {
		view.Metadata["collection_method"] = p.CollectionMethod
	}
	if p.Timestamp != nil {
		view.Metadata["timestamp"] = strconv.FormatFloat(*p.Timestamp, 'f', -1, 64)
	}
	for k, v := range p.Extra {
		view.Metadata[k] = v
	}
	return view
}

// preview truncates to previewLength characters and appends "..." when cut
func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewLength {
		return text
	}
	return string(runes[:previewLength]) + "..."
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
