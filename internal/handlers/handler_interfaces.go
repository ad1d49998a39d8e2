package handlers

import (
	"context"
	"io"

	"github.com/ternarybob/neighborhood/internal/interfaces"
	"github.com/ternarybob/neighborhood/internal/models"
	"github.com/ternarybob/neighborhood/internal/services/discovery"
)

// ProjectManager is the project service as seen by the HTTP layer
type ProjectManager interface {
	interfaces.ProjectService
	UploadDocument(ctx context.Context, projectID, filename string, content io.Reader, name, description string) (*models.DataSource, string, error)
	OllamaModels(ctx context.Context) ([]models.OllamaModel, error)
}

// SourceDiscoverer suggests sources and personalities using the project's chat backend
type SourceDiscoverer interface {
	DiscoverSources(ctx context.Context, project *models.ProjectConfig, opts discovery.Options) *models.DiscoveryResult
	SuggestPersonality(ctx context.Context, project *models.ProjectConfig, opts discovery.Options) string
	ValidateSource(ctx context.Context, rawURL, sourceType string) *models.SourceValidation
}
