package interfaces

import (
	"context"

	"github.com/ternarybob/neighborhood/internal/models"
)

// ProjectService owns project records and the per-project caches built from them
type ProjectService interface {
	CreateProject(ctx context.Context, municipality, projectName string) (*models.ProjectConfig, error)
	GetProject(ctx context.Context, projectID string) (*models.ProjectConfig, error)
	ListProjects(ctx context.Context) ([]*models.ProjectConfig, error)
	SaveProject(ctx context.Context, project *models.ProjectConfig) error
	DeleteProject(ctx context.Context, projectID string) error
	AddSource(ctx context.Context, projectID string, source models.DataSource) (*models.DataSource, error)
	RemoveSource(ctx context.Context, projectID, sourceID string) error
	Agent(ctx context.Context, projectID string) (ChatAgent, error)
	Stats(ctx context.Context, projectID string) (*models.ProjectStats, error)
	Documents(ctx context.Context, projectID, sourceID string, offset, limit int) (*models.DocumentPage, error)
	ProjectHealth(ctx context.Context, projectID string) (*models.ProjectHealth, error)
	SystemHealth(ctx context.Context) (*models.SystemHealth, error)
}
