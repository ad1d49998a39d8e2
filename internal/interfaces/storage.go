package interfaces

import (
	"context"

	"github.com/ternarybob/neighborhood/internal/models"
)

// ProjectStorage persists project configurations keyed by project id
type ProjectStorage interface {
	GetProject(ctx context.Context, projectID string) (*models.ProjectConfig, error)
	SaveProject(ctx context.Context, project *models.ProjectConfig) error
	ListProjects(ctx context.Context) ([]*models.ProjectConfig, error)
	DeleteProject(ctx context.Context, projectID string) error
	CountProjects(ctx context.Context) (int, error)
}

// JobStorage persists ingestion jobs
type JobStorage interface {
	SaveJob(ctx context.Context, job *models.IngestionJob) error
	GetJob(ctx context.Context, jobID string) (*models.IngestionJob, error)
	ListJobs(ctx context.Context) ([]*models.IngestionJob, error)
	ListJobsByProject(ctx context.Context, projectID string) ([]*models.IngestionJob, error)
	// MarkRunningJobsFailed fails jobs left running by a previous process
	MarkRunningJobsFailed(ctx context.Context, reason string) (int, error)
	DeleteJobsByProject(ctx context.Context, projectID string) error
}

// CatalogStorage tracks which document ids each project index holds
type CatalogStorage interface {
	Record(ctx context.Context, entries []models.CatalogEntry) error
	List(ctx context.Context, projectID, source string, offset, limit int) ([]models.CatalogEntry, int, error)
	Count(ctx context.Context, projectID string) (int, error)
	DeleteBySource(ctx context.Context, projectID, source string) error
	DeleteProject(ctx context.Context, projectID string) error
}

// StorageManager aggregates the storages backed by one database
type StorageManager interface {
	ProjectStorage() ProjectStorage
	JobStorage() JobStorage
	CatalogStorage() CatalogStorage
	// StartMaintenance runs background compaction until ctx is done
	StartMaintenance(ctx context.Context)
	Close() error
}
