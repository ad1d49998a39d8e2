package interfaces

import (
	"context"

	"github.com/ternarybob/neighborhood/internal/models"
)

// JobListener receives every persisted job update
type JobListener func(job *models.IngestionJob)

// IngestionService accepts ingestion jobs and runs them in the background
type IngestionService interface {
	Submit(ctx context.Context, projectID, sourceID string) (*models.IngestionJob, error)
	SubmitUpload(ctx context.Context, projectID, sourceID, path string) (*models.IngestionJob, error)
	GetJob(ctx context.Context, jobID string) (*models.IngestionJob, error)
	ListJobs(ctx context.Context) ([]*models.IngestionJob, error)
	Subscribe(listener JobListener) (unsubscribe func())
}
