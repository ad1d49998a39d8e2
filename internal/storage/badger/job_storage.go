package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/neighborhood/internal/interfaces"
	"github.com/ternarybob/neighborhood/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// JobStorage implements the JobStorage interface for Badger
type JobStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewJobStorage creates a new JobStorage instance
func NewJobStorage(db *BadgerDB, logger arbor.ILogger) interfaces.JobStorage {
	return &JobStorage{
		db:     db,
		logger: logger,
	}
}

func (s *JobStorage) SaveJob(ctx context.Context, job *models.IngestionJob) error {
	if job.ID == "" {
		return fmt.Errorf("job ID is required")
	}

	if err := s.db.Store().Upsert(job.ID, job); err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}
	return nil
}

func (s *JobStorage) GetJob(ctx context.Context, jobID string) (*models.IngestionJob, error) {
	var job models.IngestionJob
	if err := s.db.Store().Get(jobID, &job); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", interfaces.ErrJobNotFound, jobID)
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

func (s *JobStorage) ListJobs(ctx context.Context) ([]*models.IngestionJob, error) {
	return s.find(badgerhold.Where("ID").Ne("").SortBy("CreatedAt").Reverse())
}

func (s *JobStorage) ListJobsByProject(ctx context.Context, projectID string) ([]*models.IngestionJob, error) {
	return s.find(badgerhold.Where("ProjectID").Eq(projectID).SortBy("CreatedAt").Reverse())
}

func (s *JobStorage) find(query *badgerhold.Query) ([]*models.IngestionJob, error) {
	var jobs []models.IngestionJob
	if err := s.db.Store().Find(&jobs, query); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	result := make([]*models.IngestionJob, len(jobs))
	for i := range jobs {
		result[i] = &jobs[i]
	}
	return result, nil
}

func (s *JobStorage) MarkRunningJobsFailed(ctx context.Context, reason string) (int, error) {
	var jobs []models.IngestionJob
	query := badgerhold.Where("Status").Eq(models.JobStatusRunning).Or(badgerhold.Where("Status").Eq(models.JobStatusPending))
	if err := s.db.Store().Find(&jobs, query); err != nil {
		return 0, fmt.Errorf("failed to find unfinished jobs: %w", err)
	}

	now := time.Now()
	for i := range jobs {
		jobs[i].Status = models.JobStatusFailed
		jobs[i].Error = reason
		jobs[i].CompletedAt = &now
		if err := s.SaveJob(ctx, &jobs[i]); err != nil {
			return i, err
		}
	}

	if len(jobs) > 0 {
		s.logger.Warn().Int("count", len(jobs)).Msg("Marked interrupted ingestion jobs as failed")
	}
	return len(jobs), nil
}

func (s *JobStorage) DeleteJobsByProject(ctx context.Context, projectID string) error {
	if err := s.db.Store().DeleteMatching(&models.IngestionJob{}, badgerhold.Where("ProjectID").Eq(projectID)); err != nil {
		return fmt.Errorf("failed to delete jobs: %w", err)
	}
	return nil
}
