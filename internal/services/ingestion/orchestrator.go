// Package ingestion runs collect, chunk and index pipelines for data sources
// as background jobs and records their progress and outcome.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/neighborhood/internal/common"
	"github.com/ternarybob/neighborhood/internal/interfaces"
	"github.com/ternarybob/neighborhood/internal/models"
	"github.com/ternarybob/neighborhood/internal/services/workers"
)

// ErrSourceUnavailable marks failures where the source yielded nothing usable
var ErrSourceUnavailable = errors.New("source unavailable")

// unavailableError carries the message recorded on the failed job
type unavailableError struct {
	message string
}

func (e *unavailableError) Error() string { return e.message }

func (e *unavailableError) Unwrap() error { return ErrSourceUnavailable }

func sourceUnavailable(format string, args ...interface{}) error {
	return &unavailableError{message: fmt.Sprintf(format, args...)}
}

// Job failure messages shown to operators
const (
	msgProjectNotFound = "Project not found"
	msgSourceNotFound  = "Source not found"
	msgNoTranscript    = "No transcript available for this video. The video may not have captions enabled."
	msgPDFExtraction   = "Failed to extract text from PDF"
	msgInterrupted     = "Interrupted by service restart"
)

// task is one queued run; locator overrides the source URL for uploads
type task struct {
	job     *models.IngestionJob
	locator string
}

// Orchestrator accepts ingestion requests and runs them on a worker pool
type Orchestrator struct {
	projects   interfaces.ProjectStorage
	jobs       interfaces.JobStorage
	indexes    interfaces.IndexRegistry
	collectors map[models.DataSourceType]interfaces.Collector
	events     interfaces.EventService
	pool       *workers.Pool
	config     *common.Config
	logger     arbor.ILogger

	// saveMu serializes post-run source updates so concurrent jobs of one
	// project do not overwrite each other's counters
	saveMu sync.Mutex
}

var _ interfaces.IngestionService = (*Orchestrator)(nil)

// NewOrchestrator creates an orchestrator. Call Start before submitting jobs.
func NewOrchestrator(
	config *common.Config,
	projects interfaces.ProjectStorage,
	jobs interfaces.JobStorage,
	indexes interfaces.IndexRegistry,
	collectors map[models.DataSourceType]interfaces.Collector,
	events interfaces.EventService,
	logger arbor.ILogger,
) *Orchestrator {
	return &Orchestrator{
		projects:   projects,
		jobs:       jobs,
		indexes:    indexes,
		collectors: collectors,
		events:     events,
		pool:       workers.NewPool(config.Jobs.Concurrency, config.Jobs.QueueSize, logger),
		config:     config,
		logger:     logger,
	}
}

// Start fails jobs left unfinished by a previous process and starts the workers
func (o *Orchestrator) Start(ctx context.Context) error {
	if _, err := o.jobs.MarkRunningJobsFailed(ctx, msgInterrupted); err != nil {
		return fmt.Errorf("failed to reset interrupted jobs: %w", err)
	}
	o.pool.Start()
	return nil
}

// Stop cancels running jobs and waits for the workers
func (o *Orchestrator) Stop() {
	o.pool.Shutdown()
}

// Submit persists a pending job for the source and queues it. It returns immediately.
func (o *Orchestrator) Submit(ctx context.Context, projectID, sourceID string) (*models.IngestionJob, error) {
	return o.submit(ctx, projectID, sourceID, "")
}

// SubmitUpload queues extraction of an uploaded document stored at path
func (o *Orchestrator) SubmitUpload(ctx context.Context, projectID, sourceID, path string) (*models.IngestionJob, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty upload path", interfaces.ErrInvalidLocator)
	}
	return o.submit(ctx, projectID, sourceID, path)
}

func (o *Orchestrator) submit(ctx context.Context, projectID, sourceID, locator string) (*models.IngestionJob, error) {
	project, err := o.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	job := &models.IngestionJob{
		ID:        common.NewJobID(),
		ProjectID: projectID,
		SourceID:  sourceID,
		Status:    models.JobStatusPending,
		CreatedAt: time.Now(),
	}
	if source := project.FindSource(sourceID); source != nil {
		job.SourceName = source.Name
		job.SourceType = string(source.Type)
	}

	if err := o.jobs.SaveJob(ctx, job); err != nil {
		return nil, err
	}
	o.events.Publish(job)

	// The worker owns job once queued; callers get the pending state
	snapshot := *job

	t := &task{job: job, locator: locator}
	if err := o.pool.Submit(func(ctx context.Context) { o.run(ctx, t) }); err != nil {
		o.fail(job, err)
		return nil, fmt.Errorf("failed to queue ingestion job: %w", err)
	}

	o.logger.Info().
		Str("job_id", snapshot.ID).
		Str("project_id", projectID).
		Str("source_id", sourceID).
		Msg("Ingestion job queued")

	return &snapshot, nil
}

func (o *Orchestrator) GetJob(ctx context.Context, jobID string) (*models.IngestionJob, error) {
	return o.jobs.GetJob(ctx, jobID)
}

func (o *Orchestrator) ListJobs(ctx context.Context) ([]*models.IngestionJob, error) {
	return o.jobs.ListJobs(ctx)
}

// Subscribe registers a listener for every job update
func (o *Orchestrator) Subscribe(listener interfaces.JobListener) func() {
	return o.events.Subscribe(listener)
}

// persist stores and broadcasts the job's current state
func (o *Orchestrator) persist(job *models.IngestionJob) {
	if err := o.jobs.SaveJob(context.Background(), job); err != nil {
		o.logger.Warn().Err(err).Str("job_id", job.ID).Msg("Failed to save job")
	}
	o.events.Publish(job)
}

func (o *Orchestrator) fail(job *models.IngestionJob, err error) {
	now := time.Now()
	job.Status = models.JobStatusFailed
	job.Error = err.Error()
	job.CompletedAt = &now
	o.persist(job)

	o.logger.Warn().
		Str("job_id", job.ID).
		Str("project_id", job.ProjectID).
		Str("source_id", job.SourceID).
		Str("error", job.Error).
		Msg("Ingestion job failed")
}
