// Package scheduler re-syncs data sources on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/neighborhood/internal/common"
	"github.com/ternarybob/neighborhood/internal/interfaces"
)

// Service implements SchedulerService
type Service struct {
	projects  interfaces.ProjectStorage
	ingestion interfaces.IngestionService
	cron      *cron.Cron
	logger    arbor.ILogger

	mu        sync.Mutex // Protects the fields below
	running   bool
	schedule  string
	cronID    cron.EntryID
	lastRun   *time.Time
	isRunning bool
	lastError string
	submitted int
}

var _ interfaces.SchedulerService = (*Service)(nil)

// NewService creates a new scheduler service
func NewService(projects interfaces.ProjectStorage, ingestion interfaces.IngestionService, logger arbor.ILogger) *Service {
	return &Service{
		projects:  projects,
		ingestion: ingestion,
		cron:      cron.New(),
		logger:    logger,
	}
}

// Start begins the scheduler with the given cron expression
func (s *Service) Start(cronExpr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	if cronExpr == "" {
		cronExpr = common.DefaultSyncSchedule
	}
	if err := common.ValidateSchedule(cronExpr); err != nil {
		return err
	}

	id, err := s.cron.AddFunc(cronExpr, s.runScheduledSync)
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}
	s.cronID = id
	s.schedule = cronExpr

	s.cron.Start()
	s.running = true

	s.logger.Info().Str("cron_expr", cronExpr).Msg("Scheduler started")
	return nil
}

// Stop halts the scheduler and waits for a sync in progress to return
func (s *Service) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.logger.Info().Msg("Scheduler stopped")
	return nil
}

func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Service) Status() *interfaces.ScheduleStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := &interfaces.ScheduleStatus{
		Enabled:   s.running,
		Schedule:  s.schedule,
		LastRun:   s.lastRun,
		IsRunning: s.isRunning,
		LastError: s.lastError,
		Submitted: s.submitted,
	}
	if s.running {
		next := s.cron.Entry(s.cronID).Next
		if !next.IsZero() {
			status.NextRun = &next
		}
	}
	return status
}

func (s *Service) runScheduledSync() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Str("panic", fmt.Sprintf("%v", r)).Msg("Scheduled sync panicked")
		}
	}()

	if _, err := s.TriggerNow(context.Background()); err != nil {
		s.logger.Warn().Err(err).Msg("Scheduled sync failed")
	}
}

// TriggerNow submits a job for every enabled source of every project.
// A run already in progress makes this a no-op.
func (s *Service) TriggerNow(ctx context.Context) (int, error) {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		s.logger.Debug().Msg("Sync already in progress, skipping")
		return 0, nil
	}
	s.isRunning = true
	s.mu.Unlock()

	submitted, err := s.submitAll(ctx)

	now := time.Now()
	s.mu.Lock()
	s.isRunning = false
	s.lastRun = &now
	s.submitted = submitted
	s.lastError = ""
	if err != nil {
		s.lastError = err.Error()
	}
	s.mu.Unlock()

	s.logger.Info().Int("submitted", submitted).Msg("Source re-sync submitted")
	return submitted, err
}

func (s *Service) submitAll(ctx context.Context) (int, error) {
	projects, err := s.projects.ListProjects(ctx)
	if err != nil {
		return 0, err
	}

	submitted := 0
	var lastErr error
	for _, project := range projects {
		for _, source := range project.EnabledSources() {
			if _, err := s.ingestion.Submit(ctx, project.ProjectID, source.ID); err != nil {
				s.logger.Warn().
					Err(err).
					Str("project_id", project.ProjectID).
					Str("source_id", source.ID).
					Msg("Failed to submit scheduled sync")
				lastErr = err
				continue
			}
			submitted++
		}
	}
	return submitted, lastErr
}
