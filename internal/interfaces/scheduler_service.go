package interfaces

import (
	"context"
	"time"
)

// ScheduleStatus reports the state of the periodic re-sync
type ScheduleStatus struct {
	Enabled   bool       `json:"enabled"`
	Schedule  string     `json:"schedule"`
	LastRun   *time.Time `json:"last_run,omitempty"`
	NextRun   *time.Time `json:"next_run,omitempty"`
	IsRunning bool       `json:"is_running"`
	LastError string     `json:"last_error,omitempty"`
	Submitted int        `json:"submitted"`
}

// SchedulerService re-ingests enabled sources on a cron schedule
type SchedulerService interface {
	// Start the scheduler with a cron expression
	Start(cronExpr string) error

	// Stop the scheduler
	Stop() error

	// TriggerNow submits a job for every enabled source of every project
	TriggerNow(ctx context.Context) (int, error)

	// IsRunning returns true if scheduler is active
	IsRunning() bool

	// Status returns the schedule and the outcome of the last run
	Status() *ScheduleStatus
}
