package models

import "time"

// JobStatus is the lifecycle state of an ingestion job
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// IngestionJob tracks one run of the ingestion pipeline for a single source.
// Progress is 0..100: collection covers 0..50 and indexing 50..100.
type IngestionJob struct {
	ID             string     `json:"job_id"`
	ProjectID      string     `json:"project_id"`
	SourceID       string     `json:"source_id"`
	SourceName     string     `json:"source_name,omitempty"`
	SourceType     string     `json:"source_type,omitempty"`
	Status         JobStatus  `json:"status"`
	Progress       float64    `json:"progress"`
	ProcessedItems int        `json:"processed_items"`
	TotalItems     int        `json:"total_items"`
	Error          string     `json:"error,omitempty"`
	Note           string     `json:"note,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// IsTerminal reports whether the job has reached completed or failed
func (j *IngestionJob) IsTerminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}
