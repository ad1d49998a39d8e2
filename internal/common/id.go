package common

import (
	"github.com/google/uuid"
)

// NewJobID generates an ingestion job ID. Format: job_<uuid>
func NewJobID() string {
	return "job_" + uuid.New().String()
}

// NewSourceID generates a data source ID. Format: src_<uuid>
func NewSourceID() string {
	return "src_" + uuid.New().String()
}

// NewProjectID generates a project ID for projects created without one
func NewProjectID() string {
	return "proj_" + uuid.New().String()[:8]
}
