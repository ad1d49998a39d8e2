package handlers

import (
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/neighborhood/internal/interfaces"
	"github.com/ternarybob/neighborhood/internal/models"
)

// JobHandler serves ingestion job lookups
type JobHandler struct {
	ingestion interfaces.IngestionService
	logger    arbor.ILogger
}

// NewJobHandler creates a new job handler
func NewJobHandler(ingestion interfaces.IngestionService, logger arbor.ILogger) *JobHandler {
	return &JobHandler{
		ingestion: ingestion,
		logger:    logger,
	}
}

// GetJobHandler handles GET /api/jobs/{id}
func (h *JobHandler) GetJobHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	jobID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/jobs/"), "/")
	if jobID == "" {
		WriteError(w, http.StatusBadRequest, "Job ID is required")
		return
	}

	job, err := h.ingestion.GetJob(r.Context(), jobID)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, job)
}

// ListJobsHandler handles GET /api/admin/jobs. An optional project_id or status
// query parameter narrows the list.
func (h *JobHandler) ListJobsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	jobs, err := h.ingestion.ListJobs(r.Context())
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	projectID := r.URL.Query().Get("project_id")
	status := models.JobStatus(r.URL.Query().Get("status"))
	filtered := make([]*models.IngestionJob, 0, len(jobs))
	for _, job := range jobs {
		if projectID != "" && job.ProjectID != projectID {
			continue
		}
		if status != "" && job.Status != status {
			continue
		}
		filtered = append(filtered, job)
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs": filtered,
	})
}
