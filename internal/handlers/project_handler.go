package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/neighborhood/internal/interfaces"
	"github.com/ternarybob/neighborhood/internal/models"
)

// ProjectsPrefix is the path every project-scoped route lives under
const ProjectsPrefix = "/api/projects/"

// maxUploadMemory bounds the multipart form held in memory; larger parts spill to disk
const maxUploadMemory = 32 << 20

// ProjectHandler serves project, source, ingestion and document routes
type ProjectHandler struct {
	projects  ProjectManager
	ingestion interfaces.IngestionService
	logger    arbor.ILogger
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(projects ProjectManager, ingestion interfaces.IngestionService, logger arbor.ILogger) *ProjectHandler {
	return &ProjectHandler{
		projects:  projects,
		ingestion: ingestion,
		logger:    logger,
	}
}

type createProjectRequest struct {
	MunicipalityName string `json:"municipality_name"`
	ProjectName      string `json:"project_name"`
}

// projectPath returns the project id and, when present, the source id from the URL
func projectPath(r *http.Request) (projectID, sourceID string) {
	parts := PathSegments(r.URL.Path, ProjectsPrefix)
	if len(parts) > 0 {
		projectID = parts[0]
	}
	if len(parts) > 2 && parts[1] == "sources" {
		sourceID = parts[2]
	}
	return projectID, sourceID
}

// CreateProjectHandler handles POST /api/projects
func (h *ProjectHandler) CreateProjectHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req createProjectRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.MunicipalityName) == "" {
		WriteError(w, http.StatusBadRequest, "municipality_name is required")
		return
	}

	project, err := h.projects.CreateProject(r.Context(), req.MunicipalityName, req.ProjectName)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	h.logger.Info().Str("project_id", project.ProjectID).Msg("Project created")
	WriteJSON(w, http.StatusOK, map[string]string{
		"project_id": project.ProjectID,
		"message":    fmt.Sprintf("Project created for %s", project.MunicipalityName),
	})
}

// ListProjectsHandler handles GET /api/projects
func (h *ProjectHandler) ListProjectsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	projects, err := h.projects.ListProjects(r.Context())
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	if projects == nil {
		projects = []*models.ProjectConfig{}
	}
	WriteJSON(w, http.StatusOK, projects)
}

// GetProjectHandler handles GET /api/projects/{id}
func (h *ProjectHandler) GetProjectHandler(w http.ResponseWriter, r *http.Request) {
	projectID, _ := projectPath(r)
	project, err := h.projects.GetProject(r.Context(), projectID)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, project)
}

// UpdateProjectHandler handles PUT /api/projects/{id}. Fields present in the body
// replace the stored values; absent fields are kept.
func (h *ProjectHandler) UpdateProjectHandler(w http.ResponseWriter, r *http.Request) {
	projectID, _ := projectPath(r)
	project, err := h.projects.GetProject(r.Context(), projectID)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if !DecodeJSON(w, r, project) {
		return
	}
	project.ProjectID = projectID

	if err := h.projects.SaveProject(r.Context(), project); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteSuccess(w, "Project updated")
}

// DeleteProjectHandler handles DELETE /api/projects/{id}
func (h *ProjectHandler) DeleteProjectHandler(w http.ResponseWriter, r *http.Request) {
	projectID, _ := projectPath(r)
	if err := h.projects.DeleteProject(r.Context(), projectID); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	h.logger.Info().Str("project_id", projectID).Msg("Project deleted")
	WriteSuccess(w, "Project deleted")
}

// GetConfigHandler handles GET /api/projects/{id}/config
func (h *ProjectHandler) GetConfigHandler(w http.ResponseWriter, r *http.Request) {
	h.GetProjectHandler(w, r)
}

// ReplaceConfigHandler handles PUT /api/projects/{id}/config with a complete configuration
func (h *ProjectHandler) ReplaceConfigHandler(w http.ResponseWriter, r *http.Request) {
	projectID, _ := projectPath(r)
	if _, err := h.projects.GetProject(r.Context(), projectID); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	var project models.ProjectConfig
	if !DecodeJSON(w, r, &project) {
		return
	}
	if project.ProjectID != "" && project.ProjectID != projectID {
		WriteError(w, http.StatusBadRequest, "project_id does not match the URL")
		return
	}
	project.ProjectID = projectID

	if err := h.projects.SaveProject(r.Context(), &project); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteSuccess(w, "Configuration saved")
}

// AddSourceHandler handles POST /api/projects/{id}/sources
func (h *ProjectHandler) AddSourceHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	projectID, _ := projectPath(r)

	source := models.DataSource{Enabled: true}
	if !DecodeJSON(w, r, &source) {
		return
	}

	added, err := h.projects.AddSource(r.Context(), projectID, source)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	h.logger.Info().
		Str("project_id", projectID).
		Str("source_id", added.ID).
		Str("type", string(added.Type)).
		Msg("Source added")

	WriteJSON(w, http.StatusOK, map[string]string{
		"message":   fmt.Sprintf("Added source %s", added.Name),
		"source_id": added.ID,
	})
}

// RemoveSourceHandler handles DELETE /api/projects/{id}/sources/{sid}
func (h *ProjectHandler) RemoveSourceHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodDelete) {
		return
	}
	projectID, sourceID := projectPath(r)
	if err := h.projects.RemoveSource(r.Context(), projectID, sourceID); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteSuccess(w, "Source removed")
}

// IngestSourceHandler handles POST /api/projects/{id}/sources/{sid}/ingest
func (h *ProjectHandler) IngestSourceHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	projectID, sourceID := projectPath(r)

	job, err := h.ingestion.Submit(r.Context(), projectID, sourceID)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"job_id":  job.ID,
		"status":  string(job.Status),
		"message": "Ingestion started",
	})
}

// UploadPDFHandler handles POST /api/projects/{id}/upload-pdf (multipart field "file")
func (h *ProjectHandler) UploadPDFHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	projectID, _ := projectPath(r)

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	source, path, err := h.projects.UploadDocument(r.Context(), projectID, header.Filename, file, r.FormValue("name"), r.FormValue("description"))
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	job, err := h.ingestion.SubmitUpload(r.Context(), projectID, source.ID, path)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	h.logger.Info().
		Str("project_id", projectID).
		Str("source_id", source.ID).
		Str("file", header.Filename).
		Msg("PDF uploaded")

	WriteJSON(w, http.StatusOK, map[string]string{
		"message":   fmt.Sprintf("Uploaded %s", header.Filename),
		"source_id": source.ID,
		"job_id":    job.ID,
	})
}

// StatsHandler handles GET /api/projects/{id}/stats
func (h *ProjectHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	projectID, _ := projectPath(r)
	stats, err := h.projects.Stats(r.Context(), projectID)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}

// HealthHandler handles GET /api/projects/{id}/health
func (h *ProjectHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	projectID, _ := projectPath(r)
	health, err := h.projects.ProjectHealth(r.Context(), projectID)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, health)
}

// DocumentsHandler handles GET /api/projects/{id}/documents?limit=&offset=&source_id=
func (h *ProjectHandler) DocumentsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	projectID, _ := projectPath(r)

	page, err := h.projects.Documents(r.Context(), projectID,
		r.URL.Query().Get("source_id"),
		QueryInt(r, "offset", 0),
		QueryInt(r, "limit", 0),
	)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, page)
}
