package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/neighborhood/internal/interfaces"
	"github.com/ternarybob/neighborhood/internal/models"
	"github.com/ternarybob/neighborhood/internal/services/discovery"
	"github.com/ternarybob/neighborhood/internal/services/projects"
)

type stubAgent struct {
	lastMessage string
	history     []models.ChatTurn
}

func (a *stubAgent) Chat(ctx context.Context, message string, history []models.ChatTurn) *models.ChatResponse {
	a.lastMessage = message
	a.history = history
	return &models.ChatResponse{Answer: "The transfer station opens at 8.", ContextUsed: true}
}

// stubProjects keeps projects in memory and records uploads
type stubProjects struct {
	projects map[string]*models.ProjectConfig
	agent    *stubAgent
	uploaded string
}

func newStubProjects() *stubProjects {
	project := &models.ProjectConfig{
		ProjectID:        "springfield",
		MunicipalityName: "Springfield",
		ProjectName:      "Springfield AI",
		AIProvider:       models.AIProviderOllama,
		ModelName:        models.DefaultOllamaModel,
		DataSources: []models.DataSource{
			{ID: "src_1", Name: "Town site", Type: models.DataSourceWebsite, Enabled: true},
		},
	}
	return &stubProjects{
		projects: map[string]*models.ProjectConfig{"springfield": project},
		agent:    &stubAgent{},
	}
}

func (s *stubProjects) get(id string) (*models.ProjectConfig, error) {
	p, ok := s.projects[id]
	if !ok {
		return nil, interfaces.ErrProjectNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *stubProjects) CreateProject(ctx context.Context, municipality, name string) (*models.ProjectConfig, error) {
	id := strings.ToLower(municipality)
	p := &models.ProjectConfig{ProjectID: id, MunicipalityName: municipality, ProjectName: name}
	s.projects[id] = p
	return p, nil
}

func (s *stubProjects) GetProject(ctx context.Context, id string) (*models.ProjectConfig, error) {
	return s.get(id)
}

func (s *stubProjects) ListProjects(ctx context.Context) ([]*models.ProjectConfig, error) {
	out := make([]*models.ProjectConfig, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, p)
	}
	return out, nil
}

func (s *stubProjects) SaveProject(ctx context.Context, project *models.ProjectConfig) error {
	if project.Temperature > 2 {
		return fmt.Errorf("%w: temperature out of range", models.ErrInvalidProject)
	}
	s.projects[project.ProjectID] = project
	return nil
}

func (s *stubProjects) DeleteProject(ctx context.Context, id string) error {
	if _, ok := s.projects[id]; !ok {
		return interfaces.ErrProjectNotFound
	}
	delete(s.projects, id)
	return nil
}

func (s *stubProjects) AddSource(ctx context.Context, id string, source models.DataSource) (*models.DataSource, error) {
	p, ok := s.projects[id]
	if !ok {
		return nil, interfaces.ErrProjectNotFound
	}
	source.ID = "src_new"
	p.DataSources = append(p.DataSources, source)
	return &source, nil
}

func (s *stubProjects) RemoveSource(ctx context.Context, id, sourceID string) error {
	p, err := s.get(id)
	if err != nil {
		return err
	}
	if p.FindSource(sourceID) == nil {
		return interfaces.ErrSourceNotFound
	}
	return nil
}

func (s *stubProjects) Agent(ctx context.Context, id string) (interfaces.ChatAgent, error) {
	if _, err := s.get(id); err != nil {
		return nil, err
	}
	return s.agent, nil
}

func (s *stubProjects) Stats(ctx context.Context, id string) (*models.ProjectStats, error) {
	if _, err := s.get(id); err != nil {
		return nil, err
	}
	return &models.ProjectStats{}, nil
}

func (s *stubProjects) Documents(ctx context.Context, id, sourceID string, offset, limit int) (*models.DocumentPage, error) {
	if _, err := s.get(id); err != nil {
		return nil, err
	}
	return &models.DocumentPage{Offset: offset, Limit: limit}, nil
}

func (s *stubProjects) ProjectHealth(ctx context.Context, id string) (*models.ProjectHealth, error) {
	if _, err := s.get(id); err != nil {
		return nil, err
	}
	return &models.ProjectHealth{Status: "healthy"}, nil
}

func (s *stubProjects) SystemHealth(ctx context.Context) (*models.SystemHealth, error) {
	return &models.SystemHealth{Status: "healthy", Service: projects.ServiceName}, nil
}

func (s *stubProjects) UploadDocument(ctx context.Context, id, filename string, content io.Reader, name, description string) (*models.DataSource, string, error) {
	if _, err := s.get(id); err != nil {
		return nil, "", err
	}
	if !strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		return nil, "", projects.ErrNotPDF
	}
	data, _ := io.ReadAll(content)
	s.uploaded = string(data)
	return &models.DataSource{ID: "src_pdf", Name: name, Type: models.DataSourcePDFUpload}, "/data/springfield/uploads/" + filename, nil
}

func (s *stubProjects) OllamaModels(ctx context.Context) ([]models.OllamaModel, error) {
	return nil, fmt.Errorf("connection refused")
}

type stubDiscoverer struct {
	opts discovery.Options
}

func (d *stubDiscoverer) DiscoverSources(ctx context.Context, project *models.ProjectConfig, opts discovery.Options) *models.DiscoveryResult {
	d.opts = opts
	return &models.DiscoveryResult{
		Location:   project.MunicipalityName,
		Sources:    []models.DiscoveredSource{{Name: "Town site", Type: "website", URL: "https://springfield.gov"}},
		TotalFound: 1,
	}
}

func (d *stubDiscoverer) SuggestPersonality(ctx context.Context, project *models.ProjectConfig, opts discovery.Options) string {
	return "Friendly and plain spoken."
}

func (d *stubDiscoverer) ValidateSource(ctx context.Context, rawURL, sourceType string) *models.SourceValidation {
	return &models.SourceValidation{URL: rawURL, Type: sourceType, Valid: true, StatusCode: 200}
}

func doJSON(t *testing.T, handler http.HandlerFunc, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestProjectHandler_CreateAndGet(t *testing.T) {
	h := NewProjectHandler(newStubProjects(), newStubIngestion(), arbor.NewLogger())

	rec := doJSON(t, h.CreateProjectHandler, http.MethodPost, "/api/projects", createProjectRequest{
		MunicipalityName: "Ogdenville",
		ProjectName:      "Ogdenville AI",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ogdenville", decodeBody(t, rec)["project_id"])

	rec = doJSON(t, h.CreateProjectHandler, http.MethodPost, "/api/projects", createProjectRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h.GetProjectHandler, http.MethodGet, "/api/projects/ogdenville", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Ogdenville", decodeBody(t, rec)["municipality_name"])

	rec = doJSON(t, h.GetProjectHandler, http.MethodGet, "/api/projects/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Project not found", decodeBody(t, rec)["error"])
}

func TestProjectHandler_UpdateIsPartial(t *testing.T) {
	store := newStubProjects()
	h := NewProjectHandler(store, newStubIngestion(), arbor.NewLogger())

	rec := doJSON(t, h.UpdateProjectHandler, http.MethodPut, "/api/projects/springfield", map[string]interface{}{
		"tagline":    "Ask about town meeting",
		"project_id": "hijacked",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	saved := store.projects["springfield"]
	assert.Equal(t, "Ask about town meeting", saved.Tagline)
	assert.Equal(t, "Springfield", saved.MunicipalityName)
	assert.Len(t, saved.DataSources, 1)
	assert.NotContains(t, store.projects, "hijacked")

	rec = doJSON(t, h.UpdateProjectHandler, http.MethodPut, "/api/projects/springfield", map[string]interface{}{
		"temperature": 5,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProjectHandler_ReplaceConfigRejectsMismatchedID(t *testing.T) {
	h := NewProjectHandler(newStubProjects(), newStubIngestion(), arbor.NewLogger())
	rec := doJSON(t, h.ReplaceConfigHandler, http.MethodPut, "/api/projects/springfield/config", map[string]interface{}{
		"project_id": "other",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProjectHandler_SourcesAndIngest(t *testing.T) {
	store := newStubProjects()
	ingestion := newStubIngestion()
	h := NewProjectHandler(store, ingestion, arbor.NewLogger())

	rec := doJSON(t, h.AddSourceHandler, http.MethodPost, "/api/projects/springfield/sources", map[string]interface{}{
		"type": "website",
		"url":  "https://springfield.gov",
		"name": "Town site",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "src_new", decodeBody(t, rec)["source_id"])
	added := store.projects["springfield"].DataSources[1]
	assert.True(t, added.Enabled, "sources default to enabled")

	rec = doJSON(t, h.RemoveSourceHandler, http.MethodDelete, "/api/projects/springfield/sources/src_missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Source not found", decodeBody(t, rec)["error"])

	rec = doJSON(t, h.IngestSourceHandler, http.MethodPost, "/api/projects/springfield/sources/src_1/ingest", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "job_1", body["job_id"])
	assert.Equal(t, "pending", body["status"])
	assert.Equal(t, []string{"springfield/src_1"}, ingestion.submitted)
}

func multipartUpload(t *testing.T, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	part.Write([]byte(content))
	mw.WriteField("name", "Warrant")
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/projects/springfield/upload-pdf", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestProjectHandler_UploadPDF(t *testing.T) {
	store := newStubProjects()
	ingestion := newStubIngestion()
	h := NewProjectHandler(store, ingestion, arbor.NewLogger())

	rec := httptest.NewRecorder()
	h.UploadPDFHandler(rec, multipartUpload(t, "warrant.pdf", "%PDF-1.4"))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "src_pdf", body["source_id"])
	assert.Equal(t, "job_upload", body["job_id"])
	assert.Equal(t, "%PDF-1.4", store.uploaded)
	assert.Equal(t, []string{"/data/springfield/uploads/warrant.pdf"}, ingestion.uploads)

	rec = httptest.NewRecorder()
	h.UploadPDFHandler(rec, multipartUpload(t, "notes.txt", "hello"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, ingestion.uploads[1:])
}

func TestProjectHandler_DocumentsQuery(t *testing.T) {
	h := NewProjectHandler(newStubProjects(), newStubIngestion(), arbor.NewLogger())
	rec := doJSON(t, h.DocumentsHandler, http.MethodGet, "/api/projects/springfield/documents?offset=10&limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.EqualValues(t, 10, body["offset"])
	assert.EqualValues(t, 5, body["limit"])
}

func TestChatHandler(t *testing.T) {
	store := newStubProjects()
	h := NewChatHandler(store, arbor.NewLogger())

	rec := doJSON(t, h.ChatHandler, http.MethodPost, "/api/chat", chatRequest{
		ProjectID: "springfield",
		Message:   "When is the dump open?",
		ConversationHistory: []models.ChatTurn{
			{Role: "user", Content: "Hi"},
			{Role: "assistant", Content: "Hello"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "The transfer station opens at 8.", decodeBody(t, rec)["answer"])
	assert.Equal(t, "When is the dump open?", store.agent.lastMessage)
	assert.Len(t, store.agent.history, 2)

	rec = doJSON(t, h.ChatHandler, http.MethodPost, "/api/chat", chatRequest{ProjectID: "springfield"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h.ChatHandler, http.MethodPost, "/api/chat", chatRequest{ProjectID: "nowhere", Message: "hi"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h.ChatHandler, http.MethodGet, "/api/chat", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestDiscoveryHandler(t *testing.T) {
	discoverer := &stubDiscoverer{}
	h := NewDiscoveryHandler(newStubProjects(), discoverer, arbor.NewLogger())

	rec := doJSON(t, h.DiscoverSourcesHandler, http.MethodPost, "/api/projects/springfield/discover-sources", map[string]string{
		"provider":     "anthropic",
		"neighborhood": "North End",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decodeBody(t, rec)["total_found"])
	assert.Equal(t, models.AIProviderAnthropic, discoverer.opts.Provider)
	assert.Equal(t, "North End", discoverer.opts.Neighborhood)

	rec = doJSON(t, h.GeneratePersonalityHandler, http.MethodPost, "/api/projects/springfield/generate-personality", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Friendly and plain spoken.", decodeBody(t, rec)["personality"])

	rec = doJSON(t, h.DiscoverSourcesHandler, http.MethodPost, "/api/projects/nowhere/discover-sources", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJobHandler(t *testing.T) {
	ingestion := newStubIngestion()
	ingestion.jobs["job_a"] = &models.IngestionJob{ID: "job_a", ProjectID: "springfield", Status: models.JobStatusCompleted}
	ingestion.jobs["job_b"] = &models.IngestionJob{ID: "job_b", ProjectID: "ogdenville", Status: models.JobStatusFailed}
	h := NewJobHandler(ingestion, arbor.NewLogger())

	rec := doJSON(t, h.GetJobHandler, http.MethodGet, "/api/jobs/job_a", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "completed", decodeBody(t, rec)["status"])

	rec = doJSON(t, h.GetJobHandler, http.MethodGet, "/api/jobs/job_zzz", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h.ListJobsHandler, http.MethodGet, "/api/admin/jobs?project_id=ogdenville", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	jobs := decodeBody(t, rec)["jobs"].([]interface{})
	require.Len(t, jobs, 1)
	assert.Equal(t, "job_b", jobs[0].(map[string]interface{})["job_id"])
}

func TestAPIHandler(t *testing.T) {
	h := NewAPIHandler(newStubProjects(), arbor.NewLogger())

	rec := doJSON(t, h.ProviderModelsHandler, http.MethodGet, "/api/models/openai", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decodeBody(t, rec)["models"])

	rec = doJSON(t, h.ProviderModelsHandler, http.MethodGet, "/api/models/cohere", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h.OllamaModelsHandler, http.MethodGet, "/api/ollama/models", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Ollama is not running", decodeBody(t, rec)["error"])

	rec = doJSON(t, h.RootHandler, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, projects.ServiceName, decodeBody(t, rec)["service"])

	rec = doJSON(t, h.RootHandler, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPathSegments(t *testing.T) {
	assert.Equal(t, []string{"p1", "sources", "s1", "ingest"}, PathSegments("/api/projects/p1/sources/s1/ingest/", ProjectsPrefix))
	assert.Nil(t, PathSegments("/api/projects/", ProjectsPrefix))
}
