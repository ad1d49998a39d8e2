// Package projects owns project records and the per-project chat agents built from them.
package projects

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/neighborhood/internal/common"
	"github.com/ternarybob/neighborhood/internal/interfaces"
	"github.com/ternarybob/neighborhood/internal/models"
	"github.com/ternarybob/neighborhood/internal/services/chat"
)

// ErrNotPDF is returned when an upload is not a .pdf file
var ErrNotPDF = errors.New("file must be a PDF")

// BackendFactory builds chat backends and resolves provider credentials
type BackendFactory interface {
	chat.BackendProvider
	APIKey(project *models.ProjectConfig) string
	OllamaURL() string
}

// Service implements interfaces.ProjectService
type Service struct {
	config   *common.Config
	projects interfaces.ProjectStorage
	jobs     interfaces.JobStorage
	indexes  interfaces.IndexRegistry
	backends BackendFactory
	client   *http.Client
	logger   arbor.ILogger

	mu     sync.RWMutex
	agents map[string]*chat.Agent
}

var _ interfaces.ProjectService = (*Service)(nil)

// NewService creates the project service
func NewService(
	config *common.Config,
	projects interfaces.ProjectStorage,
	jobs interfaces.JobStorage,
	indexes interfaces.IndexRegistry,
	backends BackendFactory,
	logger arbor.ILogger,
) *Service {
	return &Service{
		config:   config,
		projects: projects,
		jobs:     jobs,
		indexes:  indexes,
		backends: backends,
		client:   &http.Client{Timeout: ollamaProbeTimeout},
		logger:   logger,
		agents:   make(map[string]*chat.Agent),
	}
}

// Watch drops a project's cached agent whenever one of its jobs finishes, so
// the next chat sees updated source counters. Returns the unsubscribe func.
func (s *Service) Watch(ingestion interfaces.IngestionService) func() {
	return ingestion.Subscribe(func(job *models.IngestionJob) {
		if job.IsTerminal() {
			s.dropAgent(job.ProjectID)
		}
	})
}

// CreateProject derives the id from the municipality name, adding -2, -3, ...
// when the id is taken
func (s *Service) CreateProject(ctx context.Context, municipality, projectName string) (*models.ProjectConfig, error) {
	municipality = strings.TrimSpace(municipality)
	if municipality == "" {
		return nil, fmt.Errorf("municipality name is required")
	}

	base := models.ProjectIDFromMunicipality(municipality)
	projectID := base
	for counter := 2; ; counter++ {
		_, err := s.projects.GetProject(ctx, projectID)
		if errors.Is(err, interfaces.ErrProjectNotFound) {
			break
		}
		if err != nil {
			return nil, err
		}
		projectID = fmt.Sprintf("%s-%d", base, counter)
	}

	project := models.NewProjectConfig(projectID, municipality, projectName)
	if err := project.Validate(); err != nil {
		return nil, err
	}
	if err := s.projects.SaveProject(ctx, project); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("project_id", projectID).
		Str("municipality", municipality).
		Msg("Project created")

	return project, nil
}

func (s *Service) GetProject(ctx context.Context, projectID string) (*models.ProjectConfig, error) {
	return s.projects.GetProject(ctx, projectID)
}

func (s *Service) ListProjects(ctx context.Context) ([]*models.ProjectConfig, error) {
	return s.projects.ListProjects(ctx)
}

// SaveProject validates and stores a project, then drops its cached agent.
// The index handle stays open since no index setting lives on the project.
func (s *Service) SaveProject(ctx context.Context, project *models.ProjectConfig) error {
	project.ApplyDefaults()
	if err := project.Validate(); err != nil {
		return err
	}
	if err := s.projects.SaveProject(ctx, project); err != nil {
		return err
	}
	s.dropAgent(project.ProjectID)
	return nil
}

// DeleteProject removes the project record, its jobs, its index and its data directory
func (s *Service) DeleteProject(ctx context.Context, projectID string) error {
	if _, err := s.projects.GetProject(ctx, projectID); err != nil {
		return err
	}

	s.dropAgent(projectID)
	if err := s.indexes.Drop(ctx, projectID); err != nil {
		s.logger.Warn().Err(err).Str("project_id", projectID).Msg("Failed to drop project index")
	}
	if err := s.jobs.DeleteJobsByProject(ctx, projectID); err != nil {
		s.logger.Warn().Err(err).Str("project_id", projectID).Msg("Failed to delete project jobs")
	}
	if err := s.projects.DeleteProject(ctx, projectID); err != nil {
		return err
	}
	if err := os.RemoveAll(s.projectDir(projectID)); err != nil {
		return fmt.Errorf("failed to delete project data: %w", err)
	}

	s.logger.Info().Str("project_id", projectID).Msg("Project deleted")
	return nil
}

// AddSource appends a source, generating an id when none is given
func (s *Service) AddSource(ctx context.Context, projectID string, source models.DataSource) (*models.DataSource, error) {
	project, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if source.ID == "" {
		source.ID = common.NewSourceID()
	}
	if source.Metadata == nil {
		source.Metadata = map[string]interface{}{}
	}
	project.DataSources = append(project.DataSources, source)

	if err := s.SaveProject(ctx, project); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("project_id", projectID).
		Str("source_id", source.ID).
		Str("type", string(source.Type)).
		Msg("Data source added")

	return &source, nil
}

// RemoveSource deletes the source and the chunks indexed under its name
func (s *Service) RemoveSource(ctx context.Context, projectID, sourceID string) error {
	project, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return err
	}

	removed := project.FindSource(sourceID)
	if removed == nil {
		return fmt.Errorf("%w: %s", interfaces.ErrSourceNotFound, sourceID)
	}
	name := removed.Name

	kept := make([]models.DataSource, 0, len(project.DataSources))
	for _, src := range project.DataSources {
		if src.ID != sourceID {
			kept = append(kept, src)
		}
	}
	project.DataSources = kept

	if err := s.SaveProject(ctx, project); err != nil {
		return err
	}

	index, err := s.indexes.Get(ctx, projectID)
	if err != nil {
		return err
	}
	if err := index.DeleteBySource(ctx, name); err != nil {
		return fmt.Errorf("failed to delete indexed chunks: %w", err)
	}
	return nil
}

// UploadDocument stores an uploaded PDF under {data_dir}/{project}/uploads and
// adds a pdf_upload source pointing at it
func (s *Service) UploadDocument(ctx context.Context, projectID, filename string, content io.Reader, name, description string) (*models.DataSource, string, error) {
	filename = filepath.Base(filename)
	if !strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		return nil, "", ErrNotPDF
	}
	if _, err := s.projects.GetProject(ctx, projectID); err != nil {
		return nil, "", err
	}

	dir := filepath.Join(s.projectDir(projectID), "uploads")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	path := filepath.Join(dir, filename)
	size, err := writeFile(path, content)
	if err != nil {
		return nil, "", err
	}

	if name == "" {
		name = filename
	}
	if description == "" {
		description = "Uploaded PDF: " + filename
	}

	source, err := s.AddSource(ctx, projectID, models.DataSource{
		Type:        models.DataSourcePDFUpload,
		URL:         "file://" + path,
		Name:        name,
		Description: description,
		Enabled:     true,
		Metadata: map[string]interface{}{
			"file_path":         path,
			"original_filename": filename,
			"collection_method": "pdf_upload",
			"file_size":         size,
		},
	})
	if err != nil {
		return nil, "", err
	}
	return source, path, nil
}

func writeFile(path string, content io.Reader) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create upload file: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, content)
	if err != nil {
		return n, fmt.Errorf("failed to write upload file: %w", err)
	}
	return n, nil
}

// Agent returns the cached chat agent for a project, building it on first use
func (s *Service) Agent(ctx context.Context, projectID string) (interfaces.ChatAgent, error) {
	return s.agent(ctx, projectID)
}

func (s *Service) agent(ctx context.Context, projectID string) (*chat.Agent, error) {
	s.mu.RLock()
	agent, ok := s.agents[projectID]
	s.mu.RUnlock()
	if ok {
		return agent, nil
	}

	project, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	index, err := s.indexes.Get(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if agent, ok := s.agents[projectID]; ok {
		return agent, nil
	}
	agent = chat.NewAgent(project, index, s.backends, chat.DefaultTopK, s.logger)
	s.agents[projectID] = agent
	return agent, nil
}

// Stats summarizes the project and its index
func (s *Service) Stats(ctx context.Context, projectID string) (*models.ProjectStats, error) {
	agent, err := s.agent(ctx, projectID)
	if err != nil {
		return nil, err
	}
	stats := agent.Stats(ctx)
	return &stats, nil
}

func (s *Service) dropAgent(projectID string) {
	s.mu.Lock()
	delete(s.agents, projectID)
	s.mu.Unlock()
}

func (s *Service) projectDir(projectID string) string {
	return filepath.Join(s.config.Storage.DataDir, projectID)
}
