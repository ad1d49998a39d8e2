package projects

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/neighborhood/internal/common"
	"github.com/ternarybob/neighborhood/internal/models"
	"github.com/ternarybob/neighborhood/internal/services/llm"
	"golang.org/x/sync/errgroup"
)

const (
	ServiceName        = "Neighborhood AI API"
	ollamaProbeTimeout = 5 * time.Second
)

// ProjectHealth checks the chat backend, the index and the sources of one project
func (s *Service) ProjectHealth(ctx context.Context, projectID string) (*models.ProjectHealth, error) {
	project, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	health := &models.ProjectHealth{
		ProjectID:   projectID,
		ProjectName: project.ProjectName,
		Issues:      []string{},
	}

	var providerIssue string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		health.AIProvider, providerIssue = s.providerHealth(gctx, project)
		return nil
	})
	g.Go(func() error {
		health.Index = s.indexHealth(gctx, projectID)
		return nil
	})
	_ = g.Wait()

	if providerIssue != "" {
		health.Issues = append(health.Issues, providerIssue)
	}

	for _, src := range project.DataSources {
		health.DataSources.Total++
		if src.LastSynced != nil {
			health.DataSources.Synced++
		}
		health.DataSources.TotalWords += src.WordCount
		health.DataSources.TotalChunks += src.DocumentCount
	}
	health.DataSources.Active = health.DataSources.Synced

	switch {
	case health.DataSources.Total == 0:
		health.Issues = append(health.Issues, "No data sources configured")
	case health.DataSources.Synced == 0:
		health.Issues = append(health.Issues, "No data sources have been ingested")
	}

	health.Ready = len(health.Issues) == 0
	health.Status = "healthy"
	if !health.Ready {
		health.Status = "needs_setup"
	}
	return health, nil
}

// providerHealth returns the backend status and the issue to report, if any
func (s *Service) providerHealth(ctx context.Context, project *models.ProjectConfig) (models.ProviderHealth, string) {
	ph := models.ProviderHealth{
		Status:   models.ProviderStatusReady,
		Provider: project.AIProvider,
		Model:    project.ModelName,
	}

	if project.AIProvider == models.AIProviderOllama || project.AIProvider == "" {
		installed, err := llm.ListOllamaModels(ctx, s.client, s.backends.OllamaURL())
		if err != nil {
			ph.Status = models.ProviderStatusNotRunning
			ph.Message = "Ollama not running. Run: ollama serve"
			return ph, "Ollama is not running"
		}
		if !llm.HasOllamaModel(installed, project.ModelName) {
			ph.Status = models.ProviderStatusModelMissing
			ph.Message = fmt.Sprintf("Model '%s' not found. Run: ollama pull %s", project.ModelName, project.ModelName)
			return ph, "Model not installed: " + project.ModelName
		}
		return ph, ""
	}

	if s.backends.APIKey(project) == "" {
		ph.Status = models.ProviderStatusMissingAPIKey
		ph.Message = fmt.Sprintf("API key not configured for %s", project.AIProvider)
		return ph, fmt.Sprintf("Missing API key for %s", project.AIProvider)
	}
	return ph, ""
}

func (s *Service) indexHealth(ctx context.Context, projectID string) models.IndexHealth {
	index, err := s.indexes.Get(ctx, projectID)
	if err != nil {
		return models.IndexHealth{Status: "error", Error: err.Error()}
	}
	stats, err := index.Stats(ctx)
	if err != nil {
		return models.IndexHealth{Status: "error", Error: err.Error()}
	}
	if stats.DocumentCount == 0 {
		return models.IndexHealth{Status: "empty"}
	}
	return models.IndexHealth{Status: "ready", Documents: stats.DocumentCount}
}

// SystemHealth reports Ollama reachability and the number of projects.
// The service is degraded when Ollama is down.
func (s *Service) SystemHealth(ctx context.Context) (*models.SystemHealth, error) {
	health := &models.SystemHealth{
		Status:       "healthy",
		Service:      ServiceName,
		Version:      common.GetVersion(),
		OllamaStatus: "running",
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		installed, err := llm.ListOllamaModels(gctx, s.client, s.backends.OllamaURL())
		if err != nil {
			health.OllamaStatus = "not_running"
			health.OllamaError = err.Error()
			return nil
		}
		health.OllamaModels = len(installed)
		return nil
	})
	g.Go(func() error {
		count, err := s.projects.CountProjects(gctx)
		if err != nil {
			return err
		}
		health.ProjectsCount = count
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if health.OllamaStatus != "running" {
		health.Status = "degraded"
	}
	return health, nil
}

// OllamaModels lists the models installed on the configured Ollama server
func (s *Service) OllamaModels(ctx context.Context) ([]models.OllamaModel, error) {
	return llm.ListOllamaModels(ctx, s.client, s.backends.OllamaURL())
}
