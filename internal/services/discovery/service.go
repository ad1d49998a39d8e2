// Package discovery asks a language model for candidate civic data sources
// and checks whether the suggested URLs are reachable.
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/neighborhood/internal/models"
	"github.com/ternarybob/neighborhood/internal/services/chat"
	"github.com/ternarybob/neighborhood/internal/services/llm"
)

const (
	discoveryTemperature   = 0.7
	discoveryMaxTokens     = 4000
	personalityTemperature = 0.8
	personalityMaxTokens   = 2000
	validateTimeout        = 10 * time.Second
	maxPersonalitySources  = 10
)

// Options overrides the project's backend for one discovery request
type Options struct {
	Provider     models.AIProvider
	Model        string
	APIKey       string
	Neighborhood string
	CustomPrompt string
}

// Service implements source discovery and personality suggestion
type Service struct {
	backends chat.BackendProvider
	client   *http.Client
	logger   arbor.ILogger
}

// NewService creates a discovery service dispatching through backends
func NewService(backends chat.BackendProvider, logger arbor.ILogger) *Service {
	return &Service{
		backends: backends,
		client:   &http.Client{Timeout: validateTimeout},
		logger:   logger,
	}
}

// withOptions returns a copy of project using the overridden backend settings
func withOptions(project *models.ProjectConfig, opts Options) *models.ProjectConfig {
	p := *project
	if opts.Provider != "" && opts.Provider != p.AIProvider {
		p.AIProvider = opts.Provider
		p.ModelName = models.DefaultModelFor(opts.Provider)
	}
	if opts.Model != "" {
		p.ModelName = opts.Model
	}
	if opts.APIKey != "" {
		p.APIKey = opts.APIKey
	}
	return &p
}

// DiscoverSources asks the backend for a JSON list of sources. Failures are
// reported in the result's Error field.
func (s *Service) DiscoverSources(ctx context.Context, project *models.ProjectConfig, opts Options) *models.DiscoveryResult {
	location := project.MunicipalityName
	if opts.Neighborhood != "" {
		location = opts.Neighborhood + ", " + location
	}
	result := &models.DiscoveryResult{Location: location, Sources: []models.DiscoveredSource{}}

	target := withOptions(project, opts)
	backend, err := s.backends.ForProject(ctx, target)
	if err != nil {
		result.Error = llm.Classify(target.AIProvider, target.ModelName, err).UserMessage
		return result
	}

	prompt := BuildDiscoveryPrompt(location)
	if opts.CustomPrompt != "" {
		prompt = opts.CustomPrompt
	}

	text, err := backend.Complete(ctx, &llm.CompletionRequest{
		SystemPrompt: DiscoverySystemPrompt,
		Prompt:       prompt,
		Temperature:  discoveryTemperature,
		MaxTokens:    discoveryMaxTokens,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("location", location).Msg("Source discovery request failed")
		result.Error = llm.Classify(target.AIProvider, target.ModelName, err).UserMessage
		return result
	}

	sources, err := ParseSources(text)
	if err != nil {
		s.logger.Warn().Err(err).Str("location", location).Msg("Source discovery returned unparseable output")
		result.Error = err.Error()
		return result
	}

	result.Sources = sources
	result.TotalFound = len(sources)

	s.logger.Info().
		Str("location", location).
		Int("found", len(sources)).
		Msg("Source discovery complete")

	return result
}

// ParseSources decodes a JSON array of sources, tolerating markdown code fences
// and prose around the array
func ParseSources(text string) ([]models.DiscoveredSource, error) {
	content := strings.TrimSpace(text)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	if start, end := strings.Index(content, "["), strings.LastIndex(content, "]"); start >= 0 && end > start {
		content = content[start : end+1]
	}

	var sources []models.DiscoveredSource
	if err := json.Unmarshal([]byte(content), &sources); err != nil {
		return nil, fmt.Errorf("failed to parse discovered sources: %w", err)
	}

	kept := sources[:0]
	for _, src := range sources {
		if strings.TrimSpace(src.URL) == "" {
			continue
		}
		kept = append(kept, src)
	}
	return kept, nil
}

// ValidateSource checks that a candidate URL answers a HEAD request without an error status
func (s *Service) ValidateSource(ctx context.Context, rawURL, sourceType string) *models.SourceValidation {
	result := &models.SourceValidation{URL: rawURL, Type: sourceType}

	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		result.Error = "Invalid URL format"
		return result
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	resp, err := s.client.Do(req)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	defer resp.Body.Close()

	result.StatusCode = resp.StatusCode
	if resp.StatusCode >= http.StatusBadRequest {
		result.Error = fmt.Sprintf("HTTP %d", resp.StatusCode)
		return result
	}
	result.Valid = true
	result.ContentType = resp.Header.Get("Content-Type")
	return result
}

// SuggestPersonality drafts a system prompt for the project from its sources.
// Backend failures fall back to a generic prompt.
func (s *Service) SuggestPersonality(ctx context.Context, project *models.ProjectConfig, opts Options) string {
	target := withOptions(project, opts)
	fallback := FallbackPersonality(project.MunicipalityName)

	backend, err := s.backends.ForProject(ctx, target)
	if err != nil {
		s.logger.Warn().Err(err).Str("project_id", project.ProjectID).Msg("Personality backend unavailable")
		return fallback
	}

	text, err := backend.Complete(ctx, &llm.CompletionRequest{
		SystemPrompt: PersonalitySystemPrompt,
		Prompt:       BuildPersonalityPrompt(project.MunicipalityName, project.DataSources),
		Temperature:  personalityTemperature,
		MaxTokens:    personalityMaxTokens,
	})
	if err != nil || strings.TrimSpace(text) == "" {
		s.logger.Warn().Err(err).Str("project_id", project.ProjectID).Msg("Personality generation failed")
		return fallback
	}
	return strings.TrimSpace(text)
}
