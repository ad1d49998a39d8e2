package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/neighborhood/internal/common"
	"github.com/ternarybob/neighborhood/internal/models"
)

// Factory builds the chat backend a project is configured for
type Factory struct {
	config common.LLMConfig
	client *http.Client
	retry  *RetryConfig
	logger arbor.ILogger

	// Base URL overrides for hosted providers, keyed by provider
	baseURLs map[models.AIProvider]string
}

// NewFactory creates a backend factory over the service-wide LLM settings
func NewFactory(config common.LLMConfig, logger arbor.ILogger) *Factory {
	return &Factory{
		config:   config,
		client:   &http.Client{Timeout: config.Timeout.Duration()},
		retry:    NewDefaultRetryConfig(),
		logger:   logger,
		baseURLs: make(map[models.AIProvider]string),
	}
}

// WithBaseURL points a provider at a different endpoint
func (f *Factory) WithBaseURL(provider models.AIProvider, baseURL string) *Factory {
	f.baseURLs[provider] = baseURL
	return f
}

// WithRetry replaces the rate limit retry policy of hosted backends
func (f *Factory) WithRetry(retry *RetryConfig) *Factory {
	f.retry = retry
	return f
}

// OllamaURL is the Ollama server the factory dispatches to
func (f *Factory) OllamaURL() string {
	if u := f.baseURLs[models.AIProviderOllama]; u != "" {
		return u
	}
	return f.config.OllamaURL
}

// APIKey resolves the key for a hosted provider: project key, then config key,
// then the {PROVIDER}_API_KEY environment variable
func (f *Factory) APIKey(project *models.ProjectConfig) string {
	var configKey string
	switch project.AIProvider {
	case models.AIProviderOpenAI:
		configKey = f.config.OpenAIAPIKey
	case models.AIProviderAnthropic:
		configKey = f.config.AnthropicAPIKey
	case models.AIProviderGemini:
		configKey = f.config.GeminiAPIKey
	default:
		return ""
	}
	return common.ResolveAPIKey(string(project.AIProvider), project.APIKey, configKey)
}

// ForProject returns the backend for the project's provider and model. A hosted
// provider without an API key yields a missing_api_key BackendError.
func (f *Factory) ForProject(ctx context.Context, project *models.ProjectConfig) (Backend, error) {
	model := project.ModelName
	if model == "" {
		model = models.DefaultModelFor(project.AIProvider)
	}

	f.logger.Debug().
		Str("project_id", project.ProjectID).
		Str("provider", string(project.AIProvider)).
		Str("model", model).
		Msg("Creating chat backend")

	baseURL := f.baseURLs[project.AIProvider]
	switch project.AIProvider {
	case models.AIProviderOllama, "":
		return NewOllamaBackend(f.OllamaURL(), model, project.ContextWindow, f.client, f.logger)
	case models.AIProviderOpenAI:
		return NewOpenAIBackend(f.APIKey(project), model, baseURL, f.client, f.logger)
	case models.AIProviderAnthropic:
		return NewAnthropicBackend(f.APIKey(project), model, baseURL, f.client, f.retry, f.logger)
	case models.AIProviderGemini:
		return NewGeminiBackend(ctx, f.APIKey(project), model, baseURL, f.client, f.retry, f.logger)
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", project.AIProvider)
	}
}
