package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/neighborhood/internal/models"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// LangchainBackend dispatches through a langchaingo chat model. It serves the
// Ollama and OpenAI providers.
type LangchainBackend struct {
	llm       llms.Model
	provider  models.AIProvider
	model     string
	maxTokens bool
	logger    arbor.ILogger
}

var _ Backend = (*LangchainBackend)(nil)

// NewOllamaBackend creates a backend for a model served by Ollama at serverURL.
// Ollama is sent temperature and context window only.
func NewOllamaBackend(serverURL, model string, contextWindow int, client *http.Client, logger arbor.ILogger) (*LangchainBackend, error) {
	opts := []ollama.Option{
		ollama.WithModel(model),
		ollama.WithServerURL(serverURL),
	}
	if contextWindow > 0 {
		opts = append(opts, ollama.WithRunnerNumCtx(contextWindow))
	}
	if client != nil {
		opts = append(opts, ollama.WithHTTPClient(client))
	}

	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama client: %w", err)
	}
	return &LangchainBackend{llm: llm, provider: models.AIProviderOllama, model: model, logger: logger}, nil
}

// NewOpenAIBackend creates a backend for the OpenAI chat completions API.
// An empty baseURL uses the public endpoint.
func NewOpenAIBackend(apiKey, model, baseURL string, client *http.Client, logger arbor.ILogger) (*LangchainBackend, error) {
	if apiKey == "" {
		return nil, MissingAPIKeyError(models.AIProviderOpenAI)
	}

	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithModel(model),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	if client != nil {
		opts = append(opts, openai.WithHTTPClient(client))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai client: %w", err)
	}
	return &LangchainBackend{llm: llm, provider: models.AIProviderOpenAI, model: model, maxTokens: true, logger: logger}, nil
}

func (b *LangchainBackend) Provider() models.AIProvider { return b.provider }

func (b *LangchainBackend) Model() string { return b.model }

func (b *LangchainBackend) Complete(ctx context.Context, request *CompletionRequest) (string, error) {
	messages := make([]llms.MessageContent, 0, len(request.Messages)+2)
	if request.SystemPrompt != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, request.SystemPrompt))
	}
	for _, msg := range request.conversation() {
		role := llms.ChatMessageTypeHuman
		if msg.Role == RoleAssistant {
			role = llms.ChatMessageTypeAI
		}
		messages = append(messages, llms.TextParts(role, msg.Content))
	}

	callOpts := []llms.CallOption{llms.WithTemperature(request.Temperature)}
	if b.maxTokens && request.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(request.MaxTokens))
	}

	b.logger.Debug().
		Str("provider", string(b.provider)).
		Str("model", b.model).
		Int("message_count", len(messages)).
		Msg("Generating chat completion")

	resp, err := b.llm.GenerateContent(ctx, messages, callOpts...)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from %s", b.provider.DisplayName())
	}
	return resp.Choices[0].Content, nil
}
