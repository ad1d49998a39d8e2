package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/neighborhood/internal/models"
	"google.golang.org/genai"
)

// GeminiBackend implements Backend using the Google Gemini API
type GeminiBackend struct {
	client *genai.Client
	model  string
	retry  *RetryConfig
	logger arbor.ILogger
}

var _ Backend = (*GeminiBackend)(nil)

// convertMessagesToGemini converts conversation turns to Gemini contents.
// Assistant turns use the model role.
func convertMessagesToGemini(messages []Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		role := genai.Role(genai.RoleUser)
		if msg.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, role))
	}
	return contents
}

// NewGeminiBackend creates a Gemini backend. An empty baseURL uses the public endpoint.
func NewGeminiBackend(ctx context.Context, apiKey, model, baseURL string, client *http.Client, retry *RetryConfig, logger arbor.ILogger) (*GeminiBackend, error) {
	if apiKey == "" {
		return nil, MissingAPIKeyError(models.AIProviderGemini)
	}
	if retry == nil {
		retry = NewDefaultRetryConfig()
	}

	config := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: client,
	}
	if baseURL != "" {
		config.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	genaiClient, err := genai.NewClient(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiBackend{
		client: genaiClient,
		model:  model,
		retry:  retry,
		logger: logger,
	}, nil
}

func (b *GeminiBackend) Provider() models.AIProvider { return models.AIProviderGemini }

func (b *GeminiBackend) Model() string { return b.model }

func (b *GeminiBackend) Complete(ctx context.Context, request *CompletionRequest) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(request.Temperature)),
	}
	if request.MaxTokens > 0 {
		config.MaxOutputTokens = int32(request.MaxTokens)
	}
	if request.SystemPrompt != "" {
		config.SystemInstruction = genai.NewContentFromText(request.SystemPrompt, genai.RoleUser)
	}

	contents := convertMessagesToGemini(request.conversation())

	b.logger.Debug().
		Str("model", b.model).
		Int("message_count", len(contents)).
		Msg("Generating Gemini completion")

	return b.retry.do(ctx, b.logger, "gemini", func() (string, error) {
		resp, err := b.client.Models.GenerateContent(ctx, b.model, contents, config)
		if err != nil {
			return "", err
		}
		if resp == nil || len(resp.Candidates) == 0 {
			return "", fmt.Errorf("empty response from Gemini API")
		}

		text := resp.Text()
		if text == "" {
			return "", fmt.Errorf("empty text in Gemini response")
		}
		return text, nil
	})
}
