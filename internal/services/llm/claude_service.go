package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/neighborhood/internal/models"
)

// AnthropicBackend implements Backend using the Anthropic Messages API
type AnthropicBackend struct {
	client anthropic.Client
	model  string
	retry  *RetryConfig
	logger arbor.ILogger
}

var _ Backend = (*AnthropicBackend)(nil)

// convertMessagesToClaude converts conversation turns to Claude MessageParam format
// in chronological order. Unknown roles are sent as user messages.
func convertMessagesToClaude(messages []Message) []anthropic.MessageParam {
	claudeMessages := make([]anthropic.MessageParam, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case RoleAssistant:
			claudeMessages = append(claudeMessages, anthropic.NewAssistantMessage(
				anthropic.NewTextBlock(msg.Content),
			))
		default:
			claudeMessages = append(claudeMessages, anthropic.NewUserMessage(
				anthropic.NewTextBlock(msg.Content),
			))
		}
	}
	return claudeMessages
}

// NewAnthropicBackend creates a Claude backend. An empty baseURL uses the public endpoint.
// The SDK's own retries are disabled in favor of the rate-limit-only RetryConfig.
func NewAnthropicBackend(apiKey, model, baseURL string, client *http.Client, retry *RetryConfig, logger arbor.ILogger) (*AnthropicBackend, error) {
	if apiKey == "" {
		return nil, MissingAPIKeyError(models.AIProviderAnthropic)
	}
	if retry == nil {
		retry = NewDefaultRetryConfig()
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if client != nil {
		opts = append(opts, option.WithHTTPClient(client))
	}

	return &AnthropicBackend{
		client: anthropic.NewClient(opts...),
		model:  model,
		retry:  retry,
		logger: logger,
	}, nil
}

func (b *AnthropicBackend) Provider() models.AIProvider { return models.AIProviderAnthropic }

func (b *AnthropicBackend) Model() string { return b.model }

func (b *AnthropicBackend) Complete(ctx context.Context, request *CompletionRequest) (string, error) {
	maxTokens := request.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2000
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(b.model),
		MaxTokens:   int64(maxTokens),
		Messages:    convertMessagesToClaude(request.conversation()),
		Temperature: anthropic.Float(request.Temperature),
	}
	if request.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: request.SystemPrompt},
		}
	}

	b.logger.Debug().
		Str("model", b.model).
		Int("message_count", len(params.Messages)).
		Msg("Generating Claude completion")

	return b.retry.do(ctx, b.logger, "anthropic", func() (string, error) {
		resp, err := b.client.Messages.New(ctx, params)
		if err != nil {
			return "", err
		}

		var text strings.Builder
		for _, block := range resp.Content {
			if block.Type == "text" {
				text.WriteString(block.Text)
			}
		}
		if text.Len() == 0 {
			return "", fmt.Errorf("empty response from Claude API")
		}
		return text.String(), nil
	})
}
