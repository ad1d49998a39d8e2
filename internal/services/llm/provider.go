package llm

import (
	"context"

	"github.com/ternarybob/neighborhood/internal/models"
)

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one prior turn of a conversation
type Message struct {
	Role    string
	Content string
}

// CompletionRequest is a provider-agnostic chat completion request.
// Prompt is the current user message; Messages holds earlier turns in order.
type CompletionRequest struct {
	SystemPrompt  string
	Messages      []Message
	Prompt        string
	Temperature   float64
	MaxTokens     int
	ContextWindow int
}

// Backend generates a chat completion with one provider and model
type Backend interface {
	Complete(ctx context.Context, request *CompletionRequest) (string, error)
	Provider() models.AIProvider
	Model() string
}

// conversation returns the earlier turns followed by the current prompt
func (r *CompletionRequest) conversation() []Message {
	msgs := make([]Message, 0, len(r.Messages)+1)
	for _, m := range r.Messages {
		if m.Content == "" {
			continue
		}
		msgs = append(msgs, m)
	}
	return append(msgs, Message{Role: RoleUser, Content: r.Prompt})
}
