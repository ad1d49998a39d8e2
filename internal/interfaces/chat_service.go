package interfaces

import (
	"context"

	"github.com/ternarybob/neighborhood/internal/models"
)

// ChatAgent answers a question for one project using retrieved context.
// Backend failures are reported inside the response, never as an error.
type ChatAgent interface {
	Chat(ctx context.Context, message string, history []models.ChatTurn) *models.ChatResponse
}
