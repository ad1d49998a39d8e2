package handlers

import (
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/neighborhood/internal/interfaces"
	"github.com/ternarybob/neighborhood/internal/models"
)

// ChatHandler handles chat-related HTTP requests
type ChatHandler struct {
	projects interfaces.ProjectService
	logger   arbor.ILogger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(projects interfaces.ProjectService, logger arbor.ILogger) *ChatHandler {
	return &ChatHandler{
		projects: projects,
		logger:   logger,
	}
}

type chatRequest struct {
	ProjectID           string            `json:"project_id"`
	Message             string            `json:"message"`
	ConversationHistory []models.ChatTurn `json:"conversation_history"`
}

// ChatHandler handles POST /api/chat. Backend failures come back as a 200 with
// the error fields of the response set.
func (h *ChatHandler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req chatRequest
	if !DecodeJSON(w, r, &req) {
		h.logger.Error().Msg("Failed to decode chat request")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		WriteError(w, http.StatusBadRequest, "Message field is required")
		return
	}
	if req.ProjectID == "" {
		WriteError(w, http.StatusBadRequest, "project_id is required")
		return
	}

	agent, err := h.projects.Agent(r.Context(), req.ProjectID)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	h.logger.Info().
		Str("project_id", req.ProjectID).
		Int("message_length", len(req.Message)).
		Int("history", len(req.ConversationHistory)).
		Msg("Processing chat request")

	response := agent.Chat(r.Context(), req.Message, req.ConversationHistory)
	if response.Error != "" {
		h.logger.Warn().
			Str("project_id", req.ProjectID).
			Str("error", response.Error).
			Msg("Chat backend failed")
	}
	WriteJSON(w, http.StatusOK, response)
}
