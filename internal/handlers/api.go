package handlers

import (
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/neighborhood/internal/common"
	"github.com/ternarybob/neighborhood/internal/models"
	"github.com/ternarybob/neighborhood/internal/services/projects"
)

type APIHandler struct {
	projects ProjectManager
	logger   arbor.ILogger
}

func NewAPIHandler(projects ProjectManager, logger arbor.ILogger) *APIHandler {
	return &APIHandler{
		projects: projects,
		logger:   logger,
	}
}

// RootHandler answers GET / with the service name and version
func (h *APIHandler) RootHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		h.NotFoundHandler(w, r)
		return
	}
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": projects.ServiceName,
		"version": common.GetVersion(),
	})
}

// VersionHandler returns version information
func (h *APIHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, common.GetVersionInfo())
}

// HealthHandler returns the service-wide health report
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	health, err := h.projects.SystemHealth(r.Context())
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, health)
}

// OllamaModelsHandler handles GET /api/ollama/models. An unreachable Ollama is
// reported in the body, not as an error status.
func (h *APIHandler) OllamaModelsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	installed, err := h.projects.OllamaModels(r.Context())
	if err != nil {
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"models": []models.OllamaModel{},
			"error":  "Ollama is not running",
		})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"models": installed,
	})
}

// ProviderModelsHandler handles GET /api/models/{provider}
func (h *APIHandler) ProviderModelsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	provider := models.AIProvider(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/models/"), "/"))
	options, ok := models.AvailableModels[provider]
	if !ok {
		WriteError(w, http.StatusNotFound, "Unknown provider: "+string(provider))
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"provider": provider,
		"models":   options,
	})
}

// NotFoundHandler handles 404 errors with JSON response
func (h *APIHandler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusNotFound, map[string]interface{}{
		"error":   "Not Found",
		"path":    r.URL.Path,
		"message": "The requested endpoint does not exist",
	})
}
