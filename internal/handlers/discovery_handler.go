package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/neighborhood/internal/models"
	"github.com/ternarybob/neighborhood/internal/services/discovery"
)

// DiscoveryHandler serves the source discovery and personality routes
type DiscoveryHandler struct {
	projects  ProjectManager
	discovery SourceDiscoverer
	logger    arbor.ILogger
}

// NewDiscoveryHandler creates a new discovery handler
func NewDiscoveryHandler(projects ProjectManager, discoverer SourceDiscoverer, logger arbor.ILogger) *DiscoveryHandler {
	return &DiscoveryHandler{
		projects:  projects,
		discovery: discoverer,
		logger:    logger,
	}
}

type discoveryRequest struct {
	Provider     string `json:"provider"`
	Model        string `json:"model"`
	APIKey       string `json:"api_key"`
	Neighborhood string `json:"neighborhood"`
	CustomPrompt string `json:"custom_prompt"`
}

func (req discoveryRequest) options() discovery.Options {
	return discovery.Options{
		Provider:     models.AIProvider(req.Provider),
		Model:        req.Model,
		APIKey:       req.APIKey,
		Neighborhood: req.Neighborhood,
		CustomPrompt: req.CustomPrompt,
	}
}

// decodeOptional accepts an empty body as the zero request
func decodeOptional(w http.ResponseWriter, r *http.Request, req *discoveryRequest) bool {
	if r.ContentLength == 0 {
		return true
	}
	return DecodeJSON(w, r, req)
}

// DiscoverSourcesHandler handles POST /api/projects/{id}/discover-sources
func (h *DiscoveryHandler) DiscoverSourcesHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	projectID, _ := projectPath(r)
	project, err := h.projects.GetProject(r.Context(), projectID)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	var req discoveryRequest
	if !decodeOptional(w, r, &req) {
		return
	}

	result := h.discovery.DiscoverSources(r.Context(), project, req.options())
	h.logger.Info().
		Str("project_id", projectID).
		Int("found", result.TotalFound).
		Str("error", result.Error).
		Msg("Source discovery finished")
	WriteJSON(w, http.StatusOK, result)
}

// GeneratePersonalityHandler handles POST /api/projects/{id}/generate-personality
func (h *DiscoveryHandler) GeneratePersonalityHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	projectID, _ := projectPath(r)
	project, err := h.projects.GetProject(r.Context(), projectID)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	var req discoveryRequest
	if !decodeOptional(w, r, &req) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"personality": h.discovery.SuggestPersonality(r.Context(), project, req.options()),
	})
}

type validateSourceRequest struct {
	URL  string `json:"url"`
	Type string `json:"type"`
}

// ValidateSourceHandler handles POST /api/sources/validate
func (h *DiscoveryHandler) ValidateSourceHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var req validateSourceRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	WriteJSON(w, http.StatusOK, h.discovery.ValidateSource(r.Context(), req.URL, req.Type))
}
