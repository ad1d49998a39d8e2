package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidProject wraps every project validation failure
var ErrInvalidProject = errors.New("invalid project config")

// AIProvider identifies the chat backend a project uses
type AIProvider string

const (
	AIProviderOllama    AIProvider = "ollama"
	AIProviderOpenAI    AIProvider = "openai"
	AIProviderAnthropic AIProvider = "anthropic"
	AIProviderGemini    AIProvider = "gemini"
)

// DefaultOllamaModel is the model every new project starts with
const DefaultOllamaModel = "llama3.1:8b"

// DefaultModelFor returns the default model name for a provider
func DefaultModelFor(provider AIProvider) string {
	switch provider {
	case AIProviderOpenAI:
		return "gpt-4o"
	case AIProviderAnthropic:
		return "claude-opus-4-20250514"
	case AIProviderGemini:
		return "gemini-2.5-flash"
	default:
		return DefaultOllamaModel
	}
}

// DisplayName returns the provider name used in user-facing messages
func (p AIProvider) DisplayName() string {
	switch p {
	case AIProviderOpenAI:
		return "OpenAI"
	case AIProviderAnthropic:
		return "Anthropic"
	case AIProviderGemini:
		return "Gemini"
	default:
		return "Ollama"
	}
}

// DataSourceType is the kind of a data source; it selects the collector
type DataSourceType string

const (
	DataSourceYouTubePlaylist DataSourceType = "youtube_playlist"
	DataSourceYouTubeVideo    DataSourceType = "youtube_video"
	DataSourceWebsite         DataSourceType = "website"
	DataSourceWebsiteRendered DataSourceType = "website_rendered"
	DataSourcePDFURL          DataSourceType = "pdf_url"
	DataSourcePDFUpload       DataSourceType = "pdf_upload"
	DataSourceRSSFeed         DataSourceType = "rss_feed"
	DataSourceReddit          DataSourceType = "reddit"
)

// DataSource is one configured origin of civic content within a project
type DataSource struct {
	ID            string                 `json:"id" validate:"required"`
	Type          DataSourceType         `json:"type" validate:"required,oneof=youtube_playlist youtube_video website website_rendered pdf_url pdf_upload rss_feed reddit"`
	URL           string                 `json:"url"`
	Name          string                 `json:"name" validate:"required"`
	Description   string                 `json:"description,omitempty"`
	Enabled       bool                   `json:"enabled"`
	LastSynced    *time.Time             `json:"last_synced,omitempty"`
	Metadata      map[string]interface{} `json:"metadata"`
	WordCount     int                    `json:"word_count"`
	DocumentCount int                    `json:"document_count"`
}

// MetadataString returns a metadata value as a string, or "" when absent
func (s *DataSource) MetadataString(key string) string {
	if s.Metadata == nil {
		return ""
	}
	if v, ok := s.Metadata[key]; ok {
		return fmt.Sprintf("%v", v)
	}
	return ""
}

// SetMetadata sets a metadata value, allocating the map on first use
func (s *DataSource) SetMetadata(key string, value interface{}) {
	if s.Metadata == nil {
		s.Metadata = make(map[string]interface{})
	}
	s.Metadata[key] = value
}

// ProjectConfig is the persisted configuration of one municipality deployment
type ProjectConfig struct {
	ProjectID        string `json:"project_id" validate:"required"`
	MunicipalityName string `json:"municipality_name" validate:"required"`
	ProjectName      string `json:"project_name" validate:"required"`
	Tagline          string `json:"tagline"`

	// Chat backend
	AIProvider    AIProvider `json:"ai_provider" validate:"required,oneof=ollama openai anthropic gemini"`
	ModelName     string     `json:"model_name" validate:"required"`
	APIKey        string     `json:"api_key,omitempty"`
	Temperature   float64    `json:"temperature" validate:"gte=0,lte=2"`
	MaxTokens     int        `json:"max_tokens" validate:"gte=100,lte=8000"`
	ContextWindow int        `json:"context_window" validate:"gte=2048,lte=32768"`

	// Persona
	SystemPrompt          string   `json:"system_prompt"`
	PersonalityTraits     []string `json:"personality_traits"`
	Tone                  string   `json:"tone"`
	CommunityConstitution []string `json:"community_constitution"`

	DataSources     []DataSource `json:"data_sources" validate:"dive"`
	EnableCitations bool         `json:"enable_citations"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewProjectConfig returns a project with every default applied
func NewProjectConfig(projectID, municipality, projectName string) *ProjectConfig {
	if projectName == "" {
		projectName = municipality + " AI"
	}
	now := time.Now()
	return &ProjectConfig{
		ProjectID:         projectID,
		MunicipalityName:  municipality,
		ProjectName:       projectName,
		Tagline:           "Your local AI assistant",
		AIProvider:        AIProviderOllama,
		ModelName:         DefaultOllamaModel,
		Temperature:       0.7,
		MaxTokens:         2000,
		ContextWindow:     8192,
		PersonalityTraits: []string{"helpful", "knowledgeable", "friendly", "civic-minded"},
		Tone:              "professional but friendly",
		DataSources:       []DataSource{},
		EnableCitations:   true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// ApplyDefaults fills zero-valued fields. A project switched to a hosted
// provider while still carrying the Ollama default model gets that
// provider's default model instead.
func (p *ProjectConfig) ApplyDefaults() {
	if p.AIProvider == "" {
		p.AIProvider = AIProviderOllama
	}
	if p.ModelName == "" || (p.ModelName == DefaultOllamaModel && p.AIProvider != AIProviderOllama) {
		p.ModelName = DefaultModelFor(p.AIProvider)
	}
	if p.MaxTokens == 0 {
		p.MaxTokens = 2000
	}
	if p.ContextWindow == 0 {
		p.ContextWindow = 8192
	}
	if p.Tone == "" {
		p.Tone = "professional but friendly"
	}
	if p.PersonalityTraits == nil {
		p.PersonalityTraits = []string{"helpful", "knowledgeable", "friendly", "civic-minded"}
	}
	if p.DataSources == nil {
		p.DataSources = []DataSource{}
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
}

// Validate checks the struct tags of the project and its sources
func (p *ProjectConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProject, err)
	}

	seen := make(map[string]bool, len(p.DataSources))
	for _, s := range p.DataSources {
		if seen[s.ID] {
			return fmt.Errorf("%w: duplicate source id %s", ErrInvalidProject, s.ID)
		}
		seen[s.ID] = true
	}
	return nil
}

// FindSource returns a pointer into DataSources for the given id, or nil
func (p *ProjectConfig) FindSource(sourceID string) *DataSource {
	for i := range p.DataSources {
		if p.DataSources[i].ID == sourceID {
			return &p.DataSources[i]
		}
	}
	return nil
}

// EnabledSources returns the sources with Enabled set
func (p *ProjectConfig) EnabledSources() []DataSource {
	var enabled []DataSource
	for _, s := range p.DataSources {
		if s.Enabled {
			enabled = append(enabled, s)
		}
	}
	return enabled
}

// ProjectIDFromMunicipality derives the base project id: lowercase,
// spaces become dashes and commas are dropped ("Brookline, MA" -> "brookline-ma").
func ProjectIDFromMunicipality(municipality string) string {
	id := strings.ToLower(strings.TrimSpace(municipality))
	id = strings.ReplaceAll(id, ",", "")
	return strings.ReplaceAll(id, " ", "-")
}
