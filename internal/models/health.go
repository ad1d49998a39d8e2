package models

// Provider status values reported by project health
const (
	ProviderStatusReady         = "ready"
	ProviderStatusModelMissing  = "model_missing"
	ProviderStatusNotRunning    = "not_running"
	ProviderStatusMissingAPIKey = "missing_api_key"
)

// ProjectStats is the summary shown on a project dashboard
type ProjectStats struct {
	ProjectName    string     `json:"project_name"`
	Municipality   string     `json:"municipality"`
	AIProvider     AIProvider `json:"ai_provider"`
	Model          string     `json:"model"`
	TotalDocuments int        `json:"total_documents"`
	DataSources    int        `json:"data_sources"`
	ActiveSources  int        `json:"active_sources"`
}

type ProviderHealth struct {
	Status   string     `json:"status"`
	Provider AIProvider `json:"provider"`
	Model    string     `json:"model"`
	Message  string     `json:"message,omitempty"`
}

type IndexHealth struct {
	Status    string `json:"status"` // ready, empty or error
	Documents int    `json:"documents"`
	Error     string `json:"error,omitempty"`
}

type SourceHealth struct {
	Total       int `json:"total"`
	Active      int `json:"active"`
	Synced      int `json:"synced"`
	TotalWords  int `json:"total_words"`
	TotalChunks int `json:"total_chunks"`
}

// ProjectHealth reports whether a project is ready to answer questions
type ProjectHealth struct {
	ProjectID   string         `json:"project_id"`
	ProjectName string         `json:"project_name"`
	Status      string         `json:"status"` // healthy or needs_setup
	Ready       bool           `json:"ready"`
	Issues      []string       `json:"issues"`
	AIProvider  ProviderHealth `json:"ai_provider"`
	Index       IndexHealth    `json:"vector_store"`
	DataSources SourceHealth   `json:"data_sources"`
}

type OllamaModel struct {
	Name       string `json:"name"`
	Size       int64  `json:"size"`
	ModifiedAt string `json:"modified_at"`
}

// SystemHealth is the service-wide health report
type SystemHealth struct {
	Status        string `json:"status"` // healthy or degraded
	Service       string `json:"service"`
	Version       string `json:"version"`
	OllamaStatus  string `json:"ollama_status"`
	OllamaModels  int    `json:"ollama_models"`
	OllamaError   string `json:"ollama_error,omitempty"`
	ProjectsCount int    `json:"projects_count"`
}

// DocumentView is an indexed chunk as shown by the document browser
type DocumentView struct {
	ID         string            `json:"id"`
	Text       string            `json:"text"` // Preview
	FullText   string            `json:"full_text"`
	Source     string            `json:"source"`
	SourceType string            `json:"source_type"`
	URL        string            `json:"url"`
	Title      string            `json:"title"`
	Date       string            `json:"date"`
	WordCount  int               `json:"word_count"`
	Metadata   map[string]string `json:"metadata"`
}

// DocumentPage is one page of the document browser
type DocumentPage struct {
	Documents []DocumentView `json:"documents"`
	Total     int            `json:"total"`
	Limit     int            `json:"limit"`
	Offset    int            `json:"offset"`
}
