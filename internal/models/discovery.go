package models

// DiscoveredSource is a candidate data source suggested by a language model
type DiscoveredSource struct {
	Name             string `json:"name"`
	Type             string `json:"type"`
	URL              string `json:"url"`
	Description      string `json:"description"`
	Priority         string `json:"priority,omitempty"`
	EstimatedContent string `json:"estimated_content,omitempty"`
}

// DiscoveryResult is the outcome of a discovery request
type DiscoveryResult struct {
	Location   string             `json:"location"`
	Sources    []DiscoveredSource `json:"sources"`
	TotalFound int                `json:"total_found"`
	Error      string             `json:"error,omitempty"`
}

// SourceValidation reports whether a candidate URL is reachable
type SourceValidation struct {
	URL         string `json:"url"`
	Type        string `json:"type"`
	Valid       bool   `json:"valid"`
	StatusCode  int    `json:"status_code,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Error       string `json:"error,omitempty"`
}
