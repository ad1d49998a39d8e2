package models

import "time"

// ChatTurn is one message of a conversation
type ChatTurn struct {
	Role      string     `json:"role"` // "user" or "assistant"
	Content   string     `json:"content"`
	Sources   []Citation `json:"sources,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// Citation points at a chunk used to answer a question
type Citation struct {
	Title          string  `json:"title"`
	URL            string  `json:"url"`
	SourceType     string  `json:"source_type"`
	RelevanceScore float64 `json:"relevance_score"`
}

// ChatResponse is the outcome of one chat exchange. Backend failures are
// reported through Error/ErrorDetail with a user-facing Answer.
type ChatResponse struct {
	Answer      string     `json:"answer"`
	Sources     []Citation `json:"sources"`
	ContextUsed bool       `json:"context_used"`
	Error       string     `json:"error,omitempty"`
	ErrorDetail string     `json:"error_detail,omitempty"`
}
