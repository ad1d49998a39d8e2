package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/ternarybob/neighborhood/internal/models"
)

// ErrorKind classifies a chat backend failure
type ErrorKind string

const (
	KindBackendUnreachable ErrorKind = "backend_unreachable"
	KindAuth               ErrorKind = "backend_auth"
	KindRateLimited        ErrorKind = "backend_rate_limited"
	KindModelMissing       ErrorKind = "backend_model_missing"
	KindUnclassified       ErrorKind = "unclassified"
)

// Error codes reported to clients in ChatResponse.Error
const (
	CodeOllamaNotRunning = "ollama_not_running"
	CodeModelNotFound    = "model_not_found"
	CodeMissingAPIKey    = "missing_api_key"
	CodeAuth             = "auth_error"
	CodeRateLimited      = "rate_limited"
	CodeModelUnavailable = "model_unavailable"
	CodeBackendError     = "backend_error"
)

// BackendError is a classified backend failure carrying the message shown to residents
type BackendError struct {
	Kind        ErrorKind
	Code        string
	UserMessage string
	Detail      string
}

func (e *BackendError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Detail)
	}
	return e.Code
}

// MissingAPIKeyError is returned before dispatch when a hosted provider has no key
func MissingAPIKeyError(provider models.AIProvider) *BackendError {
	return &BackendError{
		Kind:        KindAuth,
		Code:        CodeMissingAPIKey,
		UserMessage: fmt.Sprintf("%s API key is not configured. Please add your API key in Settings.", provider.DisplayName()),
	}
}

// Classify maps a backend error into a BackendError. An error that is already
// a BackendError is returned unchanged.
func Classify(provider models.AIProvider, model string, err error) *BackendError {
	if err == nil {
		return nil
	}
	var be *BackendError
	if errors.As(err, &be) {
		return be
	}

	detail := err.Error()
	msg := strings.ToLower(detail)
	status := statusCode(err)

	if provider == models.AIProviderOllama {
		switch {
		case strings.Contains(msg, "connection") || strings.Contains(msg, "refused"):
			return &BackendError{
				Kind:        KindBackendUnreachable,
				Code:        CodeOllamaNotRunning,
				UserMessage: "Ollama is not running. Please start Ollama with `ollama serve` in your terminal, then try again.",
				Detail:      detail,
			}
		case strings.Contains(msg, "not found") || strings.Contains(msg, "pull"):
			return &BackendError{
				Kind:        KindModelMissing,
				Code:        CodeModelNotFound,
				UserMessage: fmt.Sprintf("The model '%s' is not installed. Run `ollama pull %s` to install it.", model, model),
				Detail:      detail,
			}
		}
		return unclassified(detail)
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden ||
		strings.Contains(msg, "api_key") || strings.Contains(msg, "api key") ||
		strings.Contains(msg, "authentication") || strings.Contains(msg, "401"):
		return &BackendError{
			Kind:        KindAuth,
			Code:        CodeAuth,
			UserMessage: "API key is invalid or missing. Please check your API key in Settings.",
			Detail:      detail,
		}
	case status == http.StatusTooManyRequests || IsRateLimitError(err) ||
		(strings.Contains(msg, "rate") && strings.Contains(msg, "limit")):
		return &BackendError{
			Kind:        KindRateLimited,
			Code:        CodeRateLimited,
			UserMessage: "Rate limit exceeded. Please wait a moment and try again.",
			Detail:      detail,
		}
	case status == http.StatusNotFound ||
		(strings.Contains(msg, "model") && (strings.Contains(msg, "not found") || strings.Contains(msg, "not_found"))):
		return &BackendError{
			Kind:        KindModelMissing,
			Code:        CodeModelUnavailable,
			UserMessage: fmt.Sprintf("Model '%s' is not available. Please select a different model in Settings.", model),
			Detail:      detail,
		}
	}
	return unclassified(detail)
}

func unclassified(detail string) *BackendError {
	return &BackendError{
		Kind:        KindUnclassified,
		Code:        CodeBackendError,
		UserMessage: "I apologize, but I encountered an error: " + detail,
		Detail:      detail,
	}
}

// statusCode extracts the HTTP status from an Anthropic API error, or 0
func statusCode(err error) int {
	var anthropicErr *anthropic.Error
	if errors.As(err, &anthropicErr) {
		return anthropicErr.StatusCode
	}
	return 0
}
