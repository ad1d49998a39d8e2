package chat

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/neighborhood/internal/interfaces"
	"github.com/ternarybob/neighborhood/internal/models"
	"github.com/ternarybob/neighborhood/internal/services/llm"
)

const (
	// DefaultTopK is the number of chunks retrieved per question
	DefaultTopK = 5

	// historyTurns is how many prior turns are sent to the backend
	historyTurns = 5
)

// BackendProvider builds the chat backend for a project
type BackendProvider interface {
	ForProject(ctx context.Context, project *models.ProjectConfig) (llm.Backend, error)
}

// Agent answers resident questions for one project using retrieval-augmented generation
type Agent struct {
	project  *models.ProjectConfig
	index    interfaces.EmbeddingIndex
	backends BackendProvider
	topK     int
	logger   arbor.ILogger
}

var _ interfaces.ChatAgent = (*Agent)(nil)

// NewAgent creates an agent over the project's index. A topK of 0 uses DefaultTopK.
func NewAgent(project *models.ProjectConfig, index interfaces.EmbeddingIndex, backends BackendProvider, topK int, logger arbor.ILogger) *Agent {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Agent{
		project:  project,
		index:    index,
		backends: backends,
		topK:     topK,
		logger:   logger,
	}
}

// Project returns the configuration the agent was built with
func (a *Agent) Project() *models.ProjectConfig {
	return a.project
}

// Chat retrieves context, asks the backend and returns the answer with citations.
// Backend failures are mapped to a user-facing answer with Error set.
func (a *Agent) Chat(ctx context.Context, message string, history []models.ChatTurn) *models.ChatResponse {
	start := time.Now()

	results := a.retrieveContext(ctx, message)

	request := &llm.CompletionRequest{
		SystemPrompt:  BuildSystemPrompt(a.project),
		Messages:      recentHistory(history),
		Prompt:        BuildUserPrompt(a.project.MunicipalityName, buildContextText(results), message),
		Temperature:   a.project.Temperature,
		MaxTokens:     a.project.MaxTokens,
		ContextWindow: a.project.ContextWindow,
	}

	answer, err := a.complete(ctx, request)
	if err != nil {
		be := llm.Classify(a.project.AIProvider, a.modelName(), err)
		a.logger.Warn().
			Str("project_id", a.project.ProjectID).
			Str("code", be.Code).
			Str("detail", be.Detail).
			Msg("Chat backend failed")
		return &models.ChatResponse{
			Answer:      be.UserMessage,
			Sources:     []models.Citation{},
			Error:       be.Code,
			ErrorDetail: be.Detail,
		}
	}

	sources := []models.Citation{}
	if a.project.EnableCitations && len(results) > 0 {
		sources = buildCitations(results)
	}

	a.logger.Info().
		Str("project_id", a.project.ProjectID).
		Int("context_chunks", len(results)).
		Int("history_turns", len(request.Messages)).
		Dur("elapsed", time.Since(start)).
		Msg("Chat request completed")

	return &models.ChatResponse{
		Answer:      answer,
		Sources:     sources,
		ContextUsed: len(results) > 0,
	}
}

func (a *Agent) complete(ctx context.Context, request *llm.CompletionRequest) (string, error) {
	backend, err := a.backends.ForProject(ctx, a.project)
	if err != nil {
		return "", err
	}
	return backend.Complete(ctx, request)
}

// retrieveContext searches the index; a failed search counts as no context
func (a *Agent) retrieveContext(ctx context.Context, message string) []models.SearchResult {
	if a.index == nil {
		return nil
	}
	results, err := a.index.Search(ctx, message, a.topK)
	if err != nil {
		a.logger.Warn().Err(err).Str("project_id", a.project.ProjectID).Msg("Failed to retrieve context")
		return nil
	}
	a.logger.Debug().
		Int("retrieved", len(results)).
		Int("requested", a.topK).
		Msg("Retrieved context chunks")
	return results
}

func (a *Agent) modelName() string {
	if a.project.ModelName != "" {
		return a.project.ModelName
	}
	return models.DefaultModelFor(a.project.AIProvider)
}

// Stats summarizes the project and its index
func (a *Agent) Stats(ctx context.Context) models.ProjectStats {
	stats := models.ProjectStats{
		ProjectName:  a.project.ProjectName,
		Municipality: a.project.MunicipalityName,
		AIProvider:   a.project.AIProvider,
		Model:        a.project.ModelName,
		DataSources:  len(a.project.DataSources),
	}
	for _, source := range a.project.DataSources {
		if source.Enabled {
			stats.ActiveSources++
		}
	}
	if a.index != nil {
		if indexStats, err := a.index.Stats(ctx); err == nil {
			stats.TotalDocuments = indexStats.DocumentCount
		} else {
			a.logger.Warn().Err(err).Str("project_id", a.project.ProjectID).Msg("Failed to read index stats")
		}
	}
	return stats
}

// recentHistory keeps the last historyTurns turns
func recentHistory(history []models.ChatTurn) []llm.Message {
	if len(history) > historyTurns {
		history = history[len(history)-historyTurns:]
	}
	messages := make([]llm.Message, 0, len(history))
	for _, turn := range history {
		messages = append(messages, llm.Message{Role: turn.Role, Content: turn.Content})
	}
	return messages
}
