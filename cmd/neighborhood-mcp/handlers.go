package main

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/neighborhood/internal/interfaces"
)

// indexProvider resolves a project's embedding index
type indexProvider interface {
	Get(ctx context.Context, projectID string) (interfaces.EmbeddingIndex, error)
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func requiredArg(request mcp.CallToolRequest, name string) (string, *mcp.CallToolResult) {
	value, err := request.RequireString(name)
	if err != nil || value == "" {
		return "", textResult(fmt.Sprintf("Error: %s parameter is required", name))
	}
	return value, nil
}

// handleListProjects implements the list_projects tool
func handleListProjects(projects interfaces.ProjectService, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		list, err := projects.ListProjects(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("ListProjects failed")
			return textResult(fmt.Sprintf("Error listing projects: %v", err)), nil
		}
		return textResult(formatProjects(list)), nil
	}
}

// handleProjectStats implements the project_stats tool
func handleProjectStats(projects interfaces.ProjectService, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		projectID, errResult := requiredArg(request, "project_id")
		if errResult != nil {
			return errResult, nil
		}

		project, err := projects.GetProject(ctx, projectID)
		if err != nil {
			return textResult(fmt.Sprintf("Project not found: %v", err)), nil
		}
		stats, err := projects.Stats(ctx, projectID)
		if err != nil {
			logger.Error().Err(err).Str("project_id", projectID).Msg("Stats failed")
			return textResult(fmt.Sprintf("Error reading stats: %v", err)), nil
		}
		return textResult(formatProjectStats(project, stats)), nil
	}
}

// handleSearchDocuments implements the search_documents tool
func handleSearchDocuments(projects interfaces.ProjectService, indexes indexProvider, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		projectID, errResult := requiredArg(request, "project_id")
		if errResult != nil {
			return errResult, nil
		}
		query, errResult := requiredArg(request, "query")
		if errResult != nil {
			return errResult, nil
		}

		// Parse limit (default: 5, max: 50)
		limit := request.GetInt("limit", 5)
		if limit < 1 {
			limit = 5
		}
		if limit > 50 {
			limit = 50
		}

		if _, err := projects.GetProject(ctx, projectID); err != nil {
			return textResult(fmt.Sprintf("Project not found: %v", err)), nil
		}

		idx, err := indexes.Get(ctx, projectID)
		if err != nil {
			logger.Error().Err(err).Str("project_id", projectID).Msg("Index open failed")
			return textResult(fmt.Sprintf("Search error: %v", err)), nil
		}

		results, err := idx.Search(ctx, query, limit)
		if err != nil {
			logger.Error().Err(err).Str("project_id", projectID).Msg("Search failed")
			return textResult(fmt.Sprintf("Search error: %v", err)), nil
		}

		return textResult(formatSearchResults(query, results)), nil
	}
}

// handleAskQuestion implements the ask_question tool
func handleAskQuestion(projects interfaces.ProjectService, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		projectID, errResult := requiredArg(request, "project_id")
		if errResult != nil {
			return errResult, nil
		}
		question, errResult := requiredArg(request, "question")
		if errResult != nil {
			return errResult, nil
		}

		agent, err := projects.Agent(ctx, projectID)
		if err != nil {
			return textResult(fmt.Sprintf("Project not found: %v", err)), nil
		}

		response := agent.Chat(ctx, question, nil)
		if response.Error != "" {
			logger.Warn().
				Str("project_id", projectID).
				Str("error", response.Error).
				Msg("Chat backend reported an error")
		}
		return textResult(formatChatResponse(response)), nil
	}
}

// handleIngestSource implements the ingest_source tool
func handleIngestSource(ingestion interfaces.IngestionService, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		projectID, errResult := requiredArg(request, "project_id")
		if errResult != nil {
			return errResult, nil
		}
		sourceID, errResult := requiredArg(request, "source_id")
		if errResult != nil {
			return errResult, nil
		}

		job, err := ingestion.Submit(ctx, projectID, sourceID)
		if err != nil {
			logger.Error().Err(err).
				Str("project_id", projectID).
				Str("source_id", sourceID).
				Msg("Submit failed")
			return textResult(fmt.Sprintf("Ingestion not started: %v", err)), nil
		}
		return textResult(formatJob(job)), nil
	}
}

// handleGetJob implements the get_job tool
func handleGetJob(ingestion interfaces.IngestionService, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jobID, errResult := requiredArg(request, "job_id")
		if errResult != nil {
			return errResult, nil
		}

		job, err := ingestion.GetJob(ctx, jobID)
		if err != nil {
			return textResult(fmt.Sprintf("Job not found: %v", err)), nil
		}
		return textResult(formatJob(job)), nil
	}
}
