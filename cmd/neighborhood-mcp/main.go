package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	arbor_models "github.com/ternarybob/arbor/models"
	"github.com/ternarybob/neighborhood/internal/app"
	"github.com/ternarybob/neighborhood/internal/common"
)

func main() {
	configPath := os.Getenv("NEIGHBORHOOD_CONFIG")
	if configPath == "" {
		configPath = "neighborhood.toml"
	}

	config, err := common.LoadFromFiles(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	// Cron re-syncs belong to the HTTP service
	config.Scheduler.Enabled = false

	// Minimal logging to avoid cluttering MCP stdio
	logger := arbor.NewLogger().WithConsoleWriter(arbor_models.WriterConfiguration{
		Type:             arbor_models.LogWriterTypeConsole,
		TimeFormat:       "15:04:05",
		DisableTimestamp: false,
	}).WithLevelFromString("warn")

	application, err := app.New(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer application.Close()

	mcpServer := server.NewMCPServer(
		"neighborhood",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	projects := application.ProjectService

	// Project tools
	mcpServer.AddTool(createListProjectsTool(), handleListProjects(projects, logger))
	mcpServer.AddTool(createProjectStatsTool(), handleProjectStats(projects, logger))

	// Retrieval tools
	mcpServer.AddTool(createSearchDocumentsTool(), handleSearchDocuments(projects, application.Indexes, logger))
	mcpServer.AddTool(createAskQuestionTool(), handleAskQuestion(projects, logger))

	// Ingestion tools
	mcpServer.AddTool(createIngestSourceTool(), handleIngestSource(application.Ingestion, logger))
	mcpServer.AddTool(createGetJobTool(), handleGetJob(application.Ingestion, logger))

	// Blocks on stdio
	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Fatal().Err(err).Msg("MCP server failed")
	}
}
