package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createListProjectsTool returns the list_projects tool definition
func createListProjectsTool() mcp.Tool {
	return mcp.NewTool("list_projects",
		mcp.WithDescription("List municipality projects with their chat backend and data sources"),
	)
}

// createProjectStatsTool returns the project_stats tool definition
func createProjectStatsTool() mcp.Tool {
	return mcp.NewTool("project_stats",
		mcp.WithDescription("Show a project's data sources and indexed chunk count"),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("Project ID"),
		),
	)
}

// createSearchDocumentsTool returns the search_documents tool definition
func createSearchDocumentsTool() mcp.Tool {
	return mcp.NewTool("search_documents",
		mcp.WithDescription("Semantic search over a project's indexed pages, transcripts and PDFs"),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("Project ID"),
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural language query"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum results to return (default: 5, max: 50)"),
		),
	)
}

// createAskQuestionTool returns the ask_question tool definition
func createAskQuestionTool() mcp.Tool {
	return mcp.NewTool("ask_question",
		mcp.WithDescription("Ask the project's civic assistant a question and get a cited answer"),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("Project ID"),
		),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("Resident question"),
		),
	)
}

// createIngestSourceTool returns the ingest_source tool definition
func createIngestSourceTool() mcp.Tool {
	return mcp.NewTool("ingest_source",
		mcp.WithDescription("Start ingesting one data source; poll get_job for progress"),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("Project ID"),
		),
		mcp.WithString("source_id",
			mcp.Required(),
			mcp.Description("Data source ID"),
		),
	)
}

// createGetJobTool returns the get_job tool definition
func createGetJobTool() mcp.Tool {
	return mcp.NewTool("get_job",
		mcp.WithDescription("Get the status and progress of an ingestion job"),
		mcp.WithString("job_id",
			mcp.Required(),
			mcp.Description("Job ID returned by ingest_source"),
		),
	)
}
