package main

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/neighborhood/internal/models"
)

func TestFormatSearchResults_Empty(t *testing.T) {
	out := formatSearchResults("parking", nil)
	assert.Contains(t, out, `"parking" (0 results)`)
	assert.Contains(t, out, "No results found.")
}

func TestFormatSearchResults_TruncatesAndFallsBackToSource(t *testing.T) {
	out := formatSearchResults("budget", []models.SearchResult{{
		Score: 0.8123,
		Payload: models.Chunk{
			Text:       strings.Repeat("a", previewChars+50),
			Source:     "Council Meetings",
			SourceType: "youtube",
			URL:        "https://youtube.com/watch?v=abc&t=60s",
		},
	}})

	assert.Contains(t, out, "### 1. Council Meetings")
	assert.Contains(t, out, "**Score:** 0.812")
	assert.Contains(t, out, strings.Repeat("a", previewChars)+"...")
	assert.NotContains(t, out, strings.Repeat("a", previewChars+1))
}

func TestFormatChatResponse_Citations(t *testing.T) {
	out := formatChatResponse(&models.ChatResponse{
		Answer: "Trash pickup is on Tuesdays.",
		Sources: []models.Citation{
			{Title: "Public Works", URL: "https://town.gov/works", SourceType: "website", RelevanceScore: 0.91},
			{Title: "Budget.pdf", SourceType: "pdf"},
		},
		ContextUsed: true,
	})

	assert.Contains(t, out, "Trash pickup is on Tuesdays.")
	assert.Contains(t, out, "1. [Public Works](https://town.gov/works) (website, 0.91)")
	assert.Contains(t, out, "2. Budget.pdf (pdf, 0.00)")
	assert.NotContains(t, out, "**Error:**")
}

func TestFormatJob(t *testing.T) {
	done := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	out := formatJob(&models.IngestionJob{
		ID:             "job_1",
		ProjectID:      "proj_1",
		SourceID:       "src_1",
		SourceName:     "City site",
		Status:         models.JobStatusFailed,
		Progress:       50,
		ProcessedItems: 3,
		TotalItems:     6,
		Error:          "source unavailable",
		CreatedAt:      done.Add(-time.Minute),
		CompletedAt:    &done,
	})

	assert.Contains(t, out, "# Job job_1")
	assert.Contains(t, out, "**Source:** src_1 (City site)")
	assert.Contains(t, out, "**Progress:** 50% (3/6 items)")
	assert.Contains(t, out, "**Completed:** 2026-03-01T12:00:00Z")
	assert.Contains(t, out, "**Error:** source unavailable")
}

func TestFormatProjects(t *testing.T) {
	out := formatProjects([]*models.ProjectConfig{{
		ProjectID:        "proj_1",
		ProjectName:      "Springfield Assistant",
		MunicipalityName: "Springfield",
		AIProvider:       models.AIProviderOllama,
		ModelName:        "llama3.2",
		DataSources: []models.DataSource{
			{ID: "a", Enabled: true},
			{ID: "b"},
		},
	}})

	assert.Contains(t, out, "## Projects (1)")
	assert.Contains(t, out, "**Backend:** ollama (llama3.2)")
	assert.Contains(t, out, "**Sources:** 2 (1 enabled)")
}
