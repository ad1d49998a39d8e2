package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/neighborhood/internal/models"
)

const previewChars = 400

// formatProjects formats the project list as markdown
func formatProjects(projects []*models.ProjectConfig) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Projects (%d)\n\n", len(projects)))

	if len(projects) == 0 {
		sb.WriteString("No projects configured.\n")
		return sb.String()
	}

	for _, p := range projects {
		sb.WriteString(fmt.Sprintf("### %s\n", p.ProjectName))
		sb.WriteString(fmt.Sprintf("**ID:** %s\n", p.ProjectID))
		sb.WriteString(fmt.Sprintf("**Municipality:** %s\n", p.MunicipalityName))
		sb.WriteString(fmt.Sprintf("**Backend:** %s (%s)\n", p.AIProvider, p.ModelName))
		sb.WriteString(fmt.Sprintf("**Sources:** %d (%d enabled)\n\n", len(p.DataSources), len(p.EnabledSources())))
	}

	return sb.String()
}

// formatProjectStats formats a project's sources and counts as markdown
func formatProjectStats(project *models.ProjectConfig, stats *models.ProjectStats) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s\n\n", project.ProjectName))
	sb.WriteString(fmt.Sprintf("**Municipality:** %s\n", stats.Municipality))
	sb.WriteString(fmt.Sprintf("**Backend:** %s (%s)\n", stats.AIProvider, stats.Model))
	sb.WriteString(fmt.Sprintf("**Indexed chunks:** %d\n", stats.TotalDocuments))
	sb.WriteString(fmt.Sprintf("**Sources:** %d (%d active)\n\n", stats.DataSources, stats.ActiveSources))

	if len(project.DataSources) == 0 {
		return sb.String()
	}

	sb.WriteString("| ID | Type | Name | Enabled | Chunks | Last synced |\n")
	sb.WriteString("|----|------|------|---------|--------|-------------|\n")
	for _, s := range project.DataSources {
		synced := "never"
		if s.LastSynced != nil {
			synced = s.LastSynced.Format(time.RFC3339)
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %t | %d | %s |\n",
			s.ID, s.Type, s.Name, s.Enabled, s.DocumentCount, synced))
	}

	return sb.String()
}

// formatSearchResults formats index hits as markdown
func formatSearchResults(query string, results []models.SearchResult) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Search Results for \"%s\" (%d results)\n\n", query, len(results)))

	if len(results) == 0 {
		sb.WriteString("No results found.\n")
		return sb.String()
	}

	for i, r := range results {
		chunk := r.Payload
		title := chunk.Title
		if title == "" {
			title = chunk.Source
		}
		sb.WriteString(fmt.Sprintf("### %d. %s\n", i+1, title))
		sb.WriteString(fmt.Sprintf("**Source:** %s (%s)\n", chunk.Source, chunk.SourceType))
		if chunk.URL != "" {
			sb.WriteString(fmt.Sprintf("**URL:** %s\n", chunk.URL))
		}
		if chunk.Date != "" {
			sb.WriteString(fmt.Sprintf("**Date:** %s\n", chunk.Date))
		}
		sb.WriteString(fmt.Sprintf("**Score:** %.3f\n\n", r.Score))

		text := chunk.Text
		if len(text) > previewChars {
			text = text[:previewChars] + "..."
		}
		sb.WriteString(text)
		sb.WriteString("\n\n---\n\n")
	}

	return sb.String()
}

// formatChatResponse formats an answer and its citations as markdown
func formatChatResponse(response *models.ChatResponse) string {
	var sb strings.Builder
	sb.WriteString(response.Answer)
	sb.WriteString("\n")

	if response.Error != "" {
		sb.WriteString(fmt.Sprintf("\n**Error:** %s\n", response.Error))
	}

	if len(response.Sources) > 0 {
		sb.WriteString("\n## Sources\n\n")
		for i, s := range response.Sources {
			if s.URL != "" {
				sb.WriteString(fmt.Sprintf("%d. [%s](%s) (%s, %.2f)\n", i+1, s.Title, s.URL, s.SourceType, s.RelevanceScore))
			} else {
				sb.WriteString(fmt.Sprintf("%d. %s (%s, %.2f)\n", i+1, s.Title, s.SourceType, s.RelevanceScore))
			}
		}
	}

	return sb.String()
}

// formatJob formats an ingestion job as markdown
func formatJob(job *models.IngestionJob) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Job %s\n\n", job.ID))
	sb.WriteString(fmt.Sprintf("**Project:** %s\n", job.ProjectID))
	sb.WriteString(fmt.Sprintf("**Source:** %s", job.SourceID))
	if job.SourceName != "" {
		sb.WriteString(fmt.Sprintf(" (%s)", job.SourceName))
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("**Status:** %s\n", job.Status))
	sb.WriteString(fmt.Sprintf("**Progress:** %.0f%% (%d/%d items)\n", job.Progress, job.ProcessedItems, job.TotalItems))
	sb.WriteString(fmt.Sprintf("**Created:** %s\n", job.CreatedAt.Format(time.RFC3339)))
	if job.CompletedAt != nil {
		sb.WriteString(fmt.Sprintf("**Completed:** %s\n", job.CompletedAt.Format(time.RFC3339)))
	}
	if job.Note != "" {
		sb.WriteString(fmt.Sprintf("**Note:** %s\n", job.Note))
	}
	if job.Error != "" {
		sb.WriteString(fmt.Sprintf("**Error:** %s\n", job.Error))
	}
	return sb.String()
}
