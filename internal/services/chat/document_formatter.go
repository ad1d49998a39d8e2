package chat

import (
	"fmt"
	"math"
	"strings"

	"github.com/ternarybob/neighborhood/internal/models"
)

// formatSource formats one retrieved chunk for the context block
func formatSource(result models.SearchResult, index int) string {
	return fmt.Sprintf("[Source %d: %s - %s]\nURL: %s\nContent: %s\n",
		index+1,
		result.Payload.Title,
		result.Payload.SourceType,
		result.Payload.URL,
		result.Payload.Text,
	)
}

// buildContextText joins the formatted sources, or returns NoContextText
func buildContextText(results []models.SearchResult) string {
	if len(results) == 0 {
		return NoContextText
	}

	parts := make([]string, len(results))
	for i, result := range results {
		parts[i] = formatSource(result, i)
	}
	return strings.Join(parts, "\n")
}

// buildCitations lists every retrieved chunk in rank order with its score rounded to 3 decimals
func buildCitations(results []models.SearchResult) []models.Citation {
	citations := make([]models.Citation, 0, len(results))
	for _, result := range results {
		citations = append(citations, models.Citation{
			Title:          result.Payload.Title,
			URL:            result.Payload.URL,
			SourceType:     result.Payload.SourceType,
			RelevanceScore: math.Round(result.Score*1000) / 1000,
		})
	}
	return citations
}
