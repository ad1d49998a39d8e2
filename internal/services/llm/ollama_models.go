package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/neighborhood/internal/models"
)

const ollamaTagsTimeout = 5 * time.Second

type ollamaTagsResponse struct {
	Models []models.OllamaModel `json:"models"`
}

// ListOllamaModels returns the models installed on the Ollama server at baseURL
func ListOllamaModels(ctx context.Context, client *http.Client, baseURL string) ([]models.OllamaModel, error) {
	if client == nil {
		client = &http.Client{Timeout: ollamaTagsTimeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(baseURL, "/")+"/api/tags", nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach Ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama returned HTTP %d", resp.StatusCode)
	}

	var tags ollamaTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("failed to decode Ollama model list: %w", err)
	}
	if tags.Models == nil {
		tags.Models = []models.OllamaModel{}
	}
	return tags.Models, nil
}

// HasOllamaModel reports whether an installed model name contains name
func HasOllamaModel(installed []models.OllamaModel, name string) bool {
	for _, m := range installed {
		if strings.Contains(m.Name, name) {
			return true
		}
	}
	return false
}
