package discovery

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/neighborhood/internal/models"
	"github.com/ternarybob/neighborhood/internal/services/llm"
)

type scriptedBackend struct {
	reply   string
	err     error
	request *llm.CompletionRequest
}

func (b *scriptedBackend) Complete(ctx context.Context, request *llm.CompletionRequest) (string, error) {
	b.request = request
	return b.reply, b.err
}

func (b *scriptedBackend) Provider() models.AIProvider { return models.AIProviderAnthropic }

func (b *scriptedBackend) Model() string { return "test" }

type scriptedProvider struct {
	backend *scriptedBackend
	err     error
	project *models.ProjectConfig
}

func (p *scriptedProvider) ForProject(ctx context.Context, project *models.ProjectConfig) (llm.Backend, error) {
	p.project = project
	if p.err != nil {
		return nil, p.err
	}
	return p.backend, nil
}

func testProject() *models.ProjectConfig {
	p := models.NewProjectConfig("brookline-ma", "Brookline, MA", "")
	p.DataSources = []models.DataSource{
		{ID: "a", Type: models.DataSourceWebsite, Name: "Town Site", Description: "Official site"},
	}
	return p
}

func TestParseSources(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"bare array", `[{"name":"Town","type":"website","url":"https://town.gov"}]`, 1},
		{"fenced", "```json\n[{\"name\":\"A\",\"type\":\"website\",\"url\":\"https://a.gov\"},{\"name\":\"B\",\"type\":\"reddit\",\"url\":\"https://reddit.com/r/b\"}]\n```", 2},
		{"prose around", "Here you go:\n[{\"name\":\"A\",\"type\":\"pdf_url\",\"url\":\"https://a.gov/x.pdf\"}]\nGood luck!", 1},
		{"drops empty urls", `[{"name":"A","type":"website","url":""},{"name":"B","type":"website","url":"https://b.gov"}]`, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sources, err := ParseSources(tt.input)
			require.NoError(t, err)
			assert.Len(t, sources, tt.want)
		})
	}

	_, err := ParseSources("I could not find anything")
	assert.Error(t, err)
}

func TestDiscoverSources(t *testing.T) {
	backend := &scriptedBackend{reply: `[{"name":"Brookline Town Meeting","type":"youtube_playlist","url":"https://youtube.com/playlist?list=PL1","priority":"high"}]`}
	provider := &scriptedProvider{backend: backend}
	s := NewService(provider, arbor.NewLogger())

	result := s.DiscoverSources(context.Background(), testProject(), Options{Provider: models.AIProviderAnthropic, APIKey: "sk-test", Neighborhood: "Coolidge Corner"})

	assert.Empty(t, result.Error)
	assert.Equal(t, "Coolidge Corner, Brookline, MA", result.Location)
	assert.Equal(t, 1, result.TotalFound)
	assert.Equal(t, "high", result.Sources[0].Priority)

	assert.Equal(t, models.AIProviderAnthropic, provider.project.AIProvider)
	assert.Equal(t, models.DefaultModelFor(models.AIProviderAnthropic), provider.project.ModelName)
	assert.Equal(t, "sk-test", provider.project.APIKey)
	assert.Equal(t, DiscoverySystemPrompt, backend.request.SystemPrompt)
	assert.Contains(t, backend.request.Prompt, "Coolidge Corner, Brookline, MA")
	assert.Equal(t, 4000, backend.request.MaxTokens)
}

func TestDiscoverSources_Errors(t *testing.T) {
	s := NewService(&scriptedProvider{err: llm.MissingAPIKeyError(models.AIProviderOpenAI)}, arbor.NewLogger())
	result := s.DiscoverSources(context.Background(), testProject(), Options{Provider: models.AIProviderOpenAI})
	assert.Equal(t, "OpenAI API key is not configured. Please add your API key in Settings.", result.Error)
	assert.Empty(t, result.Sources)

	s = NewService(&scriptedProvider{backend: &scriptedBackend{reply: "no json here"}}, arbor.NewLogger())
	result = s.DiscoverSources(context.Background(), testProject(), Options{})
	assert.Contains(t, result.Error, "failed to parse")
}

func TestSuggestPersonality(t *testing.T) {
	backend := &scriptedBackend{reply: "  You are Brookline's friendly guide.  "}
	s := NewService(&scriptedProvider{backend: backend}, arbor.NewLogger())

	got := s.SuggestPersonality(context.Background(), testProject(), Options{})
	assert.Equal(t, "You are Brookline's friendly guide.", got)
	assert.Contains(t, backend.request.Prompt, "- Town Site (website): Official site")

	backend.err = errors.New("boom")
	got = s.SuggestPersonality(context.Background(), testProject(), Options{})
	assert.Equal(t, FallbackPersonality("Brookline, MA"), got)
}

func TestValidateSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		if r.URL.Path == "/gone" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/html")
	}))
	defer server.Close()

	s := NewService(&scriptedProvider{}, arbor.NewLogger())
	ctx := context.Background()

	ok := s.ValidateSource(ctx, server.URL+"/", "website")
	assert.True(t, ok.Valid)
	assert.Equal(t, "text/html", ok.ContentType)

	gone := s.ValidateSource(ctx, server.URL+"/gone", "website")
	assert.False(t, gone.Valid)
	assert.Equal(t, "HTTP 404", gone.Error)

	bad := s.ValidateSource(ctx, "not a url", "website")
	assert.Equal(t, "Invalid URL format", bad.Error)
}
