package ingestion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/neighborhood/internal/common"
	"github.com/ternarybob/neighborhood/internal/interfaces"
	"github.com/ternarybob/neighborhood/internal/models"
	"github.com/ternarybob/neighborhood/internal/services/events"
	"github.com/ternarybob/neighborhood/internal/services/transcript"
)

type memProjects struct {
	mu       sync.Mutex
	projects map[string]models.ProjectConfig
}

func (m *memProjects) GetProject(ctx context.Context, id string) (*models.ProjectConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", interfaces.ErrProjectNotFound, id)
	}
	p.DataSources = append([]models.DataSource(nil), p.DataSources...)
	return &p, nil
}

func (m *memProjects) SaveProject(ctx context.Context, p *models.ProjectConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[p.ProjectID] = *p
	return nil
}

func (m *memProjects) ListProjects(ctx context.Context) ([]*models.ProjectConfig, error) {
	return nil, nil
}

func (m *memProjects) DeleteProject(ctx context.Context, id string) error { return nil }

func (m *memProjects) CountProjects(ctx context.Context) (int, error) { return len(m.projects), nil }

type memJobs struct {
	mu   sync.Mutex
	jobs map[string]models.IngestionJob
}

func (m *memJobs) SaveJob(ctx context.Context, job *models.IngestionJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.ID] = *job
	return nil
}

func (m *memJobs) GetJob(ctx context.Context, id string) (*models.IngestionJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, interfaces.ErrJobNotFound
	}
	return &j, nil
}

func (m *memJobs) ListJobs(ctx context.Context) ([]*models.IngestionJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.IngestionJob
	for _, j := range m.jobs {
		j := j
		out = append(out, &j)
	}
	return out, nil
}

func (m *memJobs) ListJobsByProject(ctx context.Context, projectID string) ([]*models.IngestionJob, error) {
	return nil, nil
}

func (m *memJobs) MarkRunningJobsFailed(ctx context.Context, reason string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for id, j := range m.jobs {
		if !j.IsTerminal() {
			j.Status = models.JobStatusFailed
			j.Error = reason
			m.jobs[id] = j
			count++
		}
	}
	return count, nil
}

func (m *memJobs) DeleteJobsByProject(ctx context.Context, projectID string) error { return nil }

type fakeIndex struct {
	mu     sync.Mutex
	chunks []models.Chunk
	err    error
}

func (f *fakeIndex) Upsert(ctx context.Context, chunk models.Chunk) (string, error) {
	ids, err := f.UpsertBatch(ctx, []models.Chunk{chunk}, nil)
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

func (f *fakeIndex) UpsertBatch(ctx context.Context, chunks []models.Chunk, progress func(current, total int)) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, len(chunks))
	for i, c := range chunks {
		f.chunks = append(f.chunks, c)
		ids[i] = fmt.Sprintf("doc-%d", len(f.chunks))
		if progress != nil {
			progress(i+1, len(chunks))
		}
	}
	return ids, nil
}

func (f *fakeIndex) Search(ctx context.Context, query string, topK int) ([]models.SearchResult, error) {
	return nil, nil
}

func (f *fakeIndex) Stats(ctx context.Context) (models.IndexStats, error) {
	return models.IndexStats{DocumentCount: len(f.chunks)}, nil
}

func (f *fakeIndex) DeleteBySource(ctx context.Context, source string) error { return nil }

func (f *fakeIndex) List(ctx context.Context, offset, limit int, source string) ([]models.IndexedDocument, int, error) {
	return nil, 0, nil
}

func (f *fakeIndex) Close() error { return nil }

type fakeRegistry struct{ index *fakeIndex }

func (r *fakeRegistry) Get(ctx context.Context, projectID string) (interfaces.EmbeddingIndex, error) {
	return r.index, nil
}

func (r *fakeRegistry) Drop(ctx context.Context, projectID string) error { return nil }
func (r *fakeRegistry) Close() error                                      { return nil }

func words(prefix string, n int) string {
	w := make([]string, n)
	for i := range w {
		w[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return strings.Join(w, " ")
}

type harness struct {
	orch     *Orchestrator
	projects *memProjects
	jobs     *memJobs
	index    *fakeIndex

	mu      sync.Mutex
	updates []models.IngestionJob
	done    chan models.IngestionJob
}

func newHarness(t *testing.T, collectors map[models.DataSourceType]interfaces.Collector, sources ...models.DataSource) *harness {
	t.Helper()
	logger := arbor.NewLogger()

	project := models.NewProjectConfig("brookline-ma", "Brookline, MA", "")
	project.DataSources = sources

	h := &harness{
		projects: &memProjects{projects: map[string]models.ProjectConfig{project.ProjectID: *project}},
		jobs:     &memJobs{jobs: map[string]models.IngestionJob{}},
		index:    &fakeIndex{},
		done:     make(chan models.IngestionJob, 4),
	}

	config := common.NewDefaultConfig()
	config.Jobs.Concurrency = 2
	h.orch = NewOrchestrator(config, h.projects, h.jobs, &fakeRegistry{index: h.index}, collectors, events.NewService(logger), logger)
	h.orch.Subscribe(func(job *models.IngestionJob) {
		h.mu.Lock()
		h.updates = append(h.updates, *job)
		h.mu.Unlock()
		if job.IsTerminal() {
			h.done <- *job
		}
	})

	require.NoError(t, h.orch.Start(context.Background()))
	t.Cleanup(h.orch.Stop)
	return h
}

func (h *harness) run(t *testing.T, submit func() (*models.IngestionJob, error)) models.IngestionJob {
	t.Helper()
	job, err := submit()
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPending, job.Status)

	select {
	case final := <-h.done:
		return final
	case <-time.After(5 * time.Second):
		t.Fatal("job did not finish")
		return models.IngestionJob{}
	}
}

func (h *harness) source(t *testing.T, id string) models.DataSource {
	t.Helper()
	p, err := h.projects.GetProject(context.Background(), "brookline-ma")
	require.NoError(t, err)
	s := p.FindSource(id)
	require.NotNil(t, s)
	return *s
}

func TestRun_WebsiteIndexesChunksAndRecordsSync(t *testing.T) {
	site := interfaces.CollectorFunc(func(ctx context.Context, locator string, c models.CollectConstraints, progress models.ProgressFunc) (*models.CollectResult, error) {
		assert.Equal(t, "https://brooklinema.gov", locator)
		assert.True(t, c.SameDomainOnly)
		assert.Equal(t, 3, c.MaxItems)
		progress(1, 4, "", "")
		progress(2, 4, "", "")
		// The frontier grew; the ratio drops but progress must not
		progress(3, 10, "", "")
		progress(10, 10, "", "")
		return &models.CollectResult{
			Method:       "web_scraper",
			LimitMessage: "Reached max pages (3)",
			Units: []models.RawUnit{
				{Kind: models.UnitKindPage, URL: "https://brooklinema.gov/a", Title: "Select Board", Text: words("a", 120)},
				{Kind: models.UnitKindPage, URL: "https://brooklinema.gov/b", Title: "", Text: words("b", 600)},
				{Kind: models.UnitKindPage, URL: "https://brooklinema.gov/c", Title: "Stub", Text: words("c", 10)},
			},
		}, nil
	})

	h := newHarness(t, map[models.DataSourceType]interfaces.Collector{models.DataSourceWebsite: site}, models.DataSource{
		ID: "src-1", Type: models.DataSourceWebsite, URL: "https://brooklinema.gov", Name: "Town Website",
		Enabled: true, Metadata: map[string]interface{}{"max_items": 3},
	})

	final := h.run(t, func() (*models.IngestionJob, error) {
		return h.orch.Submit(context.Background(), "brookline-ma", "src-1")
	})

	assert.Equal(t, models.JobStatusCompleted, final.Status)
	assert.Equal(t, 100.0, final.Progress)
	assert.Equal(t, "Reached max pages (3)", final.Note)
	assert.NotNil(t, final.StartedAt)
	assert.NotNil(t, final.CompletedAt)
	assert.Equal(t, "Town Website", final.SourceName)

	// 120 words -> 1 chunk, 600 words -> 2 chunks, 10 words -> dropped
	require.Len(t, h.index.chunks, 3)
	first := h.index.chunks[0]
	assert.Equal(t, "Town Website", first.Source)
	assert.Equal(t, PayloadWebsite, first.SourceType)
	assert.Equal(t, "Select Board", first.Title)
	assert.Equal(t, "web_scraper", first.CollectionMethod)
	assert.Equal(t, 120, first.WordCount)
	assert.Equal(t, "Town Website", h.index.chunks[1].Title)

	src := h.source(t, "src-1")
	require.NotNil(t, src.LastSynced)
	assert.Equal(t, 3, src.DocumentCount)
	total := 0
	for _, c := range h.index.chunks {
		total += c.WordCount
	}
	assert.Equal(t, total, src.WordCount)
	assert.Equal(t, "web_scraper", src.MetadataString("collection_method"))
	assert.Equal(t, "Reached max pages (3)", src.MetadataString("limit_message"))

	stored, err := h.orch.GetJob(context.Background(), final.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, stored.Status)
}

func TestRun_ProgressIsMonotonicAndPhased(t *testing.T) {
	site := interfaces.CollectorFunc(func(ctx context.Context, locator string, c models.CollectConstraints, progress models.ProgressFunc) (*models.CollectResult, error) {
		for _, p := range [][2]int{{1, 2}, {1, 5}, {2, 5}, {2, 3}, {1, 8}, {8, 8}} {
			progress(p[0], p[1], "", "")
		}
		return &models.CollectResult{
			Method: "web_scraper",
			Units: []models.RawUnit{
				{Kind: models.UnitKindPage, Text: words("x", 1400)},
			},
		}, nil
	})

	h := newHarness(t, map[models.DataSourceType]interfaces.Collector{models.DataSourceWebsite: site}, models.DataSource{
		ID: "src-1", Type: models.DataSourceWebsite, URL: "https://brooklinema.gov", Name: "Town Website", Enabled: true,
	})
	h.run(t, func() (*models.IngestionJob, error) {
		return h.orch.Submit(context.Background(), "brookline-ma", "src-1")
	})

	h.mu.Lock()
	defer h.mu.Unlock()

	last := 0.0
	reachedIndexing := false
	for _, u := range h.updates {
		assert.GreaterOrEqual(t, u.Progress, last, "progress went backwards")
		assert.LessOrEqual(t, u.Progress, 100.0)
		last = u.Progress
		if u.Status == models.JobStatusRunning && u.Progress > 50 {
			reachedIndexing = true
		}
		if !reachedIndexing {
			assert.LessOrEqual(t, u.Progress, 50.0)
		}
	}
	assert.True(t, reachedIndexing)
	assert.Equal(t, 100.0, last)
}

func TestRun_TranscriptSegmentsAreIndexedWhole(t *testing.T) {
	start := 42.0
	video := interfaces.CollectorFunc(func(ctx context.Context, locator string, c models.CollectConstraints, progress models.ProgressFunc) (*models.CollectResult, error) {
		return &models.CollectResult{
			Method: transcript.MethodTranscriptAPI,
			Units: []models.RawUnit{
				{Kind: models.UnitKindTranscriptSegment, URL: locator, Text: "Motion to approve the warrant", Timestamp: &start, Method: "youtube_transcript_api-english", Extra: map[string]string{"video_id": "abc123def45"}},
				{Kind: models.UnitKindTranscriptSegment, URL: locator, Text: ""},
			},
		}, nil
	})

	h := newHarness(t, map[models.DataSourceType]interfaces.Collector{models.DataSourceYouTubeVideo: video}, models.DataSource{
		ID: "vid", Type: models.DataSourceYouTubeVideo, URL: "https://youtu.be/abc123def45", Name: "Town Meeting", Enabled: true,
	})
	final := h.run(t, func() (*models.IngestionJob, error) {
		return h.orch.Submit(context.Background(), "brookline-ma", "vid")
	})

	assert.Equal(t, models.JobStatusCompleted, final.Status)
	require.Len(t, h.index.chunks, 1)
	c := h.index.chunks[0]
	assert.Equal(t, "Motion to approve the warrant", c.Text)
	assert.Equal(t, "Town Meeting", c.Title)
	assert.Equal(t, PayloadYouTube, c.SourceType)
	require.NotNil(t, c.Timestamp)
	assert.Equal(t, 42.0, *c.Timestamp)
	assert.Equal(t, "abc123def45", c.Extra["video_id"])
	assert.Equal(t, "youtube_transcript_api-english", c.Extra["extraction_method"])
	assert.Equal(t, 5, h.source(t, "vid").WordCount)
}

func TestRun_FailureMessages(t *testing.T) {
	noTranscript := interfaces.CollectorFunc(func(ctx context.Context, locator string, c models.CollectConstraints, progress models.ProgressFunc) (*models.CollectResult, error) {
		return nil, fmt.Errorf("fetch abc: %w", transcript.ErrNoTranscript)
	})
	emptyPDF := interfaces.CollectorFunc(func(ctx context.Context, locator string, c models.CollectConstraints, progress models.ProgressFunc) (*models.CollectResult, error) {
		return &models.CollectResult{Method: "pdf_url_download"}, nil
	})
	broken := interfaces.CollectorFunc(func(ctx context.Context, locator string, c models.CollectConstraints, progress models.ProgressFunc) (*models.CollectResult, error) {
		return nil, errors.New("browser crashed")
	})

	h := newHarness(t, map[models.DataSourceType]interfaces.Collector{
		models.DataSourceYouTubeVideo:    noTranscript,
		models.DataSourcePDFURL:          emptyPDF,
		models.DataSourceWebsiteRendered: broken,
	},
		models.DataSource{ID: "vid", Type: models.DataSourceYouTubeVideo, URL: "https://youtu.be/abc123def45", Name: "Video"},
		models.DataSource{ID: "pdf", Type: models.DataSourcePDFURL, URL: "https://town.gov/budget.pdf", Name: "Budget"},
		models.DataSource{ID: "rss", Type: models.DataSourceRSSFeed, URL: "https://town.gov/feed", Name: "News"},
		models.DataSource{ID: "spa", Type: models.DataSourceWebsiteRendered, URL: "https://town.gov", Name: "Portal"},
	)

	tests := []struct {
		sourceID string
		want     string
	}{
		{"missing", msgSourceNotFound},
		{"vid", msgNoTranscript},
		{"pdf", msgPDFExtraction},
		{"rss", "Unsupported source type: rss_feed"},
		{"spa", "browser crashed"},
	}

	for _, tt := range tests {
		t.Run(tt.sourceID, func(t *testing.T) {
			final := h.run(t, func() (*models.IngestionJob, error) {
				return h.orch.Submit(context.Background(), "brookline-ma", tt.sourceID)
			})
			assert.Equal(t, models.JobStatusFailed, final.Status)
			assert.Equal(t, tt.want, final.Error)
			assert.NotNil(t, final.CompletedAt)
		})
	}
	assert.Empty(t, h.index.chunks)
}

func TestRun_EmptyWebsiteCompletesWithNote(t *testing.T) {
	empty := interfaces.CollectorFunc(func(ctx context.Context, locator string, c models.CollectConstraints, progress models.ProgressFunc) (*models.CollectResult, error) {
		return &models.CollectResult{Method: "web_scraper"}, nil
	})
	h := newHarness(t, map[models.DataSourceType]interfaces.Collector{models.DataSourceWebsite: empty}, models.DataSource{
		ID: "src-1", Type: models.DataSourceWebsite, URL: "https://town.gov", Name: "Town",
	})

	final := h.run(t, func() (*models.IngestionJob, error) {
		return h.orch.Submit(context.Background(), "brookline-ma", "src-1")
	})
	assert.Equal(t, models.JobStatusCompleted, final.Status)
	assert.NotEmpty(t, final.Note)
	assert.Equal(t, 0, h.source(t, "src-1").DocumentCount)
}

func TestSubmitUpload_UsesUploadPath(t *testing.T) {
	var seen string
	upload := interfaces.CollectorFunc(func(ctx context.Context, locator string, c models.CollectConstraints, progress models.ProgressFunc) (*models.CollectResult, error) {
		seen = locator
		return &models.CollectResult{
			Method: "pdf_upload",
			Units:  []models.RawUnit{{Kind: models.UnitKindDocument, URL: locator, Title: "warrant.pdf", Text: words("w", 80)}},
		}, nil
	})
	h := newHarness(t, map[models.DataSourceType]interfaces.Collector{models.DataSourcePDFUpload: upload}, models.DataSource{
		ID: "up", Type: models.DataSourcePDFUpload, URL: "file:///old/path.pdf", Name: "Warrant",
	})

	final := h.run(t, func() (*models.IngestionJob, error) {
		return h.orch.SubmitUpload(context.Background(), "brookline-ma", "up", "/data/brookline-ma/uploads/warrant.pdf")
	})
	assert.Equal(t, models.JobStatusCompleted, final.Status)
	assert.Equal(t, "/data/brookline-ma/uploads/warrant.pdf", seen)
	require.Len(t, h.index.chunks, 1)
	assert.Equal(t, PayloadPDF, h.index.chunks[0].SourceType)
	uploaded := h.source(t, "up")
	assert.Equal(t, "pdf_upload", uploaded.MetadataString("collection_method"))
}

func TestSubmit_ReturnsPendingSnapshot(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	slow := interfaces.CollectorFunc(func(ctx context.Context, locator string, c models.CollectConstraints, progress models.ProgressFunc) (*models.CollectResult, error) {
		close(started)
		progress(1, 2, "", "")
		<-release
		return &models.CollectResult{Method: "web_scraper"}, nil
	})
	h := newHarness(t, map[models.DataSourceType]interfaces.Collector{models.DataSourceWebsite: slow}, models.DataSource{
		ID: "src-1", Type: models.DataSourceWebsite, URL: "https://town.gov", Name: "Town",
	})

	job, err := h.orch.Submit(context.Background(), "brookline-ma", "src-1")
	require.NoError(t, err)
	<-started

	// The worker is running the job; the caller's copy is untouched
	assert.Equal(t, models.JobStatusPending, job.Status)
	assert.Nil(t, job.StartedAt)
	assert.Zero(t, job.Progress)

	close(release)
	select {
	case final := <-h.done:
		assert.Equal(t, job.ID, final.ID)
		assert.Equal(t, models.JobStatusCompleted, final.Status)
	case <-time.After(5 * time.Second):
		t.Fatal("job did not finish")
	}
}

func TestSubmit_UnknownProject(t *testing.T) {
	h := newHarness(t, nil)
	_, err := h.orch.Submit(context.Background(), "nowhere", "src")
	assert.ErrorIs(t, err, interfaces.ErrProjectNotFound)

	_, err = h.orch.SubmitUpload(context.Background(), "brookline-ma", "src", "")
	assert.ErrorIs(t, err, interfaces.ErrInvalidLocator)
}

func TestStart_FailsInterruptedJobs(t *testing.T) {
	logger := arbor.NewLogger()
	jobs := &memJobs{jobs: map[string]models.IngestionJob{
		"j1": {ID: "j1", Status: models.JobStatusRunning},
		"j2": {ID: "j2", Status: models.JobStatusCompleted},
	}}
	o := NewOrchestrator(common.NewDefaultConfig(), &memProjects{projects: map[string]models.ProjectConfig{}}, jobs, &fakeRegistry{}, nil, events.NewService(logger), logger)
	require.NoError(t, o.Start(context.Background()))
	defer o.Stop()

	j1, err := o.GetJob(context.Background(), "j1")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, j1.Status)
	assert.Equal(t, msgInterrupted, j1.Error)

	j2, err := o.GetJob(context.Background(), "j2")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, j2.Status)
}

func TestPayloadSourceType(t *testing.T) {
	assert.Equal(t, PayloadYouTube, payloadSourceType(models.DataSourceYouTubePlaylist))
	assert.Equal(t, PayloadWebsite, payloadSourceType(models.DataSourceWebsiteRendered))
	assert.Equal(t, PayloadPDF, payloadSourceType(models.DataSourcePDFUpload))
}
