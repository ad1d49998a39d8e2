package badger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/neighborhood/internal/common"
	"github.com/ternarybob/neighborhood/internal/interfaces"
	"github.com/ternarybob/neighborhood/internal/models"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	logger := arbor.NewLogger()

	db, err := NewBadgerDB(logger, &common.BadgerConfig{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return newManager(db, logger)
}

func TestProjectStorage_RoundTrip(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	storage := m.ProjectStorage()

	project := models.NewProjectConfig("brookline-ma", "Brookline, MA", "")
	project.DataSources = []models.DataSource{{
		ID:       "src-1",
		Type:     models.DataSourceWebsite,
		URL:      "https://www.brooklinema.gov",
		Name:     "Town website",
		Enabled:  true,
		Metadata: map[string]interface{}{"collection_method": "web_scraper", "nested": map[string]interface{}{"a": "b"}},
	}}
	require.NoError(t, storage.SaveProject(ctx, project))

	loaded, err := storage.GetProject(ctx, "brookline-ma")
	require.NoError(t, err)
	assert.Equal(t, "Brookline, MA AI", loaded.ProjectName)
	require.Len(t, loaded.DataSources, 1)
	assert.Equal(t, "web_scraper", loaded.DataSources[0].MetadataString("collection_method"))

	count, err := storage.CountProjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, storage.DeleteProject(ctx, "brookline-ma"))
	_, err = storage.GetProject(ctx, "brookline-ma")
	assert.ErrorIs(t, err, interfaces.ErrProjectNotFound)
}

func TestProjectStorage_ListProjects(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	storage := m.ProjectStorage()

	require.NoError(t, storage.SaveProject(ctx, models.NewProjectConfig("a", "Town A", "")))
	require.NoError(t, storage.SaveProject(ctx, models.NewProjectConfig("b", "Town B", "")))

	projects, err := storage.ListProjects(ctx)
	require.NoError(t, err)
	assert.Len(t, projects, 2)
}

func TestJobStorage_SaveGetList(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	storage := m.JobStorage()

	older := &models.IngestionJob{ID: "job-1", ProjectID: "p", Status: models.JobStatusCompleted, CreatedAt: time.Now().Add(-time.Minute)}
	newer := &models.IngestionJob{ID: "job-2", ProjectID: "p", Status: models.JobStatusRunning, CreatedAt: time.Now()}
	other := &models.IngestionJob{ID: "job-3", ProjectID: "q", Status: models.JobStatusPending, CreatedAt: time.Now()}
	for _, j := range []*models.IngestionJob{older, newer, other} {
		require.NoError(t, storage.SaveJob(ctx, j))
	}

	job, err := storage.GetJob(ctx, "job-2")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusRunning, job.Status)

	_, err = storage.GetJob(ctx, "missing")
	assert.ErrorIs(t, err, interfaces.ErrJobNotFound)

	jobs, err := storage.ListJobsByProject(ctx, "p")
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "job-2", jobs[0].ID)

	all, err := storage.ListJobs(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	assert.Error(t, storage.SaveJob(ctx, &models.IngestionJob{}))
}

func TestJobStorage_MarkRunningJobsFailed(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	storage := m.JobStorage()

	require.NoError(t, storage.SaveJob(ctx, &models.IngestionJob{ID: "run", Status: models.JobStatusRunning, CreatedAt: time.Now()}))
	require.NoError(t, storage.SaveJob(ctx, &models.IngestionJob{ID: "pend", Status: models.JobStatusPending, CreatedAt: time.Now()}))
	require.NoError(t, storage.SaveJob(ctx, &models.IngestionJob{ID: "done", Status: models.JobStatusCompleted, CreatedAt: time.Now()}))

	n, err := storage.MarkRunningJobsFailed(ctx, "interrupted by restart")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	job, err := storage.GetJob(ctx, "run")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, job.Status)
	assert.Equal(t, "interrupted by restart", job.Error)
	assert.NotNil(t, job.CompletedAt)

	job, err = storage.GetJob(ctx, "done")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, job.Status)
}

func TestCatalogStorage_PagingAndDelete(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	catalog := m.CatalogStorage()

	base := time.Now()
	var entries []models.CatalogEntry
	for i := 0; i < 5; i++ {
		source := "Town website"
		if i%2 == 1 {
			source = "Meetings"
		}
		entries = append(entries, models.CatalogEntry{
			ProjectID:  "p",
			DocumentID: string(rune('a' + i)),
			Source:     source,
			IndexedAt:  base.Add(time.Duration(i) * time.Second),
		})
	}
	require.NoError(t, catalog.Record(ctx, entries))
	// Re-recording the same document does not duplicate it
	require.NoError(t, catalog.Record(ctx, entries[:1]))

	page, total, err := catalog.List(ctx, "p", "", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page, 2)
	assert.Equal(t, "b", page[0].DocumentID)
	assert.Equal(t, "c", page[1].DocumentID)

	_, total, err = catalog.List(ctx, "p", "Meetings", 0, 50)
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	require.NoError(t, catalog.DeleteBySource(ctx, "p", "Meetings"))
	count, err := catalog.Count(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	require.NoError(t, catalog.DeleteProject(ctx, "p"))
	count, err = catalog.Count(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestNewBadgerDB_PersistentResetAndGC(t *testing.T) {
	logger := arbor.NewLogger()
	path := filepath.Join(t.TempDir(), "db")
	config := &common.BadgerConfig{Path: path}

	db, err := NewBadgerDB(logger, config)
	require.NoError(t, err)
	m := newManager(db, logger)
	require.NoError(t, m.ProjectStorage().SaveProject(context.Background(),
		models.NewProjectConfig("p1", "Somerville, MA", "")))

	_, err = db.RunGC()
	assert.NoError(t, err)
	require.NoError(t, db.Close())

	config.ResetOnStartup = true
	db, err = NewBadgerDB(logger, config)
	require.NoError(t, err)
	defer db.Close()

	count, err := newManager(db, logger).ProjectStorage().CountProjects(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestNewBadgerDB_RequiresPath(t *testing.T) {
	_, err := NewBadgerDB(arbor.NewLogger(), &common.BadgerConfig{})
	assert.Error(t, err)
}

func TestBadgerDB_InMemorySkipsGC(t *testing.T) {
	db, err := NewBadgerDB(arbor.NewLogger(), &common.BadgerConfig{InMemory: true, GCInterval: common.Duration(time.Millisecond)})
	require.NoError(t, err)
	defer db.Close()

	n, err := db.RunGC()
	assert.NoError(t, err)
	assert.Zero(t, n)
}
