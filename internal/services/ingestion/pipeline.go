package ingestion

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ternarybob/neighborhood/internal/interfaces"
	"github.com/ternarybob/neighborhood/internal/models"
	"github.com/ternarybob/neighborhood/internal/services/chunker"
	"github.com/ternarybob/neighborhood/internal/services/transcript"
)

// Payload source types stored on chunks and shown in citations
const (
	PayloadYouTube = "youtube"
	PayloadWebsite = "website"
	PayloadPDF     = "pdf"
)

// payloadSourceType maps a data source kind to the coarse type stored on its chunks
func payloadSourceType(t models.DataSourceType) string {
	switch t {
	case models.DataSourceYouTubePlaylist, models.DataSourceYouTubeVideo:
		return PayloadYouTube
	case models.DataSourcePDFURL, models.DataSourcePDFUpload:
		return PayloadPDF
	default:
		return PayloadWebsite
	}
}

func isDocumentSource(t models.DataSourceType) bool {
	return t == models.DataSourcePDFURL || t == models.DataSourcePDFUpload
}

// run executes one job. Errors never escape: they end up in job.Error.
func (o *Orchestrator) run(ctx context.Context, t *task) {
	job := t.job
	started := time.Now()
	job.Status = models.JobStatusRunning
	job.StartedAt = &started
	o.persist(job)

	o.logger.Info().
		Str("job_id", job.ID).
		Str("project_id", job.ProjectID).
		Str("source_id", job.SourceID).
		Msg("Ingestion job started")

	if err := o.execute(ctx, t); err != nil {
		o.fail(job, err)
		return
	}

	completed := time.Now()
	job.Status = models.JobStatusCompleted
	job.Progress = 100
	job.CompletedAt = &completed
	o.persist(job)

	o.logger.Info().
		Str("job_id", job.ID).
		Str("source", job.SourceName).
		Int("items", job.ProcessedItems).
		Dur("duration", completed.Sub(started)).
		Msg("Ingestion job completed")
}

func (o *Orchestrator) execute(ctx context.Context, t *task) error {
	job := t.job

	project, err := o.projects.GetProject(ctx, job.ProjectID)
	if err != nil {
		if errors.Is(err, interfaces.ErrProjectNotFound) {
			return sourceUnavailable(msgProjectNotFound)
		}
		return err
	}
	source := project.FindSource(job.SourceID)
	if source == nil {
		return sourceUnavailable(msgSourceNotFound)
	}
	job.SourceName = source.Name
	job.SourceType = string(source.Type)

	collector, ok := o.collectors[source.Type]
	if !ok || collector == nil {
		return fmt.Errorf("Unsupported source type: %s", source.Type)
	}

	locator := source.URL
	if t.locator != "" {
		locator = t.locator
	}

	progress := newTracker(o, job)

	result, err := collector.Collect(ctx, locator, o.constraints(source), func(processed, total int, label, extra string) {
		progress.collection(processed, total)
	})
	if err != nil {
		if transcript.IsNoTranscript(err) {
			return sourceUnavailable(msgNoTranscript)
		}
		if errors.Is(err, interfaces.ErrInvalidLocator) {
			return sourceUnavailable("%s", err.Error())
		}
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if len(result.Units) == 0 && isDocumentSource(source.Type) {
		return sourceUnavailable(msgPDFExtraction)
	}

	chunks := buildChunks(source, result)
	progress.boundary(len(chunks))

	if len(chunks) > 0 {
		index, err := o.indexes.Get(ctx, job.ProjectID)
		if err != nil {
			return fmt.Errorf("failed to open index: %w", err)
		}
		if _, err := index.UpsertBatch(ctx, chunks, progress.indexing); err != nil {
			return fmt.Errorf("failed to index chunks: %w", err)
		}
	}

	switch {
	case result.LimitMessage != "":
		job.Note = result.LimitMessage
	case len(result.Units) == 0:
		job.Note = "No content collected from source"
	}

	return o.recordSync(ctx, job, result, chunks)
}

// constraints builds collector limits from config and per-source overrides
func (o *Orchestrator) constraints(source *models.DataSource) models.CollectConstraints {
	c := models.CollectConstraints{
		MaxBytes:       o.config.Crawler.MaxBytes,
		MaxWords:       o.config.Crawler.MaxWords,
		SameDomainOnly: true,
	}
	if v := source.MetadataString("max_items"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.MaxItems = n
		}
	}
	return c
}

// buildChunks turns raw units into chunks. Transcript segments are already
// sized for retrieval and become one chunk each; pages and documents are split.
func buildChunks(source *models.DataSource, result *models.CollectResult) []models.Chunk {
	sourceType := payloadSourceType(source.Type)
	var chunks []models.Chunk

	for _, unit := range result.Units {
		title := unit.Title
		if title == "" {
			title = source.Name
		}

		base := models.Chunk{
			Source:           source.Name,
			SourceType:       sourceType,
			URL:              unit.URL,
			Title:            title,
			Date:             unit.Date,
			CollectionMethod: result.Method,
			Timestamp:        unit.Timestamp,
			Extra:            unitExtra(unit, result.Method),
		}

		if unit.Kind == models.UnitKindTranscriptSegment {
			if unit.Text == "" {
				continue
			}
			c := base
			c.Text = unit.Text
			c.WordCount = chunker.WordCount(unit.Text)
			chunks = append(chunks, c)
			continue
		}

		for _, text := range chunker.ChunkDefault(unit.Text) {
			c := base
			c.Text = text
			c.WordCount = chunker.WordCount(text)
			chunks = append(chunks, c)
		}
	}
	return chunks
}

func unitExtra(unit models.RawUnit, method string) map[string]string {
	extra := make(map[string]string, len(unit.Extra)+1)
	for k, v := range unit.Extra {
		extra[k] = v
	}
	if unit.Method != "" && unit.Method != method {
		extra["extraction_method"] = unit.Method
	}
	if len(extra) == 0 {
		return nil
	}
	return extra
}

// recordSync stores the outcome of a run on the source
func (o *Orchestrator) recordSync(ctx context.Context, job *models.IngestionJob, result *models.CollectResult, chunks []models.Chunk) error {
	o.saveMu.Lock()
	defer o.saveMu.Unlock()

	project, err := o.projects.GetProject(ctx, job.ProjectID)
	if err != nil {
		return err
	}
	source := project.FindSource(job.SourceID)
	if source == nil {
		return sourceUnavailable(msgSourceNotFound)
	}

	words := 0
	for _, c := range chunks {
		words += c.WordCount
	}

	now := time.Now()
	source.LastSynced = &now
	source.WordCount = words
	source.DocumentCount = len(chunks)
	source.SetMetadata("collection_method", result.Method)
	if result.LimitMessage != "" {
		source.SetMetadata("limit_message", result.LimitMessage)
	} else if source.Metadata != nil {
		delete(source.Metadata, "limit_message")
	}

	if err := o.projects.SaveProject(ctx, project); err != nil {
		return fmt.Errorf("failed to save source sync state: %w", err)
	}
	return nil
}
