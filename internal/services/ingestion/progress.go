package ingestion

import (
	"sync"

	"github.com/ternarybob/neighborhood/internal/models"
)

// Progress phases: collection fills 0..collectionSpan, indexing the rest
const collectionSpan = 50.0

// tracker maps collector and indexer callbacks onto job progress.
// Progress never decreases while the job runs.
type tracker struct {
	o   *Orchestrator
	job *models.IngestionJob
	mu  sync.Mutex
}

func newTracker(o *Orchestrator, job *models.IngestionJob) *tracker {
	return &tracker{o: o, job: job}
}

func (t *tracker) collection(processed, total int) {
	p := 0.0
	if total > 0 {
		p = float64(processed) / float64(total) * collectionSpan
	}
	if p > collectionSpan {
		p = collectionSpan
	}
	t.advance(p, processed, total)
}

// boundary marks the end of collection before indexing starts
func (t *tracker) boundary(chunks int) {
	t.advance(collectionSpan, 0, chunks)
}

func (t *tracker) indexing(current, total int) {
	p := collectionSpan
	if total > 0 {
		p += float64(current) / float64(total) * (100 - collectionSpan)
	}
	t.advance(p, current, total)
}

func (t *tracker) advance(p float64, processed, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if p < t.job.Progress {
		p = t.job.Progress
	}
	if p > 100 {
		p = 100
	}
	t.job.Progress = p
	t.job.ProcessedItems = processed
	t.job.TotalItems = total
	t.o.persist(t.job)
}
