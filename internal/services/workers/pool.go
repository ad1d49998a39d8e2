package workers

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/neighborhood/internal/common"
)

// ErrPoolClosed is returned by Submit after Shutdown
var ErrPoolClosed = errors.New("worker pool is shutting down")

// Job represents a work item to be processed
type Job func(ctx context.Context)

// Pool runs submitted jobs on a fixed number of panic-safe workers reading a buffered queue
type Pool struct {
	jobs       chan Job
	maxWorkers int
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	closeOnce  sync.Once
	logger     arbor.ILogger
}

// NewPool creates a new worker pool. Non-positive sizes fall back to 4 workers and a queue of 64.
func NewPool(maxWorkers, queueSize int, logger arbor.ILogger) *Pool {
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	if queueSize <= 0 {
		queueSize = 64
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		jobs:       make(chan Job, queueSize),
		maxWorkers: maxWorkers,
		ctx:        ctx,
		cancel:     cancel,
		logger:     logger,
	}
}

// Start begins the worker pool
func (p *Pool) Start() {
	p.logger.Info().
		Int("max_workers", p.maxWorkers).
		Int("queue_size", cap(p.jobs)).
		Msg("Starting worker pool")

	for i := 0; i < p.maxWorkers; i++ {
		p.wg.Add(1)
		id := i
		common.SafeGo(p.logger, fmt.Sprintf("worker-%d", id), func() {
			defer p.wg.Done()
			p.worker(id)
		})
	}
}

// Submit queues a job, blocking while the queue is full
func (p *Pool) Submit(job Job) error {
	if p.ctx.Err() != nil {
		return ErrPoolClosed
	}
	select {
	case p.jobs <- job:
		return nil
	case <-p.ctx.Done():
		return ErrPoolClosed
	}
}

// Shutdown cancels running jobs and waits for the workers to exit
func (p *Pool) Shutdown() {
	p.closeOnce.Do(func() {
		p.cancel()
		p.wg.Wait()
		p.logger.Info().Msg("Worker pool shutdown complete")
	})
}

// worker processes jobs from the queue until the pool is cancelled
func (p *Pool) worker(id int) {
	p.logger.Debug().
		Int("worker_id", id).
		Msg("Worker started")

	for {
		select {
		case job := <-p.jobs:
			p.run(id, job)
		case <-p.ctx.Done():
			p.logger.Debug().
				Int("worker_id", id).
				Msg("Worker stopping - context cancelled")
			return
		}
	}
}

// run executes one job; a panic is logged and the worker keeps going
func (p *Pool) run(id int, job Job) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error().
				Int("worker_id", id).
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("Job panicked")
		}
	}()
	job(p.ctx)
}
