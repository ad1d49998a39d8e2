package events

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/neighborhood/internal/interfaces"
	"github.com/ternarybob/neighborhood/internal/models"
)

// Service implements EventService with synchronous fan-out, so listeners see
// updates of one job in the order they were published
type Service struct {
	listeners map[int]interfaces.JobListener
	nextID    int
	mu        sync.RWMutex
	logger    arbor.ILogger
}

var _ interfaces.EventService = (*Service)(nil)

// NewService creates a new event service
func NewService(logger arbor.ILogger) *Service {
	return &Service{
		listeners: make(map[int]interfaces.JobListener),
		logger:    logger,
	}
}

// Subscribe registers a listener for every job update
func (s *Service) Subscribe(listener interfaces.JobListener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = listener
	count := len(s.listeners)
	s.mu.Unlock()

	s.logger.Debug().Int("subscriber_count", count).Msg("Job listener subscribed")

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// Publish sends a copy of job to each listener. A panicking listener is logged and skipped.
func (s *Service) Publish(job *models.IngestionJob) {
	s.mu.RLock()
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	listeners := make([]interfaces.JobListener, len(ids))
	for i, id := range ids {
		listeners[i] = s.listeners[id]
	}
	s.mu.RUnlock()

	for _, listener := range listeners {
		snapshot := *job
		s.deliver(listener, &snapshot)
	}
}

func (s *Service) deliver(listener interfaces.JobListener, job *models.IngestionJob) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("job_id", job.ID).
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("Job listener panicked")
		}
	}()
	listener(job)
}

// Close removes every listener
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listeners = make(map[int]interfaces.JobListener)
	s.logger.Info().Msg("Event service closed")

	return nil
}
