package interfaces

import "github.com/ternarybob/neighborhood/internal/models"

// EventService broadcasts ingestion job updates to in-process subscribers
type EventService interface {
	// Subscribe registers a listener and returns a function that removes it
	Subscribe(listener JobListener) (unsubscribe func())

	// Publish delivers a snapshot of job to every listener, in subscription order
	Publish(job *models.IngestionJob)

	// Close removes every listener
	Close() error
}
