package models

import "time"

// CatalogEntry records that a document id lives in a project's index.
// The embedded index has no listing API, so the catalog backs paging.
type CatalogEntry struct {
	Key        string    `json:"key"` // {project_id}/{document_id}
	ProjectID  string    `json:"project_id"`
	DocumentID string    `json:"document_id"`
	Source     string    `json:"source"`
	IndexedAt  time.Time `json:"indexed_at"`
}

// CatalogKey builds the storage key of a catalog entry
func CatalogKey(projectID, documentID string) string {
	return projectID + "/" + documentID
}
