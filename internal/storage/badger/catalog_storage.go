package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/neighborhood/internal/interfaces"
	"github.com/ternarybob/neighborhood/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// CatalogStorage implements the CatalogStorage interface for Badger
type CatalogStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewCatalogStorage creates a new CatalogStorage instance
func NewCatalogStorage(db *BadgerDB, logger arbor.ILogger) interfaces.CatalogStorage {
	return &CatalogStorage{
		db:     db,
		logger: logger,
	}
}

// Record upserts entries; re-indexing a document keeps a single entry
func (s *CatalogStorage) Record(ctx context.Context, entries []models.CatalogEntry) error {
	for i := range entries {
		entry := &entries[i]
		entry.Key = models.CatalogKey(entry.ProjectID, entry.DocumentID)
		if err := s.db.Store().Upsert(entry.Key, entry); err != nil {
			return fmt.Errorf("failed to record catalog entry: %w", err)
		}
	}
	return nil
}

// List returns one page of entries in indexing order plus the total match count
func (s *CatalogStorage) List(ctx context.Context, projectID, source string, offset, limit int) ([]models.CatalogEntry, int, error) {
	count, err := s.db.Store().Count(&models.CatalogEntry{}, s.where(projectID, source))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count catalog entries: %w", err)
	}

	query := s.where(projectID, source).SortBy("IndexedAt", "Key")
	if offset > 0 {
		query = query.Skip(offset)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var entries []models.CatalogEntry
	if err := s.db.Store().Find(&entries, query); err != nil {
		return nil, 0, fmt.Errorf("failed to list catalog entries: %w", err)
	}
	return entries, int(count), nil
}

func (s *CatalogStorage) Count(ctx context.Context, projectID string) (int, error) {
	count, err := s.db.Store().Count(&models.CatalogEntry{}, s.where(projectID, ""))
	if err != nil {
		return 0, fmt.Errorf("failed to count catalog entries: %w", err)
	}
	return int(count), nil
}

func (s *CatalogStorage) DeleteBySource(ctx context.Context, projectID, source string) error {
	if err := s.db.Store().DeleteMatching(&models.CatalogEntry{}, s.where(projectID, source)); err != nil {
		return fmt.Errorf("failed to delete catalog entries: %w", err)
	}
	return nil
}

func (s *CatalogStorage) DeleteProject(ctx context.Context, projectID string) error {
	if err := s.db.Store().DeleteMatching(&models.CatalogEntry{}, s.where(projectID, "")); err != nil {
		return fmt.Errorf("failed to delete catalog entries: %w", err)
	}
	return nil
}

func (s *CatalogStorage) where(projectID, source string) *badgerhold.Query {
	query := badgerhold.Where("ProjectID").Eq(projectID)
	if source != "" {
		query = query.And("Source").Eq(source)
	}
	return query
}
