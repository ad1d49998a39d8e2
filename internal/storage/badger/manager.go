package badger

import (
	"context"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/neighborhood/internal/common"
	"github.com/ternarybob/neighborhood/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db      *BadgerDB
	project interfaces.ProjectStorage
	job     interfaces.JobStorage
	catalog interfaces.CatalogStorage
	logger  arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (*Manager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := newManager(db, logger)
	logger.Info().Str("path", config.Path).Msg("Badger storage manager initialized")

	return manager, nil
}

func newManager(db *BadgerDB, logger arbor.ILogger) *Manager {
	return &Manager{
		db:      db,
		project: NewProjectStorage(db, logger),
		job:     NewJobStorage(db, logger),
		catalog: NewCatalogStorage(db, logger),
		logger:  logger,
	}
}

// ProjectStorage returns the project storage interface
func (m *Manager) ProjectStorage() interfaces.ProjectStorage {
	return m.project
}

// JobStorage returns the job storage interface
func (m *Manager) JobStorage() interfaces.JobStorage {
	return m.job
}

// CatalogStorage returns the document catalog interface
func (m *Manager) CatalogStorage() interfaces.CatalogStorage {
	return m.catalog
}

// StartMaintenance starts background value log GC until ctx is done
func (m *Manager) StartMaintenance(ctx context.Context) {
	m.db.StartGC(ctx)
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
