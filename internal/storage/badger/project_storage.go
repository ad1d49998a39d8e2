package badger

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/neighborhood/internal/interfaces"
	"github.com/ternarybob/neighborhood/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

func init() {
	// Source metadata decoded from JSON may nest objects and arrays
	gob.Register(map[string]interface{}{})
	gob.Register([]interface{}{})
}

// ProjectStorage implements the ProjectStorage interface for Badger
type ProjectStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewProjectStorage creates a new ProjectStorage instance
func NewProjectStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ProjectStorage {
	return &ProjectStorage{
		db:     db,
		logger: logger,
	}
}

func (s *ProjectStorage) GetProject(ctx context.Context, projectID string) (*models.ProjectConfig, error) {
	var project models.ProjectConfig
	if err := s.db.Store().Get(projectID, &project); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", interfaces.ErrProjectNotFound, projectID)
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &project, nil
}

func (s *ProjectStorage) SaveProject(ctx context.Context, project *models.ProjectConfig) error {
	if project.ProjectID == "" {
		return fmt.Errorf("project ID is required")
	}

	project.UpdatedAt = time.Now()
	if project.CreatedAt.IsZero() {
		project.CreatedAt = project.UpdatedAt
	}

	if err := s.db.Store().Upsert(project.ProjectID, project); err != nil {
		return fmt.Errorf("failed to save project: %w", err)
	}
	return nil
}

func (s *ProjectStorage) ListProjects(ctx context.Context) ([]*models.ProjectConfig, error) {
	var projects []models.ProjectConfig
	if err := s.db.Store().Find(&projects, badgerhold.Where("ProjectID").Ne("").SortBy("CreatedAt")); err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	result := make([]*models.ProjectConfig, len(projects))
	for i := range projects {
		result[i] = &projects[i]
	}
	return result, nil
}

func (s *ProjectStorage) DeleteProject(ctx context.Context, projectID string) error {
	if err := s.db.Store().Delete(projectID, &models.ProjectConfig{}); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return fmt.Errorf("%w: %s", interfaces.ErrProjectNotFound, projectID)
		}
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}

func (s *ProjectStorage) CountProjects(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.ProjectConfig{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count projects: %w", err)
	}
	return int(count), nil
}
