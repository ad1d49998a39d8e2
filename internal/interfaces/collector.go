package interfaces

import (
	"context"

	"github.com/ternarybob/neighborhood/internal/models"
)

// Collector turns a locator (URL, playlist link, file path) into ordered raw units.
// Per-item failures are logged and skipped; only an invalid locator returns an error.
type Collector interface {
	Collect(ctx context.Context, locator string, constraints models.CollectConstraints, progress models.ProgressFunc) (*models.CollectResult, error)
}

// CollectorFunc adapts a function to the Collector interface
type CollectorFunc func(ctx context.Context, locator string, constraints models.CollectConstraints, progress models.ProgressFunc) (*models.CollectResult, error)

func (f CollectorFunc) Collect(ctx context.Context, locator string, constraints models.CollectConstraints, progress models.ProgressFunc) (*models.CollectResult, error) {
	return f(ctx, locator, constraints, progress)
}
