package ports

import (
	"context"

	"hypotest/domain/core"
	"hypotest/internal/dataset"
	"hypotest/models"
)

// ComparisonRepository persists comparison results
type ComparisonRepository interface {
	// Save inserts or replaces a comparison by ID
	Save(ctx context.Context, comparison *models.Comparison) error

	// Get returns a comparison or a NOT_FOUND error
	Get(ctx context.Context, id core.ComparisonID) (*models.Comparison, error)

	// List returns comparisons newest first
	List(ctx context.Context, limit, offset int) ([]*models.Comparison, error)
}

// TableLoader reads a tabular file; sheet only applies to spreadsheets
type TableLoader func(path, sheet string) (*dataset.Table, error)
