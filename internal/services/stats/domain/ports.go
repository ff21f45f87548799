package domain

import (
	"context"

	"queststat/internal/core/levels"
)

// ExtractorPort runs the stats pipeline
type ExtractorPort interface {
	// Extract runs over an in-memory bundle
	Extract(ctx context.Context, b Bundle) (Result, error)
	// ExtractPages loads saved pages and runs over them
	ExtractPages(ctx context.Context, in PageInput) (Result, error)
}

// CatalogPort builds level catalogs only
type CatalogPort interface {
	// Levels parses the catalog of matrix, keeping the types of existing by position
	Levels(ctx context.Context, matrix [][]string, existing []levels.Level) []levels.Level
}
