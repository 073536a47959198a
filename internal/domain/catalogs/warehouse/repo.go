package warehouse

import (
	"context"

	"comercia/internal/domain"
)

// Repository defines the interface for Warehouse persistence.
type Repository interface {
	domain.CatalogRepository[*Warehouse]

	// ClearMain clears the main flag on all warehouses (before setting a new one).
	ClearMain(ctx context.Context) error
}
