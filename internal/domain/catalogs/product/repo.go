package product

import (
	"context"

	"comercia/internal/core/types"
	"comercia/internal/domain"
)

// Repository defines the interface for Product persistence.
//
// Update never touches cost or stock_current; those columns belong to the
// stock-guarded methods below, which require an open transaction.
type Repository interface {
	domain.CatalogRepository[*Product]

	// GetBySKUForUpdate loads a product by SKU with a FOR UPDATE row lock.
	GetBySKUForUpdate(ctx context.Context, sku string) (*Product, error)

	// UpdateStock writes the new stock level for a locked product row.
	UpdateStock(ctx context.Context, sku string, stock int64) error

	// UpdateStockAndCost writes stock and weighted-average cost together
	// (purchase receptions).
	UpdateStockAndCost(ctx context.Context, sku string, stock int64, cost types.Money) error
}

// StockLedger is the slice of the inventory ledger used to seed opening
// stock when a product is created with one.
type StockLedger interface {
	SeedStock(ctx context.Context, sku string, qty int64, responsible string) error
}
