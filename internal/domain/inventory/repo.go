package inventory

import (
	"context"

	"comercia/internal/domain"
)

// Repository defines persistence for the stock ledger.
type Repository interface {
	// Insert appends one movement row.
	Insert(ctx context.Context, m *StockMovement) error

	// InsertPair appends two movements atomically in one round-trip
	// (the legs of a transfer). Requires an open transaction.
	InsertPair(ctx context.Context, out, in *StockMovement) error

	// List returns movements newest-first with total count.
	List(ctx context.Context, filter MovementFilter) (domain.ListResult[*StockMovement], error)

	// SumBySKU returns the sum of signed quantities for a SKU.
	SumBySKU(ctx context.Context, sku string) (int64, error)
}
