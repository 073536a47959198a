// Package warehouse provides the Warehouse catalog.
// Warehouses represent physical locations holding stock.
package warehouse

import (
	"context"

	"comercia/internal/core/apperror"
	"comercia/internal/core/entity"
)

// Warehouse represents a storage location for goods.
type Warehouse struct {
	entity.Catalog

	// Address is the physical address
	Address string `db:"address" json:"address"`

	// IsMain marks the primary warehouse; at most one at a time
	IsMain bool `db:"is_main" json:"isMain"`

	// IsActive indicates if warehouse is operational
	IsActive bool `db:"is_active" json:"isActive"`
}

// NewWarehouse creates a new Warehouse with required fields.
func NewWarehouse(code, name, address string) *Warehouse {
	return &Warehouse{
		Catalog:  entity.NewCatalog(code, name),
		Address:  address,
		IsActive: true,
	}
}

// Validate implements entity.Validatable interface.
func (w *Warehouse) Validate(ctx context.Context) error {
	if err := w.Catalog.Validate(ctx); err != nil {
		return err
	}

	if w.Address == "" {
		return apperror.NewValidation("address is required").
			WithDetail("field", "address")
	}

	return nil
}

// CanMoveStock returns true if the warehouse may appear on stock movements.
func (w *Warehouse) CanMoveStock() bool {
	return w.IsActive && !w.DeletionMark
}
