// Package inventory provides the append-only stock movement ledger.
//
// The ledger is the only writer of product stock: every stock change is a
// movement row, and products.stock_current mirrors the sum of signed
// quantities per SKU.
package inventory

import (
	"context"
	"time"

	"comercia/internal/core/apperror"
	"comercia/internal/core/id"
	"comercia/internal/core/types"
)

// MovementType classifies a stock movement.
type MovementType string

const (
	// Purchase is an inbound reception from a purchase invoice
	Purchase MovementType = "PURCHASE"
	// Sale is an outbound dispatch from a sales invoice
	Sale MovementType = "SALE"
	// SaleReturn restores stock from a RETURN credit note
	SaleReturn MovementType = "SALE_RETURN"
	// Loss is shrinkage (damage, theft, expiry)
	Loss MovementType = "LOSS"
	// TransferIn / TransferOut are the two legs of a warehouse transfer
	TransferIn  MovementType = "TRANSFER_IN"
	TransferOut MovementType = "TRANSFER_OUT"
	// Adjustment is a manual correction; its quantity carries the sign
	Adjustment MovementType = "ADJUSTMENT"
)

// Sign returns the stock direction for a movement type.
// Adjustment returns +1: its quantity is stored as a signed delta.
func Sign(t MovementType) int64 {
	switch t {
	case Sale, Loss, TransferOut:
		return -1
	default:
		return 1
	}
}

// IsValidType reports whether t is a known movement type.
func IsValidType(t MovementType) bool {
	switch t {
	case Purchase, Sale, SaleReturn, Loss, TransferIn, TransferOut, Adjustment:
		return true
	}
	return false
}

// StockMovement is one immutable row of the stock ledger.
// Movements are never updated or deleted.
type StockMovement struct {
	ID id.ID `db:"id" json:"id"`

	SKU  string       `db:"sku" json:"sku"`
	Type MovementType `db:"movement_type" json:"movementType"`

	// Quantity is signed: Sign(Type) * magnitude
	Quantity int64 `db:"quantity" json:"quantity"`

	// UnitCost is the lot cost, set on PURCHASE movements
	UnitCost *types.Money `db:"unit_cost" json:"unitCost,omitempty"`

	// WarehouseID is the location of the movement (source leg for transfers)
	WarehouseID *id.ID `db:"warehouse_id" json:"warehouseId,omitempty"`

	// TargetWarehouseID is set on transfer legs only
	TargetWarehouseID *id.ID `db:"target_warehouse_id" json:"targetWarehouseId,omitempty"`

	// Reference is the document that caused the movement (invoice, note, TRF number)
	Reference string `db:"reference" json:"reference"`

	Reason      string `db:"reason" json:"reason,omitempty"`
	Responsible string `db:"responsible" json:"responsible,omitempty"`
	Notes       string `db:"notes" json:"notes,omitempty"`

	Date      time.Time `db:"date" json:"date"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewStockMovement creates a movement with generated ID and timestamps.
// quantity is the signed quantity to store.
func NewStockMovement(sku string, t MovementType, quantity int64, reference string) *StockMovement {
	now := time.Now().UTC()
	return &StockMovement{
		ID:        id.New(),
		SKU:       sku,
		Type:      t,
		Quantity:  quantity,
		Reference: reference,
		Date:      now,
		CreatedAt: now,
	}
}

// Validate checks movement invariants.
func (m *StockMovement) Validate(ctx context.Context) error {
	if m.SKU == "" {
		return apperror.NewValidation("sku is required").WithDetail("field", "sku")
	}
	if !IsValidType(m.Type) {
		return apperror.NewValidation("invalid movement type").
			WithDetail("field", "movementType").
			WithDetail("value", string(m.Type))
	}
	if m.Quantity == 0 {
		return apperror.NewValidation("quantity must not be zero").
			WithDetail("field", "quantity")
	}
	if m.Reference == "" {
		return apperror.NewValidation("reference document is required").
			WithDetail("field", "reference")
	}
	return nil
}

// MovementFilter narrows ledger history queries.
type MovementFilter struct {
	SKU      string
	Type     MovementType
	DateFrom *time.Time
	DateTo   *time.Time

	Limit  int
	Offset int
}
