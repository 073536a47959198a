package dto

import (
	"time"

	"comercia/internal/core/types"
	"comercia/internal/domain/inventory"
)

// CreateMovementRequest records one stock movement. ADJUSTMENT carries a
// signed quantity; every other type takes a positive magnitude.
type CreateMovementRequest struct {
	SKU          string       `json:"sku" binding:"required"`
	MovementType string       `json:"movementType" binding:"required"`
	Quantity     int64        `json:"quantity" binding:"required"`
	Reference    string       `json:"reference"`
	UnitCost     *types.Money `json:"unitCost"`
	WarehouseID  string       `json:"warehouseId"`
	Reason       string       `json:"reason"`
	Responsible  string       `json:"responsible"`
	Notes        string       `json:"notes"`
	Date         *time.Time   `json:"date"`
}

// TransferRequest moves stock between two warehouses.
type TransferRequest struct {
	SourceWarehouseID string `json:"sourceWarehouseId" binding:"required"`
	TargetWarehouseID string `json:"targetWarehouseId" binding:"required"`
	SKU               string `json:"sku" binding:"required"`
	Quantity          int64  `json:"quantity" binding:"required,min=1"`
	Notes             string `json:"notes"`
}

// TransferResponse returns the shared reference of the two legs.
type TransferResponse struct {
	Reference string `json:"reference"`
}

// MovementResponse is the API shape of one ledger row.
type MovementResponse struct {
	ID                string       `json:"id"`
	SKU               string       `json:"sku"`
	MovementType      string       `json:"movementType"`
	Quantity          int64        `json:"quantity"`
	UnitCost          *types.Money `json:"unitCost,omitempty"`
	WarehouseID       string       `json:"warehouseId,omitempty"`
	TargetWarehouseID string       `json:"targetWarehouseId,omitempty"`
	Reference         string       `json:"reference"`
	Reason            string       `json:"reason,omitempty"`
	Responsible       string       `json:"responsible,omitempty"`
	Notes             string       `json:"notes,omitempty"`
	Date              time.Time    `json:"date"`
	CreatedAt         time.Time    `json:"createdAt"`
}

// FromMovement maps a ledger row to its response shape.
func FromMovement(m *inventory.StockMovement) MovementResponse {
	resp := MovementResponse{
		ID:           m.ID.String(),
		SKU:          m.SKU,
		MovementType: string(m.Type),
		Quantity:     m.Quantity,
		Reference:    m.Reference,
		Reason:       m.Reason,
		Responsible:  m.Responsible,
		Notes:        m.Notes,
		Date:         m.Date,
		CreatedAt:    m.CreatedAt,
	}
	if m.UnitCost != nil {
		cost := types.Round2(*m.UnitCost)
		resp.UnitCost = &cost
	}
	if m.WarehouseID != nil {
		resp.WarehouseID = m.WarehouseID.String()
	}
	if m.TargetWarehouseID != nil {
		resp.TargetWarehouseID = m.TargetWarehouseID.String()
	}
	return resp
}

// RebuildStockResponse reports the recomputed ledger sum for a SKU.
type RebuildStockResponse struct {
	SKU          string `json:"sku"`
	StockCurrent int64  `json:"stockCurrent"`
}
