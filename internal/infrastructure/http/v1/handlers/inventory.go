package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"comercia/internal/core/apperror"
	"comercia/internal/core/id"
	"comercia/internal/domain/inventory"
	"comercia/internal/infrastructure/http/v1/dto"
)

// InventoryHandler handles stock ledger endpoints.
type InventoryHandler struct {
	*BaseHandler
	service *inventory.Service
}

// NewInventoryHandler creates a new inventory handler.
func NewInventoryHandler(base *BaseHandler, service *inventory.Service) *InventoryHandler {
	return &InventoryHandler{
		BaseHandler: base,
		service:     service,
	}
}

// ListMovements handles GET /inventory/stock-movements
func (h *InventoryHandler) ListMovements(c *gin.Context) {
	page := h.PageQuery(c)
	filter := inventory.MovementFilter{
		SKU:    c.Query("sku"),
		Type:   inventory.MovementType(c.Query("movementType")),
		Limit:  page.Limit,
		Offset: page.Offset(),
	}
	if from, err := time.Parse(time.RFC3339, c.Query("dateFrom")); err == nil {
		filter.DateFrom = &from
	}
	if to, err := time.Parse(time.RFC3339, c.Query("dateTo")); err == nil {
		filter.DateTo = &to
	}

	result, err := h.service.History(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.MovementResponse, len(result.Items))
	for i, m := range result.Items {
		items[i] = dto.FromMovement(m)
	}
	h.OK(c, dto.NewListResponse(items, result.TotalCount, result.Page(), result.Pages()))
}

// CreateMovement handles POST /inventory/stock-movements.
// ADJUSTMENT goes through the manual correction path; transfers have
// their own endpoint.
func (h *InventoryHandler) CreateMovement(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateMovementRequest
	if !h.BindJSON(c, &req) {
		return
	}

	movementType := inventory.MovementType(req.MovementType)

	if movementType == inventory.Adjustment {
		m, err := h.service.Adjust(ctx, req.SKU, req.Quantity, req.Reason, req.Responsible)
		if err != nil {
			h.Error(c, err)
			return
		}
		h.Created(c, dto.FromMovement(m))
		return
	}

	if req.Reference == "" {
		h.Error(c, apperror.NewValidation("reference is required").WithDetail("field", "reference"))
		return
	}

	opts := inventory.AppendOptions{
		UnitCost:    req.UnitCost,
		Reason:      req.Reason,
		Responsible: req.Responsible,
		Notes:       req.Notes,
		Date:        req.Date,
	}
	if req.WarehouseID != "" {
		whID, err := id.Parse(req.WarehouseID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid warehouse id").WithDetail("field", "warehouseId"))
			return
		}
		opts.WarehouseID = &whID
	}

	m, err := h.service.Append(ctx, req.SKU, movementType, req.Quantity, req.Reference, opts)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromMovement(m))
}

// Transfer handles POST /inventory/stock-movements/transfer
func (h *InventoryHandler) Transfer(c *gin.Context) {
	var req dto.TransferRequest
	if !h.BindJSON(c, &req) {
		return
	}

	sourceID, err := id.Parse(req.SourceWarehouseID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid source warehouse id").WithDetail("field", "sourceWarehouseId"))
		return
	}
	targetID, err := id.Parse(req.TargetWarehouseID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid target warehouse id").WithDetail("field", "targetWarehouseId"))
		return
	}

	reference, err := h.service.Transfer(c.Request.Context(), sourceID, targetID, req.SKU, req.Quantity, req.Notes)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.TransferResponse{Reference: reference})
}

// RebuildStock handles POST /inventory/products/:sku/rebuild-stock.
// Recomputes stock_current from the ledger sum.
func (h *InventoryHandler) RebuildStock(c *gin.Context) {
	sku := c.Param("sku")

	sum, err := h.service.RebuildStock(c.Request.Context(), sku)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.RebuildStockResponse{SKU: sku, StockCurrent: sum})
}
