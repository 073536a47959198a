package handlers

import (
	"github.com/gin-gonic/gin"

	"comercia/internal/core/types"
	"comercia/internal/domain/purchasing"
	"comercia/internal/infrastructure/http/v1/dto"
)

// PurchasingHandler handles the purchasing lifecycle endpoints.
type PurchasingHandler struct {
	*BaseHandler
	service *purchasing.Service
	taxRate types.TaxRate
}

// NewPurchasingHandler creates a new purchasing handler.
func NewPurchasingHandler(base *BaseHandler, service *purchasing.Service, taxRate types.TaxRate) *PurchasingHandler {
	return &PurchasingHandler{
		BaseHandler: base,
		service:     service,
		taxRate:     taxRate,
	}
}

// --- Orders ---

// ListOrders handles GET /purchasing/orders
func (h *PurchasingHandler) ListOrders(c *gin.Context) {
	result, err := h.service.ListOrders(c.Request.Context(), h.DocumentFilter(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.PurchaseOrderResponse, len(result.Items))
	for i, o := range result.Items {
		items[i] = dto.FromPurchaseOrder(o)
	}
	h.OK(c, dto.NewListResponse(items, result.TotalCount, result.Page(), result.Pages()))
}

// GetOrder handles GET /purchasing/orders/:number
func (h *PurchasingHandler) GetOrder(c *gin.Context) {
	o, err := h.service.GetOrder(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromPurchaseOrder(o))
}

// CreateOrder handles POST /purchasing/orders
func (h *PurchasingHandler) CreateOrder(c *gin.Context) {
	var req dto.CreatePurchaseOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	o, err := req.ToEntity()
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.CreateOrder(c.Request.Context(), o); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromPurchaseOrder(o))
}

// DeleteOrder handles DELETE /purchasing/orders/:number
func (h *PurchasingHandler) DeleteOrder(c *gin.Context) {
	if err := h.service.DeleteOrder(c.Request.Context(), c.Param("number")); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// CreateInvoice handles POST /purchasing/orders/:number/invoice
func (h *PurchasingHandler) CreateInvoice(c *gin.Context) {
	inv, err := h.service.CreateInvoice(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromPurchaseInvoice(inv, h.taxRate))
}

// --- Invoices ---

// ListInvoices handles GET /purchasing/invoices
func (h *PurchasingHandler) ListInvoices(c *gin.Context) {
	result, err := h.service.ListInvoices(c.Request.Context(), h.DocumentFilter(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.PurchaseInvoiceResponse, len(result.Items))
	for i, inv := range result.Items {
		items[i] = dto.FromPurchaseInvoice(inv, h.taxRate)
	}
	h.OK(c, dto.NewListResponse(items, result.TotalCount, result.Page(), result.Pages()))
}

// GetInvoice handles GET /purchasing/invoices/:number
func (h *PurchasingHandler) GetInvoice(c *gin.Context) {
	inv, err := h.service.GetInvoice(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromPurchaseInvoice(inv, h.taxRate))
}

// RecordPayment handles POST /purchasing/invoices/:number/payments
func (h *PurchasingHandler) RecordPayment(c *gin.Context) {
	var req dto.PaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	inv, err := h.service.RecordPayment(c.Request.Context(), c.Param("number"), req.Amount, req.Date, req.Notes)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromPurchaseInvoice(inv, h.taxRate))
}

// RegisterReception handles POST /purchasing/invoices/:number/receive
func (h *PurchasingHandler) RegisterReception(c *gin.Context) {
	inv, err := h.service.RegisterReception(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromPurchaseInvoice(inv, h.taxRate))
}

// --- Debit notes ---

// CreateDebitNote handles POST /purchasing/invoices/:number/debit-notes
func (h *PurchasingHandler) CreateDebitNote(c *gin.Context) {
	var req dto.CreateDebitNoteRequest
	if !h.BindJSON(c, &req) {
		return
	}

	note, err := h.service.CreateDebitNote(c.Request.Context(), c.Param("number"), req.ToServiceRequest())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromDebitNote(note))
}

// ListDebitNotes handles GET /purchasing/debit-notes
func (h *PurchasingHandler) ListDebitNotes(c *gin.Context) {
	result, err := h.service.ListDebitNotes(c.Request.Context(), h.DocumentFilter(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.DebitNoteResponse, len(result.Items))
	for i, n := range result.Items {
		items[i] = dto.FromDebitNote(n)
	}
	h.OK(c, dto.NewListResponse(items, result.TotalCount, result.Page(), result.Pages()))
}

// GetDebitNote handles GET /purchasing/debit-notes/:number
func (h *PurchasingHandler) GetDebitNote(c *gin.Context) {
	note, err := h.service.GetDebitNote(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromDebitNote(note))
}
