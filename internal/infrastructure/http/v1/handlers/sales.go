package handlers

import (
	"github.com/gin-gonic/gin"

	"comercia/internal/core/types"
	"comercia/internal/domain/sales"
	"comercia/internal/infrastructure/http/v1/dto"
)

// SalesHandler handles the sales lifecycle endpoints.
type SalesHandler struct {
	*BaseHandler
	service *sales.Service
	taxRate types.TaxRate
}

// NewSalesHandler creates a new sales handler.
func NewSalesHandler(base *BaseHandler, service *sales.Service, taxRate types.TaxRate) *SalesHandler {
	return &SalesHandler{
		BaseHandler: base,
		service:     service,
		taxRate:     taxRate,
	}
}

// --- Orders ---

// ListOrders handles GET /sales/orders
func (h *SalesHandler) ListOrders(c *gin.Context) {
	result, err := h.service.ListOrders(c.Request.Context(), h.DocumentFilter(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.SalesOrderResponse, len(result.Items))
	for i, o := range result.Items {
		items[i] = dto.FromSalesOrder(o)
	}
	h.OK(c, dto.NewListResponse(items, result.TotalCount, result.Page(), result.Pages()))
}

// GetOrder handles GET /sales/orders/:number
func (h *SalesHandler) GetOrder(c *gin.Context) {
	o, err := h.service.GetOrder(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromSalesOrder(o))
}

// CreateOrder handles POST /sales/orders
func (h *SalesHandler) CreateOrder(c *gin.Context) {
	var req dto.CreateSalesOrderRequest
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

	h.Created(c, dto.FromSalesOrder(o))
}

// DeleteOrder handles DELETE /sales/orders/:number
func (h *SalesHandler) DeleteOrder(c *gin.Context) {
	if err := h.service.DeleteOrder(c.Request.Context(), c.Param("number")); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// CreateInvoice handles POST /sales/orders/:number/invoice
func (h *SalesHandler) CreateInvoice(c *gin.Context) {
	inv, err := h.service.CreateInvoice(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromSalesInvoice(inv, h.taxRate))
}

// --- Invoices ---

// ListInvoices handles GET /sales/invoices
func (h *SalesHandler) ListInvoices(c *gin.Context) {
	result, err := h.service.ListInvoices(c.Request.Context(), h.DocumentFilter(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.SalesInvoiceResponse, len(result.Items))
	for i, inv := range result.Items {
		items[i] = dto.FromSalesInvoice(inv, h.taxRate)
	}
	h.OK(c, dto.NewListResponse(items, result.TotalCount, result.Page(), result.Pages()))
}

// GetInvoice handles GET /sales/invoices/:number
func (h *SalesHandler) GetInvoice(c *gin.Context) {
	inv, err := h.service.GetInvoice(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromSalesInvoice(inv, h.taxRate))
}

// RecordPayment handles POST /sales/invoices/:number/payments
func (h *SalesHandler) RecordPayment(c *gin.Context) {
	var req dto.PaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	inv, err := h.service.RecordPayment(c.Request.Context(), c.Param("number"), req.Amount, req.Date, req.Notes)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromSalesInvoice(inv, h.taxRate))
}

// Dispatch handles POST /sales/invoices/:number/dispatch
func (h *SalesHandler) Dispatch(c *gin.Context) {
	var req dto.DispatchRequest
	if !h.BindJSON(c, &req) {
		return
	}

	inv, err := h.service.Dispatch(c.Request.Context(), c.Param("number"), req.Carrier, req.VehiclePlate)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromSalesInvoice(inv, h.taxRate))
}

// --- Credit notes ---

// CreateCreditNote handles POST /sales/invoices/:number/credit-notes
func (h *SalesHandler) CreateCreditNote(c *gin.Context) {
	var req dto.CreateCreditNoteRequest
	if !h.BindJSON(c, &req) {
		return
	}

	note, err := h.service.CreateCreditNote(c.Request.Context(), c.Param("number"), req.ToServiceRequest())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromCreditNote(note))
}

// ListCreditNotes handles GET /sales/credit-notes
func (h *SalesHandler) ListCreditNotes(c *gin.Context) {
	result, err := h.service.ListCreditNotes(c.Request.Context(), h.DocumentFilter(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.CreditNoteResponse, len(result.Items))
	for i, n := range result.Items {
		items[i] = dto.FromCreditNote(n)
	}
	h.OK(c, dto.NewListResponse(items, result.TotalCount, result.Page(), result.Pages()))
}

// GetCreditNote handles GET /sales/credit-notes/:number
func (h *SalesHandler) GetCreditNote(c *gin.Context) {
	note, err := h.service.GetCreditNote(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromCreditNote(note))
}
