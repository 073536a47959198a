package dto

import (
	"time"

	"comercia/internal/core/apperror"
	"comercia/internal/core/id"
	"comercia/internal/core/types"
	"comercia/internal/domain/purchasing"
)

// --- Orders ---

// PurchaseLineRequest is one position of a purchase order create request.
type PurchaseLineRequest struct {
	SKU      string      `json:"sku" binding:"required"`
	Quantity int64       `json:"quantity" binding:"required,min=1"`
	UnitCost types.Money `json:"unitCost"`
}

// CreatePurchaseOrderRequest creates a pending purchase order.
type CreatePurchaseOrderRequest struct {
	SupplierID   string                `json:"supplierId" binding:"required"`
	SupplierName string                `json:"supplierName"`
	Lines        []PurchaseLineRequest `json:"lines" binding:"required"`
	Comment      string                `json:"comment"`
}

// ToEntity maps the request to a domain order.
func (r CreatePurchaseOrderRequest) ToEntity() (*purchasing.Order, error) {
	supplierID, err := id.Parse(r.SupplierID)
	if err != nil {
		return nil, apperror.NewValidation("invalid supplier id").WithDetail("field", "supplierId")
	}

	lines := make([]purchasing.OrderLine, len(r.Lines))
	for i, l := range r.Lines {
		lines[i] = purchasing.OrderLine{SKU: l.SKU, Quantity: l.Quantity, UnitCost: l.UnitCost}
	}

	o := purchasing.NewOrder(supplierID, r.SupplierName, lines)
	o.Comment = r.Comment
	return o, nil
}

// PurchaseOrderResponse is the API shape of a purchase order.
type PurchaseOrderResponse struct {
	Number       string                 `json:"number"`
	Date         time.Time              `json:"date"`
	SupplierID   string                 `json:"supplierId"`
	SupplierName string                 `json:"supplierName"`
	Status       string                 `json:"status"`
	Lines        []purchasing.OrderLine `json:"lines"`
	TotalAmount  types.Money            `json:"totalAmount"`
	Comment      string                 `json:"comment,omitempty"`
	Version      int                    `json:"version"`
	CreatedAt    time.Time              `json:"createdAt"`
	UpdatedAt    time.Time              `json:"updatedAt"`
}

// FromPurchaseOrder maps a domain order to its response shape.
func FromPurchaseOrder(o *purchasing.Order) PurchaseOrderResponse {
	return PurchaseOrderResponse{
		Number:       o.Number,
		Date:         o.Date,
		SupplierID:   o.SupplierID.String(),
		SupplierName: o.SupplierName,
		Status:       string(o.Status),
		Lines:        o.Lines,
		TotalAmount:  types.Round2(o.TotalAmount),
		Comment:      o.Comment,
		Version:      o.Version,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
}

// --- Invoices ---

// PurchaseInvoiceResponse is the API shape of a purchase invoice.
type PurchaseInvoiceResponse struct {
	Number       string    `json:"number"`
	OrderNumber  string    `json:"orderNumber"`
	Date         time.Time `json:"date"`
	SupplierID   string    `json:"supplierId"`
	SupplierName string    `json:"supplierName"`

	Lines []purchasing.InvoiceLine `json:"lines"`

	TotalAmount  types.Money `json:"totalAmount"`
	Subtotal     types.Money `json:"subtotal"`
	Tax          types.Money `json:"tax"`
	AmountPaid   types.Money `json:"amountPaid"`
	DebitApplied types.Money `json:"debitApplied"`
	Outstanding  types.Money `json:"outstanding"`

	Payments      []purchasing.Payment `json:"payments"`
	PaymentStatus string               `json:"paymentStatus"`

	ReceptionStatus string     `json:"receptionStatus"`
	ReceivedAt      *time.Time `json:"receivedAt,omitempty"`

	DebitNoteNumbers []string `json:"debitNoteNumbers,omitempty"`
	Version          int      `json:"version"`
}

// FromPurchaseInvoice maps a domain invoice to its response shape.
func FromPurchaseInvoice(inv *purchasing.Invoice, rate types.TaxRate) PurchaseInvoiceResponse {
	subtotal, tax := rate.Split(inv.TotalAmount)
	return PurchaseInvoiceResponse{
		Number:           inv.Number,
		OrderNumber:      inv.OrderNumber,
		Date:             inv.Date,
		SupplierID:       inv.SupplierID.String(),
		SupplierName:     inv.SupplierName,
		Lines:            inv.Lines,
		TotalAmount:      types.Round2(inv.TotalAmount),
		Subtotal:         subtotal,
		Tax:              tax,
		AmountPaid:       types.Round2(inv.AmountPaid),
		DebitApplied:     types.Round2(inv.DebitApplied),
		Outstanding:      types.Round2(inv.Outstanding()),
		Payments:         inv.Payments,
		PaymentStatus:    string(inv.PaymentStatus),
		ReceptionStatus:  string(inv.ReceptionStatus),
		ReceivedAt:       inv.ReceivedAt,
		DebitNoteNumbers: inv.DebitNoteNumbers,
		Version:          inv.Version,
	}
}

// --- Debit notes ---

// DebitNoteLineRequest debits quantity units at an optional cost
// override; the invoice line cost applies when omitted.
type DebitNoteLineRequest struct {
	SKU      string       `json:"sku" binding:"required"`
	Quantity int64        `json:"quantity" binding:"required,min=1"`
	UnitCost *types.Money `json:"unitCost"`
}

// CreateDebitNoteRequest issues a debit note against an invoice.
type CreateDebitNoteRequest struct {
	Reason string                 `json:"reason" binding:"required"`
	Lines  []DebitNoteLineRequest `json:"lines" binding:"required"`
	Notes  string                 `json:"notes"`
}

// ToServiceRequest maps the request to the service input.
func (r CreateDebitNoteRequest) ToServiceRequest() purchasing.DebitNoteRequest {
	lines := make([]purchasing.DebitNoteRequestLine, len(r.Lines))
	for i, l := range r.Lines {
		lines[i] = purchasing.DebitNoteRequestLine{SKU: l.SKU, Quantity: l.Quantity, UnitCost: l.UnitCost}
	}
	return purchasing.DebitNoteRequest{
		Reason: purchasing.DebitNoteReason(r.Reason),
		Lines:  lines,
		Notes:  r.Notes,
	}
}

// DebitNoteResponse is the API shape of a debit note.
type DebitNoteResponse struct {
	Number        string                     `json:"number"`
	Date          time.Time                  `json:"date"`
	InvoiceNumber string                     `json:"invoiceNumber"`
	SupplierName  string                     `json:"supplierName"`
	Reason        string                     `json:"reason"`
	Lines         []purchasing.DebitNoteLine `json:"lines"`
	TotalAmount   types.Money                `json:"totalAmount"`
	Comment       string                     `json:"comment,omitempty"`
}

// FromDebitNote maps a domain debit note to its response shape.
func FromDebitNote(n *purchasing.DebitNote) DebitNoteResponse {
	return DebitNoteResponse{
		Number:        n.Number,
		Date:          n.Date,
		InvoiceNumber: n.InvoiceNumber,
		SupplierName:  n.SupplierName,
		Reason:        string(n.Reason),
		Lines:         n.Lines,
		TotalAmount:   types.Round2(n.TotalAmount),
		Comment:       n.Comment,
	}
}
