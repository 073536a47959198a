package dto

import (
	"time"

	"comercia/internal/core/apperror"
	"comercia/internal/core/id"
	"comercia/internal/core/types"
	"comercia/internal/domain/sales"
)

// --- Orders ---

// OrderLineRequest is one position of an order create request.
type OrderLineRequest struct {
	SKU       string      `json:"sku" binding:"required"`
	Quantity  int64       `json:"quantity" binding:"required,min=1"`
	UnitPrice types.Money `json:"unitPrice"`
}

// CreateSalesOrderRequest creates a pending sales order.
type CreateSalesOrderRequest struct {
	CustomerID      string             `json:"customerId" binding:"required"`
	CustomerName    string             `json:"customerName"`
	DeliveryAddress string             `json:"deliveryAddress"`
	Branch          string             `json:"branch"`
	Lines           []OrderLineRequest `json:"lines" binding:"required"`
	Comment         string             `json:"comment"`
}

// ToEntity maps the request to a domain order.
func (r CreateSalesOrderRequest) ToEntity() (*sales.Order, error) {
	customerID, err := id.Parse(r.CustomerID)
	if err != nil {
		return nil, apperror.NewValidation("invalid customer id").WithDetail("field", "customerId")
	}

	lines := make([]sales.OrderLine, len(r.Lines))
	for i, l := range r.Lines {
		lines[i] = sales.OrderLine{SKU: l.SKU, Quantity: l.Quantity, UnitPrice: l.UnitPrice}
	}

	o := sales.NewOrder(customerID, r.CustomerName, lines)
	o.DeliveryAddress = r.DeliveryAddress
	o.Branch = r.Branch
	o.Comment = r.Comment
	return o, nil
}

// SalesOrderResponse is the API shape of a sales order.
type SalesOrderResponse struct {
	Number          string            `json:"number"`
	Date            time.Time         `json:"date"`
	CustomerID      string            `json:"customerId"`
	CustomerName    string            `json:"customerName"`
	DeliveryAddress string            `json:"deliveryAddress,omitempty"`
	Branch          string            `json:"branch,omitempty"`
	Status          string            `json:"status"`
	Lines           []sales.OrderLine `json:"lines"`
	TotalAmount     types.Money       `json:"totalAmount"`
	Comment         string            `json:"comment,omitempty"`
	Version         int               `json:"version"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

// FromSalesOrder maps a domain order to its response shape.
func FromSalesOrder(o *sales.Order) SalesOrderResponse {
	return SalesOrderResponse{
		Number:          o.Number,
		Date:            o.Date,
		CustomerID:      o.CustomerID.String(),
		CustomerName:    o.CustomerName,
		DeliveryAddress: o.DeliveryAddress,
		Branch:          o.Branch,
		Status:          string(o.Status),
		Lines:           o.Lines,
		TotalAmount:     types.Round2(o.TotalAmount),
		Comment:         o.Comment,
		Version:         o.Version,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

// --- Invoices ---

// PaymentRequest records one payment against an invoice.
type PaymentRequest struct {
	Amount types.Money `json:"amount" binding:"required"`
	Date   time.Time   `json:"date"`
	Notes  string      `json:"notes"`
}

// DispatchRequest marks an invoice dispatched.
type DispatchRequest struct {
	Carrier      string `json:"carrier" binding:"required"`
	VehiclePlate string `json:"vehiclePlate"`
}

// SalesInvoiceResponse is the API shape of a sales invoice. Subtotal and
// tax are derived from the tax-inclusive total at response time.
type SalesInvoiceResponse struct {
	Number       string `json:"number"`
	OrderNumber  string `json:"orderNumber"`
	Date         time.Time `json:"date"`
	CustomerID   string `json:"customerId"`
	CustomerName string `json:"customerName"`

	Lines []sales.InvoiceLine `json:"lines"`

	TotalAmount   types.Money `json:"totalAmount"`
	Subtotal      types.Money `json:"subtotal"`
	Tax           types.Money `json:"tax"`
	AmountPaid    types.Money `json:"amountPaid"`
	CreditApplied types.Money `json:"creditApplied"`
	Outstanding   types.Money `json:"outstanding"`

	Payments      []sales.Payment `json:"payments"`
	PaymentStatus string          `json:"paymentStatus"`

	DispatchStatus string     `json:"dispatchStatus"`
	Carrier        string     `json:"carrier,omitempty"`
	VehiclePlate   string     `json:"vehiclePlate,omitempty"`
	DispatchedAt   *time.Time `json:"dispatchedAt,omitempty"`

	CreditNoteNumbers []string `json:"creditNoteNumbers,omitempty"`
	Version           int      `json:"version"`
}

// FromSalesInvoice maps a domain invoice to its response shape.
func FromSalesInvoice(inv *sales.Invoice, rate types.TaxRate) SalesInvoiceResponse {
	subtotal, tax := rate.Split(inv.TotalAmount)
	return SalesInvoiceResponse{
		Number:            inv.Number,
		OrderNumber:       inv.OrderNumber,
		Date:              inv.Date,
		CustomerID:        inv.CustomerID.String(),
		CustomerName:      inv.CustomerName,
		Lines:             inv.Lines,
		TotalAmount:       types.Round2(inv.TotalAmount),
		Subtotal:          subtotal,
		Tax:               tax,
		AmountPaid:        types.Round2(inv.AmountPaid),
		CreditApplied:     types.Round2(inv.CreditApplied),
		Outstanding:       types.Round2(inv.Outstanding()),
		Payments:          inv.Payments,
		PaymentStatus:     string(inv.PaymentStatus),
		DispatchStatus:    string(inv.DispatchStatus),
		Carrier:           inv.Carrier,
		VehiclePlate:      inv.VehiclePlate,
		DispatchedAt:      inv.DispatchedAt,
		CreditNoteNumbers: inv.CreditNoteNumbers,
		Version:           inv.Version,
	}
}

// --- Credit notes ---

// CreditNoteLineRequest credits quantity units of an invoice line.
type CreditNoteLineRequest struct {
	SKU      string `json:"sku" binding:"required"`
	Quantity int64  `json:"quantity" binding:"required,min=1"`
}

// CreateCreditNoteRequest issues a credit note against an invoice.
type CreateCreditNoteRequest struct {
	Reason string                  `json:"reason" binding:"required"`
	Lines  []CreditNoteLineRequest `json:"lines" binding:"required"`
	Notes  string                  `json:"notes"`
}

// ToServiceRequest maps the request to the service input.
func (r CreateCreditNoteRequest) ToServiceRequest() sales.CreditNoteRequest {
	lines := make([]sales.CreditNoteRequestLine, len(r.Lines))
	for i, l := range r.Lines {
		lines[i] = sales.CreditNoteRequestLine{SKU: l.SKU, Quantity: l.Quantity}
	}
	return sales.CreditNoteRequest{
		Reason: sales.CreditNoteReason(r.Reason),
		Lines:  lines,
		Notes:  r.Notes,
	}
}

// CreditNoteResponse is the API shape of a credit note.
type CreditNoteResponse struct {
	Number        string                 `json:"number"`
	Date          time.Time              `json:"date"`
	InvoiceNumber string                 `json:"invoiceNumber"`
	CustomerName  string                 `json:"customerName"`
	Reason        string                 `json:"reason"`
	Lines         []sales.CreditNoteLine `json:"lines"`
	TotalAmount   types.Money            `json:"totalAmount"`
	Comment       string                 `json:"comment,omitempty"`
}

// FromCreditNote maps a domain credit note to its response shape.
func FromCreditNote(n *sales.CreditNote) CreditNoteResponse {
	return CreditNoteResponse{
		Number:        n.Number,
		Date:          n.Date,
		InvoiceNumber: n.InvoiceNumber,
		CustomerName:  n.CustomerName,
		Reason:        string(n.Reason),
		Lines:         n.Lines,
		TotalAmount:   types.Round2(n.TotalAmount),
		Comment:       n.Comment,
	}
}
