// Package sales implements the sales lifecycle:
// order -> invoice -> payments -> dispatch, with credit notes applied
// against invoices.
package sales

import (
	"context"
	"time"

	"comercia/internal/core/apperror"
	"comercia/internal/core/entity"
	"comercia/internal/core/id"
	"comercia/internal/core/types"
)

// OrderStatus is the order lifecycle axis.
type OrderStatus string

const (
	OrderPending OrderStatus = "PENDING"
	// OrderInvoiced orders are frozen; their invoice carries the rest of the lifecycle
	OrderInvoiced OrderStatus = "INVOICED"
	// OrderCancelled is reserved; no transition produces it yet
	OrderCancelled OrderStatus = "CANCELLED"
)

// DispatchStatus is the fulfillment axis of a sales invoice.
type DispatchStatus string

const (
	DispatchPending    DispatchStatus = "PENDING"
	DispatchDispatched DispatchStatus = "DISPATCHED"
)

// CreditNoteReason is the closed set of credit note causes.
type CreditNoteReason string

const (
	// ReasonReturn restores stock via SALE_RETURN movements
	ReasonReturn       CreditNoteReason = "RETURN"
	ReasonPricingError CreditNoteReason = "PRICING_ERROR"
	ReasonDiscount     CreditNoteReason = "DISCOUNT"
	ReasonDamaged      CreditNoteReason = "DAMAGED"
	ReasonOther        CreditNoteReason = "OTHER"
)

// IsValidCreditNoteReason reports whether r is a known reason.
func IsValidCreditNoteReason(r CreditNoteReason) bool {
	switch r {
	case ReasonReturn, ReasonPricingError, ReasonDiscount, ReasonDamaged, ReasonOther:
		return true
	}
	return false
}

// OrderLine is one position of a sales order. Stored as JSONB.
type OrderLine struct {
	SKU       string      `json:"sku"`
	Quantity  int64       `json:"quantity"`
	UnitPrice types.Money `json:"unitPrice"`
	Subtotal  types.Money `json:"subtotal"`
}

// Order is a customer's intent to buy. Immutable once invoiced.
type Order struct {
	entity.Document

	CustomerID   id.ID  `db:"customer_id" json:"customerId"`
	CustomerName string `db:"customer_name" json:"customerName"`

	DeliveryAddress string `db:"delivery_address" json:"deliveryAddress,omitempty"`
	Branch          string `db:"branch" json:"branch,omitempty"`

	Lines  []OrderLine `db:"lines" json:"lines"`
	Status OrderStatus `db:"status" json:"status"`

	TotalAmount types.Money `db:"total_amount" json:"totalAmount"`
}

// NewOrder creates a pending order for a customer.
func NewOrder(customerID id.ID, customerName string, lines []OrderLine) *Order {
	o := &Order{
		Document:     entity.NewDocument(),
		CustomerID:   customerID,
		CustomerName: customerName,
		Lines:        lines,
		Status:       OrderPending,
	}
	o.Recalculate()
	return o
}

// Recalculate refreshes line subtotals and the order total.
func (o *Order) Recalculate() {
	total := types.Zero()
	for i := range o.Lines {
		line := &o.Lines[i]
		line.Subtotal = types.Round3(line.UnitPrice.Mul(types.FromInt(line.Quantity)))
		total = total.Add(line.Subtotal)
	}
	o.TotalAmount = types.Round3(total)
}

// Validate implements entity.Validatable.
func (o *Order) Validate(ctx context.Context) error {
	if err := o.Document.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(o.CustomerID) {
		return apperror.NewValidation("customer is required").WithDetail("field", "customerId")
	}
	return validateLines(o.Lines)
}

func validateLines(lines []OrderLine) error {
	if len(lines) == 0 {
		return apperror.NewValidation("at least one line is required").WithDetail("field", "lines")
	}
	for i, line := range lines {
		if line.SKU == "" {
			return apperror.NewValidation("line sku is required").
				WithDetail("field", "lines").WithDetail("index", i)
		}
		if line.Quantity <= 0 {
			return apperror.NewValidation("line quantity must be positive").
				WithDetail("field", "lines").WithDetail("index", i)
		}
		if !line.UnitPrice.IsPositive() {
			return apperror.NewValidation("line unit price must be positive").
				WithDetail("field", "lines").WithDetail("index", i)
		}
	}
	return nil
}

// Payment is one settlement entry on an invoice. Stored as JSONB, append-only.
type Payment struct {
	Amount types.Money `json:"amount"`
	Date   time.Time   `json:"date"`
	Notes  string      `json:"notes,omitempty"`
}

// InvoiceLine extends an order line with the quantity already credited
// by credit notes.
type InvoiceLine struct {
	OrderLine
	CreditedQuantity int64 `json:"creditedQuantity"`
}

// RemainingQuantity returns the uncredited part of the line.
func (l InvoiceLine) RemainingQuantity() int64 {
	return l.Quantity - l.CreditedQuantity
}

// Invoice is the fiscal document for an order. Lines and total are copied
// from the order at creation and never edited afterwards; payments and
// credit notes only move the settlement axes.
type Invoice struct {
	entity.Document

	OrderNumber  string `db:"order_number" json:"orderNumber"`
	CustomerID   id.ID  `db:"customer_id" json:"customerId"`
	CustomerName string `db:"customer_name" json:"customerName"`

	Lines []InvoiceLine `db:"lines" json:"lines"`

	TotalAmount   types.Money `db:"total_amount" json:"totalAmount"`
	AmountPaid    types.Money `db:"amount_paid" json:"amountPaid"`
	CreditApplied types.Money `db:"credit_applied" json:"creditApplied"`

	Payments      []Payment            `db:"payments" json:"payments"`
	PaymentStatus entity.PaymentStatus `db:"payment_status" json:"paymentStatus"`

	DispatchStatus DispatchStatus `db:"dispatch_status" json:"dispatchStatus"`
	Carrier        string         `db:"carrier" json:"carrier,omitempty"`
	VehiclePlate   string         `db:"vehicle_plate" json:"vehiclePlate,omitempty"`
	DispatchedAt   *time.Time     `db:"dispatched_at" json:"dispatchedAt,omitempty"`

	CreditNoteNumbers []string `db:"credit_note_numbers" json:"creditNoteNumbers,omitempty"`
}

// NewInvoiceFromOrder copies the order into a fresh invoice.
func NewInvoiceFromOrder(o *Order) *Invoice {
	lines := make([]InvoiceLine, len(o.Lines))
	for i, l := range o.Lines {
		lines[i] = InvoiceLine{OrderLine: l}
	}
	return &Invoice{
		Document:       entity.NewDocument(),
		OrderNumber:    o.Number,
		CustomerID:     o.CustomerID,
		CustomerName:   o.CustomerName,
		Lines:          lines,
		TotalAmount:    o.TotalAmount,
		AmountPaid:     types.Zero(),
		CreditApplied:  types.Zero(),
		PaymentStatus:  entity.PaymentPending,
		DispatchStatus: DispatchPending,
	}
}

// Outstanding returns the unpaid part of the effective payable.
func (inv *Invoice) Outstanding() types.Money {
	return entity.OutstandingBalance(inv.TotalAmount, inv.AmountPaid, inv.CreditApplied, types.Zero())
}

// RefreshPaymentStatus re-derives the payment axis.
func (inv *Invoice) RefreshPaymentStatus() {
	inv.PaymentStatus = entity.DerivePaymentStatus(inv.TotalAmount, inv.AmountPaid, inv.CreditApplied, types.Zero())
}

// FindLine returns a pointer to the line with the given SKU.
func (inv *Invoice) FindLine(sku string) *InvoiceLine {
	for i := range inv.Lines {
		if inv.Lines[i].SKU == sku {
			return &inv.Lines[i]
		}
	}
	return nil
}

// Validate implements entity.Validatable.
func (inv *Invoice) Validate(ctx context.Context) error {
	if err := inv.Document.Validate(ctx); err != nil {
		return err
	}
	if inv.OrderNumber == "" {
		return apperror.NewValidation("order number is required").WithDetail("field", "orderNumber")
	}
	if len(inv.Lines) == 0 {
		return apperror.NewValidation("invoice has no lines").WithDetail("field", "lines")
	}
	return nil
}

// CreditNoteLine is one credited position.
type CreditNoteLine struct {
	SKU       string      `json:"sku"`
	Quantity  int64       `json:"quantity"`
	UnitPrice types.Money `json:"unitPrice"`
	Subtotal  types.Money `json:"subtotal"`
}

// CreditNote reduces the effective payable of a sales invoice.
type CreditNote struct {
	entity.Document

	InvoiceNumber string           `db:"invoice_number" json:"invoiceNumber"`
	CustomerName  string           `db:"customer_name" json:"customerName"`
	Reason        CreditNoteReason `db:"reason" json:"reason"`
	Lines         []CreditNoteLine `db:"lines" json:"lines"`
	TotalAmount   types.Money      `db:"total_amount" json:"totalAmount"`
}

// Validate implements entity.Validatable.
func (n *CreditNote) Validate(ctx context.Context) error {
	if err := n.Document.Validate(ctx); err != nil {
		return err
	}
	if n.InvoiceNumber == "" {
		return apperror.NewValidation("invoice number is required").WithDetail("field", "invoiceNumber")
	}
	if !IsValidCreditNoteReason(n.Reason) {
		return apperror.NewValidation("invalid credit note reason").
			WithDetail("field", "reason").WithDetail("value", string(n.Reason))
	}
	if len(n.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").WithDetail("field", "lines")
	}
	for i, l := range n.Lines {
		if l.SKU == "" || l.Quantity <= 0 {
			return apperror.NewValidation("invalid credit note line").
				WithDetail("field", "lines").WithDetail("index", i)
		}
	}
	return nil
}
