// Package purchasing implements the procurement lifecycle:
// order -> invoice -> payments -> reception, with debit notes applied
// against invoices.
package purchasing

import (
	"context"
	"time"

	"comercia/internal/core/apperror"
	"comercia/internal/core/entity"
	"comercia/internal/core/id"
	"comercia/internal/core/types"
)

// OrderStatus is the purchase order lifecycle axis.
type OrderStatus string

const (
	OrderPending OrderStatus = "PENDING"
	// OrderInvoiced orders are frozen; their invoice carries the rest of the lifecycle
	OrderInvoiced OrderStatus = "INVOICED"
	// OrderCancelled is reserved; no transition produces it yet
	OrderCancelled OrderStatus = "CANCELLED"
)

// ReceptionStatus is the fulfillment axis of a purchase invoice.
type ReceptionStatus string

const (
	ReceptionPending  ReceptionStatus = "PENDING"
	ReceptionReceived ReceptionStatus = "RECEIVED"
)

// DebitNoteReason is the closed set of debit note causes.
type DebitNoteReason string

const (
	ReasonPriceAdjustment DebitNoteReason = "PRICE_ADJUSTMENT"
	ReasonAdditionalCosts DebitNoteReason = "ADDITIONAL_COSTS"
	ReasonInterest        DebitNoteReason = "INTEREST"
	ReasonOther           DebitNoteReason = "OTHER"
)

// IsValidDebitNoteReason reports whether r is a known reason.
func IsValidDebitNoteReason(r DebitNoteReason) bool {
	switch r {
	case ReasonPriceAdjustment, ReasonAdditionalCosts, ReasonInterest, ReasonOther:
		return true
	}
	return false
}

// OrderLine is one position of a purchase order. Stored as JSONB.
// Purchasing works with unit costs, not sale prices.
type OrderLine struct {
	SKU      string      `json:"sku"`
	Quantity int64       `json:"quantity"`
	UnitCost types.Money `json:"unitCost"`
	Subtotal types.Money `json:"subtotal"`
}

// Order is our intent to buy from a supplier. Immutable once invoiced.
type Order struct {
	entity.Document

	SupplierID   id.ID  `db:"supplier_id" json:"supplierId"`
	SupplierName string `db:"supplier_name" json:"supplierName"`

	Lines  []OrderLine `db:"lines" json:"lines"`
	Status OrderStatus `db:"status" json:"status"`

	TotalAmount types.Money `db:"total_amount" json:"totalAmount"`
}

// NewOrder creates a pending purchase order for a supplier.
func NewOrder(supplierID id.ID, supplierName string, lines []OrderLine) *Order {
	o := &Order{
		Document:     entity.NewDocument(),
		SupplierID:   supplierID,
		SupplierName: supplierName,
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
		line.Subtotal = types.Round3(line.UnitCost.Mul(types.FromInt(line.Quantity)))
		total = total.Add(line.Subtotal)
	}
	o.TotalAmount = types.Round3(total)
}

// Validate implements entity.Validatable.
func (o *Order) Validate(ctx context.Context) error {
	if err := o.Document.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(o.SupplierID) {
		return apperror.NewValidation("supplier is required").WithDetail("field", "supplierId")
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
		if !line.UnitCost.IsPositive() {
			return apperror.NewValidation("line unit cost must be positive").
				WithDetail("field", "lines").WithDetail("index", i)
		}
	}
	return nil
}

// Payment is one settlement entry on a purchase invoice. Stored as JSONB,
// append-only.
type Payment struct {
	Amount types.Money `json:"amount"`
	Date   time.Time   `json:"date"`
	Notes  string      `json:"notes,omitempty"`
}

// InvoiceLine is an order line carried onto the invoice.
type InvoiceLine struct {
	OrderLine
}

// Invoice is the supplier's fiscal document for an order. Lines and total
// are copied from the order at creation; payments and debit notes only
// move the settlement axes, reception moves the fulfillment axis.
type Invoice struct {
	entity.Document

	OrderNumber  string `db:"order_number" json:"orderNumber"`
	SupplierID   id.ID  `db:"supplier_id" json:"supplierId"`
	SupplierName string `db:"supplier_name" json:"supplierName"`

	Lines []InvoiceLine `db:"lines" json:"lines"`

	TotalAmount  types.Money `db:"total_amount" json:"totalAmount"`
	AmountPaid   types.Money `db:"amount_paid" json:"amountPaid"`
	DebitApplied types.Money `db:"debit_applied" json:"debitApplied"`

	Payments      []Payment            `db:"payments" json:"payments"`
	PaymentStatus entity.PaymentStatus `db:"payment_status" json:"paymentStatus"`

	ReceptionStatus ReceptionStatus `db:"reception_status" json:"receptionStatus"`
	ReceivedAt      *time.Time      `db:"received_at" json:"receivedAt,omitempty"`

	DebitNoteNumbers []string `db:"debit_note_numbers" json:"debitNoteNumbers,omitempty"`
}

// NewInvoiceFromOrder copies the purchase order into a fresh invoice.
func NewInvoiceFromOrder(o *Order) *Invoice {
	lines := make([]InvoiceLine, len(o.Lines))
	for i, l := range o.Lines {
		lines[i] = InvoiceLine{OrderLine: l}
	}
	return &Invoice{
		Document:        entity.NewDocument(),
		OrderNumber:     o.Number,
		SupplierID:      o.SupplierID,
		SupplierName:    o.SupplierName,
		Lines:           lines,
		TotalAmount:     o.TotalAmount,
		AmountPaid:      types.Zero(),
		DebitApplied:    types.Zero(),
		PaymentStatus:   entity.PaymentPending,
		ReceptionStatus: ReceptionPending,
	}
}

// Outstanding returns the unpaid part of the effective payable. Debit
// notes raise the payable, so the balance can reopen after full payment.
func (inv *Invoice) Outstanding() types.Money {
	return entity.OutstandingBalance(inv.TotalAmount, inv.AmountPaid, types.Zero(), inv.DebitApplied)
}

// RefreshPaymentStatus re-derives the payment axis. A debit note can move
// a PAID invoice back to PARTIAL.
func (inv *Invoice) RefreshPaymentStatus() {
	inv.PaymentStatus = entity.DerivePaymentStatus(inv.TotalAmount, inv.AmountPaid, types.Zero(), inv.DebitApplied)
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

// DebitNoteLine is one debited position.
type DebitNoteLine struct {
	SKU      string      `json:"sku"`
	Quantity int64       `json:"quantity"`
	UnitCost types.Money `json:"unitCost"`
	Subtotal types.Money `json:"subtotal"`
}

// DebitNote increases the effective payable of a purchase invoice.
type DebitNote struct {
	entity.Document

	InvoiceNumber string          `db:"invoice_number" json:"invoiceNumber"`
	SupplierName  string          `db:"supplier_name" json:"supplierName"`
	Reason        DebitNoteReason `db:"reason" json:"reason"`
	Lines         []DebitNoteLine `db:"lines" json:"lines"`
	TotalAmount   types.Money     `db:"total_amount" json:"totalAmount"`
}

// Validate implements entity.Validatable.
func (n *DebitNote) Validate(ctx context.Context) error {
	if err := n.Document.Validate(ctx); err != nil {
		return err
	}
	if n.InvoiceNumber == "" {
		return apperror.NewValidation("invoice number is required").WithDetail("field", "invoiceNumber")
	}
	if !IsValidDebitNoteReason(n.Reason) {
		return apperror.NewValidation("invalid debit note reason").
			WithDetail("field", "reason").WithDetail("value", string(n.Reason))
	}
	if len(n.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").WithDetail("field", "lines")
	}
	for i, l := range n.Lines {
		if l.SKU == "" || l.Quantity <= 0 {
			return apperror.NewValidation("invalid debit note line").
				WithDetail("field", "lines").WithDetail("index", i)
		}
	}
	return nil
}
