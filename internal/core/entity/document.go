package entity

import (
	"context"
	"time"

	"comercia/internal/core/apperror"
	"comercia/internal/core/types"
)

// Document is the base type for business transactions.
// Examples: Order, Invoice, CreditNote, DebitNote.
type Document struct {
	BaseDocument

	// Number is the document number (auto-generated, unique within type)
	Number string `db:"number" json:"number"`

	// Date is the business date of the document
	Date time.Time `db:"date" json:"date"`

	// Comment is an optional user comment
	Comment string `db:"comment" json:"comment,omitempty"`
}

// NewDocument creates a new Document with generated ID and current date.
func NewDocument() Document {
	return Document{
		BaseDocument: NewBaseDocument(),
		Date:         time.Now().UTC(),
	}
}

// Validate implements Validatable interface.
func (d *Document) Validate(ctx context.Context) error {
	if d.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}
	return nil
}

// PaymentStatus tracks how much of an invoice has been settled.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPartial PaymentStatus = "PARTIAL"
	PaymentPaid    PaymentStatus = "PAID"
)

// DerivePaymentStatus computes the payment axis of an invoice from its
// balance. The effective payable is total - credit + debit; the status is
// never stored independently of these inputs.
func DerivePaymentStatus(total, paid, credit, debit types.Money) PaymentStatus {
	payable := total.Sub(credit).Add(debit)
	switch {
	case paid.GreaterThanOrEqual(payable):
		return PaymentPaid
	case paid.IsPositive():
		return PaymentPartial
	default:
		return PaymentPending
	}
}

// OutstandingBalance returns total - credit + debit - paid, floored at zero.
func OutstandingBalance(total, paid, credit, debit types.Money) types.Money {
	balance := total.Sub(credit).Add(debit).Sub(paid)
	if balance.IsNegative() {
		return types.Zero()
	}
	return balance
}
