package sales

import (
	"context"

	"comercia/internal/core/id"
	"comercia/internal/domain"
	"comercia/internal/domain/inventory"
)

// OrderRepository defines persistence for sales orders.
type OrderRepository interface {
	Create(ctx context.Context, o *Order) error
	GetByNumber(ctx context.Context, number string) (*Order, error)
	// GetByNumberForUpdate locks the order row for a status transition.
	GetByNumberForUpdate(ctx context.Context, number string) (*Order, error)
	Update(ctx context.Context, o *Order) error
	SetDeletionMark(ctx context.Context, orderID id.ID, marked bool) error
	List(ctx context.Context, filter domain.DocumentFilter) (domain.ListResult[*Order], error)
}

// InvoiceRepository defines persistence for sales invoices.
type InvoiceRepository interface {
	Create(ctx context.Context, inv *Invoice) error
	GetByNumber(ctx context.Context, number string) (*Invoice, error)
	// GetByNumberForUpdate locks the invoice row; payments and note
	// applications serialize on this lock.
	GetByNumberForUpdate(ctx context.Context, number string) (*Invoice, error)
	Update(ctx context.Context, inv *Invoice) error
	List(ctx context.Context, filter domain.DocumentFilter) (domain.ListResult[*Invoice], error)
}

// CreditNoteRepository defines persistence for credit notes.
type CreditNoteRepository interface {
	Create(ctx context.Context, n *CreditNote) error
	GetByNumber(ctx context.Context, number string) (*CreditNote, error)
	List(ctx context.Context, filter domain.DocumentFilter) (domain.ListResult[*CreditNote], error)
	ListByInvoice(ctx context.Context, invoiceNumber string) ([]*CreditNote, error)
}

// CustomerDirectory is the slice of the customer catalog the sales
// service needs.
type CustomerDirectory interface {
	Exists(ctx context.Context, customerID id.ID) (bool, error)
}

// StockLedger is the slice of the inventory ledger used by dispatch and
// RETURN credit notes.
type StockLedger interface {
	Append(ctx context.Context, sku string, t inventory.MovementType, qty int64, reference string, opts inventory.AppendOptions) (*inventory.StockMovement, error)
}
