package purchasing

import (
	"context"

	"comercia/internal/core/id"
	"comercia/internal/domain"
	"comercia/internal/domain/inventory"
)

// OrderRepository defines persistence for purchase orders.
type OrderRepository interface {
	Create(ctx context.Context, o *Order) error
	GetByNumber(ctx context.Context, number string) (*Order, error)
	// GetByNumberForUpdate locks the order row for a status transition.
	GetByNumberForUpdate(ctx context.Context, number string) (*Order, error)
	Update(ctx context.Context, o *Order) error
	SetDeletionMark(ctx context.Context, orderID id.ID, marked bool) error
	List(ctx context.Context, filter domain.DocumentFilter) (domain.ListResult[*Order], error)
}

// InvoiceRepository defines persistence for purchase invoices.
type InvoiceRepository interface {
	Create(ctx context.Context, inv *Invoice) error
	GetByNumber(ctx context.Context, number string) (*Invoice, error)
	// GetByNumberForUpdate locks the invoice row; payments, receptions and
	// note applications serialize on this lock.
	GetByNumberForUpdate(ctx context.Context, number string) (*Invoice, error)
	Update(ctx context.Context, inv *Invoice) error
	List(ctx context.Context, filter domain.DocumentFilter) (domain.ListResult[*Invoice], error)
}

// DebitNoteRepository defines persistence for debit notes.
type DebitNoteRepository interface {
	Create(ctx context.Context, n *DebitNote) error
	GetByNumber(ctx context.Context, number string) (*DebitNote, error)
	List(ctx context.Context, filter domain.DocumentFilter) (domain.ListResult[*DebitNote], error)
	ListByInvoice(ctx context.Context, invoiceNumber string) ([]*DebitNote, error)
}

// SupplierDirectory is the slice of the supplier catalog the purchasing
// service needs.
type SupplierDirectory interface {
	Exists(ctx context.Context, supplierID id.ID) (bool, error)
}

// StockLedger is the slice of the inventory ledger used by reception.
type StockLedger interface {
	Append(ctx context.Context, sku string, t inventory.MovementType, qty int64, reference string, opts inventory.AppendOptions) (*inventory.StockMovement, error)
}
