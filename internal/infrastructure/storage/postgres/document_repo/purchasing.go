package document_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"comercia/internal/domain/purchasing"
	"comercia/internal/infrastructure/storage/postgres"
)

const (
	purchaseOrderTable   = "doc_purchase_orders"
	purchaseInvoiceTable = "doc_purchase_invoices"
	debitNoteTable       = "doc_debit_notes"
)

// PurchaseOrderRepo implements purchasing.OrderRepository.
type PurchaseOrderRepo struct {
	*BaseDocumentRepo[*purchasing.Order]
}

// NewPurchaseOrderRepo creates a new purchase order repository.
func NewPurchaseOrderRepo(txManager *postgres.TxManager) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			purchaseOrderTable,
			postgres.ExtractDBColumns[purchasing.Order](),
			"status",
			[]string{"number", "supplier_name"},
			func() *purchasing.Order { return &purchasing.Order{} },
		),
	}
}

// PurchaseInvoiceRepo implements purchasing.InvoiceRepository.
// DocumentFilter.Status matches the reception axis.
type PurchaseInvoiceRepo struct {
	*BaseDocumentRepo[*purchasing.Invoice]
}

// NewPurchaseInvoiceRepo creates a new purchase invoice repository.
func NewPurchaseInvoiceRepo(txManager *postgres.TxManager) *PurchaseInvoiceRepo {
	return &PurchaseInvoiceRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			purchaseInvoiceTable,
			postgres.ExtractDBColumns[purchasing.Invoice](),
			"reception_status",
			[]string{"number", "order_number", "supplier_name"},
			func() *purchasing.Invoice { return &purchasing.Invoice{} },
		),
	}
}

// DebitNoteRepo implements purchasing.DebitNoteRepository.
type DebitNoteRepo struct {
	*BaseDocumentRepo[*purchasing.DebitNote]
}

// NewDebitNoteRepo creates a new debit note repository.
func NewDebitNoteRepo(txManager *postgres.TxManager) *DebitNoteRepo {
	return &DebitNoteRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			debitNoteTable,
			postgres.ExtractDBColumns[purchasing.DebitNote](),
			"reason",
			[]string{"number", "invoice_number", "supplier_name"},
			func() *purchasing.DebitNote { return &purchasing.DebitNote{} },
		),
	}
}

// ListByInvoice returns all debit notes issued against an invoice.
func (r *DebitNoteRepo) ListByInvoice(ctx context.Context, invoiceNumber string) ([]*purchasing.DebitNote, error) {
	return r.listWhere(ctx, squirrel.Eq{"invoice_number": invoiceNumber})
}
