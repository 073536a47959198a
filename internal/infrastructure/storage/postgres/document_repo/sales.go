package document_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"comercia/internal/domain/sales"
	"comercia/internal/infrastructure/storage/postgres"
)

const (
	salesOrderTable   = "doc_sales_orders"
	salesInvoiceTable = "doc_sales_invoices"
	creditNoteTable   = "doc_credit_notes"
)

// SalesOrderRepo implements sales.OrderRepository.
type SalesOrderRepo struct {
	*BaseDocumentRepo[*sales.Order]
}

// NewSalesOrderRepo creates a new sales order repository.
func NewSalesOrderRepo(txManager *postgres.TxManager) *SalesOrderRepo {
	return &SalesOrderRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			salesOrderTable,
			postgres.ExtractDBColumns[sales.Order](),
			"status",
			[]string{"number", "customer_name"},
			func() *sales.Order { return &sales.Order{} },
		),
	}
}

// SalesInvoiceRepo implements sales.InvoiceRepository.
// DocumentFilter.Status matches the dispatch axis.
type SalesInvoiceRepo struct {
	*BaseDocumentRepo[*sales.Invoice]
}

// NewSalesInvoiceRepo creates a new sales invoice repository.
func NewSalesInvoiceRepo(txManager *postgres.TxManager) *SalesInvoiceRepo {
	return &SalesInvoiceRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			salesInvoiceTable,
			postgres.ExtractDBColumns[sales.Invoice](),
			"dispatch_status",
			[]string{"number", "order_number", "customer_name"},
			func() *sales.Invoice { return &sales.Invoice{} },
		),
	}
}

// CreditNoteRepo implements sales.CreditNoteRepository.
type CreditNoteRepo struct {
	*BaseDocumentRepo[*sales.CreditNote]
}

// NewCreditNoteRepo creates a new credit note repository.
func NewCreditNoteRepo(txManager *postgres.TxManager) *CreditNoteRepo {
	return &CreditNoteRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			creditNoteTable,
			postgres.ExtractDBColumns[sales.CreditNote](),
			"reason",
			[]string{"number", "invoice_number", "customer_name"},
			func() *sales.CreditNote { return &sales.CreditNote{} },
		),
	}
}

// ListByInvoice returns all credit notes issued against an invoice.
func (r *CreditNoteRepo) ListByInvoice(ctx context.Context, invoiceNumber string) ([]*sales.CreditNote, error) {
	return r.listWhere(ctx, squirrel.Eq{"invoice_number": invoiceNumber})
}
