package domain

import "time"

// DocumentFilter narrows document list queries (orders, invoices, notes).
type DocumentFilter struct {
	// Search matches document number or counterparty name
	Search string

	// Status filters by lifecycle status (PENDING, INVOICED, ...)
	Status string

	// PaymentStatus filters invoices by payment axis
	PaymentStatus string

	DateFrom *time.Time
	DateTo   *time.Time

	Limit  int
	Offset int
}

// DefaultDocumentFilter returns sensible defaults (newest first, 50 rows).
func DefaultDocumentFilter() DocumentFilter {
	return DocumentFilter{Limit: 50}
}
