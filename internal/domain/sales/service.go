package sales

import (
	"context"
	"fmt"
	"time"

	"comercia/internal/core/apperror"
	"comercia/internal/core/entity"
	"comercia/internal/core/tx"
	"comercia/internal/core/types"
	"comercia/internal/domain"
	"comercia/internal/domain/inventory"
	"comercia/pkg/logger"
	"comercia/pkg/numerator"
)

// Service implements the sales lifecycle. All state transitions run in a
// transaction with a FOR UPDATE lock on the affected document row; stock
// side effects go through the ledger inside the same transaction.
type Service struct {
	orders    OrderRepository
	invoices  InvoiceRepository
	notes     CreditNoteRepository
	customers CustomerDirectory
	ledger    StockLedger
	txManager tx.Manager
	numerator *numerator.Service
}

// NewService creates a new sales service.
func NewService(
	orders OrderRepository,
	invoices InvoiceRepository,
	notes CreditNoteRepository,
	customers CustomerDirectory,
	ledger StockLedger,
	txManager tx.Manager,
	num *numerator.Service,
) *Service {
	return &Service{
		orders:    orders,
		invoices:  invoices,
		notes:     notes,
		customers: customers,
		ledger:    ledger,
		txManager: txManager,
		numerator: num,
	}
}

// --- Orders ---

// CreateOrder validates and persists a pending order. The total is always
// recomputed from the lines, whatever the caller sent.
func (s *Service) CreateOrder(ctx context.Context, o *Order) error {
	o.Recalculate()
	if err := o.Validate(ctx); err != nil {
		return err
	}

	exists, err := s.customers.Exists(ctx, o.CustomerID)
	if err != nil {
		return fmt.Errorf("check customer: %w", err)
	}
	if !exists {
		return apperror.NewNotFound("customer", o.CustomerID.String())
	}

	number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("ORD"),
		&numerator.Options{Strategy: numerator.StrategyCached}, o.Date)
	if err != nil {
		return fmt.Errorf("generate order number: %w", err)
	}
	o.Number = number
	o.Status = OrderPending

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.orders.Create(ctx, o)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "sales order created", "number", o.Number, "total", o.TotalAmount.String())
	return nil
}

// GetOrder loads an order by number.
func (s *Service) GetOrder(ctx context.Context, number string) (*Order, error) {
	return s.orders.GetByNumber(ctx, number)
}

// ListOrders returns orders newest-first.
func (s *Service) ListOrders(ctx context.Context, filter domain.DocumentFilter) (domain.ListResult[*Order], error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return s.orders.List(ctx, filter)
}

// DeleteOrder soft-deletes an order. Only pending orders can be deleted;
// an invoiced order is part of the fiscal trail.
func (s *Service) DeleteOrder(ctx context.Context, number string) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.orders.GetByNumberForUpdate(ctx, number)
		if err != nil {
			return err
		}
		if o.Status != OrderPending {
			return apperror.NewInvalidState("only pending orders can be deleted").
				WithDetail("order_number", number).
				WithDetail("status", string(o.Status))
		}
		return s.orders.SetDeletionMark(ctx, o.ID, true)
	})
}

// --- Invoices ---

// CreateInvoice turns a pending order into an invoice and freezes the order.
func (s *Service) CreateInvoice(ctx context.Context, orderNumber string) (*Invoice, error) {
	var inv *Invoice
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.orders.GetByNumberForUpdate(ctx, orderNumber)
		if err != nil {
			return err
		}
		if o.Status != OrderPending {
			return apperror.NewInvalidState("order is already invoiced or cancelled").
				WithDetail("order_number", orderNumber).
				WithDetail("status", string(o.Status))
		}

		number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("INV"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate invoice number: %w", err)
		}

		inv = NewInvoiceFromOrder(o)
		inv.Number = number
		if err := inv.Validate(ctx); err != nil {
			return err
		}
		if err := s.invoices.Create(ctx, inv); err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}

		o.Status = OrderInvoiced
		o.Touch()
		return s.orders.Update(ctx, o)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sales invoice created",
		"number", inv.Number, "order_number", orderNumber, "total", inv.TotalAmount.String())
	return inv, nil
}

// GetInvoice loads an invoice by number.
func (s *Service) GetInvoice(ctx context.Context, number string) (*Invoice, error) {
	return s.invoices.GetByNumber(ctx, number)
}

// ListInvoices returns invoices newest-first.
func (s *Service) ListInvoices(ctx context.Context, filter domain.DocumentFilter) (domain.ListResult[*Invoice], error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return s.invoices.List(ctx, filter)
}

// RecordPayment appends a payment to an invoice. Overpayment is rejected:
// amount must not exceed the outstanding balance.
func (s *Service) RecordPayment(ctx context.Context, invoiceNumber string, amount types.Money, date time.Time, notes string) (*Invoice, error) {
	if !amount.IsPositive() {
		return nil, apperror.NewValidation("payment amount must be positive").
			WithDetail("field", "amount")
	}
	if date.IsZero() {
		date = time.Now().UTC()
	}
	amount = types.Round3(amount)

	var inv *Invoice
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		inv, err = s.invoices.GetByNumberForUpdate(ctx, invoiceNumber)
		if err != nil {
			return err
		}

		outstanding := inv.Outstanding()
		if amount.GreaterThan(outstanding) {
			return apperror.NewValidation("payment exceeds outstanding balance").
				WithDetail("amount", amount.String()).
				WithDetail("outstanding", outstanding.String())
		}

		inv.Payments = append(inv.Payments, Payment{Amount: amount, Date: date, Notes: notes})
		inv.AmountPaid = types.Round3(inv.AmountPaid.Add(amount))
		inv.RefreshPaymentStatus()
		inv.Touch()
		return s.invoices.Update(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "payment recorded",
		"invoice_number", invoiceNumber, "amount", amount.String(), "status", string(inv.PaymentStatus))
	return inv, nil
}

// Dispatch marks an invoice dispatched and writes one SALE movement per
// line. One-way: a dispatched invoice cannot be dispatched again. Any
// insufficient stock rolls the whole dispatch back.
func (s *Service) Dispatch(ctx context.Context, invoiceNumber, carrier, vehiclePlate string) (*Invoice, error) {
	if carrier == "" {
		return nil, apperror.NewValidation("carrier is required").WithDetail("field", "carrier")
	}

	var inv *Invoice
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		inv, err = s.invoices.GetByNumberForUpdate(ctx, invoiceNumber)
		if err != nil {
			return err
		}
		if inv.DispatchStatus != DispatchPending {
			return apperror.NewInvalidState("invoice is already dispatched").
				WithDetail("invoice_number", invoiceNumber)
		}

		for _, line := range inv.Lines {
			_, err := s.ledger.Append(ctx, line.SKU, inventory.Sale, line.Quantity, inv.Number, inventory.AppendOptions{})
			if err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		inv.DispatchStatus = DispatchDispatched
		inv.Carrier = carrier
		inv.VehiclePlate = vehiclePlate
		inv.DispatchedAt = &now
		inv.Touch()
		return s.invoices.Update(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "invoice dispatched", "invoice_number", invoiceNumber, "carrier", carrier)
	return inv, nil
}

// --- Credit notes ---

// CreditNoteRequest is the input for CreateCreditNote. Unit prices are
// taken from the invoice lines, not from the caller.
type CreditNoteRequest struct {
	Reason CreditNoteReason
	Lines  []CreditNoteRequestLine
	Notes  string
}

// CreditNoteRequestLine credits qty units of an invoice line.
type CreditNoteRequestLine struct {
	SKU      string
	Quantity int64
}

// CreateCreditNote issues a credit note against an invoice. Each line is
// capped by the invoice line's uncredited quantity and the note total by
// the remaining creditable balance. Reason RETURN restores stock.
func (s *Service) CreateCreditNote(ctx context.Context, invoiceNumber string, req CreditNoteRequest) (*CreditNote, error) {
	if !IsValidCreditNoteReason(req.Reason) {
		return nil, apperror.NewValidation("invalid credit note reason").
			WithDetail("field", "reason").WithDetail("value", string(req.Reason))
	}
	if len(req.Lines) == 0 {
		return nil, apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}

	var note *CreditNote
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		inv, err := s.invoices.GetByNumberForUpdate(ctx, invoiceNumber)
		if err != nil {
			return err
		}

		total := types.Zero()
		noteLines := make([]CreditNoteLine, 0, len(req.Lines))
		for _, rl := range req.Lines {
			if rl.Quantity <= 0 {
				return apperror.NewValidation("credit quantity must be positive").
					WithDetail("sku", rl.SKU)
			}
			invLine := inv.FindLine(rl.SKU)
			if invLine == nil {
				return apperror.NewValidation("sku is not on the invoice").
					WithDetail("sku", rl.SKU)
			}
			if remaining := invLine.RemainingQuantity(); rl.Quantity > remaining {
				return apperror.NewValidation("credit quantity exceeds uncredited quantity").
					WithDetail("sku", rl.SKU).
					WithDetail("requested", rl.Quantity).
					WithDetail("remaining", remaining)
			}

			subtotal := types.Round3(invLine.UnitPrice.Mul(types.FromInt(rl.Quantity)))
			noteLines = append(noteLines, CreditNoteLine{
				SKU:       rl.SKU,
				Quantity:  rl.Quantity,
				UnitPrice: invLine.UnitPrice,
				Subtotal:  subtotal,
			})
			total = total.Add(subtotal)
		}
		total = types.Round3(total)

		// The accumulated credit can never exceed the invoice total.
		if creditable := inv.TotalAmount.Sub(inv.CreditApplied); total.GreaterThan(creditable) {
			return apperror.NewValidation("credit note exceeds invoice balance").
				WithDetail("total", total.String()).
				WithDetail("creditable", creditable.String())
		}

		number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("CN"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate credit note number: %w", err)
		}

		note = &CreditNote{
			Document:      entity.NewDocument(),
			InvoiceNumber: inv.Number,
			CustomerName:  inv.CustomerName,
			Reason:        req.Reason,
			Lines:         noteLines,
			TotalAmount:   total,
		}
		note.Number = number
		note.Comment = req.Notes
		if err := note.Validate(ctx); err != nil {
			return err
		}
		if err := s.notes.Create(ctx, note); err != nil {
			return fmt.Errorf("create credit note: %w", err)
		}

		for _, nl := range noteLines {
			inv.FindLine(nl.SKU).CreditedQuantity += nl.Quantity
		}
		inv.CreditApplied = types.Round3(inv.CreditApplied.Add(total))
		inv.CreditNoteNumbers = append(inv.CreditNoteNumbers, note.Number)
		inv.RefreshPaymentStatus()
		inv.Touch()
		if err := s.invoices.Update(ctx, inv); err != nil {
			return err
		}

		if req.Reason == ReasonReturn {
			for _, nl := range noteLines {
				_, err := s.ledger.Append(ctx, nl.SKU, inventory.SaleReturn, nl.Quantity, note.Number,
					inventory.AppendOptions{Reason: string(ReasonReturn)})
				if err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "credit note created",
		"number", note.Number, "invoice_number", invoiceNumber,
		"reason", string(req.Reason), "total", note.TotalAmount.String())
	return note, nil
}

// GetCreditNote loads a credit note by number.
func (s *Service) GetCreditNote(ctx context.Context, number string) (*CreditNote, error) {
	return s.notes.GetByNumber(ctx, number)
}

// ListCreditNotes returns credit notes newest-first.
func (s *Service) ListCreditNotes(ctx context.Context, filter domain.DocumentFilter) (domain.ListResult[*CreditNote], error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return s.notes.List(ctx, filter)
}
