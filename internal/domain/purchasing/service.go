package purchasing

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

// Service implements the procurement lifecycle. Like the sales side, every
// state transition runs in a transaction with a FOR UPDATE lock on the
// affected document row; reception writes PURCHASE movements through the
// ledger inside the same transaction, which also folds the line costs into
// each product's weighted-average cost.
type Service struct {
	orders    OrderRepository
	invoices  InvoiceRepository
	notes     DebitNoteRepository
	suppliers SupplierDirectory
	ledger    StockLedger
	txManager tx.Manager
	numerator *numerator.Service
}

// NewService creates a new purchasing service.
func NewService(
	orders OrderRepository,
	invoices InvoiceRepository,
	notes DebitNoteRepository,
	suppliers SupplierDirectory,
	ledger StockLedger,
	txManager tx.Manager,
	num *numerator.Service,
) *Service {
	return &Service{
		orders:    orders,
		invoices:  invoices,
		notes:     notes,
		suppliers: suppliers,
		ledger:    ledger,
		txManager: txManager,
		numerator: num,
	}
}

// --- Orders ---

// CreateOrder validates and persists a pending purchase order. The total
// is always recomputed from the lines, whatever the caller sent.
func (s *Service) CreateOrder(ctx context.Context, o *Order) error {
	o.Recalculate()
	if err := o.Validate(ctx); err != nil {
		return err
	}

	exists, err := s.suppliers.Exists(ctx, o.SupplierID)
	if err != nil {
		return fmt.Errorf("check supplier: %w", err)
	}
	if !exists {
		return apperror.NewNotFound("supplier", o.SupplierID.String())
	}

	number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("PORD"),
		&numerator.Options{Strategy: numerator.StrategyCached}, o.Date)
	if err != nil {
		return fmt.Errorf("generate purchase order number: %w", err)
	}
	o.Number = number
	o.Status = OrderPending

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.orders.Create(ctx, o)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "purchase order created", "number", o.Number, "total", o.TotalAmount.String())
	return nil
}

// GetOrder loads a purchase order by number.
func (s *Service) GetOrder(ctx context.Context, number string) (*Order, error) {
	return s.orders.GetByNumber(ctx, number)
}

// ListOrders returns purchase orders newest-first.
func (s *Service) ListOrders(ctx context.Context, filter domain.DocumentFilter) (domain.ListResult[*Order], error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return s.orders.List(ctx, filter)
}

// DeleteOrder soft-deletes a purchase order. Only pending orders can be
// deleted; an invoiced order is part of the fiscal trail.
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

// CreateInvoice turns a pending purchase order into an invoice and
// freezes the order.
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

		number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("PINV"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate purchase invoice number: %w", err)
		}

		inv = NewInvoiceFromOrder(o)
		inv.Number = number
		if err := inv.Validate(ctx); err != nil {
			return err
		}
		if err := s.invoices.Create(ctx, inv); err != nil {
			return fmt.Errorf("create purchase invoice: %w", err)
		}

		o.Status = OrderInvoiced
		o.Touch()
		return s.orders.Update(ctx, o)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase invoice created",
		"number", inv.Number, "order_number", orderNumber, "total", inv.TotalAmount.String())
	return inv, nil
}

// GetInvoice loads a purchase invoice by number.
func (s *Service) GetInvoice(ctx context.Context, number string) (*Invoice, error) {
	return s.invoices.GetByNumber(ctx, number)
}

// ListInvoices returns purchase invoices newest-first.
func (s *Service) ListInvoices(ctx context.Context, filter domain.DocumentFilter) (domain.ListResult[*Invoice], error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return s.invoices.List(ctx, filter)
}

// RecordPayment appends a payment to a purchase invoice. Overpayment is
// rejected: amount must not exceed the outstanding balance, which debit
// notes may have raised above the original total.
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

	logger.Info(ctx, "purchase payment recorded",
		"invoice_number", invoiceNumber, "amount", amount.String(), "status", string(inv.PaymentStatus))
	return inv, nil
}

// RegisterReception marks a purchase invoice received and writes one
// PURCHASE movement per line, carrying the line's unit cost so the ledger
// can fold it into the product's weighted-average cost. One-way: a
// received invoice cannot be received again.
func (s *Service) RegisterReception(ctx context.Context, invoiceNumber string) (*Invoice, error) {
	var inv *Invoice
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		inv, err = s.invoices.GetByNumberForUpdate(ctx, invoiceNumber)
		if err != nil {
			return err
		}
		if inv.ReceptionStatus != ReceptionPending {
			return apperror.NewInvalidState("invoice is already received").
				WithDetail("invoice_number", invoiceNumber)
		}

		for _, line := range inv.Lines {
			unitCost := line.UnitCost
			_, err := s.ledger.Append(ctx, line.SKU, inventory.Purchase, line.Quantity, inv.Number,
				inventory.AppendOptions{UnitCost: &unitCost})
			if err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		inv.ReceptionStatus = ReceptionReceived
		inv.ReceivedAt = &now
		inv.Touch()
		return s.invoices.Update(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase invoice received", "invoice_number", invoiceNumber)
	return inv, nil
}

// --- Debit notes ---

// DebitNoteRequest is the input for CreateDebitNote. Unit costs default to
// the invoice line's cost but can be overridden per line, since debit
// notes typically capture price corrections.
type DebitNoteRequest struct {
	Reason DebitNoteReason
	Lines  []DebitNoteRequestLine
	Notes  string
}

// DebitNoteRequestLine debits qty units of an invoice line. A nil
// UnitCost means the invoice line's cost.
type DebitNoteRequestLine struct {
	SKU      string
	Quantity int64
	UnitCost *types.Money
}

// CreateDebitNote issues a debit note against a purchase invoice. Each
// line quantity is capped by the invoice line's quantity. The note raises
// the effective payable, which can move a PAID invoice back to PARTIAL.
func (s *Service) CreateDebitNote(ctx context.Context, invoiceNumber string, req DebitNoteRequest) (*DebitNote, error) {
	if !IsValidDebitNoteReason(req.Reason) {
		return nil, apperror.NewValidation("invalid debit note reason").
			WithDetail("field", "reason").WithDetail("value", string(req.Reason))
	}
	if len(req.Lines) == 0 {
		return nil, apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}

	var note *DebitNote
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		inv, err := s.invoices.GetByNumberForUpdate(ctx, invoiceNumber)
		if err != nil {
			return err
		}

		total := types.Zero()
		noteLines := make([]DebitNoteLine, 0, len(req.Lines))
		for _, rl := range req.Lines {
			if rl.Quantity <= 0 {
				return apperror.NewValidation("debit quantity must be positive").
					WithDetail("sku", rl.SKU)
			}
			invLine := inv.FindLine(rl.SKU)
			if invLine == nil {
				return apperror.NewValidation("sku is not on the invoice").
					WithDetail("sku", rl.SKU)
			}
			if rl.Quantity > invLine.Quantity {
				return apperror.NewValidation("debit quantity exceeds invoiced quantity").
					WithDetail("sku", rl.SKU).
					WithDetail("requested", rl.Quantity).
					WithDetail("invoiced", invLine.Quantity)
			}

			unitCost := invLine.UnitCost
			if rl.UnitCost != nil {
				if !rl.UnitCost.IsPositive() {
					return apperror.NewValidation("debit unit cost must be positive").
						WithDetail("sku", rl.SKU)
				}
				unitCost = *rl.UnitCost
			}

			subtotal := types.Round3(unitCost.Mul(types.FromInt(rl.Quantity)))
			noteLines = append(noteLines, DebitNoteLine{
				SKU:      rl.SKU,
				Quantity: rl.Quantity,
				UnitCost: unitCost,
				Subtotal: subtotal,
			})
			total = total.Add(subtotal)
		}
		total = types.Round3(total)

		number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("DN"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate debit note number: %w", err)
		}

		note = &DebitNote{
			Document:      entity.NewDocument(),
			InvoiceNumber: inv.Number,
			SupplierName:  inv.SupplierName,
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
			return fmt.Errorf("create debit note: %w", err)
		}

		inv.DebitApplied = types.Round3(inv.DebitApplied.Add(total))
		inv.DebitNoteNumbers = append(inv.DebitNoteNumbers, note.Number)
		inv.RefreshPaymentStatus()
		inv.Touch()
		return s.invoices.Update(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "debit note created",
		"number", note.Number, "invoice_number", invoiceNumber,
		"reason", string(req.Reason), "total", note.TotalAmount.String())
	return note, nil
}

// GetDebitNote loads a debit note by number.
func (s *Service) GetDebitNote(ctx context.Context, number string) (*DebitNote, error) {
	return s.notes.GetByNumber(ctx, number)
}

// ListDebitNotes returns debit notes newest-first.
func (s *Service) ListDebitNotes(ctx context.Context, filter domain.DocumentFilter) (domain.ListResult[*DebitNote], error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return s.notes.List(ctx, filter)
}
