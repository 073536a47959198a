package sales

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comercia/internal/core/apperror"
	"comercia/internal/core/entity"
	"comercia/internal/core/id"
	"comercia/internal/core/types"
	"comercia/internal/domain"
	"comercia/internal/domain/inventory"
	"comercia/pkg/numerator"
)

// --- fakes ---

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeRow struct{ val int64 }

func (r *fakeRow) Scan(dest ...any) error {
	if len(dest) > 0 {
		if p, ok := dest[0].(*int64); ok {
			*p = r.val
		}
	}
	return nil
}

type fakeSeq struct{ val int64 }

func (s *fakeSeq) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	inc := int64(1)
	if len(args) == 2 {
		if v, ok := args[1].(int64); ok {
			inc = v
		}
	}
	s.val += inc
	return &fakeRow{val: s.val}
}

func cloneOrder(o *Order) *Order {
	c := *o
	c.Lines = append([]OrderLine(nil), o.Lines...)
	return &c
}

type fakeOrders struct {
	byNumber map[string]*Order
}

func newFakeOrders() *fakeOrders { return &fakeOrders{byNumber: make(map[string]*Order)} }

func (f *fakeOrders) Create(ctx context.Context, o *Order) error {
	f.byNumber[o.Number] = cloneOrder(o)
	return nil
}

func (f *fakeOrders) GetByNumber(ctx context.Context, number string) (*Order, error) {
	o, ok := f.byNumber[number]
	if !ok || o.DeletionMark {
		return nil, apperror.NewNotFound("order", number)
	}
	return cloneOrder(o), nil
}

func (f *fakeOrders) GetByNumberForUpdate(ctx context.Context, number string) (*Order, error) {
	return f.GetByNumber(ctx, number)
}

func (f *fakeOrders) Update(ctx context.Context, o *Order) error {
	f.byNumber[o.Number] = cloneOrder(o)
	return nil
}

func (f *fakeOrders) SetDeletionMark(ctx context.Context, orderID id.ID, marked bool) error {
	for _, o := range f.byNumber {
		if o.ID == orderID {
			o.DeletionMark = marked
			return nil
		}
	}
	return apperror.NewNotFound("order", orderID.String())
}

func (f *fakeOrders) List(ctx context.Context, filter domain.DocumentFilter) (domain.ListResult[*Order], error) {
	items := make([]*Order, 0)
	for _, o := range f.byNumber {
		if o.DeletionMark {
			continue
		}
		if filter.Status != "" && string(o.Status) != filter.Status {
			continue
		}
		items = append(items, cloneOrder(o))
	}
	return domain.ListResult[*Order]{Items: items, TotalCount: int64(len(items)), Limit: filter.Limit}, nil
}

func cloneInvoice(inv *Invoice) *Invoice {
	c := *inv
	c.Lines = append([]InvoiceLine(nil), inv.Lines...)
	c.Payments = append([]Payment(nil), inv.Payments...)
	c.CreditNoteNumbers = append([]string(nil), inv.CreditNoteNumbers...)
	return &c
}

type fakeInvoices struct {
	byNumber map[string]*Invoice
}

func newFakeInvoices() *fakeInvoices { return &fakeInvoices{byNumber: make(map[string]*Invoice)} }

func (f *fakeInvoices) Create(ctx context.Context, inv *Invoice) error {
	f.byNumber[inv.Number] = cloneInvoice(inv)
	return nil
}

func (f *fakeInvoices) GetByNumber(ctx context.Context, number string) (*Invoice, error) {
	inv, ok := f.byNumber[number]
	if !ok {
		return nil, apperror.NewNotFound("invoice", number)
	}
	return cloneInvoice(inv), nil
}

func (f *fakeInvoices) GetByNumberForUpdate(ctx context.Context, number string) (*Invoice, error) {
	return f.GetByNumber(ctx, number)
}

func (f *fakeInvoices) Update(ctx context.Context, inv *Invoice) error {
	f.byNumber[inv.Number] = cloneInvoice(inv)
	return nil
}

func (f *fakeInvoices) List(ctx context.Context, filter domain.DocumentFilter) (domain.ListResult[*Invoice], error) {
	items := make([]*Invoice, 0)
	for _, inv := range f.byNumber {
		items = append(items, cloneInvoice(inv))
	}
	return domain.ListResult[*Invoice]{Items: items, TotalCount: int64(len(items)), Limit: filter.Limit}, nil
}

type fakeNotes struct {
	byNumber map[string]*CreditNote
}

func newFakeNotes() *fakeNotes { return &fakeNotes{byNumber: make(map[string]*CreditNote)} }

func (f *fakeNotes) Create(ctx context.Context, n *CreditNote) error {
	f.byNumber[n.Number] = n
	return nil
}

func (f *fakeNotes) GetByNumber(ctx context.Context, number string) (*CreditNote, error) {
	n, ok := f.byNumber[number]
	if !ok {
		return nil, apperror.NewNotFound("credit note", number)
	}
	return n, nil
}

func (f *fakeNotes) List(ctx context.Context, filter domain.DocumentFilter) (domain.ListResult[*CreditNote], error) {
	items := make([]*CreditNote, 0, len(f.byNumber))
	for _, n := range f.byNumber {
		items = append(items, n)
	}
	return domain.ListResult[*CreditNote]{Items: items, TotalCount: int64(len(items)), Limit: filter.Limit}, nil
}

func (f *fakeNotes) ListByInvoice(ctx context.Context, invoiceNumber string) ([]*CreditNote, error) {
	items := make([]*CreditNote, 0)
	for _, n := range f.byNumber {
		if n.InvoiceNumber == invoiceNumber {
			items = append(items, n)
		}
	}
	return items, nil
}

type fakeCustomers struct {
	ids map[id.ID]bool
}

func (f *fakeCustomers) Exists(ctx context.Context, customerID id.ID) (bool, error) {
	return f.ids[customerID], nil
}

type ledgerCall struct {
	sku       string
	t         inventory.MovementType
	qty       int64
	reference string
}

type fakeLedger struct {
	calls []ledgerCall
	// available stock per SKU; missing key means unlimited
	stock map[string]int64
}

func (f *fakeLedger) Append(ctx context.Context, sku string, t inventory.MovementType, qty int64, reference string, opts inventory.AppendOptions) (*inventory.StockMovement, error) {
	if f.stock != nil {
		if avail, ok := f.stock[sku]; ok && inventory.Sign(t) < 0 && qty > avail {
			return nil, apperror.NewInsufficientStock(sku, qty, avail)
		}
	}
	f.calls = append(f.calls, ledgerCall{sku: sku, t: t, qty: qty, reference: reference})
	return inventory.NewStockMovement(sku, t, inventory.Sign(t)*qty, reference), nil
}

type fixture struct {
	svc        *Service
	orders     *fakeOrders
	invoices   *fakeInvoices
	notes      *fakeNotes
	ledger     *fakeLedger
	customerID id.ID
}

func newFixture() *fixture {
	customerID := id.New()
	orders := newFakeOrders()
	invoices := newFakeInvoices()
	notes := newFakeNotes()
	ledger := &fakeLedger{}
	svc := NewService(orders, invoices, notes,
		&fakeCustomers{ids: map[id.ID]bool{customerID: true}},
		ledger, fakeTxManager{}, numerator.New(&fakeSeq{}))
	return &fixture{svc: svc, orders: orders, invoices: invoices, notes: notes, ledger: ledger, customerID: customerID}
}

func (fx *fixture) createOrder(t *testing.T, lines ...OrderLine) *Order {
	t.Helper()
	o := NewOrder(fx.customerID, "ACME SAC", lines)
	require.NoError(t, fx.svc.CreateOrder(context.Background(), o))
	return o
}

func (fx *fixture) createInvoice(t *testing.T, lines ...OrderLine) *Invoice {
	t.Helper()
	o := fx.createOrder(t, lines...)
	inv, err := fx.svc.CreateInvoice(context.Background(), o.Number)
	require.NoError(t, err)
	return inv
}

func line(sku string, qty int64, price string) OrderLine {
	return OrderLine{SKU: sku, Quantity: qty, UnitPrice: types.MustMoney(price)}
}

// --- tests ---

func TestCreateOrder(t *testing.T) {
	fx := newFixture()

	o := fx.createOrder(t, line("SKU-1", 2, "25.00"), line("SKU-2", 3, "10.00"))

	assert.Contains(t, o.Number, "ORD-")
	assert.Equal(t, OrderPending, o.Status)
	assert.True(t, o.TotalAmount.Equal(types.MustMoney("80")), "total: %s", o.TotalAmount)
}

func TestCreateOrder_Validation(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	// no lines
	err := fx.svc.CreateOrder(ctx, NewOrder(fx.customerID, "ACME SAC", nil))
	assert.Error(t, err)

	// non-positive quantity
	err = fx.svc.CreateOrder(ctx, NewOrder(fx.customerID, "ACME SAC", []OrderLine{line("SKU-1", 0, "5.00")}))
	assert.Error(t, err)

	// zero price
	err = fx.svc.CreateOrder(ctx, NewOrder(fx.customerID, "ACME SAC", []OrderLine{line("SKU-1", 1, "0")}))
	assert.Error(t, err)

	// unknown customer
	err = fx.svc.CreateOrder(ctx, NewOrder(id.New(), "Ghost", []OrderLine{line("SKU-1", 1, "5.00")}))
	assert.True(t, apperror.IsNotFound(err))
}

func TestCreateInvoice_FreezesOrder(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	o := fx.createOrder(t, line("SKU-1", 2, "40.00"))
	inv, err := fx.svc.CreateInvoice(ctx, o.Number)
	require.NoError(t, err)

	assert.Contains(t, inv.Number, "INV-")
	assert.Equal(t, o.Number, inv.OrderNumber)
	assert.True(t, inv.TotalAmount.Equal(o.TotalAmount))
	assert.Equal(t, entity.PaymentPending, inv.PaymentStatus)
	assert.Equal(t, DispatchPending, inv.DispatchStatus)

	stored, err := fx.svc.GetOrder(ctx, o.Number)
	require.NoError(t, err)
	assert.Equal(t, OrderInvoiced, stored.Status)

	// Invoicing the same order again is a lifecycle violation.
	_, err = fx.svc.CreateInvoice(ctx, o.Number)
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidState(err))
}

func TestDeleteOrder_OnlyPending(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	o := fx.createOrder(t, line("SKU-1", 1, "10.00"))
	require.NoError(t, fx.svc.DeleteOrder(ctx, o.Number))
	_, err := fx.svc.GetOrder(ctx, o.Number)
	assert.True(t, apperror.IsNotFound(err))

	o2 := fx.createOrder(t, line("SKU-1", 1, "10.00"))
	_, err = fx.svc.CreateInvoice(ctx, o2.Number)
	require.NoError(t, err)
	err = fx.svc.DeleteOrder(ctx, o2.Number)
	assert.True(t, apperror.IsInvalidState(err))
}

func TestRecordPayment_PartialThenPaidThenOverpay(t *testing.T) {
	// 80.00 invoice: 30 -> PARTIAL, +50 -> PAID, any further payment rejected.
	fx := newFixture()
	ctx := context.Background()
	inv := fx.createInvoice(t, line("SKU-1", 2, "40.00"))

	inv, err := fx.svc.RecordPayment(ctx, inv.Number, types.MustMoney("30.00"), time.Now(), "first")
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentPartial, inv.PaymentStatus)
	assert.True(t, inv.Outstanding().Equal(types.MustMoney("50")), "outstanding: %s", inv.Outstanding())

	inv, err = fx.svc.RecordPayment(ctx, inv.Number, types.MustMoney("50.00"), time.Now(), "second")
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentPaid, inv.PaymentStatus)
	assert.True(t, inv.Outstanding().IsZero())
	assert.Len(t, inv.Payments, 2)

	_, err = fx.svc.RecordPayment(ctx, inv.Number, types.MustMoney("0.01"), time.Now(), "overpay")
	require.Error(t, err)
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)

	_, err = fx.svc.RecordPayment(ctx, inv.Number, types.MustMoney("-5"), time.Now(), "")
	assert.Error(t, err)
}

func TestDispatch_AppendsSaleMovements(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	inv := fx.createInvoice(t, line("SKU-1", 2, "10.00"), line("SKU-2", 5, "4.00"))

	inv, err := fx.svc.Dispatch(ctx, inv.Number, "TransCorp", "ABC-123")
	require.NoError(t, err)
	assert.Equal(t, DispatchDispatched, inv.DispatchStatus)
	assert.Equal(t, "TransCorp", inv.Carrier)
	assert.NotNil(t, inv.DispatchedAt)

	require.Len(t, fx.ledger.calls, 2)
	assert.Equal(t, ledgerCall{"SKU-1", inventory.Sale, 2, inv.Number}, fx.ledger.calls[0])
	assert.Equal(t, ledgerCall{"SKU-2", inventory.Sale, 5, inv.Number}, fx.ledger.calls[1])

	// Second dispatch is rejected.
	_, err = fx.svc.Dispatch(ctx, inv.Number, "TransCorp", "ABC-123")
	assert.True(t, apperror.IsInvalidState(err))
}

func TestDispatch_InsufficientStockAborts(t *testing.T) {
	fx := newFixture()
	fx.ledger.stock = map[string]int64{"SKU-2": 1}
	ctx := context.Background()
	inv := fx.createInvoice(t, line("SKU-1", 2, "10.00"), line("SKU-2", 5, "4.00"))

	_, err := fx.svc.Dispatch(ctx, inv.Number, "TransCorp", "ABC-123")
	require.Error(t, err)
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)

	// Invoice stays pending: the update never ran.
	stored, err := fx.svc.GetInvoice(ctx, inv.Number)
	require.NoError(t, err)
	assert.Equal(t, DispatchPending, stored.DispatchStatus)
}

func TestCreateCreditNote_PerLineCap(t *testing.T) {
	// 10 units on the invoice line; 6 credited, then 5 more must fail,
	// then 4 completes the line.
	fx := newFixture()
	ctx := context.Background()
	inv := fx.createInvoice(t, line("SKU-1", 10, "10.00"))

	note, err := fx.svc.CreateCreditNote(ctx, inv.Number, CreditNoteRequest{
		Reason: ReasonDiscount,
		Lines:  []CreditNoteRequestLine{{SKU: "SKU-1", Quantity: 6}},
	})
	require.NoError(t, err)
	assert.Contains(t, note.Number, "CN-")
	assert.True(t, note.TotalAmount.Equal(types.MustMoney("60")))

	_, err = fx.svc.CreateCreditNote(ctx, inv.Number, CreditNoteRequest{
		Reason: ReasonDiscount,
		Lines:  []CreditNoteRequestLine{{SKU: "SKU-1", Quantity: 5}},
	})
	require.Error(t, err)
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)

	_, err = fx.svc.CreateCreditNote(ctx, inv.Number, CreditNoteRequest{
		Reason: ReasonDiscount,
		Lines:  []CreditNoteRequestLine{{SKU: "SKU-1", Quantity: 4}},
	})
	require.NoError(t, err)

	stored, err := fx.svc.GetInvoice(ctx, inv.Number)
	require.NoError(t, err)
	assert.True(t, stored.CreditApplied.Equal(types.MustMoney("100")))
	assert.Len(t, stored.CreditNoteNumbers, 2)
	assert.Equal(t, int64(0), stored.Lines[0].RemainingQuantity())
}

func TestCreateCreditNote_ReturnRestoresStock(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	inv := fx.createInvoice(t, line("SKU-1", 3, "10.00"))

	note, err := fx.svc.CreateCreditNote(ctx, inv.Number, CreditNoteRequest{
		Reason: ReasonReturn,
		Lines:  []CreditNoteRequestLine{{SKU: "SKU-1", Quantity: 2}},
	})
	require.NoError(t, err)

	require.Len(t, fx.ledger.calls, 1)
	assert.Equal(t, ledgerCall{"SKU-1", inventory.SaleReturn, 2, note.Number}, fx.ledger.calls[0])
}

func TestCreateCreditNote_FlipsPaymentStatusToPaid(t *testing.T) {
	// 80 invoice, 30 paid (PARTIAL); crediting 50 covers the rest.
	fx := newFixture()
	ctx := context.Background()
	inv := fx.createInvoice(t, line("SKU-1", 8, "10.00"))

	_, err := fx.svc.RecordPayment(ctx, inv.Number, types.MustMoney("30.00"), time.Now(), "")
	require.NoError(t, err)

	_, err = fx.svc.CreateCreditNote(ctx, inv.Number, CreditNoteRequest{
		Reason: ReasonPricingError,
		Lines:  []CreditNoteRequestLine{{SKU: "SKU-1", Quantity: 5}},
	})
	require.NoError(t, err)

	stored, err := fx.svc.GetInvoice(ctx, inv.Number)
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentPaid, stored.PaymentStatus)
	assert.True(t, stored.Outstanding().IsZero())
}

func TestCreateCreditNote_Validation(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	inv := fx.createInvoice(t, line("SKU-1", 2, "10.00"))

	_, err := fx.svc.CreateCreditNote(ctx, inv.Number, CreditNoteRequest{
		Reason: CreditNoteReason("BOGUS"),
		Lines:  []CreditNoteRequestLine{{SKU: "SKU-1", Quantity: 1}},
	})
	assert.Error(t, err)

	_, err = fx.svc.CreateCreditNote(ctx, inv.Number, CreditNoteRequest{Reason: ReasonOther})
	assert.Error(t, err)

	_, err = fx.svc.CreateCreditNote(ctx, inv.Number, CreditNoteRequest{
		Reason: ReasonOther,
		Lines:  []CreditNoteRequestLine{{SKU: "SKU-9", Quantity: 1}},
	})
	assert.Error(t, err)

	_, err = fx.svc.CreateCreditNote(ctx, "INV-NOPE", CreditNoteRequest{
		Reason: ReasonOther,
		Lines:  []CreditNoteRequestLine{{SKU: "SKU-1", Quantity: 1}},
	})
	assert.True(t, apperror.IsNotFound(err))
}
