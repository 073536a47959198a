package purchasing

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
		return nil, apperror.NewNotFound("purchase order", number)
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
	return apperror.NewNotFound("purchase order", orderID.String())
}

func (f *fakeOrders) List(ctx context.Context, filter domain.DocumentFilter) (domain.ListResult[*Order], error) {
	items := make([]*Order, 0)
	for _, o := range f.byNumber {
		if !o.DeletionMark {
			items = append(items, cloneOrder(o))
		}
	}
	return domain.ListResult[*Order]{Items: items, TotalCount: int64(len(items)), Limit: filter.Limit}, nil
}

func cloneInvoice(inv *Invoice) *Invoice {
	c := *inv
	c.Lines = append([]InvoiceLine(nil), inv.Lines...)
	c.Payments = append([]Payment(nil), inv.Payments...)
	c.DebitNoteNumbers = append([]string(nil), inv.DebitNoteNumbers...)
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
		return nil, apperror.NewNotFound("purchase invoice", number)
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
	byNumber map[string]*DebitNote
}

func newFakeNotes() *fakeNotes { return &fakeNotes{byNumber: make(map[string]*DebitNote)} }

func (f *fakeNotes) Create(ctx context.Context, n *DebitNote) error {
	f.byNumber[n.Number] = n
	return nil
}

func (f *fakeNotes) GetByNumber(ctx context.Context, number string) (*DebitNote, error) {
	n, ok := f.byNumber[number]
	if !ok {
		return nil, apperror.NewNotFound("debit note", number)
	}
	return n, nil
}

func (f *fakeNotes) List(ctx context.Context, filter domain.DocumentFilter) (domain.ListResult[*DebitNote], error) {
	items := make([]*DebitNote, 0, len(f.byNumber))
	for _, n := range f.byNumber {
		items = append(items, n)
	}
	return domain.ListResult[*DebitNote]{Items: items, TotalCount: int64(len(items)), Limit: filter.Limit}, nil
}

func (f *fakeNotes) ListByInvoice(ctx context.Context, invoiceNumber string) ([]*DebitNote, error) {
	items := make([]*DebitNote, 0)
	for _, n := range f.byNumber {
		if n.InvoiceNumber == invoiceNumber {
			items = append(items, n)
		}
	}
	return items, nil
}

type fakeSuppliers struct {
	ids map[id.ID]bool
}

func (f *fakeSuppliers) Exists(ctx context.Context, supplierID id.ID) (bool, error) {
	return f.ids[supplierID], nil
}

type ledgerCall struct {
	sku       string
	t         inventory.MovementType
	qty       int64
	reference string
	unitCost  *types.Money
}

type fakeLedger struct {
	calls []ledgerCall
}

func (f *fakeLedger) Append(ctx context.Context, sku string, t inventory.MovementType, qty int64, reference string, opts inventory.AppendOptions) (*inventory.StockMovement, error) {
	f.calls = append(f.calls, ledgerCall{sku: sku, t: t, qty: qty, reference: reference, unitCost: opts.UnitCost})
	return inventory.NewStockMovement(sku, t, inventory.Sign(t)*qty, reference), nil
}

type fixture struct {
	svc        *Service
	ledger     *fakeLedger
	supplierID id.ID
}

func newFixture() *fixture {
	supplierID := id.New()
	ledger := &fakeLedger{}
	svc := NewService(newFakeOrders(), newFakeInvoices(), newFakeNotes(),
		&fakeSuppliers{ids: map[id.ID]bool{supplierID: true}},
		ledger, fakeTxManager{}, numerator.New(&fakeSeq{}))
	return &fixture{svc: svc, ledger: ledger, supplierID: supplierID}
}

func (fx *fixture) createOrder(t *testing.T, lines ...OrderLine) *Order {
	t.Helper()
	o := NewOrder(fx.supplierID, "Distribuidora Norte", lines)
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

func line(sku string, qty int64, cost string) OrderLine {
	return OrderLine{SKU: sku, Quantity: qty, UnitCost: types.MustMoney(cost)}
}

// --- tests ---

func TestCreateOrder(t *testing.T) {
	fx := newFixture()

	o := fx.createOrder(t, line("SKU-1", 10, "5.00"), line("SKU-2", 4, "7.50"))

	assert.Contains(t, o.Number, "PORD-")
	assert.Equal(t, OrderPending, o.Status)
	assert.True(t, o.TotalAmount.Equal(types.MustMoney("80")), "total: %s", o.TotalAmount)
}

func TestCreateOrder_UnknownSupplier(t *testing.T) {
	fx := newFixture()

	err := fx.svc.CreateOrder(context.Background(),
		NewOrder(id.New(), "Ghost", []OrderLine{line("SKU-1", 1, "5.00")}))
	assert.True(t, apperror.IsNotFound(err))
}

func TestCreateInvoice_FreezesOrder(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	o := fx.createOrder(t, line("SKU-1", 10, "5.00"))
	inv, err := fx.svc.CreateInvoice(ctx, o.Number)
	require.NoError(t, err)

	assert.Contains(t, inv.Number, "PINV-")
	assert.Equal(t, entity.PaymentPending, inv.PaymentStatus)
	assert.Equal(t, ReceptionPending, inv.ReceptionStatus)

	stored, err := fx.svc.GetOrder(ctx, o.Number)
	require.NoError(t, err)
	assert.Equal(t, OrderInvoiced, stored.Status)

	_, err = fx.svc.CreateInvoice(ctx, o.Number)
	assert.True(t, apperror.IsInvalidState(err))
}

func TestDeleteOrder_OnlyPending(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	o := fx.createOrder(t, line("SKU-1", 1, "5.00"))
	_, err := fx.svc.CreateInvoice(ctx, o.Number)
	require.NoError(t, err)

	err = fx.svc.DeleteOrder(ctx, o.Number)
	assert.True(t, apperror.IsInvalidState(err))
}

func TestRegisterReception_AppendsPurchaseMovementsWithCost(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	inv := fx.createInvoice(t, line("SKU-1", 10, "5.00"), line("SKU-2", 4, "7.50"))

	inv, err := fx.svc.RegisterReception(ctx, inv.Number)
	require.NoError(t, err)
	assert.Equal(t, ReceptionReceived, inv.ReceptionStatus)
	assert.NotNil(t, inv.ReceivedAt)

	require.Len(t, fx.ledger.calls, 2)
	first := fx.ledger.calls[0]
	assert.Equal(t, "SKU-1", first.sku)
	assert.Equal(t, inventory.Purchase, first.t)
	assert.Equal(t, int64(10), first.qty)
	assert.Equal(t, inv.Number, first.reference)
	require.NotNil(t, first.unitCost)
	assert.True(t, first.unitCost.Equal(types.MustMoney("5.00")))

	// Second reception is rejected.
	_, err = fx.svc.RegisterReception(ctx, inv.Number)
	assert.True(t, apperror.IsInvalidState(err))
}

func TestRecordPayment_PartialThenPaidThenOverpay(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	inv := fx.createInvoice(t, line("SKU-1", 10, "8.00"))

	inv, err := fx.svc.RecordPayment(ctx, inv.Number, types.MustMoney("30.00"), time.Now(), "advance")
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentPartial, inv.PaymentStatus)

	inv, err = fx.svc.RecordPayment(ctx, inv.Number, types.MustMoney("50.00"), time.Now(), "balance")
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentPaid, inv.PaymentStatus)
	assert.True(t, inv.Outstanding().IsZero())

	_, err = fx.svc.RecordPayment(ctx, inv.Number, types.MustMoney("0.01"), time.Now(), "")
	require.Error(t, err)
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestCreateDebitNote_ReopensPaidInvoice(t *testing.T) {
	// 80 invoice fully paid; a 12 debit note raises the payable to 92 and
	// the invoice falls back to PARTIAL until the difference is settled.
	fx := newFixture()
	ctx := context.Background()
	inv := fx.createInvoice(t, line("SKU-1", 10, "8.00"))

	_, err := fx.svc.RecordPayment(ctx, inv.Number, types.MustMoney("80.00"), time.Now(), "")
	require.NoError(t, err)

	cost := types.MustMoney("1.20")
	note, err := fx.svc.CreateDebitNote(ctx, inv.Number, DebitNoteRequest{
		Reason: ReasonPriceAdjustment,
		Lines:  []DebitNoteRequestLine{{SKU: "SKU-1", Quantity: 10, UnitCost: &cost}},
	})
	require.NoError(t, err)
	assert.Contains(t, note.Number, "DN-")
	assert.True(t, note.TotalAmount.Equal(types.MustMoney("12")))

	stored, err := fx.svc.GetInvoice(ctx, inv.Number)
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentPartial, stored.PaymentStatus)
	assert.True(t, stored.Outstanding().Equal(types.MustMoney("12")), "outstanding: %s", stored.Outstanding())
	assert.Equal(t, []string{note.Number}, stored.DebitNoteNumbers)

	// The reopened balance can now be paid off.
	stored, err = fx.svc.RecordPayment(ctx, inv.Number, types.MustMoney("12.00"), time.Now(), "")
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentPaid, stored.PaymentStatus)
}

func TestCreateDebitNote_DefaultsToInvoiceCost(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	inv := fx.createInvoice(t, line("SKU-1", 4, "7.50"))

	note, err := fx.svc.CreateDebitNote(ctx, inv.Number, DebitNoteRequest{
		Reason: ReasonAdditionalCosts,
		Lines:  []DebitNoteRequestLine{{SKU: "SKU-1", Quantity: 2}},
	})
	require.NoError(t, err)
	assert.True(t, note.TotalAmount.Equal(types.MustMoney("15")))
	assert.True(t, note.Lines[0].UnitCost.Equal(types.MustMoney("7.50")))
}

func TestCreateDebitNote_Validation(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	inv := fx.createInvoice(t, line("SKU-1", 4, "7.50"))

	_, err := fx.svc.CreateDebitNote(ctx, inv.Number, DebitNoteRequest{
		Reason: DebitNoteReason("BOGUS"),
		Lines:  []DebitNoteRequestLine{{SKU: "SKU-1", Quantity: 1}},
	})
	assert.Error(t, err)

	_, err = fx.svc.CreateDebitNote(ctx, inv.Number, DebitNoteRequest{Reason: ReasonOther})
	assert.Error(t, err)

	// quantity above the invoiced quantity
	_, err = fx.svc.CreateDebitNote(ctx, inv.Number, DebitNoteRequest{
		Reason: ReasonOther,
		Lines:  []DebitNoteRequestLine{{SKU: "SKU-1", Quantity: 5}},
	})
	assert.Error(t, err)

	_, err = fx.svc.CreateDebitNote(ctx, inv.Number, DebitNoteRequest{
		Reason: ReasonOther,
		Lines:  []DebitNoteRequestLine{{SKU: "SKU-9", Quantity: 1}},
	})
	assert.Error(t, err)
}
