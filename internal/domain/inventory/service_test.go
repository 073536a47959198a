package inventory

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comercia/internal/core/apperror"
	"comercia/internal/core/id"
	"comercia/internal/core/types"
	"comercia/internal/domain"
	"comercia/internal/domain/catalogs/product"
	"comercia/internal/domain/catalogs/warehouse"
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

type fakeProducts struct {
	bySKU map[string]*product.Product
}

func newFakeProducts(products ...*product.Product) *fakeProducts {
	f := &fakeProducts{bySKU: make(map[string]*product.Product)}
	for _, p := range products {
		f.bySKU[p.Code] = p
	}
	return f
}

func (f *fakeProducts) Create(ctx context.Context, p *product.Product) error {
	f.bySKU[p.Code] = p
	return nil
}

func (f *fakeProducts) GetByID(ctx context.Context, entityID id.ID) (*product.Product, error) {
	for _, p := range f.bySKU {
		if p.ID == entityID {
			return p, nil
		}
	}
	return nil, apperror.NewNotFound("product", entityID.String())
}

func (f *fakeProducts) GetByCode(ctx context.Context, code string) (*product.Product, error) {
	if p, ok := f.bySKU[code]; ok {
		return p, nil
	}
	return nil, apperror.NewNotFound("product", code)
}

func (f *fakeProducts) Update(ctx context.Context, p *product.Product) error { return nil }

func (f *fakeProducts) SetDeletionMark(ctx context.Context, entityID id.ID, marked bool) error {
	return nil
}

func (f *fakeProducts) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*product.Product], error) {
	return domain.ListResult[*product.Product]{}, nil
}

func (f *fakeProducts) Exists(ctx context.Context, entityID id.ID) (bool, error) {
	_, err := f.GetByID(ctx, entityID)
	return err == nil, nil
}

func (f *fakeProducts) ExistsByCode(ctx context.Context, code string) (bool, error) {
	_, ok := f.bySKU[code]
	return ok, nil
}

func (f *fakeProducts) GetBySKUForUpdate(ctx context.Context, sku string) (*product.Product, error) {
	return f.GetByCode(ctx, sku)
}

func (f *fakeProducts) UpdateStock(ctx context.Context, sku string, stock int64) error {
	p, ok := f.bySKU[sku]
	if !ok {
		return apperror.NewNotFound("product", sku)
	}
	p.StockCurrent = stock
	return nil
}

func (f *fakeProducts) UpdateStockAndCost(ctx context.Context, sku string, stock int64, cost types.Money) error {
	p, ok := f.bySKU[sku]
	if !ok {
		return apperror.NewNotFound("product", sku)
	}
	p.StockCurrent = stock
	p.Cost = cost
	return nil
}

type fakeWarehouses struct {
	byID map[id.ID]*warehouse.Warehouse
}

func newFakeWarehouses(whs ...*warehouse.Warehouse) *fakeWarehouses {
	f := &fakeWarehouses{byID: make(map[id.ID]*warehouse.Warehouse)}
	for _, wh := range whs {
		f.byID[wh.ID] = wh
	}
	return f
}

func (f *fakeWarehouses) Create(ctx context.Context, wh *warehouse.Warehouse) error {
	f.byID[wh.ID] = wh
	return nil
}

func (f *fakeWarehouses) GetByID(ctx context.Context, entityID id.ID) (*warehouse.Warehouse, error) {
	if wh, ok := f.byID[entityID]; ok {
		return wh, nil
	}
	return nil, apperror.NewNotFound("warehouse", entityID.String())
}

func (f *fakeWarehouses) GetByCode(ctx context.Context, code string) (*warehouse.Warehouse, error) {
	for _, wh := range f.byID {
		if wh.Code == code {
			return wh, nil
		}
	}
	return nil, apperror.NewNotFound("warehouse", code)
}

func (f *fakeWarehouses) Update(ctx context.Context, wh *warehouse.Warehouse) error { return nil }

func (f *fakeWarehouses) SetDeletionMark(ctx context.Context, entityID id.ID, marked bool) error {
	return nil
}

func (f *fakeWarehouses) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*warehouse.Warehouse], error) {
	return domain.ListResult[*warehouse.Warehouse]{}, nil
}

func (f *fakeWarehouses) Exists(ctx context.Context, entityID id.ID) (bool, error) {
	_, ok := f.byID[entityID]
	return ok, nil
}

func (f *fakeWarehouses) ExistsByCode(ctx context.Context, code string) (bool, error) {
	_, err := f.GetByCode(ctx, code)
	return err == nil, nil
}

func (f *fakeWarehouses) ClearMain(ctx context.Context) error { return nil }

type fakeLedgerRepo struct {
	movements []*StockMovement
}

func (f *fakeLedgerRepo) Insert(ctx context.Context, m *StockMovement) error {
	f.movements = append(f.movements, m)
	return nil
}

func (f *fakeLedgerRepo) InsertPair(ctx context.Context, out, in *StockMovement) error {
	f.movements = append(f.movements, out, in)
	return nil
}

func (f *fakeLedgerRepo) List(ctx context.Context, filter MovementFilter) (domain.ListResult[*StockMovement], error) {
	items := make([]*StockMovement, 0)
	for i := len(f.movements) - 1; i >= 0; i-- {
		m := f.movements[i]
		if filter.SKU != "" && m.SKU != filter.SKU {
			continue
		}
		if filter.Type != "" && m.Type != filter.Type {
			continue
		}
		items = append(items, m)
	}
	return domain.ListResult[*StockMovement]{
		Items:      items,
		TotalCount: int64(len(items)),
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}

func (f *fakeLedgerRepo) SumBySKU(ctx context.Context, sku string) (int64, error) {
	var sum int64
	for _, m := range f.movements {
		if m.SKU == sku {
			sum += m.Quantity
		}
	}
	return sum, nil
}

func newTestService(products *fakeProducts, warehouses *fakeWarehouses) (*Service, *fakeLedgerRepo) {
	repo := &fakeLedgerRepo{}
	svc := NewService(repo, products, warehouses, fakeTxManager{}, numerator.New(&fakeSeq{}))
	return svc, repo
}

func testProduct(sku string, stock int64, cost string) *product.Product {
	p := product.NewProduct(sku, "Product "+sku, types.MustMoney("10.00"))
	p.StockCurrent = stock
	p.Cost = types.MustMoney(cost)
	return p
}

// --- tests ---

func TestSign(t *testing.T) {
	tests := []struct {
		t    MovementType
		want int64
	}{
		{Purchase, 1},
		{SaleReturn, 1},
		{TransferIn, 1},
		{Adjustment, 1},
		{Sale, -1},
		{Loss, -1},
		{TransferOut, -1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Sign(tt.t), string(tt.t))
	}
}

func TestAppend_PurchaseUpdatesStockAndCost(t *testing.T) {
	products := newFakeProducts(testProduct("SKU-1", 10, "5.00"))
	svc, repo := newTestService(products, newFakeWarehouses())

	cost := types.MustMoney("7.00")
	m, err := svc.Append(context.Background(), "SKU-1", Purchase, 10, "PINV-2026-00001",
		AppendOptions{UnitCost: &cost})
	require.NoError(t, err)

	assert.Equal(t, int64(10), m.Quantity)
	p := products.bySKU["SKU-1"]
	assert.Equal(t, int64(20), p.StockCurrent)
	// (10*5 + 10*7) / 20 = 6
	assert.True(t, p.Cost.Equal(types.MustMoney("6")), "cost: %s", p.Cost)
	assert.Len(t, repo.movements, 1)
}

func TestAppend_SaleConsumesStock(t *testing.T) {
	products := newFakeProducts(testProduct("SKU-1", 10, "5.00"))
	svc, repo := newTestService(products, newFakeWarehouses())

	m, err := svc.Append(context.Background(), "SKU-1", Sale, 4, "INV-2026-00001", AppendOptions{})
	require.NoError(t, err)

	assert.Equal(t, int64(-4), m.Quantity)
	assert.Equal(t, int64(6), products.bySKU["SKU-1"].StockCurrent)
	// cost untouched by sales
	assert.True(t, products.bySKU["SKU-1"].Cost.Equal(types.MustMoney("5")))
	assert.Len(t, repo.movements, 1)
}

func TestAppend_LossGuardedByAvailableStock(t *testing.T) {
	// Registering a loss bigger than current stock must fail and change nothing.
	products := newFakeProducts(testProduct("SKU-1", 5, "5.00"))
	svc, repo := newTestService(products, newFakeWarehouses())

	_, err := svc.Append(context.Background(), "SKU-1", Loss, 10, "LOSS-1", AppendOptions{Reason: "damaged"})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)

	assert.Equal(t, int64(5), products.bySKU["SKU-1"].StockCurrent)
	assert.Empty(t, repo.movements)

	// A loss within stock goes through.
	_, err = svc.Append(context.Background(), "SKU-1", Loss, 5, "LOSS-2", AppendOptions{Reason: "expired"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), products.bySKU["SKU-1"].StockCurrent)
}

func TestAppend_UnknownSKU(t *testing.T) {
	svc, _ := newTestService(newFakeProducts(), newFakeWarehouses())

	_, err := svc.Append(context.Background(), "NOPE", Purchase, 1, "PINV-1", AppendOptions{})
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestAppend_RejectsNonPositiveAndReservedTypes(t *testing.T) {
	svc, _ := newTestService(newFakeProducts(testProduct("SKU-1", 5, "1.00")), newFakeWarehouses())
	ctx := context.Background()

	_, err := svc.Append(ctx, "SKU-1", Sale, 0, "INV-1", AppendOptions{})
	assert.Error(t, err)

	_, err = svc.Append(ctx, "SKU-1", Adjustment, 1, "X", AppendOptions{})
	assert.Error(t, err)

	_, err = svc.Append(ctx, "SKU-1", TransferOut, 1, "X", AppendOptions{})
	assert.Error(t, err)
}

func TestAdjust(t *testing.T) {
	products := newFakeProducts(testProduct("SKU-1", 5, "1.00"))
	svc, repo := newTestService(products, newFakeWarehouses())
	ctx := context.Background()

	m, err := svc.Adjust(ctx, "SKU-1", -3, "cycle count", "operator1")
	require.NoError(t, err)
	assert.Equal(t, Adjustment, m.Type)
	assert.Equal(t, int64(-3), m.Quantity)
	assert.Equal(t, int64(2), products.bySKU["SKU-1"].StockCurrent)

	_, err = svc.Adjust(ctx, "SKU-1", 0, "noop", "")
	assert.Error(t, err)

	_, err = svc.Adjust(ctx, "SKU-1", -5, "cycle count", "")
	require.Error(t, err)
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)

	assert.Len(t, repo.movements, 1)
}

func TestSeedStock(t *testing.T) {
	products := newFakeProducts(testProduct("SKU-1", 0, "0"))
	svc, repo := newTestService(products, newFakeWarehouses())
	ctx := context.Background()

	require.NoError(t, svc.SeedStock(ctx, "SKU-1", 25, "admin"))

	require.Len(t, repo.movements, 1)
	m := repo.movements[0]
	assert.Equal(t, Adjustment, m.Type)
	assert.Equal(t, int64(25), m.Quantity)
	assert.Equal(t, "INIT-SKU-1", m.Reference)
	assert.Equal(t, "initial stock", m.Reason)
	assert.Equal(t, int64(25), products.bySKU["SKU-1"].StockCurrent)

	assert.Error(t, svc.SeedStock(ctx, "SKU-1", 0, ""))
	assert.Error(t, svc.SeedStock(ctx, "SKU-1", -5, ""))
}

func TestTransfer_RecordsBothLegsAtomically(t *testing.T) {
	source := warehouse.NewWarehouse("WH-001", "Central", "Av. Lima 100")
	target := warehouse.NewWarehouse("WH-002", "Ate", "Av. Ate 200")
	products := newFakeProducts(testProduct("SKU-1", 10, "5.00"))
	svc, repo := newTestService(products, newFakeWarehouses(source, target))

	ref, err := svc.Transfer(context.Background(), source.ID, target.ID, "SKU-1", 4, "restock")
	require.NoError(t, err)
	assert.Contains(t, ref, "TRF-")

	require.Len(t, repo.movements, 2)
	out, in := repo.movements[0], repo.movements[1]
	assert.Equal(t, TransferOut, out.Type)
	assert.Equal(t, int64(-4), out.Quantity)
	assert.Equal(t, TransferIn, in.Type)
	assert.Equal(t, int64(4), in.Quantity)
	assert.Equal(t, ref, out.Reference)
	assert.Equal(t, ref, in.Reference)

	// Net stock unchanged: the two legs cancel out.
	sum, err := repo.SumBySKU(context.Background(), "SKU-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), sum)
}

func TestTransfer_Guards(t *testing.T) {
	source := warehouse.NewWarehouse("WH-001", "Central", "Av. Lima 100")
	target := warehouse.NewWarehouse("WH-002", "Ate", "Av. Ate 200")
	inactive := warehouse.NewWarehouse("WH-003", "Closed", "-")
	inactive.IsActive = false

	products := newFakeProducts(testProduct("SKU-1", 3, "5.00"))
	svc, repo := newTestService(products, newFakeWarehouses(source, target, inactive))
	ctx := context.Background()

	// Insufficient stock: neither leg is written.
	_, err := svc.Transfer(ctx, source.ID, target.ID, "SKU-1", 5, "")
	require.Error(t, err)
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
	assert.Empty(t, repo.movements)

	// Same warehouse.
	_, err = svc.Transfer(ctx, source.ID, source.ID, "SKU-1", 1, "")
	assert.Error(t, err)

	// Inactive target.
	_, err = svc.Transfer(ctx, source.ID, inactive.ID, "SKU-1", 1, "")
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidState(err))

	// Unknown warehouse.
	_, err = svc.Transfer(ctx, source.ID, id.New(), "SKU-1", 1, "")
	assert.True(t, apperror.IsNotFound(err))
}

func TestHistory_FiltersAndOrder(t *testing.T) {
	products := newFakeProducts(testProduct("SKU-1", 100, "1.00"), testProduct("SKU-2", 100, "1.00"))
	svc, _ := newTestService(products, newFakeWarehouses())
	ctx := context.Background()

	_, err := svc.Append(ctx, "SKU-1", Sale, 1, "INV-1", AppendOptions{})
	require.NoError(t, err)
	_, err = svc.Append(ctx, "SKU-2", Sale, 2, "INV-2", AppendOptions{})
	require.NoError(t, err)
	_, err = svc.Append(ctx, "SKU-1", Purchase, 3, "PINV-1", AppendOptions{})
	require.NoError(t, err)

	res, err := svc.History(ctx, MovementFilter{SKU: "SKU-1"})
	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	// newest first
	assert.Equal(t, Purchase, res.Items[0].Type)
	assert.Equal(t, Sale, res.Items[1].Type)

	_, err = svc.History(ctx, MovementFilter{Type: MovementType("BOGUS")})
	assert.Error(t, err)
}

func TestRebuildStock_CorrectsDrift(t *testing.T) {
	products := newFakeProducts(testProduct("SKU-1", 10, "1.00"))
	svc, repo := newTestService(products, newFakeWarehouses())
	ctx := context.Background()

	_, err := svc.Append(ctx, "SKU-1", Purchase, 5, "PINV-1", AppendOptions{})
	require.NoError(t, err)
	_, err = svc.Append(ctx, "SKU-1", Sale, 3, "INV-1", AppendOptions{})
	require.NoError(t, err)

	// Ledger sum is 5-3=2; simulate drift in the cached column.
	products.bySKU["SKU-1"].StockCurrent = 99

	sum, err := svc.RebuildStock(ctx, "SKU-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), sum)
	assert.Equal(t, int64(2), products.bySKU["SKU-1"].StockCurrent)
	assert.Len(t, repo.movements, 2)
}
