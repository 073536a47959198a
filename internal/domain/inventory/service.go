package inventory

import (
	"context"
	"fmt"
	"time"

	"comercia/internal/core/apperror"
	"comercia/internal/core/id"
	"comercia/internal/core/tx"
	"comercia/internal/core/types"
	"comercia/internal/domain"
	"comercia/internal/domain/catalogs/product"
	"comercia/internal/domain/catalogs/warehouse"
	"comercia/pkg/logger"
	"comercia/pkg/numerator"
)

// Service is the single entry point for stock changes. Every append runs in
// a transaction holding a FOR UPDATE lock on the product row, so concurrent
// writers for the same SKU serialize and the negative-stock guard holds.
type Service struct {
	repo       Repository
	products   product.Repository
	warehouses warehouse.Repository
	txManager  tx.Manager
	numerator  *numerator.Service
}

// NewService creates a new ledger service.
func NewService(
	repo Repository,
	products product.Repository,
	warehouses warehouse.Repository,
	txManager tx.Manager,
	num *numerator.Service,
) *Service {
	return &Service{
		repo:       repo,
		products:   products,
		warehouses: warehouses,
		txManager:  txManager,
		numerator:  num,
	}
}

// AppendOptions carries the optional attributes of a movement.
type AppendOptions struct {
	// UnitCost updates the weighted-average cost on PURCHASE movements
	UnitCost *types.Money

	WarehouseID *id.ID
	Reason      string
	Responsible string
	Notes       string
	Date        *time.Time
}

// Append records one movement and updates the product's stock (and, for
// purchases, its weighted-average cost) in the same transaction.
// qty is a positive magnitude; the sign comes from the movement type.
func (s *Service) Append(ctx context.Context, sku string, t MovementType, qty int64, reference string, opts AppendOptions) (*StockMovement, error) {
	if t == Adjustment {
		return nil, apperror.NewValidation("use Adjust for manual corrections").
			WithDetail("field", "movementType")
	}
	if t == TransferIn || t == TransferOut {
		return nil, apperror.NewValidation("use Transfer for warehouse transfers").
			WithDetail("field", "movementType")
	}
	if qty <= 0 {
		return nil, apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity")
	}

	m := NewStockMovement(sku, t, Sign(t)*qty, reference)
	m.WarehouseID = opts.WarehouseID
	m.Reason = opts.Reason
	m.Responsible = opts.Responsible
	m.Notes = opts.Notes
	if opts.Date != nil {
		m.Date = *opts.Date
	}
	if t == Purchase {
		m.UnitCost = opts.UnitCost
	}
	if err := m.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.applyMovement(ctx, m, opts.UnitCost)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "stock movement recorded",
		"sku", sku, "type", string(t), "quantity", m.Quantity, "reference", reference)
	return m, nil
}

// Adjust records a manual correction. delta is signed; the resulting stock
// must stay non-negative.
func (s *Service) Adjust(ctx context.Context, sku string, delta int64, reason, responsible string) (*StockMovement, error) {
	if delta == 0 {
		return nil, apperror.NewValidation("adjustment delta must not be zero").
			WithDetail("field", "quantity")
	}
	if reason == "" {
		return nil, apperror.NewValidation("reason is required").
			WithDetail("field", "reason")
	}

	m := NewStockMovement(sku, Adjustment, delta, fmt.Sprintf("ADJ-%s", sku))
	m.Reason = reason
	m.Responsible = responsible
	if err := m.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.applyMovement(ctx, m, nil)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "stock adjusted", "sku", sku, "delta", delta, "reason", reason)
	return m, nil
}

// SeedStock records the opening quantity of a newly created product as
// an adjustment under an INIT reference. Called by the product catalog
// inside the creating transaction.
func (s *Service) SeedStock(ctx context.Context, sku string, qty int64, responsible string) error {
	if qty <= 0 {
		return apperror.NewValidation("initial stock must be positive").
			WithDetail("field", "initialStock")
	}

	m := NewStockMovement(sku, Adjustment, qty, fmt.Sprintf("INIT-%s", sku))
	m.Reason = "initial stock"
	m.Responsible = responsible
	if err := m.Validate(ctx); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.applyMovement(ctx, m, nil)
	})
}

// Transfer moves qty of sku between warehouses: one TRANSFER_OUT and one
// TRANSFER_IN under a shared TRF reference, both-or-neither.
func (s *Service) Transfer(ctx context.Context, sourceID, targetID id.ID, sku string, qty int64, notes string) (string, error) {
	if qty <= 0 {
		return "", apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity")
	}
	if sourceID == targetID {
		return "", apperror.NewValidation("source and target warehouses must differ").
			WithDetail("field", "targetWarehouseId")
	}

	if err := s.checkWarehouse(ctx, sourceID, "source"); err != nil {
		return "", err
	}
	if err := s.checkWarehouse(ctx, targetID, "target"); err != nil {
		return "", err
	}

	reference, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("TRF"),
		&numerator.Options{Strategy: numerator.StrategyCached}, time.Now())
	if err != nil {
		return "", fmt.Errorf("generate transfer number: %w", err)
	}

	out := NewStockMovement(sku, TransferOut, -qty, reference)
	out.WarehouseID = &sourceID
	out.TargetWarehouseID = &targetID
	out.Notes = notes

	in := NewStockMovement(sku, TransferIn, qty, reference)
	in.WarehouseID = &targetID
	in.TargetWarehouseID = &targetID
	in.Notes = notes

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.products.GetBySKUForUpdate(ctx, sku)
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewNotFound("product", sku)
			}
			return err
		}

		// Total stock is unchanged, but the outbound leg must be covered.
		if p.StockCurrent < qty {
			return apperror.NewInsufficientStock(sku, qty, p.StockCurrent)
		}

		return s.repo.InsertPair(ctx, out, in)
	})
	if err != nil {
		return "", err
	}

	logger.Info(ctx, "stock transferred",
		"sku", sku, "quantity", qty, "reference", reference,
		"source", sourceID.String(), "target", targetID.String())
	return reference, nil
}

// History returns ledger rows newest-first.
func (s *Service) History(ctx context.Context, filter MovementFilter) (domain.ListResult[*StockMovement], error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Type != "" && !IsValidType(filter.Type) {
		return domain.ListResult[*StockMovement]{}, apperror.NewValidation("invalid movement type").
			WithDetail("field", "movementType").
			WithDetail("value", string(filter.Type))
	}
	return s.repo.List(ctx, filter)
}

// RebuildStock recomputes stock_current from the movement sum and writes it
// back if it drifted. Returns the recomputed value.
func (s *Service) RebuildStock(ctx context.Context, sku string) (int64, error) {
	var sum int64
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.products.GetBySKUForUpdate(ctx, sku)
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewNotFound("product", sku)
			}
			return err
		}

		sum, err = s.repo.SumBySKU(ctx, sku)
		if err != nil {
			return fmt.Errorf("sum movements: %w", err)
		}

		if sum != p.StockCurrent {
			logger.Warn(ctx, "stock drift detected",
				"sku", sku, "stored", p.StockCurrent, "ledger", sum)
			return s.products.UpdateStock(ctx, sku, sum)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return sum, nil
}

// applyMovement locks the product row, enforces the negative-stock guard,
// inserts the movement and writes the derived stock (and cost) back.
// Must run inside a transaction.
func (s *Service) applyMovement(ctx context.Context, m *StockMovement, unitCost *types.Money) error {
	p, err := s.products.GetBySKUForUpdate(ctx, m.SKU)
	if err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewNotFound("product", m.SKU)
		}
		return err
	}

	newStock := p.StockCurrent + m.Quantity
	if newStock < 0 {
		return apperror.NewInsufficientStock(m.SKU, -m.Quantity, p.StockCurrent)
	}

	if err := s.repo.Insert(ctx, m); err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}

	if m.Type == Purchase && unitCost != nil {
		cost := types.WeightedAverageCost(p.StockCurrent, p.Cost, m.Quantity, *unitCost)
		return s.products.UpdateStockAndCost(ctx, m.SKU, newStock, cost)
	}
	return s.products.UpdateStock(ctx, m.SKU, newStock)
}

func (s *Service) checkWarehouse(ctx context.Context, whID id.ID, role string) error {
	wh, err := s.warehouses.GetByID(ctx, whID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewNotFound("warehouse", whID.String()).WithDetail("role", role)
		}
		return err
	}
	if !wh.CanMoveStock() {
		return apperror.NewInvalidState(fmt.Sprintf("%s warehouse is not active", role)).
			WithDetail("warehouse_id", whID.String())
	}
	return nil
}
