package product

import (
	"context"

	"comercia/internal/core/apperror"
	appctx "comercia/internal/core/context"
	"comercia/internal/core/tx"
	"comercia/internal/domain"
)

// Service provides business logic for the Product catalog.
type Service struct {
	*domain.CatalogService[*Product]
	repo      Repository
	txManager tx.Manager
	ledger    StockLedger
}

// NewService creates a new Product service.
func NewService(repo Repository, txManager tx.Manager, ledger StockLedger) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Product]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "product",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		txManager:      txManager,
		ledger:         ledger,
	}

	base.Hooks().On(domain.BeforeCreate, svc.checkUniqueSKU)
	base.Hooks().On(domain.BeforeUpdate, svc.guardLedgerFields)

	return svc
}

// Create persists the product and, when an opening quantity was
// requested, seeds the ledger in the same transaction. A failed seed
// rolls the product back.
func (s *Service) Create(ctx context.Context, p *Product) error {
	if p.InitialStock < 0 {
		return apperror.NewValidation("initial stock must not be negative").
			WithDetail("field", "initialStock")
	}
	if p.InitialStock == 0 {
		return s.CatalogService.Create(ctx, p)
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.CatalogService.Create(ctx, p); err != nil {
			return err
		}
		return s.ledger.SeedStock(ctx, p.Code, p.InitialStock, responsibleFrom(ctx))
	})
	if err != nil {
		return err
	}

	p.StockCurrent = p.InitialStock
	return nil
}

func responsibleFrom(ctx context.Context) string {
	if user := appctx.GetUser(ctx); user != nil {
		return user.Username
	}
	return ""
}

func (s *Service) checkUniqueSKU(ctx context.Context, p *Product) error {
	exists, err := s.repo.ExistsByCode(ctx, p.Code)
	if err != nil {
		return err
	}
	if exists {
		return apperror.NewDuplicate("product", "sku", p.Code)
	}
	return nil
}

// guardLedgerFields reloads ledger-owned fields so a catalog update can
// never overwrite stock or cost, whatever the caller sent.
func (s *Service) guardLedgerFields(ctx context.Context, p *Product) error {
	current, err := s.repo.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	p.StockCurrent = current.StockCurrent
	p.Cost = current.Cost
	return nil
}

// GetBySKU retrieves a product by its SKU.
func (s *Service) GetBySKU(ctx context.Context, sku string) (*Product, error) {
	return s.GetByCode(ctx, sku)
}
