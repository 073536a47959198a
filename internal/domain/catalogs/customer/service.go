package customer

import (
	"context"

	"comercia/internal/core/apperror"
	"comercia/internal/core/tx"
	"comercia/internal/domain"
)

// Service provides business logic for the Customer catalog.
type Service struct {
	*domain.CatalogService[*Customer]
	repo Repository
}

// NewService creates a new Customer service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Customer]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "customer",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
	}

	base.Hooks().On(domain.BeforeCreate, svc.checkUniqueRUC)

	return svc
}

// checkUniqueRUC rejects duplicate tax ids before insert. The unique index
// on code is the real guarantee; this produces a friendlier error.
func (s *Service) checkUniqueRUC(ctx context.Context, c *Customer) error {
	if c.Code == "" {
		return apperror.NewValidation("RUC is required").WithDetail("field", "ruc")
	}
	exists, err := s.repo.ExistsByCode(ctx, c.Code)
	if err != nil {
		return err
	}
	if exists {
		return apperror.NewDuplicate("customer", "ruc", c.Code)
	}
	return nil
}
