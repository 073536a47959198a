package warehouse

import (
	"context"
	"fmt"
	"time"

	"comercia/internal/core/tx"
	"comercia/internal/domain"
	"comercia/pkg/numerator"
)

// Service provides business logic for the Warehouse catalog.
// Uses composition with domain.CatalogService for common CRUD operations.
type Service struct {
	*domain.CatalogService[*Warehouse]
	repo      Repository
	numerator *numerator.Service
}

// NewService creates a new Warehouse service.
func NewService(repo Repository, txManager tx.Manager, num *numerator.Service) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Warehouse]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "warehouse",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		numerator:      num,
	}

	base.Hooks().On(domain.BeforeCreate, svc.prepareForCreate)
	base.Hooks().On(domain.BeforeUpdate, svc.prepareForUpdate)

	return svc
}

// prepareForCreate handles code generation and the main flag.
func (s *Service) prepareForCreate(ctx context.Context, wh *Warehouse) error {
	if wh.Code == "" {
		cfg := numerator.Config{Prefix: "WH", PadWidth: 3, ResetPeriod: "never"}
		code, err := s.numerator.GetNextNumber(ctx, cfg, nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		wh.Code = code
	}

	if wh.IsMain {
		return s.repo.ClearMain(ctx)
	}
	return nil
}

func (s *Service) prepareForUpdate(ctx context.Context, wh *Warehouse) error {
	if wh.IsMain {
		return s.repo.ClearMain(ctx)
	}
	return nil
}
