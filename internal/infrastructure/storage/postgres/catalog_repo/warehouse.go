package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"comercia/internal/domain/catalogs/warehouse"
	"comercia/internal/infrastructure/storage/postgres"
)

const warehouseTable = "cat_warehouses"

// WarehouseRepo implements warehouse.Repository.
type WarehouseRepo struct {
	*BaseCatalogRepo[*warehouse.Warehouse]
}

// NewWarehouseRepo creates a new warehouse repository.
func NewWarehouseRepo(txManager *postgres.TxManager) *WarehouseRepo {
	return &WarehouseRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			warehouseTable,
			postgres.ExtractDBColumns[warehouse.Warehouse](),
			func() *warehouse.Warehouse { return &warehouse.Warehouse{} },
		),
	}
}

// ClearMain clears the main flag on all warehouses.
func (r *WarehouseRepo) ClearMain(ctx context.Context) error {
	q := r.Builder().
		Update(warehouseTable).
		Set("is_main", false).
		Where(squirrel.Eq{"is_main": true})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("clear main: %w", err)
	}

	return nil
}
