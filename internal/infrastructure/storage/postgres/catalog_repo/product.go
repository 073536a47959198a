package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"comercia/internal/core/apperror"
	"comercia/internal/core/types"
	"comercia/internal/domain/catalogs/product"
	"comercia/internal/infrastructure/storage/postgres"
)

const productTable = "cat_products"

// ProductRepo implements product.Repository. The code column holds the SKU.
type ProductRepo struct {
	*BaseCatalogRepo[*product.Product]
}

// NewProductRepo creates a new product repository.
func NewProductRepo(txManager *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			productTable,
			postgres.ExtractDBColumns[product.Product](),
			func() *product.Product { return &product.Product{} },
		),
	}
}

// GetBySKUForUpdate loads a product by SKU with a FOR UPDATE row lock.
// Must run inside a transaction; the ledger uses this to serialize stock
// changes per SKU.
func (r *ProductRepo) GetBySKUForUpdate(ctx context.Context, sku string) (*product.Product, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"code": sku}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Suffix("FOR UPDATE")

	p, err := r.FindOne(ctx, q)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("product", sku)
		}
		return nil, err
	}
	return p, nil
}

// UpdateStock writes the new stock level for a locked product row.
func (r *ProductRepo) UpdateStock(ctx context.Context, sku string, stock int64) error {
	q := r.Builder().
		Update(productTable).
		Set("stock_current", stock).
		Where(squirrel.Eq{"code": sku})

	return r.execStockUpdate(ctx, q, sku)
}

// UpdateStockAndCost writes stock and weighted-average cost together.
func (r *ProductRepo) UpdateStockAndCost(ctx context.Context, sku string, stock int64, cost types.Money) error {
	q := r.Builder().
		Update(productTable).
		Set("stock_current", stock).
		Set("cost", cost).
		Where(squirrel.Eq{"code": sku})

	return r.execStockUpdate(ctx, q, sku)
}

func (r *ProductRepo) execStockUpdate(ctx context.Context, q squirrel.UpdateBuilder, sku string) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update stock %s: %w", sku, err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("product", sku)
	}
	return nil
}
