// Package ledger_repo provides the PostgreSQL implementation of the
// stock movement ledger. Movement rows are append-only: there is no
// update or delete path here.
package ledger_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"comercia/internal/domain"
	"comercia/internal/domain/inventory"
	"comercia/internal/infrastructure/storage/postgres"
)

const stockMovementsTable = "reg_stock_movements"

// StockRepo implements inventory.Repository.
type StockRepo struct {
	txManager *postgres.TxManager
	batch     *postgres.BatchExecutor
	builder   squirrel.StatementBuilderType
	cols      []string
}

// NewStockRepo creates a new stock ledger repository.
func NewStockRepo(txManager *postgres.TxManager) *StockRepo {
	return &StockRepo{
		txManager: txManager,
		batch:     postgres.NewBatchExecutor(txManager),
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		cols:      postgres.ExtractDBColumns[inventory.StockMovement](),
	}
}

func (r *StockRepo) insertQuery(m *inventory.StockMovement) (string, []any, error) {
	data := postgres.StructToMap(m)
	values := make(map[string]any, len(r.cols))
	for _, col := range r.cols {
		if val, ok := data[col]; ok {
			values[col] = val
		}
	}
	return r.builder.Insert(stockMovementsTable).SetMap(values).ToSql()
}

// Insert appends one movement row.
func (r *StockRepo) Insert(ctx context.Context, m *inventory.StockMovement) error {
	sql, args, err := r.insertQuery(m)
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}

// InsertPair appends the two legs of a transfer in one round-trip.
// Requires an open transaction so both legs commit or neither does.
func (r *StockRepo) InsertPair(ctx context.Context, out, in *inventory.StockMovement) error {
	queries := make([]postgres.BatchQuery, 0, 2)
	for _, m := range []*inventory.StockMovement{out, in} {
		sql, args, err := r.insertQuery(m)
		if err != nil {
			return fmt.Errorf("build insert: %w", err)
		}
		queries = append(queries, postgres.BatchQuery{SQL: sql, Args: args})
	}

	if err := r.batch.ExecuteBatch(ctx, queries); err != nil {
		return fmt.Errorf("insert transfer legs: %w", err)
	}
	return nil
}

// List returns movements newest-first with total count.
func (r *StockRepo) List(ctx context.Context, filter inventory.MovementFilter) (domain.ListResult[*inventory.StockMovement], error) {
	result := domain.ListResult[*inventory.StockMovement]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.builder.
		Select(r.cols...).
		From(stockMovementsTable)

	if filter.SKU != "" {
		q = q.Where(squirrel.Eq{"sku": filter.SKU})
	}
	if filter.Type != "" {
		q = q.Where(squirrel.Eq{"movement_type": filter.Type})
	}
	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"date": *filter.DateTo})
	}

	countQ := r.builder.Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	q = q.OrderBy("date DESC", "created_at DESC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list movements: %w", err)
	}

	return result, nil
}

// SumBySKU returns the sum of signed quantities for a SKU.
func (r *StockRepo) SumBySKU(ctx context.Context, sku string) (int64, error) {
	q := r.builder.
		Select("COALESCE(SUM(quantity), 0)").
		From(stockMovementsTable).
		Where(squirrel.Eq{"sku": sku})

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var sum int64
	err = r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&sum)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("sum movements: %w", err)
	}
	return sum, nil
}
