// Package register_repo provides PostgreSQL implementations of the stock and cash movement logs.
package register_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"shopledger/internal/core/id"
	"shopledger/internal/domain/registers/stock"
	"shopledger/internal/infrastructure/storage/postgres"
)

const stockMovementsTable = "stock_movements"

var stockColumns = postgres.ExtractDBColumns[stock.Movement]()

// StockRepo implements stock.Repository.
type StockRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

var _ stock.Repository = (*StockRepo)(nil)

// NewStockRepo creates a new stock movement repository.
func NewStockRepo(txManager *postgres.TxManager) *StockRepo {
	return &StockRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateMovement appends one movement row.
func (r *StockRepo) CreateMovement(ctx context.Context, m *stock.Movement) error {
	sql, args, err := r.builder.Insert(stockMovementsTable).
		Columns(stockColumns...).
		Values(postgres.StructValues(m, stockColumns)...).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert stock movement: %w", postgres.MapError(err))
	}
	return nil
}

// SumByProduct returns Σ quantity for the product.
func (r *StockRepo) SumByProduct(ctx context.Context, productID id.ID) (int64, error) {
	sql, args, err := r.builder.Select("COALESCE(SUM(quantity), 0)").
		From(stockMovementsTable).
		Where(squirrel.Eq{"product_id": productID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var total int64
	if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum stock: %w", postgres.MapError(err))
	}
	return total, nil
}

func (r *StockRepo) historyQuery(productID id.ID, filter stock.MovementFilter) squirrel.SelectBuilder {
	q := r.builder.Select(stockColumns...).
		From(stockMovementsTable).
		Where(squirrel.Eq{"product_id": productID})
	if filter.Kind != nil {
		q = q.Where(squirrel.Eq{"kind": *filter.Kind})
	}
	q = q.OrderBy("created_at DESC", "id DESC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}
	return q
}

// ListByProduct returns the product's movements, newest first.
func (r *StockRepo) ListByProduct(ctx context.Context, productID id.ID, filter stock.MovementFilter) ([]stock.Movement, error) {
	return r.selectMovements(ctx, r.historyQuery(productID, filter))
}

// ListByOrder returns the movements written by an order.
func (r *StockRepo) ListByOrder(ctx context.Context, orderID id.ID) ([]stock.Movement, error) {
	return r.selectMovements(ctx, r.builder.Select(stockColumns...).
		From(stockMovementsTable).
		Where(squirrel.Eq{"order_id": orderID}).
		OrderBy("created_at", "id"))
}

func (r *StockRepo) selectMovements(ctx context.Context, q squirrel.SelectBuilder) ([]stock.Movement, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var out []stock.Movement
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("select stock movements: %w", err)
	}
	return out, nil
}
