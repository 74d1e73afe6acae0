// Package document_repo provides the PostgreSQL implementation of the order repository.
package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/core/types"
	"shopledger/internal/domain/documents/order"
	"shopledger/internal/infrastructure/storage/postgres"
)

const (
	ordersTable     = "orders"
	orderItemsTable = "order_items"
)

var (
	orderColumns = postgres.ExtractDBColumns[order.Order]()
	itemColumns  = postgres.ExtractDBColumns[order.Item]()
)

// OrderRepo implements order.Repository.
type OrderRepo struct {
	txManager *postgres.TxManager
	batch     *postgres.BatchInserter
	builder   squirrel.StatementBuilderType
}

var _ order.Repository = (*OrderRepo)(nil)

// NewOrderRepo creates a new order repository.
func NewOrderRepo(txManager *postgres.TxManager) *OrderRepo {
	return &OrderRepo{
		txManager: txManager,
		batch:     postgres.NewBatchInserter(txManager),
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts the order header. A duplicate code is reported as Conflict.
func (r *OrderRepo) Create(ctx context.Context, o *order.Order) error {
	sql, args, err := r.builder.Insert(ordersTable).
		Columns(orderColumns...).
		Values(postgres.StructValues(o, orderColumns)...).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert order: %w", postgres.MapError(err))
	}
	return nil
}

// SaveItems replaces the order's lines. Rows are loaded with COPY.
func (r *OrderRepo) SaveItems(ctx context.Context, orderID id.ID, items []order.Item) error {
	sql, args, err := r.builder.Delete(orderItemsTable).
		Where(squirrel.Eq{"order_id": orderID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete items: %w", postgres.MapError(err))
	}

	rows := make([][]any, len(items))
	for i := range items {
		items[i].OrderID = orderID
		rows[i] = postgres.StructValues(&items[i], itemColumns)
	}

	if _, err := r.batch.CopyFromSlice(ctx, orderItemsTable, itemColumns, rows); err != nil {
		return fmt.Errorf("copy items: %w", err)
	}
	return nil
}

func (r *OrderRepo) get(ctx context.Context, orderID id.ID, forUpdate bool) (*order.Order, error) {
	q := r.builder.Select(orderColumns...).
		From(ordersTable).
		Where(squirrel.Eq{"id": orderID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var o order.Order
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &o, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("order", orderID)
		}
		return nil, fmt.Errorf("get order: %w", postgres.MapError(err))
	}
	return &o, nil
}

// GetByID retrieves the order header.
func (r *OrderRepo) GetByID(ctx context.Context, orderID id.ID) (*order.Order, error) {
	return r.get(ctx, orderID, false)
}

// GetForUpdate retrieves the order header with a row lock.
func (r *OrderRepo) GetForUpdate(ctx context.Context, orderID id.ID) (*order.Order, error) {
	return r.get(ctx, orderID, true)
}

// GetItems returns the order lines in line order.
func (r *OrderRepo) GetItems(ctx context.Context, orderID id.ID) ([]order.Item, error) {
	sql, args, err := r.builder.Select(itemColumns...).
		From(orderItemsTable).
		Where(squirrel.Eq{"order_id": orderID}).
		OrderBy("line_no").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []order.Item
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select items: %w", err)
	}
	return items, nil
}

// UpdateStatus persists the status fields of o.
func (r *OrderRepo) UpdateStatus(ctx context.Context, o *order.Order) error {
	sql, args, err := r.builder.Update(ordersTable).
		Set("status", o.Status).
		Set("updated_at", o.UpdatedAt).
		Set("completed_at", o.CompletedAt).
		Where(squirrel.Eq{"id": o.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update order status: %w", postgres.MapError(err))
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("order", o.ID)
	}
	return nil
}

func (r *OrderRepo) listQuery(filter order.Filter) squirrel.SelectBuilder {
	q := r.builder.Select(orderColumns...).From(ordersTable)
	if filter.Type != nil {
		q = q.Where(squirrel.Eq{"type": *filter.Type})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.CounterpartyID != nil {
		q = q.Where(squirrel.Eq{"counterparty_id": *filter.CounterpartyID})
	}
	q = q.OrderBy("created_at DESC", "code DESC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}
	return q
}

// List returns order headers, newest first.
func (r *OrderRepo) List(ctx context.Context, filter order.Filter) ([]order.Order, error) {
	sql, args, err := r.listQuery(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var out []order.Order
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	return out, nil
}

func (r *OrderRepo) outstandingQuery(counterpartyID id.ID, typ order.Type, statuses []order.Status) squirrel.SelectBuilder {
	return r.builder.Select("COALESCE(SUM(total - paid), 0)").
		From(ordersTable).
		Where(squirrel.Eq{
			"counterparty_id": counterpartyID,
			"type":            typ,
			"status":          statuses,
		})
}

// SumOutstanding returns Σ(total − paid) for the counterparty's matching orders.
func (r *OrderRepo) SumOutstanding(ctx context.Context, counterpartyID id.ID, typ order.Type, statuses []order.Status) (types.Money, error) {
	sql, args, err := r.outstandingQuery(counterpartyID, typ, statuses).ToSql()
	if err != nil {
		return types.Zero(), fmt.Errorf("build query: %w", err)
	}

	var total types.Money
	if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return types.Zero(), fmt.Errorf("sum outstanding: %w", postgres.MapError(err))
	}
	return total, nil
}
