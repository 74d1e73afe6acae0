package register_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"shopledger/internal/core/id"
	"shopledger/internal/core/types"
	"shopledger/internal/domain/registers/cash"
	"shopledger/internal/infrastructure/storage/postgres"
)

const cashMovementsTable = "cash_movements"

var cashColumns = postgres.ExtractDBColumns[cash.Movement]()

// signedAmountExpr mirrors cash.Kind.CashSign: INCOME and DEBT_COLLECTION add, the rest subtract.
const signedAmountExpr = "COALESCE(SUM(CASE WHEN kind IN ('INCOME', 'DEBT_COLLECTION') THEN amount ELSE -amount END), 0)"

// CashRepo implements cash.Repository.
type CashRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

var _ cash.Repository = (*CashRepo)(nil)

// NewCashRepo creates a new cash movement repository.
func NewCashRepo(txManager *postgres.TxManager) *CashRepo {
	return &CashRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateMovement appends one movement row.
func (r *CashRepo) CreateMovement(ctx context.Context, m *cash.Movement) error {
	sql, args, err := r.builder.Insert(cashMovementsTable).
		Columns(cashColumns...).
		Values(postgres.StructValues(m, cashColumns)...).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert cash movement: %w", postgres.MapError(err))
	}
	return nil
}

// CashOnHand returns Σ signed amounts.
func (r *CashRepo) CashOnHand(ctx context.Context) (types.Money, error) {
	sql, args, err := r.builder.Select(signedAmountExpr).From(cashMovementsTable).ToSql()
	if err != nil {
		return types.Zero(), fmt.Errorf("build query: %w", err)
	}
	return r.scanMoney(ctx, sql, args)
}

func (r *CashRepo) sumQuery(counterpartyID id.ID, kind cash.Kind) squirrel.SelectBuilder {
	return r.builder.Select("COALESCE(SUM(amount), 0)").
		From(cashMovementsTable).
		Where(squirrel.Eq{"counterparty_id": counterpartyID, "kind": kind})
}

// SumByCounterparty returns Σ amount of one kind for a counterparty.
func (r *CashRepo) SumByCounterparty(ctx context.Context, counterpartyID id.ID, kind cash.Kind) (types.Money, error) {
	sql, args, err := r.sumQuery(counterpartyID, kind).ToSql()
	if err != nil {
		return types.Zero(), fmt.Errorf("build query: %w", err)
	}
	return r.scanMoney(ctx, sql, args)
}

func (r *CashRepo) scanMoney(ctx context.Context, sql string, args []any) (types.Money, error) {
	var total types.Money
	if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return types.Zero(), fmt.Errorf("sum cash: %w", postgres.MapError(err))
	}
	return total, nil
}

func (r *CashRepo) listQuery(filter cash.MovementFilter) squirrel.SelectBuilder {
	q := r.builder.Select(cashColumns...).From(cashMovementsTable)
	if filter.Kind != nil {
		q = q.Where(squirrel.Eq{"kind": *filter.Kind})
	}
	if filter.CounterpartyID != nil {
		q = q.Where(squirrel.Eq{"counterparty_id": *filter.CounterpartyID})
	}
	if filter.OrderID != nil {
		q = q.Where(squirrel.Eq{"order_id": *filter.OrderID})
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

// List returns movements, newest first.
func (r *CashRepo) List(ctx context.Context, filter cash.MovementFilter) ([]cash.Movement, error) {
	sql, args, err := r.listQuery(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var out []cash.Movement
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("select cash movements: %w", err)
	}
	return out, nil
}
