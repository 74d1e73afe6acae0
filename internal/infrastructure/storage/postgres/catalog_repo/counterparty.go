package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/core/types"
	"shopledger/internal/domain/catalogs/counterparty"
	"shopledger/internal/infrastructure/storage/postgres"
)

var counterpartyColumns = postgres.ExtractDBColumns[counterparty.Counterparty]()

// CounterpartyRepo implements counterparty.Repository.
type CounterpartyRepo struct {
	baseRepo
}

var _ counterparty.Repository = (*CounterpartyRepo)(nil)

// NewCounterpartyRepo creates a new counterparty repository.
func NewCounterpartyRepo(txManager *postgres.TxManager) *CounterpartyRepo {
	return &CounterpartyRepo{baseRepo: newBaseRepo(txManager)}
}

func (r *CounterpartyRepo) get(ctx context.Context, counterpartyID id.ID, forUpdate bool) (*counterparty.Counterparty, error) {
	q := r.builder.Select(counterpartyColumns...).
		From(counterpartiesTable).
		Where(squirrel.Eq{"id": counterpartyID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var c counterparty.Counterparty
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &c, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("counterparty", counterpartyID)
		}
		return nil, fmt.Errorf("get counterparty: %w", postgres.MapError(err))
	}
	return &c, nil
}

// GetByID retrieves a counterparty.
func (r *CounterpartyRepo) GetByID(ctx context.Context, counterpartyID id.ID) (*counterparty.Counterparty, error) {
	return r.get(ctx, counterpartyID, false)
}

// GetForUpdate retrieves a counterparty with a row lock.
func (r *CounterpartyRepo) GetForUpdate(ctx context.Context, counterpartyID id.ID) (*counterparty.Counterparty, error) {
	return r.get(ctx, counterpartyID, true)
}

func (r *CounterpartyRepo) listQuery(kind *counterparty.Kind) squirrel.SelectBuilder {
	q := r.builder.Select(counterpartyColumns...).From(counterpartiesTable)
	if kind != nil {
		q = q.Where(squirrel.Eq{"kind": *kind})
	}
	return q.OrderBy("name")
}

// List returns counterparties, optionally of one kind.
func (r *CounterpartyRepo) List(ctx context.Context, kind *counterparty.Kind) ([]counterparty.Counterparty, error) {
	sql, args, err := r.listQuery(kind).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var out []counterparty.Counterparty
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("select counterparties: %w", err)
	}
	return out, nil
}

// AddDebt atomically increments the cached debt.
func (r *CounterpartyRepo) AddDebt(ctx context.Context, counterpartyID id.ID, delta types.Money) (types.Money, error) {
	sql, args, err := r.builder.Update(counterpartiesTable).
		Set("debt", squirrel.Expr("debt + ?", delta)).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": counterpartyID}).
		Suffix("RETURNING debt").
		ToSql()
	if err != nil {
		return types.Zero(), fmt.Errorf("build update: %w", err)
	}

	var debt types.Money
	if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&debt); err != nil {
		return types.Zero(), fmt.Errorf("add debt: %w", postgres.NotFoundOr(err, "counterparty", counterpartyID))
	}
	return debt, nil
}

// SetDebt overwrites the cached debt.
func (r *CounterpartyRepo) SetDebt(ctx context.Context, counterpartyID id.ID, debt types.Money) error {
	sql, args, err := r.builder.Update(counterpartiesTable).
		Set("debt", debt).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": counterpartyID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("set debt: %w", postgres.MapError(err))
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("counterparty", counterpartyID)
	}
	return nil
}
