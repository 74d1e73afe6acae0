package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/core/types"
	"shopledger/internal/domain/catalogs/product"
	"shopledger/internal/infrastructure/storage/postgres"
)

var productColumns = postgres.ExtractDBColumns[product.Product]()

// ProductRepo implements product.Repository.
type ProductRepo struct {
	baseRepo
}

var _ product.Repository = (*ProductRepo)(nil)

// NewProductRepo creates a new product repository.
func NewProductRepo(txManager *postgres.TxManager) *ProductRepo {
	return &ProductRepo{baseRepo: newBaseRepo(txManager)}
}

func (r *ProductRepo) selectByID(productID id.ID, forUpdate bool) squirrel.SelectBuilder {
	q := r.builder.Select(productColumns...).
		From(productsTable).
		Where(squirrel.Eq{"id": productID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}
	return q
}

func (r *ProductRepo) get(ctx context.Context, productID id.ID, forUpdate bool) (*product.Product, error) {
	sql, args, err := r.selectByID(productID, forUpdate).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p product.Product
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("product", productID)
		}
		return nil, fmt.Errorf("get product: %w", postgres.MapError(err))
	}
	return &p, nil
}

// GetByID retrieves a product.
func (r *ProductRepo) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	return r.get(ctx, productID, false)
}

// GetForUpdate retrieves a product with a row lock.
func (r *ProductRepo) GetForUpdate(ctx context.Context, productID id.ID) (*product.Product, error) {
	return r.get(ctx, productID, true)
}

// GetTiers returns the product's quantity tiers, smallest first.
func (r *ProductRepo) GetTiers(ctx context.Context, productID id.ID) ([]product.PriceTier, error) {
	sql, args, err := r.builder.Select("min_quantity", "price").
		From(productTiersTable).
		Where(squirrel.Eq{"product_id": productID}).
		OrderBy("min_quantity", "price").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var tiers []product.PriceTier
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &tiers, sql, args...); err != nil {
		return nil, fmt.Errorf("select tiers: %w", err)
	}
	return tiers, nil
}

// List returns all products ordered by name.
func (r *ProductRepo) List(ctx context.Context) ([]product.Product, error) {
	sql, args, err := r.builder.Select(productColumns...).
		From(productsTable).
		OrderBy("name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var products []product.Product
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &products, sql, args...); err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	return products, nil
}

func (r *ProductRepo) addStockQuery(productID id.ID, delta int64) squirrel.UpdateBuilder {
	return r.builder.Update(productsTable).
		Set("stock", squirrel.Expr("stock + ?", delta)).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": productID}).
		Suffix("RETURNING stock")
}

// AddStock atomically increments the cached stock.
func (r *ProductRepo) AddStock(ctx context.Context, productID id.ID, delta int64) (int64, error) {
	sql, args, err := r.addStockQuery(productID, delta).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build update: %w", err)
	}

	var level int64
	if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&level); err != nil {
		return 0, fmt.Errorf("add stock: %w", postgres.NotFoundOr(err, "product", productID))
	}
	return level, nil
}

// SetStock overwrites the cached stock.
func (r *ProductRepo) SetStock(ctx context.Context, productID id.ID, stockLevel int64) error {
	return r.set(ctx, productID, "stock", stockLevel)
}

// SetCost overwrites the unit cost.
func (r *ProductRepo) SetCost(ctx context.Context, productID id.ID, cost types.Money) error {
	return r.set(ctx, productID, "cost", cost)
}

func (r *ProductRepo) set(ctx context.Context, productID id.ID, column string, value any) error {
	sql, args, err := r.builder.Update(productsTable).
		Set(column, value).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": productID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("set %s: %w", column, postgres.MapError(err))
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("product", productID)
	}
	return nil
}
