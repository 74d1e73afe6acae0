package catalog_repo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopledger/internal/core/id"
	"shopledger/internal/core/types"
	"shopledger/internal/domain/catalogs/counterparty"
	"shopledger/internal/domain/pricing"
)

func TestProductRepo_AddStockQuery(t *testing.T) {
	r := NewProductRepo(nil)
	pid := id.New()

	sql, args, err := r.addStockQuery(pid, -3).ToSql()
	require.NoError(t, err)

	assert.Equal(t, "UPDATE products SET stock = stock + $1, updated_at = NOW() WHERE id = $2 RETURNING stock", sql)
	assert.Equal(t, []any{int64(-3), pid}, args)
}

func TestProductRepo_SelectForUpdate(t *testing.T) {
	r := NewProductRepo(nil)

	sql, _, err := r.selectByID(id.New(), true).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "FROM products WHERE id = $1 FOR UPDATE")
	assert.Contains(t, sql, "sale_unit_ratio")
}

func TestCounterpartyRepo_ListQuery(t *testing.T) {
	r := NewCounterpartyRepo(nil)

	sql, args, err := r.listQuery(nil).ToSql()
	require.NoError(t, err)
	assert.NotContains(t, sql, "WHERE")
	assert.Empty(t, args)

	kind := counterparty.KindSupplier
	sql, args, err = r.listQuery(&kind).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "WHERE kind = $1 ORDER BY name")
	assert.Equal(t, []any{kind}, args)
}

func TestPricingRepo_UpsertQuery(t *testing.T) {
	r := NewPricingRepo(nil)
	entry := &pricing.WholesalePriceEntry{
		ID:         id.New(),
		CustomerID: id.New(),
		ProductID:  id.New(),
		Price:      types.MustMoney("90"),
	}

	sql, args, err := r.upsertQuery(entry).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "INSERT INTO wholesale_price_entries")
	assert.Contains(t, sql, "ON CONFLICT (customer_id, product_id) DO UPDATE")
	assert.Contains(t, sql, "(xmax = 0) AS created")
	assert.Len(t, args, len(entryColumns))
}

func TestPricingRepo_RunningPromotionsQuery(t *testing.T) {
	r := NewPricingRepo(nil)
	pid := id.New()
	now := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	sql, args, err := r.runningPromotionsQuery(pid, now).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "JOIN promotion_tiers t ON t.promotion_id = p.id")
	assert.Contains(t, sql, "p.start_date <= $3")
	assert.Contains(t, sql, "p.end_date >= $4")
	assert.Equal(t, []any{true, pid, now, now}, args)
}
