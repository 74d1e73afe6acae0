package stock_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/core/types"
	"shopledger/internal/domain/catalogs/product"
	"shopledger/internal/domain/events"
	"shopledger/internal/domain/registers/stock"
	"shopledger/internal/infrastructure/storage/memory"
)

func setup(t *testing.T) (*stock.Service, *memory.Store, id.ID) {
	t.Helper()
	store := memory.New()
	pid := id.New()
	store.PutProduct(product.Product{ID: pid, Name: "Đường", Price: types.MustMoney("22"), BaseUnit: "kg"})
	svc := stock.NewService(store.Stock(), store.Products(), store, store)
	return svc, store, pid
}

func assertStockInvariant(t *testing.T, store *memory.Store, pid id.ID) {
	t.Helper()
	ctx := context.Background()
	p, err := store.Products().GetByID(ctx, pid)
	require.NoError(t, err)
	sum, err := store.Stock().SumByProduct(ctx, pid)
	require.NoError(t, err)
	assert.Equal(t, sum, p.Stock, "cached stock must equal the sum of movements")
}

func TestApply_InOutAdjust(t *testing.T) {
	svc, store, pid := setup(t)
	ctx := context.Background()

	_, level, err := svc.Apply(ctx, stock.MovementRequest{ProductID: pid, Kind: stock.KindIn, Quantity: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(10), level)

	m, level, err := svc.Apply(ctx, stock.MovementRequest{ProductID: pid, Kind: stock.KindDamaged, Quantity: 2, Note: "rách bao"})
	require.NoError(t, err)
	assert.Equal(t, int64(8), level)
	assert.Equal(t, int64(-2), m.Quantity)

	_, level, err = svc.Apply(ctx, stock.MovementRequest{ProductID: pid, Kind: stock.KindAdjustment, Quantity: -3})
	require.NoError(t, err)
	assert.Equal(t, int64(5), level)

	assertStockInvariant(t, store, pid)
	assert.Equal(t, []string{events.StockAdjusted, events.StockAdjusted, events.StockAdjusted}, store.EventTypes())
}

func TestApply_RejectsBadQuantityWithoutWriting(t *testing.T) {
	svc, store, pid := setup(t)

	_, _, err := svc.Apply(context.Background(), stock.MovementRequest{ProductID: pid, Kind: stock.KindOut, Quantity: -5})
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidAmount))

	history, err := svc.History(context.Background(), pid, stock.MovementFilter{})
	require.NoError(t, err)
	assert.Empty(t, history)
	assertStockInvariant(t, store, pid)
}

func TestApply_UnknownProduct(t *testing.T) {
	svc, _, _ := setup(t)

	_, _, err := svc.Apply(context.Background(), stock.MovementRequest{ProductID: id.New(), Kind: stock.KindIn, Quantity: 1})
	assert.True(t, apperror.IsNotFound(err))
}

func TestApply_ConcurrentOutAllowsNegative(t *testing.T) {
	svc, store, pid := setup(t)
	ctx := context.Background()

	_, _, err := svc.Apply(ctx, stock.MovementRequest{ProductID: pid, Kind: stock.KindIn, Quantity: 1})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = svc.Apply(ctx, stock.MovementRequest{ProductID: pid, Kind: stock.KindOut, Quantity: 1})
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	p, err := store.Products().GetByID(ctx, pid)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), p.Stock)

	out := stock.KindOut
	rows, err := svc.History(ctx, pid, stock.MovementFilter{Kind: &out})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assertStockInvariant(t, store, pid)
}

func TestApply_ManyConcurrentWritersLoseNothing(t *testing.T) {
	svc, store, pid := setup(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			kind := stock.KindIn
			if i%2 == 1 {
				kind = stock.KindOut
			}
			_, _, err := svc.Apply(ctx, stock.MovementRequest{ProductID: pid, Kind: kind, Quantity: 3})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	p, _ := store.Products().GetByID(ctx, pid)
	assert.Zero(t, p.Stock)
	assertStockInvariant(t, store, pid)
}

func TestApply_OrderMovementsAreNotAnnounced(t *testing.T) {
	svc, store, pid := setup(t)
	orderID := id.New()

	_, _, err := svc.Apply(context.Background(), stock.MovementRequest{ProductID: pid, Kind: stock.KindIn, Quantity: 4, OrderID: &orderID})
	require.NoError(t, err)

	assert.Empty(t, store.EventTypes())
	rows, err := store.Stock().ListByOrder(context.Background(), orderID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestHistory_NewestFirst(t *testing.T) {
	svc, _, pid := setup(t)
	ctx := context.Background()

	for _, q := range []int64{1, 2, 3} {
		_, _, err := svc.Apply(ctx, stock.MovementRequest{ProductID: pid, Kind: stock.KindIn, Quantity: q})
		require.NoError(t, err)
	}

	rows, err := svc.History(ctx, pid, stock.MovementFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(3), rows[0].Quantity)
	assert.Equal(t, int64(2), rows[1].Quantity)
}
