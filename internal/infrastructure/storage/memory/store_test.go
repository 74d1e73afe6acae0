package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/domain/catalogs/product"
	"shopledger/internal/domain/events"
	"shopledger/internal/domain/registers/stock"
)

func seedProduct(s *Store, stockLevel int64) id.ID {
	pid := id.New()
	s.PutProduct(product.Product{ID: pid, Name: "Nước mắm", Price: mustMoney("35"), Stock: stockLevel, BaseUnit: "chai"})
	return pid
}

func TestRunInTransaction_RollsBackEveryWrite(t *testing.T) {
	s := New()
	ctx := context.Background()
	pid := seedProduct(s, 10)
	boom := errors.New("boom")

	err := s.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.Products().AddStock(ctx, pid, -4); err != nil {
			return err
		}
		if err := s.Stock().CreateMovement(ctx, &stock.Movement{ID: id.New(), ProductID: pid, Kind: stock.KindOut, Quantity: -4}); err != nil {
			return err
		}
		if err := s.Publish(ctx, events.Event{Type: events.StockAdjusted}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	p, err := s.Products().GetByID(ctx, pid)
	require.NoError(t, err)
	assert.Equal(t, int64(10), p.Stock)

	sum, err := s.Stock().SumByProduct(ctx, pid)
	require.NoError(t, err)
	assert.Zero(t, sum)
	assert.Empty(t, s.Events())
}

func TestRunInTransaction_CommitKeepsWrites(t *testing.T) {
	s := New()
	ctx := context.Background()
	pid := seedProduct(s, 0)

	err := s.RunInTransaction(ctx, func(ctx context.Context) error {
		_, err := s.Products().AddStock(ctx, pid, 3)
		return err
	})
	require.NoError(t, err)

	p, _ := s.Products().GetByID(ctx, pid)
	assert.Equal(t, int64(3), p.Stock)
}

func TestRunInTransaction_NestedJoinsOuter(t *testing.T) {
	s := New()
	ctx := context.Background()
	pid := seedProduct(s, 5)

	err := s.RunInTransaction(ctx, func(ctx context.Context) error {
		inner := s.RunInTransaction(ctx, func(ctx context.Context) error {
			_, err := s.Products().AddStock(ctx, pid, 1)
			return err
		})
		require.NoError(t, inner)
		return apperror.NewConflict("outer fails")
	})
	require.Error(t, err)

	p, _ := s.Products().GetByID(ctx, pid)
	assert.Equal(t, int64(5), p.Stock, "inner write must roll back with the outer transaction")
}

func TestRunInTransaction_PanicRollsBack(t *testing.T) {
	s := New()
	ctx := context.Background()
	pid := seedProduct(s, 2)

	assert.Panics(t, func() {
		_ = s.RunInTransaction(ctx, func(ctx context.Context) error {
			_, _ = s.Products().AddStock(ctx, pid, 7)
			panic("kaboom")
		})
	})

	p, _ := s.Products().GetByID(ctx, pid)
	assert.Equal(t, int64(2), p.Stock)
}

func TestProductRepo_NotFound(t *testing.T) {
	s := New()

	_, err := s.Products().AddStock(context.Background(), id.New(), 1)
	assert.True(t, apperror.IsNotFound(err))
}

func TestPage(t *testing.T) {
	rows := []int{1, 2, 3, 4, 5}

	assert.Equal(t, []int{2, 3}, page(rows, 1, 2))
	assert.Equal(t, []int{5}, page(rows, 4, 10))
	assert.Equal(t, []int{}, page(rows, 9, 1))
}
