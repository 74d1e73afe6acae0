package memory

import (
	"context"

	"shopledger/internal/core/id"
	"shopledger/internal/core/types"
	"shopledger/internal/domain/registers/cash"
	"shopledger/internal/domain/registers/stock"
)

// StockRepo implements stock.Repository.
type StockRepo struct{ s *Store }

// Stock returns the stock movement repository.
func (s *Store) Stock() *StockRepo { return &StockRepo{s: s} }

func (r *StockRepo) CreateMovement(ctx context.Context, m *stock.Movement) error {
	st, unlock := r.s.enter(ctx)
	defer unlock()

	r.s.stockMoves = append(r.s.stockMoves, *m)
	n := len(r.s.stockMoves) - 1
	st.onRollback(func() { r.s.stockMoves = r.s.stockMoves[:n] })
	return nil
}

func (r *StockRepo) SumByProduct(ctx context.Context, productID id.ID) (int64, error) {
	_, unlock := r.s.enter(ctx)
	defer unlock()

	var sum int64
	for _, m := range r.s.stockMoves {
		if m.ProductID == productID {
			sum += m.Quantity
		}
	}
	return sum, nil
}

func (r *StockRepo) ListByProduct(ctx context.Context, productID id.ID, filter stock.MovementFilter) ([]stock.Movement, error) {
	_, unlock := r.s.enter(ctx)
	defer unlock()

	var out []stock.Movement
	for i := len(r.s.stockMoves) - 1; i >= 0; i-- {
		m := r.s.stockMoves[i]
		if m.ProductID != productID {
			continue
		}
		if filter.Kind != nil && m.Kind != *filter.Kind {
			continue
		}
		out = append(out, m)
	}
	return page(out, filter.Offset, filter.Limit), nil
}

func (r *StockRepo) ListByOrder(ctx context.Context, orderID id.ID) ([]stock.Movement, error) {
	_, unlock := r.s.enter(ctx)
	defer unlock()

	var out []stock.Movement
	for _, m := range r.s.stockMoves {
		if m.OrderID != nil && *m.OrderID == orderID {
			out = append(out, m)
		}
	}
	return out, nil
}

// CashRepo implements cash.Repository.
type CashRepo struct{ s *Store }

// Cash returns the cash movement repository.
func (s *Store) Cash() *CashRepo { return &CashRepo{s: s} }

func (r *CashRepo) CreateMovement(ctx context.Context, m *cash.Movement) error {
	st, unlock := r.s.enter(ctx)
	defer unlock()

	r.s.cashMoves = append(r.s.cashMoves, *m)
	n := len(r.s.cashMoves) - 1
	st.onRollback(func() { r.s.cashMoves = r.s.cashMoves[:n] })
	return nil
}

func (r *CashRepo) CashOnHand(ctx context.Context) (types.Money, error) {
	_, unlock := r.s.enter(ctx)
	defer unlock()

	total := types.Zero()
	for i := range r.s.cashMoves {
		total = total.Add(r.s.cashMoves[i].Signed())
	}
	return total, nil
}

func (r *CashRepo) SumByCounterparty(ctx context.Context, counterpartyID id.ID, kind cash.Kind) (types.Money, error) {
	_, unlock := r.s.enter(ctx)
	defer unlock()

	total := types.Zero()
	for _, m := range r.s.cashMoves {
		if m.Kind == kind && m.CounterpartyID != nil && *m.CounterpartyID == counterpartyID {
			total = total.Add(m.Amount)
		}
	}
	return total, nil
}

func (r *CashRepo) List(ctx context.Context, filter cash.MovementFilter) ([]cash.Movement, error) {
	_, unlock := r.s.enter(ctx)
	defer unlock()

	var out []cash.Movement
	for i := len(r.s.cashMoves) - 1; i >= 0; i-- {
		m := r.s.cashMoves[i]
		if filter.Kind != nil && m.Kind != *filter.Kind {
			continue
		}
		if filter.CounterpartyID != nil && (m.CounterpartyID == nil || *m.CounterpartyID != *filter.CounterpartyID) {
			continue
		}
		if filter.OrderID != nil && (m.OrderID == nil || *m.OrderID != *filter.OrderID) {
			continue
		}
		out = append(out, m)
	}
	return page(out, filter.Offset, filter.Limit), nil
}

func page[T any](rows []T, offset, limit int) []T {
	if offset >= len(rows) {
		return []T{}
	}
	rows = rows[offset:]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

var (
	_ stock.Repository = (*StockRepo)(nil)
	_ cash.Repository  = (*CashRepo)(nil)
)
