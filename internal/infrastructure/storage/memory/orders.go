package memory

import (
	"context"
	"sort"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/core/types"
	"shopledger/internal/domain/documents/order"
)

// OrderRepo implements order.Repository.
type OrderRepo struct{ s *Store }

// Orders returns the order repository.
func (s *Store) Orders() *OrderRepo { return &OrderRepo{s: s} }

func (r *OrderRepo) Create(ctx context.Context, o *order.Order) error {
	st, unlock := r.s.enter(ctx)
	defer unlock()

	if _, ok := r.s.orders[o.ID]; ok {
		return apperror.NewConflict("order already exists").WithDetail("id", o.ID)
	}
	for _, existing := range r.s.orders {
		if existing.Code == o.Code {
			return apperror.NewConflict("order code already used").WithDetail("code", o.Code)
		}
	}

	row := *o
	row.Items = nil
	r.s.orders[o.ID] = row
	st.onRollback(func() { delete(r.s.orders, o.ID) })
	return nil
}

func (r *OrderRepo) SaveItems(ctx context.Context, orderID id.ID, items []order.Item) error {
	st, unlock := r.s.enter(ctx)
	defer unlock()

	if _, ok := r.s.orders[orderID]; !ok {
		return apperror.NewNotFound("order", orderID)
	}
	prev, had := r.s.items[orderID]
	r.s.items[orderID] = append([]order.Item(nil), items...)
	st.onRollback(func() {
		if had {
			r.s.items[orderID] = prev
		} else {
			delete(r.s.items, orderID)
		}
	})
	return nil
}

func (r *OrderRepo) GetByID(ctx context.Context, orderID id.ID) (*order.Order, error) {
	_, unlock := r.s.enter(ctx)
	defer unlock()

	o, ok := r.s.orders[orderID]
	if !ok {
		return nil, apperror.NewNotFound("order", orderID)
	}
	return &o, nil
}

func (r *OrderRepo) GetForUpdate(ctx context.Context, orderID id.ID) (*order.Order, error) {
	return r.GetByID(ctx, orderID)
}

func (r *OrderRepo) GetItems(ctx context.Context, orderID id.ID) ([]order.Item, error) {
	_, unlock := r.s.enter(ctx)
	defer unlock()
	return append([]order.Item(nil), r.s.items[orderID]...), nil
}

func (r *OrderRepo) UpdateStatus(ctx context.Context, o *order.Order) error {
	st, unlock := r.s.enter(ctx)
	defer unlock()

	prev, ok := r.s.orders[o.ID]
	if !ok {
		return apperror.NewNotFound("order", o.ID)
	}
	row := prev
	row.Status = o.Status
	row.UpdatedAt = o.UpdatedAt
	row.CompletedAt = o.CompletedAt
	r.s.orders[o.ID] = row
	st.onRollback(func() { r.s.orders[o.ID] = prev })
	return nil
}

func (r *OrderRepo) List(ctx context.Context, filter order.Filter) ([]order.Order, error) {
	_, unlock := r.s.enter(ctx)
	defer unlock()

	out := make([]order.Order, 0)
	for _, o := range r.s.orders {
		if filter.Type != nil && o.Type != *filter.Type {
			continue
		}
		if filter.Status != nil && o.Status != *filter.Status {
			continue
		}
		if filter.CounterpartyID != nil && (o.CounterpartyID == nil || *o.CounterpartyID != *filter.CounterpartyID) {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Code > out[j].Code
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return page(out, filter.Offset, filter.Limit), nil
}

func (r *OrderRepo) SumOutstanding(ctx context.Context, counterpartyID id.ID, typ order.Type, statuses []order.Status) (types.Money, error) {
	_, unlock := r.s.enter(ctx)
	defer unlock()

	total := types.Zero()
	for _, o := range r.s.orders {
		if o.Type != typ || o.CounterpartyID == nil || *o.CounterpartyID != counterpartyID {
			continue
		}
		for _, s := range statuses {
			if o.Status == s {
				total = total.Add(o.Outstanding())
				break
			}
		}
	}
	return total, nil
}

var _ order.Repository = (*OrderRepo)(nil)
