package memory

import (
	"context"
	"sort"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/core/types"
	"shopledger/internal/domain/catalogs/counterparty"
	"shopledger/internal/domain/catalogs/product"
)

func mustMoney(s string) types.Money { return types.MustMoney(s) }

// ProductRepo implements product.Repository.
type ProductRepo struct{ s *Store }

// Products returns the product repository.
func (s *Store) Products() *ProductRepo { return &ProductRepo{s: s} }

func (r *ProductRepo) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	_, unlock := r.s.enter(ctx)
	defer unlock()

	p, ok := r.s.products[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID)
	}
	return &p, nil
}

// GetForUpdate is GetByID; the store lock already serializes writers.
func (r *ProductRepo) GetForUpdate(ctx context.Context, productID id.ID) (*product.Product, error) {
	return r.GetByID(ctx, productID)
}

func (r *ProductRepo) GetTiers(ctx context.Context, productID id.ID) ([]product.PriceTier, error) {
	_, unlock := r.s.enter(ctx)
	defer unlock()
	return append([]product.PriceTier(nil), r.s.tiers[productID]...), nil
}

func (r *ProductRepo) List(ctx context.Context) ([]product.Product, error) {
	_, unlock := r.s.enter(ctx)
	defer unlock()

	out := make([]product.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *ProductRepo) AddStock(ctx context.Context, productID id.ID, delta int64) (int64, error) {
	st, unlock := r.s.enter(ctx)
	defer unlock()

	p, ok := r.s.products[productID]
	if !ok {
		return 0, apperror.NewNotFound("product", productID)
	}
	prev := p
	p.Stock += delta
	p.UpdatedAt = r.s.now().UTC()
	r.s.products[productID] = p
	st.onRollback(func() { r.s.products[productID] = prev })
	return p.Stock, nil
}

func (r *ProductRepo) SetStock(ctx context.Context, productID id.ID, stockLevel int64) error {
	return r.update(ctx, productID, func(p *product.Product) { p.Stock = stockLevel })
}

func (r *ProductRepo) SetCost(ctx context.Context, productID id.ID, cost types.Money) error {
	return r.update(ctx, productID, func(p *product.Product) { p.Cost = cost })
}

func (r *ProductRepo) update(ctx context.Context, productID id.ID, mutate func(p *product.Product)) error {
	st, unlock := r.s.enter(ctx)
	defer unlock()

	p, ok := r.s.products[productID]
	if !ok {
		return apperror.NewNotFound("product", productID)
	}
	prev := p
	mutate(&p)
	p.UpdatedAt = r.s.now().UTC()
	r.s.products[productID] = p
	st.onRollback(func() { r.s.products[productID] = prev })
	return nil
}

// CounterpartyRepo implements counterparty.Repository.
type CounterpartyRepo struct{ s *Store }

// Counterparties returns the counterparty repository.
func (s *Store) Counterparties() *CounterpartyRepo { return &CounterpartyRepo{s: s} }

func (r *CounterpartyRepo) GetByID(ctx context.Context, counterpartyID id.ID) (*counterparty.Counterparty, error) {
	_, unlock := r.s.enter(ctx)
	defer unlock()

	c, ok := r.s.counterparties[counterpartyID]
	if !ok {
		return nil, apperror.NewNotFound("counterparty", counterpartyID)
	}
	return &c, nil
}

func (r *CounterpartyRepo) GetForUpdate(ctx context.Context, counterpartyID id.ID) (*counterparty.Counterparty, error) {
	return r.GetByID(ctx, counterpartyID)
}

func (r *CounterpartyRepo) List(ctx context.Context, kind *counterparty.Kind) ([]counterparty.Counterparty, error) {
	_, unlock := r.s.enter(ctx)
	defer unlock()

	out := make([]counterparty.Counterparty, 0, len(r.s.counterparties))
	for _, c := range r.s.counterparties {
		if kind != nil && c.Kind != *kind {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *CounterpartyRepo) AddDebt(ctx context.Context, counterpartyID id.ID, delta types.Money) (types.Money, error) {
	var debt types.Money
	err := r.update(ctx, counterpartyID, func(c *counterparty.Counterparty) {
		c.Debt = c.Debt.Add(delta)
		debt = c.Debt
	})
	return debt, err
}

func (r *CounterpartyRepo) SetDebt(ctx context.Context, counterpartyID id.ID, debt types.Money) error {
	return r.update(ctx, counterpartyID, func(c *counterparty.Counterparty) { c.Debt = debt })
}

func (r *CounterpartyRepo) update(ctx context.Context, counterpartyID id.ID, mutate func(c *counterparty.Counterparty)) error {
	st, unlock := r.s.enter(ctx)
	defer unlock()

	c, ok := r.s.counterparties[counterpartyID]
	if !ok {
		return apperror.NewNotFound("counterparty", counterpartyID)
	}
	prev := c
	mutate(&c)
	c.UpdatedAt = r.s.now().UTC()
	r.s.counterparties[counterpartyID] = c
	st.onRollback(func() { r.s.counterparties[counterpartyID] = prev })
	return nil
}

var (
	_ product.Repository      = (*ProductRepo)(nil)
	_ counterparty.Repository = (*CounterpartyRepo)(nil)
)
