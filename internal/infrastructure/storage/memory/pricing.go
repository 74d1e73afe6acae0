package memory

import (
	"context"
	"sort"
	"time"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/domain/catalogs/product"
	"shopledger/internal/domain/pricing"
)

// PricingRepo implements pricing.Repository.
type PricingRepo struct{ s *Store }

// Pricing returns the pricing repository.
func (s *Store) Pricing() *PricingRepo { return &PricingRepo{s: s} }

func (r *PricingRepo) GetEntry(ctx context.Context, customerID, productID id.ID) (*pricing.WholesalePriceEntry, error) {
	_, unlock := r.s.enter(ctx)
	defer unlock()

	e, ok := r.s.entries[pairKey{customerID, productID}]
	if !ok {
		return nil, apperror.NewNotFound("wholesale_price_entry", productID).
			WithDetail("customer_id", customerID)
	}
	return &e, nil
}

func (r *PricingRepo) ListEntries(ctx context.Context, customerID id.ID) ([]pricing.WholesalePriceEntry, error) {
	_, unlock := r.s.enter(ctx)
	defer unlock()

	var out []pricing.WholesalePriceEntry
	for k, e := range r.s.entries {
		if k.customerID == customerID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *PricingRepo) CreateEntry(ctx context.Context, entry *pricing.WholesalePriceEntry) error {
	st, unlock := r.s.enter(ctx)
	defer unlock()

	key := pairKey{entry.CustomerID, entry.ProductID}
	if _, ok := r.s.entries[key]; ok {
		return apperror.NewConflict("wholesale price entry already exists").
			WithDetail("customer_id", entry.CustomerID).
			WithDetail("product_id", entry.ProductID)
	}
	r.insertLocked(st, key, entry)
	return nil
}

func (r *PricingRepo) UpsertEntry(ctx context.Context, entry *pricing.WholesalePriceEntry) (bool, error) {
	st, unlock := r.s.enter(ctx)
	defer unlock()

	key := pairKey{entry.CustomerID, entry.ProductID}
	prev, ok := r.s.entries[key]
	if !ok {
		r.insertLocked(st, key, entry)
		return true, nil
	}

	entry.ID = prev.ID
	entry.CreatedAt = prev.CreatedAt
	entry.UpdatedAt = r.s.now().UTC()
	r.s.entries[key] = *entry
	st.onRollback(func() { r.s.entries[key] = prev })
	return false, nil
}

func (r *PricingRepo) insertLocked(st *txState, key pairKey, entry *pricing.WholesalePriceEntry) {
	if id.IsNil(entry.ID) {
		entry.ID = id.New()
	}
	entry.CreatedAt = r.s.now().UTC()
	entry.UpdatedAt = entry.CreatedAt
	r.s.entries[key] = *entry
	st.onRollback(func() { delete(r.s.entries, key) })
}

func (r *PricingRepo) ListRunningPromotions(ctx context.Context, productID id.ID, now time.Time) ([]pricing.Promotion, error) {
	_, unlock := r.s.enter(ctx)
	defer unlock()

	var out []pricing.Promotion
	for _, p := range r.s.promotions {
		if !p.RunningAt(now) {
			continue
		}
		tiers := p.TiersFor(productID)
		if len(tiers) == 0 {
			continue
		}
		cp := p
		cp.Products = []pricing.PromotionProduct{{
			ProductID: productID,
			Tiers:     append([]product.PriceTier(nil), tiers...),
		}}
		out = append(out, cp)
	}
	return out, nil
}

var _ pricing.Repository = (*PricingRepo)(nil)
