package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"shopledger/internal/core/id"
	"shopledger/internal/core/types"
	"shopledger/internal/domain/catalogs/product"
)

// Source tells which rule produced a resolved price.
type Source string

const (
	SourcePromotion     Source = "promotion"
	SourceWholesaleTier Source = "wholesale_tier"
	SourceWholesale     Source = "wholesale"
	SourceRetail        Source = "retail"
	// SourceExpired marks the expiry gate: the price is zero and must not be used.
	SourceExpired Source = "expired"
)

// Input is everything Resolve needs. Quantity is in base units.
type Input struct {
	Product    *product.Product
	Tiers      []product.PriceTier
	Entry      *WholesalePriceEntry
	Promotions []Promotion
	Quantity   int64
	Now        time.Time
}

// Resolution is a resolved per-base-unit price.
type Resolution struct {
	UnitPrice   types.Money `json:"unitPrice"`
	Source      Source      `json:"source"`
	PromotionID *id.ID      `json:"promotionId,omitempty"`
}

// Expired reports whether the resolution hit the expiry gate.
func (r Resolution) Expired() bool {
	return r.Source == SourceExpired
}

// ForSaleUnit converts the price to a sale unit of ratio base units.
func (r Resolution) ForSaleUnit(ratio int64) Resolution {
	if ratio > 1 {
		r.UnitPrice = r.UnitPrice.Mul(decimal.NewFromInt(ratio))
	}
	return r
}

// Resolve applies the price precedence:
//  1. best qualifying tier of a running promotion
//  2. wholesale quantity tier (active entry + product tiers)
//  3. wholesale flat price (active entry)
//  4. retail price
//
// An expired entry for the pair, when no promotion applies, resolves to zero with SourceExpired.
// A pending entry (not yet valid) is ignored.
func Resolve(in Input) Resolution {
	if res, ok := resolvePromotion(in); ok {
		return res
	}

	if in.Entry != nil {
		switch {
		case in.Entry.IsExpired(in.Now):
			return Resolution{UnitPrice: types.Zero(), Source: SourceExpired}
		case in.Entry.IsActive(in.Now):
			if tier, ok := product.BestTier(in.Tiers, in.Quantity); ok {
				return Resolution{UnitPrice: tier.Price, Source: SourceWholesaleTier}
			}
			return Resolution{UnitPrice: in.Entry.Price, Source: SourceWholesale}
		}
	}

	return Resolution{UnitPrice: in.Product.Price, Source: SourceRetail}
}

func resolvePromotion(in Input) (Resolution, bool) {
	var (
		best    product.PriceTier
		bestID  id.ID
		matched bool
	)
	for i := range in.Promotions {
		promo := &in.Promotions[i]
		if !promo.RunningAt(in.Now) {
			continue
		}
		tier, ok := product.BestTier(promo.TiersFor(in.Product.ID), in.Quantity)
		if !ok {
			continue
		}
		if !matched ||
			tier.MinQuantity > best.MinQuantity ||
			(tier.MinQuantity == best.MinQuantity && tier.Price.LessThan(best.Price)) {
			best, bestID, matched = tier, promo.ID, true
		}
	}
	if !matched {
		return Resolution{}, false
	}
	return Resolution{UnitPrice: best.Price, Source: SourcePromotion, PromotionID: &bestID}, true
}
