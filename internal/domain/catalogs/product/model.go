// Package product provides the Product catalog record and its storage contract.
// Stock and cost are changed only through the inventory ledger and purchase receipts.
package product

import (
	"fmt"
	"sort"
	"time"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/core/types"
)

// Product is a sellable item. Stock is a cached counter of its stock movements.
type Product struct {
	ID    id.ID       `db:"id" json:"id"`
	Name  string      `db:"name" json:"name"`
	Cost  types.Money `db:"cost" json:"cost"`
	Price types.Money `db:"price" json:"price"` // retail, per base unit
	Stock int64       `db:"stock" json:"stock"`

	BaseUnit string `db:"base_unit" json:"baseUnit"`

	// Optional alternate sale unit: 1 SaleUnit = SaleUnitRatio base units.
	SaleUnit      string `db:"sale_unit" json:"saleUnit,omitempty"`
	SaleUnitRatio int64  `db:"sale_unit_ratio" json:"saleUnitRatio,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// PriceTier is a (minimum quantity, price) pair. Used by product quantity tiers
// and by promotion tiers.
type PriceTier struct {
	MinQuantity int64       `db:"min_quantity" json:"minQuantity"`
	Price       types.Money `db:"price" json:"price"`
}

// HasSaleUnit reports whether the product can be sold in an alternate unit.
func (p *Product) HasSaleUnit() bool {
	return p.SaleUnit != "" && p.SaleUnitRatio > 1
}

// ToBaseQuantity converts an entered quantity into base units.
func (p *Product) ToBaseQuantity(quantity int64, inSaleUnit bool) (int64, error) {
	if !inSaleUnit {
		return quantity, nil
	}
	if !p.HasSaleUnit() {
		return 0, apperror.NewValidation(fmt.Sprintf("product %s has no sale unit", p.Name)).
			WithDetail("product_id", p.ID)
	}
	return quantity * p.SaleUnitRatio, nil
}

// UnitLabel returns the unit name for an entered quantity.
func (p *Product) UnitLabel(inSaleUnit bool) string {
	if inSaleUnit && p.HasSaleUnit() {
		return p.SaleUnit
	}
	return p.BaseUnit
}

// BestTier returns the tier with the largest MinQuantity not exceeding quantity.
// The boundary is inclusive. Equal MinQuantity ties go to the lower price.
func BestTier(tiers []PriceTier, quantity int64) (PriceTier, bool) {
	var (
		best  PriceTier
		found bool
	)
	for _, t := range tiers {
		if t.MinQuantity > quantity {
			continue
		}
		switch {
		case !found:
			best, found = t, true
		case t.MinQuantity > best.MinQuantity:
			best = t
		case t.MinQuantity == best.MinQuantity && t.Price.LessThan(best.Price):
			best = t
		}
	}
	return best, found
}

// SortTiers orders tiers by MinQuantity ascending.
func SortTiers(tiers []PriceTier) {
	sort.SliceStable(tiers, func(i, j int) bool {
		return tiers[i].MinQuantity < tiers[j].MinQuantity
	})
}
