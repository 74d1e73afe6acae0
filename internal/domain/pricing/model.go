// Package pricing resolves the effective unit price of a product for a customer,
// quantity and instant, and manages per-customer wholesale price entries.
package pricing

import (
	"time"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/core/types"
	"shopledger/internal/domain/catalogs/product"
)

// WholesalePriceEntry is a time-bounded per-customer, per-product price override.
// At most one entry exists per (customer, product) pair.
type WholesalePriceEntry struct {
	ID         id.ID       `db:"id" json:"id"`
	CustomerID id.ID       `db:"customer_id" json:"customerId"`
	ProductID  id.ID       `db:"product_id" json:"productId"`
	Price      types.Money `db:"price" json:"price"`
	ValidFrom  time.Time   `db:"valid_from" json:"validFrom"`
	ValidTo    time.Time   `db:"valid_to" json:"validTo"`
	CreatedAt  time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time   `db:"updated_at" json:"updatedAt"`
}

// IsActive reports ValidFrom <= now <= ValidTo.
func (e *WholesalePriceEntry) IsActive(now time.Time) bool {
	return !now.Before(e.ValidFrom) && !now.After(e.ValidTo)
}

// IsExpired reports ValidTo < now.
func (e *WholesalePriceEntry) IsExpired(now time.Time) bool {
	return e.ValidTo.Before(now)
}

// Validate checks the entry's own fields. Referential checks live in Service.
func (e *WholesalePriceEntry) Validate() error {
	if id.IsNil(e.CustomerID) {
		return apperror.NewValidation("customer is required").WithDetail("field", "customerId")
	}
	if id.IsNil(e.ProductID) {
		return apperror.NewValidation("product is required").WithDetail("field", "productId")
	}
	if !e.Price.IsPositive() {
		return apperror.NewInvalidAmount("price", e.Price.String())
	}
	if e.ValidFrom.IsZero() || e.ValidTo.IsZero() {
		return apperror.NewValidation("validity window is required").WithDetail("field", "validFrom")
	}
	if e.ValidTo.Before(e.ValidFrom) {
		return apperror.NewValidation("validTo must not be before validFrom").
			WithDetail("validFrom", e.ValidFrom).
			WithDetail("validTo", e.ValidTo)
	}
	return nil
}

// Promotion is a time-boxed set of per-product volume tiers.
type Promotion struct {
	ID        id.ID              `db:"id" json:"id"`
	Name      string             `db:"name" json:"name"`
	StartDate time.Time          `db:"start_date" json:"startDate"`
	EndDate   time.Time          `db:"end_date" json:"endDate"`
	IsActive  bool               `db:"is_active" json:"isActive"`
	Products  []PromotionProduct `db:"-" json:"products"`
}

// PromotionProduct holds the tiers a promotion offers for one product.
type PromotionProduct struct {
	ProductID id.ID               `json:"productId"`
	Tiers     []product.PriceTier `json:"tiers"`
}

// RunningAt reports whether the promotion is switched on and now is within its window.
func (p *Promotion) RunningAt(now time.Time) bool {
	return p.IsActive && !now.Before(p.StartDate) && !now.After(p.EndDate)
}

// TiersFor returns the promotion tiers for a product.
func (p *Promotion) TiersFor(productID id.ID) []product.PriceTier {
	for _, pp := range p.Products {
		if pp.ProductID == productID {
			return pp.Tiers
		}
	}
	return nil
}

// WriteMode tags CreateOrReplacePriceEntry.
type WriteMode int

const (
	// ModeCreate inserts a new entry; an existing pair yields Conflict.
	ModeCreate WriteMode = iota
	// ModeReplace inserts or overwrites the pair's entry.
	ModeReplace
)

// ParseWriteMode maps "create" / "replace" to a WriteMode.
func ParseWriteMode(s string) (WriteMode, error) {
	switch s {
	case "", "create":
		return ModeCreate, nil
	case "replace":
		return ModeReplace, nil
	}
	return 0, apperror.NewValidation("unknown write mode").WithDetail("mode", s)
}
