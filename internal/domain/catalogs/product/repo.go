package product

import (
	"context"

	"shopledger/internal/core/id"
	"shopledger/internal/core/types"
)

// Repository defines data access for products.
// Stock writers must call AddStock inside the ledger's transaction.
type Repository interface {
	// GetByID returns NotFound for an unknown id.
	GetByID(ctx context.Context, productID id.ID) (*Product, error)

	// GetForUpdate reads the product with a row lock.
	GetForUpdate(ctx context.Context, productID id.ID) (*Product, error)

	// GetTiers returns quantity price tiers sorted by MinQuantity.
	GetTiers(ctx context.Context, productID id.ID) ([]PriceTier, error)

	// List returns all products ordered by name.
	List(ctx context.Context) ([]Product, error)

	// AddStock atomically applies stock = stock + delta and returns the new level.
	AddStock(ctx context.Context, productID id.ID, delta int64) (int64, error)

	// SetStock overwrites the cached stock (reconciliation only).
	SetStock(ctx context.Context, productID id.ID, stock int64) error

	// SetCost overwrites the unit cost (last-cost costing on purchase receipt).
	SetCost(ctx context.Context, productID id.ID, cost types.Money) error
}
