package pricing

import (
	"context"
	"time"

	"shopledger/internal/core/id"
)

// Repository defines persistence for wholesale price entries and promotions.
type Repository interface {
	// GetEntry returns the pair's entry or NotFound.
	GetEntry(ctx context.Context, customerID, productID id.ID) (*WholesalePriceEntry, error)

	// ListEntries returns a customer's entries.
	ListEntries(ctx context.Context, customerID id.ID) ([]WholesalePriceEntry, error)

	// CreateEntry inserts a new entry. The datastore's uniqueness constraint
	// on (customer, product) surfaces as Conflict.
	CreateEntry(ctx context.Context, entry *WholesalePriceEntry) error

	// UpsertEntry inserts or overwrites the pair's entry and reports whether a row was created.
	UpsertEntry(ctx context.Context, entry *WholesalePriceEntry) (created bool, err error)

	// ListRunningPromotions returns promotions running at now that include productID,
	// with their tiers for that product loaded.
	ListRunningPromotions(ctx context.Context, productID id.ID, now time.Time) ([]Promotion, error)
}
