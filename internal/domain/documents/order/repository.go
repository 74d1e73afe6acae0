package order

import (
	"context"

	"shopledger/internal/core/id"
	"shopledger/internal/core/types"
)

// Repository defines data access for orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	SaveItems(ctx context.Context, orderID id.ID, items []Item) error

	GetByID(ctx context.Context, orderID id.ID) (*Order, error)

	// GetForUpdate reads the order with a row lock.
	GetForUpdate(ctx context.Context, orderID id.ID) (*Order, error)

	GetItems(ctx context.Context, orderID id.ID) ([]Item, error)

	// UpdateStatus persists Status, UpdatedAt and CompletedAt.
	UpdateStatus(ctx context.Context, o *Order) error

	// List returns orders, newest first.
	List(ctx context.Context, filter Filter) ([]Order, error)

	// SumOutstanding returns Σ(total − paid) over a counterparty's orders
	// of the given type and statuses.
	SumOutstanding(ctx context.Context, counterpartyID id.ID, typ Type, statuses []Status) (types.Money, error)
}
