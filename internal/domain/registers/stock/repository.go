// Package stock provides the inventory ledger: the single writer of product stock.
package stock

import (
	"context"

	"shopledger/internal/core/id"
)

// Repository defines operations for the stock movement log.
type Repository interface {
	// CreateMovement appends one movement row.
	CreateMovement(ctx context.Context, m *Movement) error

	// SumByProduct returns Σ quantity over all movements of the product.
	SumByProduct(ctx context.Context, productID id.ID) (int64, error)

	// ListByProduct returns movement history, newest first.
	ListByProduct(ctx context.Context, productID id.ID, filter MovementFilter) ([]Movement, error)

	// ListByOrder returns the movements an order produced.
	ListByOrder(ctx context.Context, orderID id.ID) ([]Movement, error)
}

// MovementFilter for filtering movement history.
type MovementFilter struct {
	Kind   *Kind
	Limit  int
	Offset int
}
