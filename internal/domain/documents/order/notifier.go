package order

import (
	"context"

	"shopledger/internal/domain/catalogs/counterparty"
)

// Notifier is told about new sale orders after commit. Failures never fail the order.
type Notifier interface {
	// SaleOrderCreated is called with a nil customer for walk-in sales.
	SaleOrderCreated(ctx context.Context, o *Order, customer *counterparty.Counterparty) error
}

// NopNotifier does nothing.
type NopNotifier struct{}

// SaleOrderCreated implements Notifier.
func (NopNotifier) SaleOrderCreated(context.Context, *Order, *counterparty.Counterparty) error {
	return nil
}
