// Package tx provides the unit-of-work abstraction used by the ledgers.
// Domain services depend on this interface; implementations live in
// infrastructure/storage (postgres for production, memory for tests).
package tx

import (
	"context"
)

// Manager runs a function as one atomic unit.
type Manager interface {
	// RunInTransaction executes fn within a transaction.
	// If fn returns an error, every write made through ctx is rolled back.
	// If fn succeeds, the transaction is committed.
	//
	// Nested calls reuse the existing transaction from context, so a ledger
	// operation called from OrderService joins the order's unit of work.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
