// Package events defines the "notify readers" step of the ledgers. Events are
// published inside the writer's transaction, so readers see them only after commit.
package events

import (
	"context"

	"shopledger/internal/core/id"
)

// Aggregate types.
const (
	AggregateOrder        = "order"
	AggregateCounterparty = "counterparty"
	AggregateProduct      = "product"
	AggregateCash         = "cash"
)

// Event types.
const (
	OrderCreated    = "order.created"
	OrderConfirmed  = "order.confirmed"
	OrderCompleted  = "order.completed"
	OrderCancelled  = "order.cancelled"
	DebtSettled     = "debt.settled"
	CashRecorded    = "cash.recorded"
	StockAdjusted   = "stock.adjusted"
	DebtReconciled  = "debt.reconciled"
	StockReconciled = "stock.reconciled"
	PriceChanged    = "price.changed"
)

// Event is a domain event to be relayed to readers.
type Event struct {
	AggregateType string
	AggregateID   id.ID
	Type          string
	Payload       any
}

// Publisher writes an event. Implementations must join the transaction in ctx.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Nop drops events.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, Event) error { return nil }
