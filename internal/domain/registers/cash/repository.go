package cash

import (
	"context"

	"shopledger/internal/core/id"
	"shopledger/internal/core/types"
)

// Repository defines operations for the cash movement log.
type Repository interface {
	// CreateMovement appends one movement row.
	CreateMovement(ctx context.Context, m *Movement) error

	// CashOnHand returns Σ signed amounts over all movements.
	CashOnHand(ctx context.Context) (types.Money, error)

	// SumByCounterparty returns Σ amount of one kind for a counterparty.
	SumByCounterparty(ctx context.Context, counterpartyID id.ID, kind Kind) (types.Money, error)

	// List returns movements, newest first.
	List(ctx context.Context, filter MovementFilter) ([]Movement, error)
}

// MovementFilter for filtering cash history.
type MovementFilter struct {
	Kind           *Kind
	CounterpartyID *id.ID
	OrderID        *id.ID
	Limit          int
	Offset         int
}
