package counterparty

import (
	"context"

	"shopledger/internal/core/id"
	"shopledger/internal/core/types"
)

// Repository defines the interface for Counterparty persistence.
// Debt is written only by the debt ledger and by reconciliation.
type Repository interface {
	// GetByID returns NotFound for an unknown id.
	GetByID(ctx context.Context, counterpartyID id.ID) (*Counterparty, error)

	// GetForUpdate retrieves counterparty with row lock (for transactional updates).
	GetForUpdate(ctx context.Context, counterpartyID id.ID) (*Counterparty, error)

	// List returns counterparties, optionally filtered by kind.
	List(ctx context.Context, kind *Kind) ([]Counterparty, error)

	// AddDebt atomically applies debt = debt + delta and returns the new balance.
	AddDebt(ctx context.Context, counterpartyID id.ID, delta types.Money) (types.Money, error)

	// SetDebt overwrites the cached debt (reconciliation only).
	SetDebt(ctx context.Context, counterpartyID id.ID, debt types.Money) error
}
