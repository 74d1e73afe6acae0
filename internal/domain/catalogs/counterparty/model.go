// Package counterparty provides the Counterparty catalog: the customers and
// suppliers a debt balance can be held against.
package counterparty

import (
	"time"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/core/types"
)

// Kind defines whether the counterparty buys from or sells to the shop.
type Kind string

const (
	KindCustomer Kind = "customer"
	KindSupplier Kind = "supplier"
)

// IsValid reports whether k is a known kind.
func (k Kind) IsValid() bool {
	return k == KindCustomer || k == KindSupplier
}

// Counterparty represents a customer or a supplier.
//
// Debt is a cached, signed balance:
//   - customer: amount the customer owes the shop
//   - supplier: amount the shop owes the supplier
type Counterparty struct {
	ID    id.ID       `db:"id" json:"id"`
	Kind  Kind        `db:"kind" json:"kind"`
	Name  string      `db:"name" json:"name"`
	Phone *string     `db:"phone" json:"phone,omitempty"`
	Email *string     `db:"email" json:"email,omitempty"`
	Debt  types.Money `db:"debt" json:"debt"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// IsCustomer returns true if counterparty is a customer.
func (c *Counterparty) IsCustomer() bool {
	return c.Kind == KindCustomer
}

// IsSupplier returns true if counterparty is a supplier.
func (c *Counterparty) IsSupplier() bool {
	return c.Kind == KindSupplier
}

// RequireKind returns a validation error when c is not of the expected kind.
func (c *Counterparty) RequireKind(kind Kind) error {
	if c.Kind != kind {
		return apperror.NewValidation("counterparty has the wrong kind").
			WithDetail("counterparty_id", c.ID).
			WithDetail("expected", kind).
			WithDetail("actual", c.Kind)
	}
	return nil
}
