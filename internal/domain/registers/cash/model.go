// Package cash provides the debt ledger: cash movements and counterparty debt.
package cash

import (
	"time"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/core/types"
)

// Kind tags a cash movement.
type Kind string

const (
	KindIncome         Kind = "INCOME"
	KindExpense        Kind = "EXPENSE"
	KindDebtCollection Kind = "DEBT_COLLECTION"
	KindDebtPayment    Kind = "DEBT_PAYMENT"
)

// IsValid reports whether k is a known kind.
func (k Kind) IsValid() bool {
	switch k {
	case KindIncome, KindExpense, KindDebtCollection, KindDebtPayment:
		return true
	}
	return false
}

// CashSign is +1 for money entering the drawer, -1 for money leaving it.
func (k Kind) CashSign() int {
	switch k {
	case KindIncome, KindDebtCollection:
		return 1
	default:
		return -1
	}
}

// SettlesDebt reports whether the kind reduces a counterparty's debt.
func (k Kind) SettlesDebt() bool {
	return k == KindDebtCollection || k == KindDebtPayment
}

// Movement is an immutable row of the cash ledger. Amount is always positive;
// the direction comes from Kind.
type Movement struct {
	ID             id.ID       `db:"id" json:"id"`
	Kind           Kind        `db:"kind" json:"kind"`
	Amount         types.Money `db:"amount" json:"amount"`
	CounterpartyID *id.ID      `db:"counterparty_id" json:"counterpartyId,omitempty"`
	OrderID        *id.ID      `db:"order_id" json:"orderId,omitempty"`
	Description    string      `db:"description" json:"description"`
	CreatedAt      time.Time   `db:"created_at" json:"createdAt"`
}

// Signed returns the amount with the drawer direction applied.
func (m *Movement) Signed() types.Money {
	if m.Kind.CashSign() < 0 {
		return m.Amount.Neg()
	}
	return m.Amount
}

// CashRequest asks the ledger to record a cash movement.
type CashRequest struct {
	Kind           Kind
	Amount         types.Money
	CounterpartyID *id.ID
	OrderID        *id.ID
	Description    string
}

// Validate checks the request shape; counterparty kind is checked by the service.
func (r CashRequest) Validate() error {
	if !r.Kind.IsValid() {
		return apperror.NewValidation("unknown cash movement kind").WithDetail("kind", r.Kind)
	}
	if !r.Amount.IsPositive() {
		return apperror.NewInvalidAmount("amount", r.Amount.String())
	}
	if r.Kind.SettlesDebt() && r.CounterpartyID == nil {
		return apperror.NewValidation("counterpartyId is required").WithDetail("kind", r.Kind)
	}
	return nil
}

// Result of a recorded cash movement. Debt is set when the movement settled debt.
type Result struct {
	Movement *Movement   `json:"movement"`
	Debt     *types.Money `json:"debt,omitempty"`
}
