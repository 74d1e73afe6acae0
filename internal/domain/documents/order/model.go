// Package order provides sale and purchase orders, the settlement entry point
// that drives the inventory and debt ledgers.
package order

import (
	"time"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/core/types"
)

// Type of order.
type Type string

const (
	TypeSale     Type = "SALE"
	TypePurchase Type = "PURCHASE"
)

// Status of order.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCompleted, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

// CanTransition reports whether an order may move from one status to another.
// COMPLETED and CANCELLED are terminal.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Order is a sale or purchase document.
type Order struct {
	ID             id.ID       `db:"id" json:"id"`
	Code           string      `db:"code" json:"code"`
	Type           Type        `db:"type" json:"type"`
	Status         Status      `db:"status" json:"status"`
	CounterpartyID *id.ID      `db:"counterparty_id" json:"counterpartyId,omitempty"`
	Total          types.Money `db:"total" json:"total"`
	Paid           types.Money `db:"paid" json:"paid"`
	ShippingFee    types.Money `db:"shipping_fee" json:"shippingFee"`
	Note           string      `db:"note" json:"note"`

	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updatedAt"`
	CompletedAt *time.Time `db:"completed_at" json:"completedAt,omitempty"`

	Items []Item `db:"-" json:"items"`
}

// Item is one order line. UnitPrice is per entered unit.
type Item struct {
	ID           id.ID       `db:"id" json:"id"`
	OrderID      id.ID       `db:"order_id" json:"orderId"`
	LineNo       int         `db:"line_no" json:"lineNo"`
	ProductID    id.ID       `db:"product_id" json:"productId"`
	Quantity     int64       `db:"quantity" json:"quantity"`
	Unit         string      `db:"unit" json:"unit"`
	BaseQuantity int64       `db:"base_quantity" json:"baseQuantity"`
	UnitPrice    types.Money `db:"unit_price" json:"unitPrice"`
	LineTotal    types.Money `db:"line_total" json:"lineTotal"`
}

// LineInput is a requested order line. A nil UnitPrice asks for the resolved price.
type LineInput struct {
	ProductID  id.ID
	Quantity   int64
	InSaleUnit bool
	UnitPrice  *types.Money
}

// SaleInput is the request for CreateSaleOrder.
type SaleInput struct {
	CustomerID *id.ID
	Lines      []LineInput
	Paid       types.Money
	Note       string
}

// PurchaseInput is the request for CreatePurchaseOrder.
type PurchaseInput struct {
	SupplierID  *id.ID
	Lines       []LineInput
	Paid        types.Money
	ShippingFee types.Money
	Note        string
}

// Filter for listing orders.
type Filter struct {
	Type           *Type
	Status         *Status
	CounterpartyID *id.ID
	Limit          int
	Offset         int
}

// Outstanding is the unpaid part of the order.
func (o *Order) Outstanding() types.Money {
	return o.Total.Sub(o.Paid)
}

// TransitionTo moves the order to a new status or fails with InvalidTransition.
func (o *Order) TransitionTo(to Status, at time.Time) error {
	if !CanTransition(o.Status, to) {
		return apperror.NewInvalidTransition(string(o.Status), string(to)).
			WithDetail("order_id", o.ID)
	}
	o.Status = to
	o.UpdatedAt = at
	if to == StatusCompleted {
		o.CompletedAt = &at
	}
	return nil
}

func validateLines(lines []LineInput) error {
	if len(lines) == 0 {
		return apperror.NewValidation("order must have at least one line")
	}
	for i, l := range lines {
		if l.Quantity <= 0 {
			return apperror.NewInvalidAmount("quantity", l.Quantity).WithDetail("line", i+1)
		}
	}
	return nil
}

func validateUnitPrice(i int, l LineInput) error {
	if l.UnitPrice != nil && !l.UnitPrice.IsPositive() {
		return apperror.NewInvalidAmount("unitPrice", l.UnitPrice.String()).WithDetail("line", i+1)
	}
	return nil
}

func validatePaid(paid, total types.Money) error {
	if paid.IsNegative() || paid.GreaterThan(total) {
		return apperror.NewInvalidAmount("paid", paid.String()).
			WithDetail("reason", "paid must be between 0 and the order total").
			WithDetail("total", total.String())
	}
	return nil
}
