package stock

import (
	"time"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
)

// Kind tags a stock movement.
type Kind string

const (
	KindIn         Kind = "IN"
	KindOut        Kind = "OUT"
	KindLost       Kind = "LOST"
	KindDamaged    Kind = "DAMAGED"
	KindAdjustment Kind = "ADJUSTMENT"
)

// IsValid reports whether k is a known kind.
func (k Kind) IsValid() bool {
	switch k {
	case KindIn, KindOut, KindLost, KindDamaged, KindAdjustment:
		return true
	}
	return false
}

// SignedDelta derives the stock delta for a kind.
//
// IN, OUT, LOST and DAMAGED take a strictly positive magnitude; IN adds it, the others
// subtract it. ADJUSTMENT takes the caller's signed, non-zero delta as-is.
func SignedDelta(kind Kind, quantity int64) (int64, error) {
	switch kind {
	case KindIn:
		if quantity <= 0 {
			return 0, apperror.NewInvalidAmount("quantity", quantity)
		}
		return quantity, nil
	case KindOut, KindLost, KindDamaged:
		if quantity <= 0 {
			return 0, apperror.NewInvalidAmount("quantity", quantity)
		}
		return -quantity, nil
	case KindAdjustment:
		if quantity == 0 {
			return 0, apperror.NewInvalidAmount("quantity", quantity).
				WithDetail("reason", "adjustment delta must be non-zero")
		}
		return quantity, nil
	}
	return 0, apperror.NewValidation("unknown stock movement kind").WithDetail("kind", kind)
}

// Movement is an immutable row of the stock ledger. Quantity is the signed delta.
type Movement struct {
	ID        id.ID     `db:"id" json:"id"`
	ProductID id.ID     `db:"product_id" json:"productId"`
	Kind      Kind      `db:"kind" json:"kind"`
	Quantity  int64     `db:"quantity" json:"quantity"`
	Note      string    `db:"note" json:"note"`
	OrderID   *id.ID    `db:"order_id" json:"orderId,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
