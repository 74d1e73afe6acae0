package dto

import (
	"shopledger/internal/domain/registers/stock"
)

// StockMovementRequest records a manual inventory movement.
type StockMovementRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Kind      string `json:"kind" binding:"required"`
	Quantity  int64  `json:"quantity"`
	Note      string `json:"note,omitempty"`
}

// ToRequest converts to the ledger request.
func (r *StockMovementRequest) ToRequest() (stock.MovementRequest, error) {
	pid, err := ParseID("productId", r.ProductID)
	if err != nil {
		return stock.MovementRequest{}, err
	}
	return stock.MovementRequest{
		ProductID: pid,
		Kind:      stock.Kind(r.Kind),
		Quantity:  r.Quantity,
		Note:      r.Note,
	}, nil
}

// StockMovementResponse is the written movement and the new cached stock.
type StockMovementResponse struct {
	Movement *stock.Movement `json:"movement"`
	Stock    int64           `json:"stock"`
}
