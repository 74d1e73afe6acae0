package dto

import (
	"time"

	"shopledger/internal/core/types"
	"shopledger/internal/domain/pricing"
)

// PriceEntryRequest creates or replaces a customer's wholesale price.
type PriceEntryRequest struct {
	CustomerID string      `json:"customerId" binding:"required"`
	ProductID  string      `json:"productId" binding:"required"`
	Price      types.Money `json:"price"`
	ValidFrom  time.Time   `json:"validFrom" binding:"required"`
	ValidTo    time.Time   `json:"validTo" binding:"required"`
}

// ToEntity converts the request to a domain entry.
func (r *PriceEntryRequest) ToEntity() (*pricing.WholesalePriceEntry, error) {
	customerID, err := ParseID("customerId", r.CustomerID)
	if err != nil {
		return nil, err
	}
	productID, err := ParseID("productId", r.ProductID)
	if err != nil {
		return nil, err
	}
	return &pricing.WholesalePriceEntry{
		CustomerID: customerID,
		ProductID:  productID,
		Price:      r.Price,
		ValidFrom:  r.ValidFrom,
		ValidTo:    r.ValidTo,
	}, nil
}

// PriceEntryResponse reports the stored entry and whether it was new.
type PriceEntryResponse struct {
	Entry   *pricing.WholesalePriceEntry `json:"entry"`
	Created bool                         `json:"created"`
}
