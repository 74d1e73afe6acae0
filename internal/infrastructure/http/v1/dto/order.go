package dto

import (
	"shopledger/internal/core/types"
	"shopledger/internal/domain/documents/order"
)

// --- Request DTOs ---

// OrderLineRequest is one line of a sale or purchase.
type OrderLineRequest struct {
	ProductID  string       `json:"productId" binding:"required"`
	Quantity   int64        `json:"quantity"`
	InSaleUnit bool         `json:"inSaleUnit,omitempty"`
	UnitPrice  *types.Money `json:"unitPrice,omitempty"`
}

func toLineInputs(lines []OrderLineRequest) ([]order.LineInput, error) {
	out := make([]order.LineInput, len(lines))
	for i, l := range lines {
		pid, err := ParseID("productId", l.ProductID)
		if err != nil {
			return nil, err
		}
		out[i] = order.LineInput{
			ProductID:  pid,
			Quantity:   l.Quantity,
			InSaleUnit: l.InSaleUnit,
			UnitPrice:  l.UnitPrice,
		}
	}
	return out, nil
}

// CreateSaleOrderRequest represents a request to create a sale order.
type CreateSaleOrderRequest struct {
	CustomerID *string            `json:"customerId,omitempty"`
	Lines      []OrderLineRequest `json:"lines" binding:"dive"`
	Paid       types.Money        `json:"paid"`
	Note       string             `json:"note,omitempty"`
}

// ToInput converts the request to the service input.
func (r *CreateSaleOrderRequest) ToInput() (order.SaleInput, error) {
	customerID, err := ParseOptionalID("customerId", r.CustomerID)
	if err != nil {
		return order.SaleInput{}, err
	}
	lines, err := toLineInputs(r.Lines)
	if err != nil {
		return order.SaleInput{}, err
	}
	return order.SaleInput{
		CustomerID: customerID,
		Lines:      lines,
		Paid:       r.Paid,
		Note:       r.Note,
	}, nil
}

// CreatePurchaseOrderRequest represents a request to record a purchase.
type CreatePurchaseOrderRequest struct {
	SupplierID  *string            `json:"supplierId,omitempty"`
	Lines       []OrderLineRequest `json:"lines" binding:"dive"`
	Paid        types.Money        `json:"paid"`
	ShippingFee types.Money        `json:"shippingFee"`
	Note        string             `json:"note,omitempty"`
}

// ToInput converts the request to the service input.
func (r *CreatePurchaseOrderRequest) ToInput() (order.PurchaseInput, error) {
	supplierID, err := ParseOptionalID("supplierId", r.SupplierID)
	if err != nil {
		return order.PurchaseInput{}, err
	}
	lines, err := toLineInputs(r.Lines)
	if err != nil {
		return order.PurchaseInput{}, err
	}
	return order.PurchaseInput{
		SupplierID:  supplierID,
		Lines:       lines,
		Paid:        r.Paid,
		ShippingFee: r.ShippingFee,
		Note:        r.Note,
	}, nil
}

// --- Response DTOs ---

// OrderResponse is an order with its derived outstanding amount.
type OrderResponse struct {
	*order.Order
	Outstanding types.Money `json:"outstanding"`
}

// FromOrder converts an order for output.
func FromOrder(o *order.Order) OrderResponse {
	if o.Items == nil {
		o.Items = []order.Item{}
	}
	return OrderResponse{Order: o, Outstanding: o.Outstanding()}
}
