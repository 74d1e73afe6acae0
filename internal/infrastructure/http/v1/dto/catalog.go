package dto

import (
	"shopledger/internal/domain/catalogs/product"
)

// ProductResponse is a product with its quantity tiers.
type ProductResponse struct {
	*product.Product
	Tiers []product.PriceTier `json:"tiers"`
}

// FromProduct converts a product for output.
func FromProduct(p *product.Product, tiers []product.PriceTier) ProductResponse {
	if tiers == nil {
		tiers = []product.PriceTier{}
	}
	return ProductResponse{Product: p, Tiers: tiers}
}
