// Package catalog_repo provides PostgreSQL implementations for catalog repositories:
// products, counterparties and pricing.
package catalog_repo

import (
	"github.com/Masterminds/squirrel"

	"shopledger/internal/infrastructure/storage/postgres"
)

const (
	productsTable       = "products"
	productTiersTable   = "product_price_tiers"
	counterpartiesTable = "counterparties"
	priceEntriesTable   = "wholesale_price_entries"
	promotionsTable     = "promotions"
	promotionTiersTable = "promotion_tiers"
)

type baseRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

func newBaseRepo(txManager *postgres.TxManager) baseRepo {
	return baseRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Builder returns the squirrel builder with PostgreSQL placeholder format.
func (r baseRepo) Builder() squirrel.StatementBuilderType {
	return r.builder
}
