package handlers

import (
	"github.com/gin-gonic/gin"

	"shopledger/internal/domain/catalogs/counterparty"
	"shopledger/internal/domain/catalogs/product"
	"shopledger/internal/infrastructure/http/v1/dto"
)

// CatalogHandler serves read-only product and counterparty lookups.
type CatalogHandler struct {
	*BaseHandler
	products       product.Repository
	counterparties counterparty.Repository
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(base *BaseHandler, products product.Repository, counterparties counterparty.Repository) *CatalogHandler {
	return &CatalogHandler{BaseHandler: base, products: products, counterparties: counterparties}
}

// ListProducts handles GET /products
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	items, err := h.products.List(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(items, 0, 0))
}

// GetProduct handles GET /products/:id
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	productID, ok := h.ParseID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	p, err := h.products.GetByID(ctx, productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	tiers, err := h.products.GetTiers(ctx, productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromProduct(p, tiers))
}

// ListCounterparties handles GET /counterparties?kind=
func (h *CatalogHandler) ListCounterparties(c *gin.Context) {
	var kind *counterparty.Kind
	if v := c.Query("kind"); v != "" {
		k := counterparty.Kind(v)
		kind = &k
	}
	items, err := h.counterparties.List(c.Request.Context(), kind)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(items, 0, 0))
}

// GetCounterparty handles GET /counterparties/:id
func (h *CatalogHandler) GetCounterparty(c *gin.Context) {
	cpID, ok := h.ParseID(c)
	if !ok {
		return
	}
	cp, err := h.counterparties.GetByID(c.Request.Context(), cpID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, cp)
}
