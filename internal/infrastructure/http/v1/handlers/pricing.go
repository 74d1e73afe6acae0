package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"shopledger/internal/core/apperror"
	"shopledger/internal/domain/pricing"
	"shopledger/internal/infrastructure/http/v1/dto"
)

// PricingHandler handles price resolution and wholesale entries.
type PricingHandler struct {
	*BaseHandler
	service *pricing.Service
}

// NewPricingHandler creates a new pricing handler.
func NewPricingHandler(base *BaseHandler, service *pricing.Service) *PricingHandler {
	return &PricingHandler{BaseHandler: base, service: service}
}

// Resolve handles GET /pricing/resolve?productId=&customerId=&quantity=&inSaleUnit=&at=
func (h *PricingHandler) Resolve(c *gin.Context) {
	productID, ok := h.ParseOptionalIDQuery(c, "productId")
	if !ok {
		return
	}
	if productID == nil {
		h.Error(c, apperror.NewValidation("productId is required"))
		return
	}
	customerID, ok := h.ParseOptionalIDQuery(c, "customerId")
	if !ok {
		return
	}

	q := pricing.Query{
		ProductID:  *productID,
		CustomerID: customerID,
		Quantity:   int64(h.ParseIntQuery(c, "quantity", 1)),
	}
	if v := c.Query("inSaleUnit"); v != "" {
		inSaleUnit, err := strconv.ParseBool(v)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid inSaleUnit").WithDetail("inSaleUnit", v))
			return
		}
		q.InSaleUnit = inSaleUnit
	}
	if v := c.Query("at"); v != "" {
		at, err := time.Parse(time.RFC3339, v)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid at, expected RFC3339").WithDetail("at", v))
			return
		}
		q.At = at
	}

	quote, err := h.service.ResolvePrice(c.Request.Context(), q)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, quote)
}

// CreateEntry handles POST /pricing/entries
func (h *PricingHandler) CreateEntry(c *gin.Context) {
	h.writeEntry(c, pricing.ModeCreate)
}

// ReplaceEntry handles PUT /pricing/entries
func (h *PricingHandler) ReplaceEntry(c *gin.Context) {
	h.writeEntry(c, pricing.ModeReplace)
}

func (h *PricingHandler) writeEntry(c *gin.Context, mode pricing.WriteMode) {
	var req dto.PriceEntryRequest
	if !h.BindJSON(c, &req) {
		return
	}
	entry, err := req.ToEntity()
	if err != nil {
		h.Error(c, err)
		return
	}

	created, err := h.service.CreateOrReplacePriceEntry(c.Request.Context(), entry, mode)
	if err != nil {
		h.Error(c, err)
		return
	}

	resp := dto.PriceEntryResponse{Entry: entry, Created: created}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	h.CompleteIdempotency(c, status, "application/json", resp)
	c.JSON(status, resp)
}

// ListEntries handles GET /pricing/entries?customerId=&productId=
// With productId it returns the single entry for the pair.
func (h *PricingHandler) ListEntries(c *gin.Context) {
	customerID, ok := h.ParseOptionalIDQuery(c, "customerId")
	if !ok {
		return
	}
	if customerID == nil {
		h.Error(c, apperror.NewValidation("customerId is required"))
		return
	}
	productID, ok := h.ParseOptionalIDQuery(c, "productId")
	if !ok {
		return
	}

	if productID != nil {
		entry, err := h.service.GetPriceEntry(c.Request.Context(), *customerID, *productID)
		if err != nil {
			h.Error(c, err)
			return
		}
		h.OK(c, entry)
		return
	}

	entries, err := h.service.ListPriceEntries(c.Request.Context(), *customerID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(entries, 0, 0))
}
