package handlers

import (
	"github.com/gin-gonic/gin"

	"shopledger/internal/core/apperror"
	"shopledger/internal/domain/registers/stock"
	"shopledger/internal/infrastructure/http/v1/dto"
)

// StockHandler handles inventory ledger requests.
type StockHandler struct {
	*BaseHandler
	service *stock.Service
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(base *BaseHandler, service *stock.Service) *StockHandler {
	return &StockHandler{BaseHandler: base, service: service}
}

// CreateMovement handles POST /stock/movements
func (h *StockHandler) CreateMovement(c *gin.Context) {
	var req dto.StockMovementRequest
	if !h.BindJSON(c, &req) {
		return
	}
	mr, err := req.ToRequest()
	if err != nil {
		h.Error(c, err)
		return
	}

	m, level, err := h.service.Apply(c.Request.Context(), mr)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.StockMovementResponse{Movement: m, Stock: level})
}

// ListMovements handles GET /stock/movements?productId=
func (h *StockHandler) ListMovements(c *gin.Context) {
	productID, ok := h.ParseOptionalIDQuery(c, "productId")
	if !ok {
		return
	}
	if productID == nil {
		h.Error(c, apperror.NewValidation("productId is required"))
		return
	}

	filter := stock.MovementFilter{
		Limit:  h.ParseIntQuery(c, "limit", 0),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}
	if v := c.Query("kind"); v != "" {
		k := stock.Kind(v)
		filter.Kind = &k
	}

	movements, err := h.service.History(c.Request.Context(), *productID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(movements, filter.Limit, filter.Offset))
}
