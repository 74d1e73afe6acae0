package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"shopledger/internal/core/id"
	"shopledger/internal/domain/documents/order"
	"shopledger/internal/infrastructure/http/v1/dto"
)

// OrderHandler handles sale and purchase order requests.
type OrderHandler struct {
	*BaseHandler
	service *order.Service
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(base *BaseHandler, service *order.Service) *OrderHandler {
	return &OrderHandler{BaseHandler: base, service: service}
}

// CreateSale handles POST /orders/sale
func (h *OrderHandler) CreateSale(c *gin.Context) {
	var req dto.CreateSaleOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	o, err := h.service.CreateSaleOrder(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromOrder(o))
}

// CreatePurchase handles POST /orders/purchase
func (h *OrderHandler) CreatePurchase(c *gin.Context) {
	var req dto.CreatePurchaseOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	o, err := h.service.CreatePurchaseOrder(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromOrder(o))
}

// List handles GET /orders
func (h *OrderHandler) List(c *gin.Context) {
	filter := order.Filter{
		Limit:  h.ParseIntQuery(c, "limit", 0),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}
	if v := c.Query("type"); v != "" {
		t := order.Type(v)
		filter.Type = &t
	}
	if v := c.Query("status"); v != "" {
		s := order.Status(v)
		filter.Status = &s
	}
	cpID, ok := h.ParseOptionalIDQuery(c, "counterpartyId")
	if !ok {
		return
	}
	filter.CounterpartyID = cpID

	orders, err := h.service.ListOrders(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.OrderResponse, len(orders))
	for i := range orders {
		items[i] = dto.FromOrder(&orders[i])
	}
	h.OK(c, dto.NewListResponse(items, filter.Limit, filter.Offset))
}

// Get handles GET /orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	orderID, ok := h.ParseID(c)
	if !ok {
		return
	}
	o, err := h.service.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromOrder(o))
}

// Confirm handles POST /orders/:id/confirm
func (h *OrderHandler) Confirm(c *gin.Context) {
	h.transition(c, h.service.ConfirmSaleOrder)
}

// Complete handles POST /orders/:id/complete
func (h *OrderHandler) Complete(c *gin.Context) {
	h.transition(c, h.service.CompleteSaleOrder)
}

// Cancel handles POST /orders/:id/cancel
func (h *OrderHandler) Cancel(c *gin.Context) {
	h.transition(c, h.service.CancelOrder)
}

func (h *OrderHandler) transition(c *gin.Context, fn func(ctx context.Context, orderID id.ID) (*order.Order, error)) {
	orderID, ok := h.ParseID(c)
	if !ok {
		return
	}
	o, err := fn(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromOrder(o))
}
