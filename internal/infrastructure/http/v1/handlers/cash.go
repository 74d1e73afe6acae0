package handlers

import (
	"github.com/gin-gonic/gin"

	"shopledger/internal/domain/documents/order"
	"shopledger/internal/domain/registers/cash"
	"shopledger/internal/infrastructure/http/v1/dto"
)

// CashHandler handles settlements and cash drawer requests.
type CashHandler struct {
	*BaseHandler
	orders *order.Service
	cash   *cash.Service
}

// NewCashHandler creates a new cash handler.
func NewCashHandler(base *BaseHandler, orders *order.Service, cashService *cash.Service) *CashHandler {
	return &CashHandler{BaseHandler: base, orders: orders, cash: cashService}
}

// Settle handles POST /settlements
func (h *CashHandler) Settle(c *gin.Context) {
	var req dto.SettlementRequest
	if !h.BindJSON(c, &req) {
		return
	}
	cpID, err := dto.ParseID("counterpartyId", req.CounterpartyID)
	if err != nil {
		h.Error(c, err)
		return
	}

	res, err := h.orders.SettleDebt(c.Request.Context(), cpID, cash.Kind(req.Kind), req.Amount, req.Description)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, res)
}

// CreateMovement handles POST /cash/movements
func (h *CashHandler) CreateMovement(c *gin.Context) {
	var req dto.CashMovementRequest
	if !h.BindJSON(c, &req) {
		return
	}

	res, err := h.orders.RecordCashMovement(c.Request.Context(), cash.Kind(req.Kind), req.Amount, req.Description)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, res)
}

// ListMovements handles GET /cash/movements
func (h *CashHandler) ListMovements(c *gin.Context) {
	filter := cash.MovementFilter{
		Limit:  h.ParseIntQuery(c, "limit", 0),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}
	if v := c.Query("kind"); v != "" {
		k := cash.Kind(v)
		filter.Kind = &k
	}
	var ok bool
	if filter.CounterpartyID, ok = h.ParseOptionalIDQuery(c, "counterpartyId"); !ok {
		return
	}
	if filter.OrderID, ok = h.ParseOptionalIDQuery(c, "orderId"); !ok {
		return
	}

	movements, err := h.cash.History(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(movements, filter.Limit, filter.Offset))
}

// Balance handles GET /cash/balance
func (h *CashHandler) Balance(c *gin.Context) {
	total, err := h.cash.CashOnHand(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.CashBalanceResponse{CashOnHand: total})
}
