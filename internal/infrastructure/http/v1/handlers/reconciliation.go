package handlers

import (
	"github.com/gin-gonic/gin"

	"shopledger/internal/domain/reconciliation"
)

// ReconciliationHandler exposes on-demand ledger recalculation.
type ReconciliationHandler struct {
	*BaseHandler
	service *reconciliation.Service
}

// NewReconciliationHandler creates a new reconciliation handler.
func NewReconciliationHandler(base *BaseHandler, service *reconciliation.Service) *ReconciliationHandler {
	return &ReconciliationHandler{BaseHandler: base, service: service}
}

// Debt handles POST /reconciliation/debt/:id
func (h *ReconciliationHandler) Debt(c *gin.Context) {
	cpID, ok := h.ParseID(c)
	if !ok {
		return
	}
	res, err := h.service.RecalculateDebt(c.Request.Context(), cpID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, res)
}

// Stock handles POST /reconciliation/stock/:id
func (h *ReconciliationHandler) Stock(c *gin.Context) {
	productID, ok := h.ParseID(c)
	if !ok {
		return
	}
	res, err := h.service.RecalculateStock(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, res)
}

// Run handles POST /reconciliation/run
func (h *ReconciliationHandler) Run(c *gin.Context) {
	report, err := h.service.RecalculateAll(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, report)
}
