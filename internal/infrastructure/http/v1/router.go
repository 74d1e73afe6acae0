// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"shopledger/internal/domain/catalogs/counterparty"
	"shopledger/internal/domain/catalogs/product"
	"shopledger/internal/domain/documents/order"
	"shopledger/internal/domain/pricing"
	"shopledger/internal/domain/reconciliation"
	"shopledger/internal/domain/registers/cash"
	"shopledger/internal/domain/registers/stock"
	"shopledger/internal/infrastructure/http/v1/handlers"
	"shopledger/internal/infrastructure/http/v1/middleware"
	"shopledger/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	Orders         *order.Service
	Pricing        *pricing.Service
	Stock          *stock.Service
	Cash           *cash.Service
	Reconciliation *reconciliation.Service

	Products       product.Repository
	Counterparties counterparty.Repository

	// JWTValidator enables bearer authentication on /api/v1. Nil disables it.
	JWTValidator middleware.JWTValidator

	// Idempotency stores Idempotency-Key outcomes. Nil disables replay.
	Idempotency middleware.IdempotencyStore

	// DB is pinged by the readiness probe.
	DB handlers.Pinger

	// GinMode defaults to release.
	GinMode string
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	mode := cfg.GinMode
	if mode == "" {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)

	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}

	router := gin.New()

	// Global middleware (order matters: errors are rendered after recovery)
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(log))
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Recovery())

	healthHandler := handlers.NewHealthHandler(cfg.DB)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	api := router.Group("/api/v1")
	if cfg.JWTValidator != nil {
		api.Use(middleware.Auth(cfg.JWTValidator))
	}
	guard := newRoleGuard(cfg.JWTValidator != nil)

	// Keyed retries of money-moving requests are replayed, never re-applied.
	keyed := func(c *gin.Context) { c.Next() }
	if cfg.Idempotency != nil {
		keyed = middleware.Idempotency(cfg.Idempotency)
	}

	base := handlers.NewBaseHandler()

	orderHandler := handlers.NewOrderHandler(base, cfg.Orders)
	orders := api.Group("/orders", keyed)
	RegisterOrderRoutes(orders, orderHandler, guard)

	cashHandler := handlers.NewCashHandler(base, cfg.Orders, cfg.Cash)
	api.POST("/settlements", keyed, guard(RoleCashier, RoleManager), cashHandler.Settle)
	cashGroup := api.Group("/cash")
	{
		cashGroup.POST("/movements", keyed, guard(RoleManager), cashHandler.CreateMovement)
		cashGroup.GET("/movements", guard(RoleCashier, RoleManager), cashHandler.ListMovements)
		cashGroup.GET("/balance", guard(RoleCashier, RoleManager), cashHandler.Balance)
	}

	pricingHandler := handlers.NewPricingHandler(base, cfg.Pricing)
	pricingGroup := api.Group("/pricing")
	{
		pricingGroup.GET("/resolve", guard(RoleCashier, RoleManager), pricingHandler.Resolve)
		pricingGroup.GET("/entries", guard(RoleCashier, RoleManager), pricingHandler.ListEntries)
		pricingGroup.POST("/entries", guard(RoleManager), pricingHandler.CreateEntry)
		pricingGroup.PUT("/entries", guard(RoleManager), pricingHandler.ReplaceEntry)
	}

	stockHandler := handlers.NewStockHandler(base, cfg.Stock)
	stockGroup := api.Group("/stock")
	{
		stockGroup.POST("/movements", keyed, guard(RoleManager), stockHandler.CreateMovement)
		stockGroup.GET("/movements", guard(RoleCashier, RoleManager), stockHandler.ListMovements)
	}

	catalogHandler := handlers.NewCatalogHandler(base, cfg.Products, cfg.Counterparties)
	api.GET("/products", guard(RoleCashier, RoleManager), catalogHandler.ListProducts)
	api.GET("/products/:id", guard(RoleCashier, RoleManager), catalogHandler.GetProduct)
	api.GET("/counterparties", guard(RoleCashier, RoleManager), catalogHandler.ListCounterparties)
	api.GET("/counterparties/:id", guard(RoleCashier, RoleManager), catalogHandler.GetCounterparty)

	reconHandler := handlers.NewReconciliationHandler(base, cfg.Reconciliation)
	recon := api.Group("/reconciliation", guard(RoleManager))
	{
		recon.POST("/debt/:id", reconHandler.Debt)
		recon.POST("/stock/:id", reconHandler.Stock)
		recon.POST("/run", reconHandler.Run)
	}

	return router
}
