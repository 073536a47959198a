// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"comercia/internal/core/types"
	"comercia/internal/domain/auth"
	"comercia/internal/domain/catalogs/customer"
	"comercia/internal/domain/catalogs/product"
	"comercia/internal/domain/catalogs/supplier"
	"comercia/internal/domain/catalogs/warehouse"
	"comercia/internal/domain/inventory"
	"comercia/internal/domain/purchasing"
	"comercia/internal/domain/sales"
	"comercia/internal/infrastructure/http/v1/handlers"
	"comercia/internal/infrastructure/http/v1/middleware"
	"comercia/pkg/logger"
)

// RouterConfig holds the wired services the API surfaces.
type RouterConfig struct {
	// Pool is the database connection pool (health checks)
	Pool *pgxpool.Pool

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// AuthService for authentication endpoints
	AuthService *auth.Service

	// Catalog services
	Customers  *customer.Service
	Suppliers  *supplier.Service
	Products   *product.Service
	Warehouses *warehouse.Service

	// Lifecycle services
	Sales      *sales.Service
	Purchasing *purchasing.Service
	Inventory  *inventory.Service

	// TaxRate splits tax-inclusive totals on invoice responses
	TaxRate types.TaxRate
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	// API v1
	apiV1 := router.Group("/api/v1")
	{
		registerAuthRoutes(apiV1, cfg)

		protected := apiV1.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))

		registerSalesRoutes(protected, cfg)
		registerPurchasingRoutes(protected, cfg)
		registerInventoryRoutes(protected, cfg)
	}

	return router
}

// registerAuthRoutes registers authentication endpoints.
func registerAuthRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	baseHandler := handlers.NewBaseHandler()
	authHandler := handlers.NewAuthHandler(baseHandler, cfg.AuthService)

	public := rg.Group("/auth")

	protected := rg.Group("/auth")
	protected.Use(middleware.Auth(cfg.JWTValidator))

	admin := rg.Group("/auth")
	admin.Use(middleware.Auth(cfg.JWTValidator))
	admin.Use(middleware.RequireRole("admin"))

	authHandler.RegisterRoutes(public, protected, admin)
}

// registerSalesRoutes registers the sales surface: customers, orders,
// invoices and credit notes.
func registerSalesRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	salesGroup := rg.Group("/sales")
	baseHandler := handlers.NewBaseHandler()

	customerHandler := handlers.NewCustomerHandler(baseHandler, cfg.Customers)
	RegisterCatalogRoutes(salesGroup.Group("/customers"), customerHandler)

	salesHandler := handlers.NewSalesHandler(baseHandler, cfg.Sales, cfg.TaxRate)

	orders := salesGroup.Group("/orders")
	{
		orders.GET("", salesHandler.ListOrders)
		orders.POST("", salesHandler.CreateOrder)
		orders.GET("/:number", salesHandler.GetOrder)
		orders.DELETE("/:number", salesHandler.DeleteOrder)
		orders.POST("/:number/invoice", salesHandler.CreateInvoice)
	}

	invoices := salesGroup.Group("/invoices")
	{
		invoices.GET("", salesHandler.ListInvoices)
		invoices.GET("/:number", salesHandler.GetInvoice)
		invoices.POST("/:number/payments", salesHandler.RecordPayment)
		invoices.POST("/:number/dispatch", salesHandler.Dispatch)
		invoices.POST("/:number/credit-notes", salesHandler.CreateCreditNote)
	}

	creditNotes := salesGroup.Group("/credit-notes")
	{
		creditNotes.GET("", salesHandler.ListCreditNotes)
		creditNotes.GET("/:number", salesHandler.GetCreditNote)
	}
}

// registerPurchasingRoutes registers the purchasing mirror: suppliers,
// orders, invoices and debit notes.
func registerPurchasingRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	purchasingGroup := rg.Group("/purchasing")
	baseHandler := handlers.NewBaseHandler()

	supplierHandler := handlers.NewSupplierHandler(baseHandler, cfg.Suppliers)
	RegisterCatalogRoutes(purchasingGroup.Group("/suppliers"), supplierHandler)

	purchasingHandler := handlers.NewPurchasingHandler(baseHandler, cfg.Purchasing, cfg.TaxRate)

	orders := purchasingGroup.Group("/orders")
	{
		orders.GET("", purchasingHandler.ListOrders)
		orders.POST("", purchasingHandler.CreateOrder)
		orders.GET("/:number", purchasingHandler.GetOrder)
		orders.DELETE("/:number", purchasingHandler.DeleteOrder)
		orders.POST("/:number/invoice", purchasingHandler.CreateInvoice)
	}

	invoices := purchasingGroup.Group("/invoices")
	{
		invoices.GET("", purchasingHandler.ListInvoices)
		invoices.GET("/:number", purchasingHandler.GetInvoice)
		invoices.POST("/:number/payments", purchasingHandler.RecordPayment)
		invoices.POST("/:number/receive", purchasingHandler.RegisterReception)
		invoices.POST("/:number/debit-notes", purchasingHandler.CreateDebitNote)
	}

	debitNotes := purchasingGroup.Group("/debit-notes")
	{
		debitNotes.GET("", purchasingHandler.ListDebitNotes)
		debitNotes.GET("/:number", purchasingHandler.GetDebitNote)
	}
}

// registerInventoryRoutes registers products, warehouses and the stock
// movement ledger.
func registerInventoryRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	inventoryGroup := rg.Group("/inventory")
	baseHandler := handlers.NewBaseHandler()

	productHandler := handlers.NewProductHandler(baseHandler, cfg.Products)
	RegisterCatalogRoutes(inventoryGroup.Group("/products"), productHandler)

	warehouseHandler := handlers.NewWarehouseHandler(baseHandler, cfg.Warehouses)
	RegisterCatalogRoutes(inventoryGroup.Group("/warehouses"), warehouseHandler)

	inventoryHandler := handlers.NewInventoryHandler(baseHandler, cfg.Inventory)

	movements := inventoryGroup.Group("/stock-movements")
	{
		movements.GET("", inventoryHandler.ListMovements)
		movements.POST("", inventoryHandler.CreateMovement)
		movements.POST("/transfer", inventoryHandler.Transfer)
		movements.POST("/rebuild/:sku", middleware.RequireRole("admin"), inventoryHandler.RebuildStock)
	}
}
