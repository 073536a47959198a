// Package main is the entry point for the Comercia API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"comercia/internal/core/types"
	"comercia/internal/domain/auth"
	"comercia/internal/domain/catalogs/customer"
	"comercia/internal/domain/catalogs/product"
	"comercia/internal/domain/catalogs/supplier"
	"comercia/internal/domain/catalogs/warehouse"
	"comercia/internal/domain/inventory"
	"comercia/internal/domain/purchasing"
	"comercia/internal/domain/sales"
	v1 "comercia/internal/infrastructure/http/v1"
	"comercia/internal/infrastructure/storage/postgres"
	"comercia/internal/infrastructure/storage/postgres/auth_repo"
	"comercia/internal/infrastructure/storage/postgres/catalog_repo"
	"comercia/internal/infrastructure/storage/postgres/document_repo"
	"comercia/internal/infrastructure/storage/postgres/ledger_repo"
	"comercia/pkg/logger"
	"comercia/pkg/numerator"
)

func main() {
	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting comercia server")

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(mustEnv("DATABASE_URL"))
	if maxConns := getEnvInt("DB_MAX_CONNS", 0); maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Numbering ---
	// The tx manager doubles as the querier so numbers are drawn inside
	// the caller's transaction.
	numeratorService := numerator.New(txManager)

	// --- Repositories ---
	customerRepo := catalog_repo.NewCustomerRepo(txManager)
	supplierRepo := catalog_repo.NewSupplierRepo(txManager)
	warehouseRepo := catalog_repo.NewWarehouseRepo(txManager)
	productRepo := catalog_repo.NewProductRepo(txManager)

	salesOrderRepo := document_repo.NewSalesOrderRepo(txManager)
	salesInvoiceRepo := document_repo.NewSalesInvoiceRepo(txManager)
	creditNoteRepo := document_repo.NewCreditNoteRepo(txManager)
	purchaseOrderRepo := document_repo.NewPurchaseOrderRepo(txManager)
	purchaseInvoiceRepo := document_repo.NewPurchaseInvoiceRepo(txManager)
	debitNoteRepo := document_repo.NewDebitNoteRepo(txManager)

	stockRepo := ledger_repo.NewStockRepo(txManager)

	userRepo := auth_repo.NewUserRepo(txManager)
	tokenRepo := auth_repo.NewTokenRepo(txManager)

	// --- Auth ---
	jwtConfig := auth.DefaultJWTConfig(mustEnv("JWT_SECRET"))
	if ttl := getEnvDuration("JWT_ACCESS_TTL", 0); ttl > 0 {
		jwtConfig.AccessTokenTTL = ttl
	}
	jwtService := auth.NewJWTService(jwtConfig)

	authConfig := auth.DefaultServiceConfig()
	if expiry := getEnvDuration("REFRESH_TOKEN_EXPIRY", 0); expiry > 0 {
		authConfig.RefreshTokenExpiry = expiry
	}
	authService := auth.NewService(userRepo, tokenRepo, txManager, jwtService, authConfig)

	// --- Ledger ---
	inventoryService := inventory.NewService(stockRepo, productRepo, warehouseRepo, txManager, numeratorService)

	// --- Catalog services ---
	customerService := customer.NewService(customerRepo, txManager)
	supplierService := supplier.NewService(supplierRepo, txManager, numeratorService)
	warehouseService := warehouse.NewService(warehouseRepo, txManager, numeratorService)
	productService := product.NewService(productRepo, txManager, inventoryService)

	// --- Lifecycle services ---

	salesService := sales.NewService(
		salesOrderRepo,
		salesInvoiceRepo,
		creditNoteRepo,
		customerService,
		inventoryService,
		txManager,
		numeratorService,
	)

	purchasingService := purchasing.NewService(
		purchaseOrderRepo,
		purchaseInvoiceRepo,
		debitNoteRepo,
		supplierService,
		inventoryService,
		txManager,
		numeratorService,
	)

	taxRate := types.NewTaxRate(getEnvFloat("TAX_RATE", 0.18))

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:         pool.Unwrap(),
		Logger:       log,
		JWTValidator: jwtService,
		AuthService:  authService,
		Customers:    customerService,
		Suppliers:    supplierService,
		Products:     productService,
		Warehouses:   warehouseService,
		Sales:        salesService,
		Purchasing:   purchasingService,
		Inventory:    inventoryService,
		TaxRate:      taxRate,
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		var result float64
		if _, err := fmt.Sscanf(value, "%f", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
