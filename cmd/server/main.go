// Package main is the entry point for the mise API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mise/internal/core/clock"
	"mise/internal/domain/auth"
	"mise/internal/domain/catalogs/ingredient"
	"mise/internal/domain/catalogs/recipe"
	"mise/internal/domain/costing"
	"mise/internal/domain/dish"
	"mise/internal/domain/ledger"
	"mise/internal/domain/menu"
	"mise/internal/domain/sales"
	v1 "mise/internal/infrastructure/http/v1"
	"mise/internal/infrastructure/storage/postgres"
	"mise/internal/infrastructure/storage/postgres/catalog_repo"
	"mise/internal/infrastructure/storage/postgres/ledger_repo"
	"mise/internal/infrastructure/storage/postgres/report_repo"
	"mise/pkg/logger"
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
	log.Info("starting mise server")

	// --- Database connection ---
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

	auditStore, err := postgres.NewAuditStore(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit store", "error", err)
	}

	clk := clock.System{}
	lotNumerator := postgres.NewLotNumerator(pool, clk)

	// --- Repositories ---
	ingredientRepo := catalog_repo.NewIngredientRepo(txManager)
	recipeRepo := catalog_repo.NewRecipeRepo(txManager)
	dishRepo := catalog_repo.NewDishRepo(txManager)
	ledgerRepo := ledger_repo.NewLedgerRepo(txManager)
	menuRepo := report_repo.NewMenuRepo(txManager)

	// --- Services ---
	ingredientService := ingredient.NewService(ingredientRepo)
	ledgerService := ledger.NewService(ledgerRepo, txManager, auditStore, lotNumerator, clk)
	recipeService := recipe.NewService(recipeRepo, ingredientRepo, txManager)

	resolver := costing.NewResolver(ledgerRepo)
	costEngine := costing.NewEngine(recipeRepo, resolver)

	dishService := dish.NewService(dishRepo, recipeRepo, costEngine, dish.DefaultThresholds())
	salesService := sales.NewService(dishRepo, recipeRepo, costEngine, ledgerService, txManager, clk)
	menuService := menu.NewService(menuRepo, dishService, menu.DefaultClassifierConfig())

	// --- JWT Service ---
	jwtSecret := getEnv("JWT_SECRET", "your-secret-key-change-in-production")
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(jwtSecret))

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:         pool,
		Logger:       log,
		JWTValidator: jwtService,
		Ingredients:  ingredientService,
		Ledger:       ledgerService,
		Recipes:      recipeService,
		CostEngine:   costEngine,
		Dishes:       dishService,
		Sales:        salesService,
		Menu:         menuService,
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
