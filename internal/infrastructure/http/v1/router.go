// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"mise/internal/domain/catalogs/ingredient"
	"mise/internal/domain/catalogs/recipe"
	"mise/internal/domain/costing"
	"mise/internal/domain/dish"
	"mise/internal/domain/ledger"
	"mise/internal/domain/menu"
	"mise/internal/domain/sales"
	"mise/internal/infrastructure/http/v1/handlers"
	"mise/internal/infrastructure/http/v1/middleware"
	"mise/internal/infrastructure/storage/postgres"
	"mise/pkg/logger"
)

// RouterConfig holds the wired services the router exposes.
type RouterConfig struct {
	Pool         *postgres.Pool
	Logger       *logger.Logger
	JWTValidator middleware.JWTValidator

	Ingredients *ingredient.Service
	Ledger      *ledger.Service
	Recipes     *recipe.Service
	CostEngine  *costing.Engine
	Dishes      *dish.Service
	Sales       *sales.Service
	Menu        *menu.Service
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	base := handlers.NewBaseHandler()
	ingredientHandler := handlers.NewIngredientHandler(base, cfg.Ingredients)
	ledgerHandler := handlers.NewLedgerHandler(base, cfg.Ledger)
	recipeHandler := handlers.NewRecipeHandler(base, cfg.Recipes, cfg.CostEngine)
	dishHandler := handlers.NewDishHandler(base, cfg.Dishes, cfg.Sales)
	menuHandler := handlers.NewMenuHandler(base, cfg.Menu)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.Auth(cfg.JWTValidator))
	v1.Use(middleware.RequireTenant())
	{
		ingredients := v1.Group("/ingredients")
		{
			ingredients.POST("", ingredientHandler.Create)
			ingredients.GET("", ingredientHandler.List)
			ingredients.GET("/:id", ingredientHandler.Get)
			ingredients.PUT("/:id", ingredientHandler.Update)
			ingredients.DELETE("/:id", ingredientHandler.Delete)
		}

		ledgerGroup := v1.Group("/ledger")
		{
			ledgerGroup.POST("/batches", ledgerHandler.Receive)
			ledgerGroup.GET("/batches", ledgerHandler.ListBatches)
			ledgerGroup.GET("/batches/:id", ledgerHandler.GetBatch)
			ledgerGroup.GET("/batches/:id/movements", ledgerHandler.BatchMovements)
			ledgerGroup.POST("/batches/:id/adjust", ledgerHandler.Adjust)
			ledgerGroup.POST("/batches/:id/archive", ledgerHandler.Archive)
			ledgerGroup.POST("/consume", ledgerHandler.Consume)
			ledgerGroup.POST("/write-off-expired", ledgerHandler.WriteOffExpired)
			ledgerGroup.GET("/expiry", ledgerHandler.ExpiryOverview)
			ledgerGroup.GET("/movements", ledgerHandler.Movements)
		}

		recipes := v1.Group("/recipes")
		{
			recipes.POST("", recipeHandler.Create)
			recipes.GET("", recipeHandler.List)
			recipes.GET("/:id", recipeHandler.Get)
			recipes.PUT("/:id", recipeHandler.Update)
			recipes.DELETE("/:id", recipeHandler.Delete)
			recipes.GET("/:id/cost", recipeHandler.Cost)
			recipes.GET("/:id/cost/breakdown", recipeHandler.CostBreakdown)
		}

		dishes := v1.Group("/dishes")
		{
			dishes.POST("", dishHandler.Create)
			dishes.GET("", dishHandler.List)
			dishes.GET("/:id", dishHandler.Get)
			dishes.PUT("/:id", dishHandler.Update)
			dishes.DELETE("/:id", dishHandler.Delete)
			dishes.GET("/:id/profitability", dishHandler.Analyze)
		}

		v1.POST("/sales", dishHandler.RecordSale)

		v1.GET("/menu/engineering", menuHandler.Classify)
	}

	return router
}
