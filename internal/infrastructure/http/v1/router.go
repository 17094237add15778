// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"planbook/internal/domain/access"
	"planbook/internal/domain/auth"
	"planbook/internal/domain/plan"
	"planbook/internal/domain/product"
	"planbook/internal/infrastructure/http/v1/handlers"
	"planbook/internal/infrastructure/http/v1/middleware"
	"planbook/internal/infrastructure/storage/postgres"
	"planbook/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	Pool           *postgres.Pool
	Logger         *logger.Logger
	TokenValidator middleware.TokenValidator

	AuthService    *auth.Service
	PlanService    *plan.Service
	ProductService *product.Service
	AccessService  *access.Service
}

// NewRouter creates and configures the Gin router.
//
// Every API route runs behind the Principal middleware: a missing token
// resolves to the anonymous principal and the domain policy decides per
// operation what anonymous may do. Reads degrade to empty results,
// writes are rejected.
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
		health.GET("/info", healthHandler.Info)
	}

	baseHandler := handlers.NewBaseHandler()

	// API v1
	api := router.Group("/api/v1")
	api.Use(middleware.Principal(cfg.TokenValidator))
	{
		authHandler := handlers.NewAuthHandler(baseHandler, cfg.AuthService)
		authPublic := api.Group("/auth")
		authProtected := api.Group("/auth")
		authProtected.Use(middleware.RequireAuthenticated())
		authHandler.RegisterRoutes(authPublic, authProtected)

		handlers.NewPlanHandler(baseHandler, cfg.PlanService).RegisterRoutes(api)
		handlers.NewProductHandler(baseHandler, cfg.ProductService).RegisterRoutes(api)
		handlers.NewAccessHandler(baseHandler, cfg.AccessService).RegisterRoutes(api)
	}

	return router
}
