// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"inventorycore/internal/domain/inventory"
	"inventorycore/internal/infrastructure/breaker"
	"inventorycore/internal/infrastructure/bulkhead"
	"inventorycore/internal/infrastructure/http/v1/handlers"
	"inventorycore/internal/infrastructure/http/v1/middleware"
	"inventorycore/internal/infrastructure/loadshed"
	"inventorycore/internal/infrastructure/ratelimit"
	"inventorycore/internal/metrics"
	"inventorycore/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	Logger  *logger.Logger
	Service *inventory.Service
	Stock   inventory.StockStore

	RateLimiter *ratelimit.Limiter
	LoadShedder *loadshed.Shedder
	APIBulkhead *bulkhead.Bulkhead
	Breakers    []*breaker.Breaker
	Metrics     *metrics.Sink
}

// NewRouter creates and configures the Gin router.
//
// Flow of a write command mirrors the command core's own admission order:
// Recovery -> Trace -> Logger -> ErrorHandler, then for mutating routes
// RateLimit (C7) -> LoadShed (C9) -> Bulkhead (C8) -> handler (C6).
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.Stock, cfg.Breakers...)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Metrics.Registry, promhttp.HandlerOpts{})))
	}

	inventoryHandler := handlers.NewInventoryHandler(cfg.Service, cfg.Stock)

	stores := router.Group("/stores/:storeId/inventory/:sku")
	stores.GET("", inventoryHandler.Get)

	mutating := stores.Group("")
	mutating.Use(middleware.RateLimit(cfg.RateLimiter, cfg.Metrics))
	mutating.Use(middleware.LoadShed(cfg.LoadShedder, cfg.Metrics))
	mutating.Use(middleware.Bulkhead(cfg.APIBulkhead))
	mutating.POST("/adjust", inventoryHandler.Adjust)
	mutating.POST("/reserve", inventoryHandler.Reserve)

	return router
}
