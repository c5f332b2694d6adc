// Package handlers provides HTTP request handlers.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"inventorycore/internal/domain/inventory"
	"inventorycore/internal/infrastructure/breaker"
)

// HealthHandler provides health/readiness probes and lightweight
// introspection over the stock store and circuit breakers.
type HealthHandler struct {
	stock    inventory.StockStore
	breakers []*breaker.Breaker
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(stock inventory.StockStore, breakers ...*breaker.Breaker) *HealthHandler {
	return &HealthHandler{stock: stock, breakers: breakers}
}

// Live handles the liveness probe (is the process alive?).
// GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready handles the readiness probe: the service is ready once the stock
// store is readable and no circuit breaker is open.
// GET /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if _, err := h.stock.GetTotalCount(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "error",
			"checks": gin.H{"stockStore": "unhealthy: " + err.Error()},
		})
		return
	}

	for _, b := range h.breakers {
		if b.Snapshot() == breaker.Open {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "error",
				"checks": gin.H{"circuitBreaker": "open"},
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Info returns application information.
// GET /health/info
func (h *HealthHandler) Info(c *gin.Context) {
	total, _ := h.stock.GetTotalCount(c.Request.Context())

	breakerStates := make([]string, len(h.breakers))
	for i, b := range h.breakers {
		breakerStates[i] = b.Snapshot().String()
	}

	c.JSON(http.StatusOK, gin.H{
		"app":           "inventorycore",
		"version":       "0.1.0",
		"recordCount":   total,
		"breakerStates": breakerStates,
	})
}
