package handlers

import (
	"github.com/gin-gonic/gin"

	"inventorycore/internal/domain/inventory"
	"inventorycore/internal/infrastructure/http/v1/dto"
	"inventorycore/internal/infrastructure/http/v1/precondition"
)

// InventoryHandler serves the three HTTP operations the write path
// exposes: read a stock record, adjust it by a signed delta, reserve a
// non-negative quantity against it.
type InventoryHandler struct {
	*BaseHandler
	service *inventory.Service
	stock   inventory.StockStore
}

// NewInventoryHandler creates a new inventory handler.
func NewInventoryHandler(service *inventory.Service, stock inventory.StockStore) *InventoryHandler {
	return &InventoryHandler{BaseHandler: NewBaseHandler(), service: service, stock: stock}
}

// Get handles GET /stores/{storeId}/inventory/{sku}.
func (h *InventoryHandler) Get(c *gin.Context) {
	storeID, sku := c.Param("storeId"), c.Param("sku")

	record, err := h.stock.Get(c.Request.Context(), inventory.Identity{StoreID: storeID, SKU: sku})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromStockRecord(record), record.Version)
}

// Adjust handles POST /stores/{storeId}/inventory/{sku}/adjust.
func (h *InventoryHandler) Adjust(c *gin.Context) {
	storeID, sku := c.Param("storeId"), c.Param("sku")

	var req dto.AdjustRequest
	if !h.BindJSON(c, &req) {
		return
	}

	expectedVersion, err := h.resolveExpectedVersion(c, req.ExpectedVersion)
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.service.Adjust(c.Request.Context(), inventory.AdjustInput{
		StoreID:         storeID,
		SKU:             sku,
		Delta:           req.Delta,
		ExpectedVersion: expectedVersion,
	}, c.GetHeader("Idempotency-Key"))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromCommandResult(result), result.Version)
}

// Reserve handles POST /stores/{storeId}/inventory/{sku}/reserve.
func (h *InventoryHandler) Reserve(c *gin.Context) {
	storeID, sku := c.Param("storeId"), c.Param("sku")

	var req dto.ReserveRequest
	if !h.BindJSON(c, &req) {
		return
	}

	expectedVersion, err := h.resolveExpectedVersion(c, req.ExpectedVersion)
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.service.Reserve(c.Request.Context(), inventory.ReserveInput{
		StoreID:         storeID,
		SKU:             sku,
		Qty:             req.Qty,
		ExpectedVersion: expectedVersion,
	}, c.GetHeader("Idempotency-Key"))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromCommandResult(result), result.Version)
}

// resolveExpectedVersion prefers the If-Match header over the request
// body's expectedVersion field, per the HTTP surface's precedence rule.
func (h *InventoryHandler) resolveExpectedVersion(c *gin.Context, bodyVersion *int) (*int, error) {
	if ifMatch := c.GetHeader("If-Match"); ifMatch != "" {
		return precondition.ParseVersion(ifMatch)
	}
	return bodyVersion, nil
}
