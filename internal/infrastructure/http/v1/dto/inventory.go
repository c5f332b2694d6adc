package dto

import "inventorycore/internal/domain/inventory"

// AdjustRequest is the body of POST /stores/{storeId}/inventory/{sku}/adjust.
type AdjustRequest struct {
	Delta           int  `json:"delta"`
	ExpectedVersion *int `json:"expectedVersion,omitempty" binding:"omitempty,min=1"`
}

// ReserveRequest is the body of POST /stores/{storeId}/inventory/{sku}/reserve.
type ReserveRequest struct {
	Qty             int  `json:"qty" binding:"min=0"`
	ExpectedVersion *int `json:"expectedVersion,omitempty" binding:"omitempty,min=1"`
}

// StockResponse is the {qty, version} result every mutating and read route returns.
type StockResponse struct {
	Qty     int `json:"qty"`
	Version int `json:"version"`
}

// FromCommandResult converts a command result to its response shape.
func FromCommandResult(r inventory.CommandResult) StockResponse {
	return StockResponse{Qty: r.Quantity, Version: r.Version}
}

// FromStockRecord converts a stored record to its response shape.
func FromStockRecord(r inventory.StockRecord) StockResponse {
	return StockResponse{Qty: r.Quantity, Version: r.Version}
}
