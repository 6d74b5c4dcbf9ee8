package dto

import "github.com/shopspring/decimal"

// OrderLineInput línea de una orden nueva.
type OrderLineInput struct {
	PartID   string          `json:"part_id"`
	Quantity decimal.Decimal `json:"quantity"`
}

// CreateOrderRequest entrada para crear una orden (compra, venta o fabricación).
type CreateOrderRequest struct {
	Type  string           `json:"type"` // PURCHASE, SALES, BUILD
	Lines []OrderLineInput `json:"lines"`
}

// LineAllocationStatus estado de asignación por línea tras StartAllocation.
type LineAllocationStatus struct {
	LineNo    int             `json:"line_no"`
	PartID    string          `json:"part_id"`
	Status    string          `json:"status"`
	Shortfall decimal.Decimal `json:"shortfall"`
}

// OrderAllocationResult resultado agregado de asignar una orden completa.
type OrderAllocationResult struct {
	OrderID     string                 `json:"order_id"`
	OrderStatus string                 `json:"order_status"`
	Lines       []LineAllocationStatus `json:"lines"`
}
