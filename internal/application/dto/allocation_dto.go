package dto

import "github.com/shopspring/decimal"

// Estados del resultado de una reserva. PARTIAL es un resultado de negocio
// válido (faltante reportado), no un error.
const (
	AllocationFull    = "FULL"
	AllocationPartial = "PARTIAL"
)

// AllocationLine una reserva concreta sobre un ítem de stock.
type AllocationLine struct {
	AllocationID string          `json:"allocation_id"`
	StockItemID  string          `json:"stock_item_id"`
	Quantity     decimal.Decimal `json:"quantity"`
}

// AllocationResult resultado de reservar stock de una pieza contra una orden.
type AllocationResult struct {
	OrderRef  string           `json:"order_ref"`
	PartID    string           `json:"part_id"`
	Requested decimal.Decimal  `json:"requested"`
	Allocated decimal.Decimal  `json:"allocated"`
	Shortfall decimal.Decimal  `json:"shortfall"` // Requested - Allocated
	Status    string           `json:"status"`    // FULL o PARTIAL
	Lines     []AllocationLine `json:"lines"`
}
