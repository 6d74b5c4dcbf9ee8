package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegisterReceiptRequest entrada para registrar una recepción de stock:
// crea el ítem y su asiento RECEIPT en una sola transacción.
type RegisterReceiptRequest struct {
	PartID    string          `json:"part_id"`
	Location  string          `json:"location"`
	Quantity  decimal.Decimal `json:"quantity"`
	Batch     string          `json:"batch,omitempty"`
	Serial    string          `json:"serial,omitempty"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
	OrderRef  string          `json:"order_ref,omitempty"`
	DedupKey  string          `json:"dedup_key"`
}

// RecordMovementRequest entrada para asentar un movimiento sobre un ítem existente.
type RecordMovementRequest struct {
	StockItemID string          `json:"stock_item_id"`
	Delta       decimal.Decimal `json:"delta"` // con signo
	Reason      string          `json:"reason"`
	OrderRef    string          `json:"order_ref,omitempty"`
	DedupKey    string          `json:"dedup_key"`
}
