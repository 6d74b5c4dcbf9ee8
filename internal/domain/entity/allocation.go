package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una reserva de stock.
const (
	AllocationPending   = "PENDING"   // reservada, aún no consumida
	AllocationCommitted = "COMMITTED" // convertida en movimiento de consumo
	AllocationReleased  = "RELEASED"  // devuelta al pool disponible
)

// Allocation representa una reserva de stock contra una orden, previa al consumo.
// Invariante: la suma de reservas activas (PENDING) de un ítem nunca excede su cantidad disponible.
type Allocation struct {
	ID          string
	OrderRef    string
	PartID      string
	StockItemID string
	Quantity    decimal.Decimal
	State       string // PENDING, COMMITTED, RELEASED
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Active indica si la reserva sigue ocupando stock disponible.
func (a *Allocation) Active() bool {
	return a.State == AllocationPending
}
