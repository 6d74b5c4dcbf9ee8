package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un ítem de stock.
const (
	StockStatusOK          = "OK"
	StockStatusDamaged     = "DAMAGED"
	StockStatusQuarantined = "QUARANTINED"
)

// StockItem representa una existencia física de una pieza en una ubicación.
// Se crea con la recepción; la cantidad solo cambia vía movimientos del ledger.
// Al consumirse por completo la fila queda en cero (no se borra) para conservar trazabilidad.
type StockItem struct {
	ID         string
	PartID     string
	Location   string
	Quantity   decimal.Decimal // cantidad disponible (on hand), derivada del ledger
	Batch      string          // lote, vacío si no aplica
	Serial     string          // número de serie, vacío si no aplica
	Status     string          // OK, DAMAGED, QUARANTINED
	ReceivedAt time.Time
	ExpiresAt  *time.Time // nil si la pieza no vence
	UpdatedAt  time.Time
}

// Allocatable indica si el ítem puede reservarse (solo estado OK).
func (s *StockItem) Allocatable() bool {
	return s.Status == StockStatusOK
}
