package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Motivos de movimiento de stock.
const (
	ReasonReceipt     = "RECEIPT"     // entrada por recepción
	ReasonConsumption = "CONSUMPTION" // salida por consumo (commit de reserva)
	ReasonTransfer    = "TRANSFER"    // traslado entre ubicaciones
	ReasonAdjustment  = "ADJUSTMENT"  // ajuste manual
	ReasonReversal    = "REVERSAL"    // contra-asiento de una orden revertida
)

// StockMovement representa un asiento inmutable del ledger de stock.
// Nunca se modifica ni se borra: las correcciones son asientos compensatorios nuevos.
type StockMovement struct {
	ID          string
	StockItemID string
	Quantity    decimal.Decimal // delta con signo: positivo entrada, negativo salida
	Reason      string
	OrderRef    string // referencia a la orden que originó el movimiento, vacío si no aplica
	DedupKey    string // clave de idempotencia provista por el caller; única en el ledger
	CreatedAt   time.Time
}
