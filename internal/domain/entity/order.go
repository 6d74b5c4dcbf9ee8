package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de orden (variante etiquetada; comparten la misma máquina de estados).
const (
	OrderTypePurchase = "PURCHASE" // compra: la recepción crea stock
	OrderTypeSales    = "SALES"    // venta: reserva piezas directamente
	OrderTypeBuild    = "BUILD"    // fabricación: expande BOM y reserva componentes
)

// Estados de una orden.
const (
	OrderPending            = "PENDING"
	OrderAllocating         = "ALLOCATING"
	OrderAllocated          = "ALLOCATED"
	OrderPartiallyAllocated = "PARTIALLY_ALLOCATED"
	OrderFulfilling         = "FULFILLING"
	OrderCompleted          = "COMPLETED"
	OrderCancelled          = "CANCELLED"
)

// Estados de una línea de orden.
const (
	LinePending            = "PENDING"
	LineAllocated          = "ALLOCATED"
	LinePartiallyAllocated = "PARTIALLY_ALLOCATED"
	LineIncompleteBOM      = "INCOMPLETE_BOM"
	LineFulfilled          = "FULFILLED"
)

// OrderLine representa una línea de la orden: pieza y cantidad solicitada.
type OrderLine struct {
	LineNo   int
	PartID   string
	Quantity decimal.Decimal
	Status   string
}

// Order representa una orden de compra, venta o fabricación.
type Order struct {
	ID        string
	Type      string // PURCHASE, SALES, BUILD
	Status    string
	Lines     []OrderLine
	CreatedAt time.Time
	UpdatedAt time.Time
}

// transiciones válidas de la máquina de estados de órdenes.
var orderTransitions = map[string][]string{
	OrderPending:            {OrderAllocating, OrderCancelled},
	OrderAllocating:         {OrderAllocated, OrderPartiallyAllocated, OrderPending, OrderCancelled},
	OrderAllocated:          {OrderFulfilling, OrderCancelled},
	OrderPartiallyAllocated: {OrderFulfilling, OrderAllocating, OrderCancelled},
	OrderFulfilling:         {OrderCompleted, OrderCancelled},
	OrderCompleted:          {},
	OrderCancelled:          {},
}

// CanTransition indica si el paso de estado es válido según la máquina de estados.
func (o *Order) CanTransition(to string) bool {
	for _, next := range orderTransitions[o.Status] {
		if next == to {
			return true
		}
	}
	return false
}

// Closed indica si la orden ya no admite más operaciones.
func (o *Order) Closed() bool {
	return o.Status == OrderCompleted || o.Status == OrderCancelled
}

// WorstLineStatus devuelve el estado agregado de la orden según la peor línea:
// basta una línea parcial o con BOM incompleto para que la orden sea PARTIALLY_ALLOCATED.
func (o *Order) WorstLineStatus() string {
	status := OrderAllocated
	for _, line := range o.Lines {
		if line.Status != LineAllocated && line.Status != LineFulfilled {
			status = OrderPartiallyAllocated
			break
		}
	}
	return status
}
