package repository

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-core/internal/domain/entity"
)

// AllocationRepository define el puerto de persistencia de reservas de stock.
type AllocationRepository interface {
	Create(alloc *entity.Allocation) error
	GetByID(id string) (*entity.Allocation, error)
	// GetForUpdate bloquea la reserva para cambio de estado.
	GetForUpdate(id string) (*entity.Allocation, error)
	Update(alloc *entity.Allocation) error
	ListByOrderRef(orderRef string) ([]*entity.Allocation, error)
	// SumActiveByStockItem suma las reservas PENDING de un ítem
	// (lo ya comprometido contra su cantidad disponible).
	SumActiveByStockItem(stockItemID string) (decimal.Decimal, error)
}
