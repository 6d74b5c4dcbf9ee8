package allocation

import (
	"context"

	"github.com/jhoicas/Inventario-core/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios
// atados a esa tx. La reserva y el commit de reservas dependen de esta atomicidad:
// dos Allocate concurrentes sobre el mismo ítem se serializan por el bloqueo de fila.
type TxRunner interface {
	RunAllocation(ctx context.Context, fn func(
		itemRepo repository.StockItemRepository,
		movRepo repository.StockMovementRepository,
		allocRepo repository.AllocationRepository,
	) error) error
}
