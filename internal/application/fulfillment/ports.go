package fulfillment

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-core/internal/application/dto"
	"github.com/jhoicas/Inventario-core/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD para las
// transiciones de estado de la orden (bloqueo de la fila de la orden).
type TxRunner interface {
	RunOrder(ctx context.Context, fn func(orderRepo repository.OrderRepository) error) error
}

// Resolver expande el BOM de una pieza (puerto hacia el resolver).
type Resolver interface {
	ResolveRequirements(ctx context.Context, partID string, quantity decimal.Decimal) (*dto.ResolutionResult, error)
}

// Allocator reserva, libera y consume stock (puerto hacia el motor de reservas).
type Allocator interface {
	Allocate(ctx context.Context, orderRef, partID string, quantity decimal.Decimal) (*dto.AllocationResult, error)
	Release(ctx context.Context, allocationID string) error
	Commit(ctx context.Context, allocationID string) error
}

// Ledger asienta recepciones y movimientos (puerto hacia el ledger de stock).
type Ledger interface {
	RegisterReceipt(ctx context.Context, in dto.RegisterReceiptRequest) (stockItemID, movementID string, err error)
	RecordMovement(ctx context.Context, in dto.RecordMovementRequest) (movementID string, err error)
}
