package repository

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-core/internal/domain/entity"
)

// StockMovementRepository define el puerto de persistencia del ledger de stock.
// El ledger es append-only: no hay Update ni Delete.
type StockMovementRepository interface {
	Create(movement *entity.StockMovement) error
	GetByID(id string) (*entity.StockMovement, error)
	// GetByDedupKey devuelve el movimiento original de una clave de idempotencia,
	// o domain.ErrNotFound si la clave no fue usada.
	GetByDedupKey(key string) (*entity.StockMovement, error)
	ListByStockItem(stockItemID string, limit, offset int) ([]*entity.StockMovement, error)
	ListByOrderRef(orderRef string) ([]*entity.StockMovement, error)
	// SumByStockItem recalcula la cantidad disponible desde el ledger (vista materializada).
	SumByStockItem(stockItemID string) (decimal.Decimal, error)
}
