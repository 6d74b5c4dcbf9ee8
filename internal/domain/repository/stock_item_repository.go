package repository

import "github.com/jhoicas/Inventario-core/internal/domain/entity"

// StockItemRepository define el puerto para consultar/actualizar ítems de stock.
// Usado dentro de transacciones para garantizar consistencia.
type StockItemRepository interface {
	GetByID(id string) (*entity.StockItem, error)
	// GetForUpdate bloquea la fila para update (SELECT FOR UPDATE).
	GetForUpdate(id string) (*entity.StockItem, error)
	Upsert(item *entity.StockItem) error
	// ListAvailableForUpdate devuelve los ítems asignables (estado OK, cantidad > 0)
	// de una pieza, bloqueados, ordenados FIFO por fecha de recepción y,
	// a igual fecha, por vencimiento más próximo. Orden estable por ID.
	ListAvailableForUpdate(partID string) ([]*entity.StockItem, error)
}
