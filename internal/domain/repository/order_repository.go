package repository

import "github.com/jhoicas/Inventario-core/internal/domain/entity"

// OrderRepository define el puerto de persistencia de órdenes (compra, venta, fabricación).
type OrderRepository interface {
	Create(order *entity.Order) error
	GetByID(id string) (*entity.Order, error)
	// GetForUpdate bloquea la orden para transición de estado.
	GetForUpdate(id string) (*entity.Order, error)
	Update(order *entity.Order) error
	List(status string, limit, offset int) ([]*entity.Order, error)
}
