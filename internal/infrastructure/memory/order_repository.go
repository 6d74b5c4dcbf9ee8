package memory

import (
	"sort"

	"github.com/jhoicas/Inventario-core/internal/domain/entity"
	"github.com/jhoicas/Inventario-core/internal/domain/repository"
)

var _ repository.OrderRepository = (*OrderRepo)(nil)

// OrderRepo implementación en memoria de OrderRepository.
type OrderRepo struct {
	store *Store
}

// NewOrderRepository construye el repositorio de órdenes.
func NewOrderRepository(store *Store) *OrderRepo {
	return &OrderRepo{store: store}
}

func cloneOrder(order *entity.Order) *entity.Order {
	cp := *order
	cp.Lines = append([]entity.OrderLine(nil), order.Lines...)
	return &cp
}

// Create agrega la orden.
func (r *OrderRepo) Create(order *entity.Order) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.orders[order.ID] = cloneOrder(order)
	return nil
}

// GetByID devuelve una copia de la orden, o nil si no existe.
func (r *OrderRepo) GetByID(id string) (*entity.Order, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	order, ok := r.store.orders[id]
	if !ok {
		return nil, nil
	}
	return cloneOrder(order), nil
}

// GetForUpdate equivale a GetByID: la exclusión la garantiza la transacción.
func (r *OrderRepo) GetForUpdate(id string) (*entity.Order, error) {
	return r.GetByID(id)
}

// Update reemplaza la orden.
func (r *OrderRepo) Update(order *entity.Order) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.orders[order.ID] = cloneOrder(order)
	return nil
}

// List devuelve órdenes por estado (vacío = todas), ordenadas por ID (paginado).
func (r *OrderRepo) List(status string, limit, offset int) ([]*entity.Order, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	ids := make([]string, 0, len(r.store.orders))
	for id, order := range r.store.orders {
		if status != "" && order.Status != status {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var result []*entity.Order
	for i, id := range ids {
		if i < offset {
			continue
		}
		if limit > 0 && len(result) >= limit {
			break
		}
		result = append(result, cloneOrder(r.store.orders[id]))
	}
	return result, nil
}
