package memory

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-core/internal/domain/entity"
	"github.com/jhoicas/Inventario-core/internal/domain/repository"
)

var _ repository.AllocationRepository = (*AllocationRepo)(nil)

// AllocationRepo implementación en memoria de AllocationRepository.
type AllocationRepo struct {
	store *Store
}

// NewAllocationRepository construye el repositorio de reservas.
func NewAllocationRepository(store *Store) *AllocationRepo {
	return &AllocationRepo{store: store}
}

// Create agrega la reserva.
func (r *AllocationRepo) Create(alloc *entity.Allocation) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *alloc
	r.store.allocations[alloc.ID] = &cp
	return nil
}

// GetByID devuelve una copia de la reserva, o nil si no existe.
func (r *AllocationRepo) GetByID(id string) (*entity.Allocation, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	alloc, ok := r.store.allocations[id]
	if !ok {
		return nil, nil
	}
	cp := *alloc
	return &cp, nil
}

// GetForUpdate equivale a GetByID: la exclusión la garantiza la transacción.
func (r *AllocationRepo) GetForUpdate(id string) (*entity.Allocation, error) {
	return r.GetByID(id)
}

// Update reemplaza la reserva.
func (r *AllocationRepo) Update(alloc *entity.Allocation) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *alloc
	r.store.allocations[alloc.ID] = &cp
	return nil
}

// ListByOrderRef lista las reservas de una orden, ordenadas por creación e ID.
func (r *AllocationRepo) ListByOrderRef(orderRef string) ([]*entity.Allocation, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var result []*entity.Allocation
	for _, alloc := range r.store.allocations {
		if alloc.OrderRef == orderRef {
			cp := *alloc
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// SumActiveByStockItem suma las reservas PENDING que pesan sobre un ítem.
func (r *AllocationRepo) SumActiveByStockItem(stockItemID string) (decimal.Decimal, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	total := decimal.Zero
	for _, alloc := range r.store.allocations {
		if alloc.StockItemID == stockItemID && alloc.Active() {
			total = total.Add(alloc.Quantity)
		}
	}
	return total, nil
}
