package memory

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-core/internal/domain/entity"
	"github.com/jhoicas/Inventario-core/internal/domain/repository"
)

var _ repository.StockItemRepository = (*StockItemRepo)(nil)

// StockItemRepo implementación en memoria de StockItemRepository.
// El "bloqueo de fila" lo da el TxRunner al serializar transacciones completas.
type StockItemRepo struct {
	store *Store
}

// NewStockItemRepository construye el repositorio de ítems de stock.
func NewStockItemRepository(store *Store) *StockItemRepo {
	return &StockItemRepo{store: store}
}

// GetByID devuelve una copia del ítem, o nil si no existe.
func (r *StockItemRepo) GetByID(id string) (*entity.StockItem, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	item, ok := r.store.items[id]
	if !ok {
		return nil, nil
	}
	cp := *item
	return &cp, nil
}

// GetForUpdate equivale a GetByID: la exclusión la garantiza la transacción.
func (r *StockItemRepo) GetForUpdate(id string) (*entity.StockItem, error) {
	return r.GetByID(id)
}

// Upsert inserta o reemplaza el ítem.
func (r *StockItemRepo) Upsert(item *entity.StockItem) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *item
	r.store.items[item.ID] = &cp
	return nil
}

// ListAvailableForUpdate devuelve los ítems asignables de una pieza
// (estado OK, cantidad > 0), FIFO por recepción; a igual fecha decide
// el vencimiento más próximo y por último el ID.
func (r *StockItemRepo) ListAvailableForUpdate(partID string) ([]*entity.StockItem, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var items []*entity.StockItem
	for _, item := range r.store.items {
		if item.PartID != partID || !item.Allocatable() {
			continue
		}
		if !item.Quantity.GreaterThan(decimal.Zero) {
			continue
		}
		cp := *item
		items = append(items, &cp)
	}
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !a.ReceivedAt.Equal(b.ReceivedAt) {
			return a.ReceivedAt.Before(b.ReceivedAt)
		}
		switch {
		case a.ExpiresAt != nil && b.ExpiresAt == nil:
			return true
		case a.ExpiresAt == nil && b.ExpiresAt != nil:
			return false
		case a.ExpiresAt != nil && b.ExpiresAt != nil && !a.ExpiresAt.Equal(*b.ExpiresAt):
			return a.ExpiresAt.Before(*b.ExpiresAt)
		}
		return a.ID < b.ID
	})
	return items, nil
}
