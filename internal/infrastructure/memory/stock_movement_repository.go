package memory

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-core/internal/domain"
	"github.com/jhoicas/Inventario-core/internal/domain/entity"
	"github.com/jhoicas/Inventario-core/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo implementación en memoria del ledger (append-only).
type StockMovementRepo struct {
	store *Store
}

// NewStockMovementRepository construye el repositorio de movimientos.
func NewStockMovementRepository(store *Store) *StockMovementRepo {
	return &StockMovementRepo{store: store}
}

// Create agrega un asiento. Una DedupKey repetida falla con domain.ErrDuplicate.
func (r *StockMovementRepo) Create(movement *entity.StockMovement) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if movement.DedupKey != "" {
		if _, exists := r.store.movByDedup[movement.DedupKey]; exists {
			return domain.ErrDuplicate
		}
	}
	cp := *movement
	r.store.movements = append(r.store.movements, &cp)
	if cp.DedupKey != "" {
		r.store.movByDedup[cp.DedupKey] = &cp
	}
	return nil
}

// GetByID busca un asiento por ID.
func (r *StockMovementRepo) GetByID(id string) (*entity.StockMovement, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, mov := range r.store.movements {
		if mov.ID == id {
			cp := *mov
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

// GetByDedupKey devuelve el asiento original de una clave de idempotencia.
func (r *StockMovementRepo) GetByDedupKey(key string) (*entity.StockMovement, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	mov, ok := r.store.movByDedup[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *mov
	return &cp, nil
}

// ListByStockItem lista los asientos de un ítem en orden de inserción.
func (r *StockMovementRepo) ListByStockItem(stockItemID string, limit, offset int) ([]*entity.StockMovement, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var result []*entity.StockMovement
	skipped := 0
	for _, mov := range r.store.movements {
		if mov.StockItemID != stockItemID {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		if limit > 0 && len(result) >= limit {
			break
		}
		cp := *mov
		result = append(result, &cp)
	}
	return result, nil
}

// ListByOrderRef lista los asientos originados por una orden.
func (r *StockMovementRepo) ListByOrderRef(orderRef string) ([]*entity.StockMovement, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var result []*entity.StockMovement
	for _, mov := range r.store.movements {
		if mov.OrderRef == orderRef {
			cp := *mov
			result = append(result, &cp)
		}
	}
	return result, nil
}

// SumByStockItem re-deriva el total de un ítem sumando sus deltas.
func (r *StockMovementRepo) SumByStockItem(stockItemID string) (decimal.Decimal, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	total := decimal.Zero
	for _, mov := range r.store.movements {
		if mov.StockItemID == stockItemID {
			total = total.Add(mov.Quantity)
		}
	}
	return total, nil
}
