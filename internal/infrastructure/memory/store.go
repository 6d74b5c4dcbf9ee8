package memory

import (
	"sync"

	"github.com/jhoicas/Inventario-core/internal/domain/entity"
)

// Store almacén en memoria para tests y modo demo. Los repositorios comparten
// este estado; TxRunner serializa las transacciones y restaura un snapshot
// ante error, emulando el commit/rollback del backend PostgreSQL.
type Store struct {
	mu   sync.RWMutex // protege lecturas/escrituras individuales
	txMu sync.Mutex   // serializa transacciones completas (equivale al bloqueo de fila)

	parts       map[string]*entity.Part
	bomLines    map[string][]entity.BOMLine
	items       map[string]*entity.StockItem
	movements   []*entity.StockMovement
	movByDedup  map[string]*entity.StockMovement
	allocations map[string]*entity.Allocation
	orders      map[string]*entity.Order
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{
		parts:       make(map[string]*entity.Part),
		bomLines:    make(map[string][]entity.BOMLine),
		items:       make(map[string]*entity.StockItem),
		movByDedup:  make(map[string]*entity.StockMovement),
		allocations: make(map[string]*entity.Allocation),
		orders:      make(map[string]*entity.Order),
	}
}

// snapshot copia el estado completo para poder restaurarlo si la transacción falla.
func (s *Store) snapshot() *Store {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := NewStore()
	for id, p := range s.parts {
		cp := *p
		snap.parts[id] = &cp
	}
	for id, lines := range s.bomLines {
		snap.bomLines[id] = append([]entity.BOMLine(nil), lines...)
	}
	for id, item := range s.items {
		cp := *item
		snap.items[id] = &cp
	}
	for _, mov := range s.movements {
		cp := *mov
		snap.movements = append(snap.movements, &cp)
		if cp.DedupKey != "" {
			snap.movByDedup[cp.DedupKey] = &cp
		}
	}
	for id, alloc := range s.allocations {
		cp := *alloc
		snap.allocations[id] = &cp
	}
	for id, order := range s.orders {
		cp := *order
		cp.Lines = append([]entity.OrderLine(nil), order.Lines...)
		snap.orders[id] = &cp
	}
	return snap
}

// restore repone el estado desde un snapshot (rollback).
func (s *Store) restore(snap *Store) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parts = snap.parts
	s.bomLines = snap.bomLines
	s.items = snap.items
	s.movements = snap.movements
	s.movByDedup = snap.movByDedup
	s.allocations = snap.allocations
	s.orders = snap.orders
}
